package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/kvsync/internal/session"
	"github.com/systmms/kvsync/internal/vault"
)

// NewLoginCommand creates the login command: authenticate and select the
// subscription without touching any secrets.
func NewLoginCommand(app *App) *cobra.Command {
	var storeClientSecret bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to Azure and select the subscription",
		Long: `Ensure an authenticated Azure session, running 'az login' if there is none,
then switch to the configured subscription.

With --store-client-secret, AZURE_CLIENT_SECRET is saved in the OS keyring
under AZURE_CLIENT_ID so later runs with --backend sdk can authenticate as that
service principal without the secret in the environment.

Examples:
  kvsync login --subscription 00000000-0000-0000-0000-000000000000
  AZURE_CLIENT_ID=... AZURE_CLIENT_SECRET=... kvsync login --store-client-secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			logger := app.Logger

			if storeClientSecret {
				creds := cfg.Credentials
				if err := vault.SaveClientSecret(app.Keyring, creds.ClientID, creds.ClientSecret); err != nil {
					return err
				}
				logger.Info("Client secret for %s stored in the OS keyring", creds.ClientID)
			}

			ctx, cancel := app.runContext(cmd.Context())
			defer cancel()

			client, err := app.NewClient(cfg, logger)
			if err != nil {
				return err
			}

			sessions := session.New(client, logger)
			if err := sessions.EnsureSession(ctx); err != nil {
				return err
			}
			if err := sessions.SwitchSubscription(ctx, cfg.Subscription); err != nil {
				return err
			}

			if cfg.VaultName != "" {
				logger.Info("Ready to sync vault '%s'", cfg.VaultName)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&storeClientSecret, "store-client-secret", false, "Save AZURE_CLIENT_SECRET in the OS keyring")

	return cmd
}

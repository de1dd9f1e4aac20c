package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/systmms/kvsync/internal/config"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand builds the kvsync command tree on app.
func NewRootCommand(app *App, info BuildInfo) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kvsync",
		Short: "Push and pull Azure Key Vault secrets to and from a JSON file",
		Long: `kvsync copies secrets between an Azure Key Vault and a local JSON transfer file.

  push  reads the file and sets every secret in the vault, stopping at the first failure.
  pull  fetches the vault's secrets, optionally narrowed by tags and a name glob,
        and replaces the file with them.

The subscription and vault come from flags, then AZURE_SUBSCRIPTION_ID and
AZURE_KEYVAULT_NAME (also read from --env-file), then the --config YAML file.

Examples:
  kvsync --direction pull --filename secrets.json --vaultname kv-test --tags env=prod
  kvsync pull --filename secrets.json --name 'db-*' --verbose
  kvsync push --filename secrets.json --yes`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd.Context(), app, app.Config.Direction)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&app.Flags.Subscription, "subscription", "", "Azure subscription ID (env: AZURE_SUBSCRIPTION_ID)")
	pf.StringVar(&app.Flags.VaultName, "vaultname", "", "Key Vault name (env: AZURE_KEYVAULT_NAME)")
	pf.StringVar(&app.Flags.Backend, "backend", "", "Vault client: cli (az CLI) or sdk (Azure SDK)")
	pf.StringVar(&app.Flags.AzPath, "az-path", "", "Path to the az binary (default \"az\")")
	pf.StringVar(&app.Flags.ConfigPath, "config", config.DefaultConfigPath, "YAML defaults file")
	pf.StringVar(&app.Flags.EnvFile, "env-file", config.DefaultEnvFile, "dotenv file read for AZURE_* variables")
	pf.DurationVar(&app.Flags.Timeout, "timeout", 0, "Bound the whole run (0 means no limit)")
	pf.BoolVar(&app.Flags.NoColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&app.Flags.Debug, "debug", false, "Enable debug logging")

	rootCmd.Flags().StringVar(&app.Flags.Direction, "direction", "", "push or pull")
	addTransferFlags(rootCmd.Flags(), &app.Flags)
	_ = rootCmd.MarkFlagRequired("direction")
	_ = rootCmd.MarkFlagRequired("filename")
	_ = rootCmd.RegisterFlagCompletionFunc("direction", cobra.FixedCompletions(
		[]string{directionPush, directionPull}, cobra.ShellCompDirectiveNoFileComp))
	_ = rootCmd.RegisterFlagCompletionFunc("backend", cobra.FixedCompletions(
		[]string{config.BackendCLI, config.BackendSDK}, cobra.ShellCompDirectiveNoFileComp))

	rootCmd.AddCommand(
		NewTransferCommand(app, directionPush),
		NewTransferCommand(app, directionPull),
		NewLoginCommand(app),
		NewDoctorCommand(app),
		NewCompletionCommand(app),
	)

	rootCmd.SetIn(app.Stdin)
	rootCmd.SetOut(app.Stdout)
	rootCmd.SetErr(app.Stderr)

	return rootCmd
}

func addTransferFlags(fs *pflag.FlagSet, flags *config.Flags) {
	fs.StringVarP(&flags.Filename, "filename", "f", "", "Transfer file (JSON array of {name, value, tags})")
	fs.StringArrayVarP(&flags.Tags, "tags", "t", nil, "Tag filter key=value for pull (repeatable)")
	fs.StringVarP(&flags.NamePattern, "name", "n", "", "Glob on secret names for pull (e.g. 'db-*')")
	fs.BoolVarP(&flags.Verbose, "verbose", "v", false, "Print pulled secret values")
	fs.BoolVarP(&flags.AssumeYes, "yes", "y", false, "Skip the confirmation prompt")
	fs.StringVar(&flags.MetricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")
}

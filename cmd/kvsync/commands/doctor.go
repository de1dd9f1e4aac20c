package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/kvsync/internal/config"
	dserrors "github.com/systmms/kvsync/internal/errors"
)

// CheckResult is one row of the doctor report.
type CheckResult struct {
	Name       string
	OK         bool
	Message    string
	Suggestion string
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand(app *App) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the az CLI, Azure session and resolved configuration",
		Long: `Verify that kvsync can run.

This command checks:
- The az CLI is installed (needed for login and the cli backend)
- A subscription and vault name resolve, and from where
- An authenticated Azure session exists

It never prompts, logs in or reads secret values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			ctx, cancel := app.runContext(cmd.Context())
			defer cancel()

			results := []CheckResult{
				checkAzBinary(app, cfg),
				checkConfigFile(app.Flags.ConfigPath),
				checkValue("subscription", cfg.Subscription, cfg.Sources["subscription"], "Pass --subscription or set "+config.EnvSubscription),
				checkValue("vault", cfg.VaultName, cfg.Sources["vault"], "Pass --vaultname or set "+config.EnvVaultName),
			}
			if cfg.Backend == config.BackendSDK {
				results = append(results, checkCredentials(cfg))
			}

			session := CheckResult{Name: "session"}
			client, err := app.NewClient(cfg, app.Logger)
			if err == nil {
				err = client.GetAccountInfo(ctx)
			}
			if err != nil {
				session.Message = "not authenticated"
				session.Suggestion = "Run 'kvsync login'"
				if hint := dserrors.AzureSuggestion(err); hint != "" {
					session.Suggestion = hint
				}
				app.Logger.Debug("session check: %v", err)
			} else {
				session.OK = true
				session.Message = "authenticated (" + cfg.Backend + " backend)"
			}
			results = append(results, session)

			displayCheckResults(app.Stdout, results, verbose)

			passed := 0
			for _, r := range results {
				if r.OK {
					passed++
				}
			}
			fmt.Fprintf(app.Stdout, "\nSummary: %d/%d checks passed\n", passed, len(results))
			if passed < len(results) {
				return dserrors.UserError{
					Message:    "some checks failed",
					Suggestion: "Run 'kvsync doctor --verbose' for suggestions",
				}
			}

			app.Logger.Info("Ready to sync!")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show suggestions for failed checks")

	return cmd
}

func checkAzBinary(app *App, cfg *config.Config) CheckResult {
	r := CheckResult{Name: "az cli"}
	path, err := app.LookPath(cfg.AzPath)
	if err != nil {
		r.Message = cfg.AzPath + " not found"
		r.Suggestion = "Install the Azure CLI: https://learn.microsoft.com/cli/azure/install-azure-cli"
		if cfg.Backend == config.BackendSDK && cfg.Credentials.ServicePrincipal() {
			r.OK = true
			r.Message += " (not needed for service principal)"
		}
		return r
	}
	r.OK = true
	r.Message = path
	return r
}

func checkConfigFile(path string) CheckResult {
	r := CheckResult{Name: "config file", OK: true}
	switch {
	case path == "":
		r.Message = "none"
	case fileExists(path):
		r.Message = path
	default:
		r.Message = path + " (absent, using defaults)"
	}
	return r
}

func checkValue(name, value, source, suggestion string) CheckResult {
	if value == "" {
		return CheckResult{Name: name, Message: "not set", Suggestion: suggestion}
	}
	return CheckResult{Name: name, OK: true, Message: fmt.Sprintf("%s (from %s)", value, source)}
}

func checkCredentials(cfg *config.Config) CheckResult {
	r := CheckResult{Name: "credentials", OK: true}
	creds := cfg.Credentials
	switch {
	case creds.ServicePrincipal() && creds.ClientSecret != "":
		r.Message = "service principal " + creds.ClientID
	case creds.ServicePrincipal():
		r.Message = "service principal " + creds.ClientID + " (secret from keyring)"
	default:
		r.Message = "default Azure credential chain"
	}
	return r
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// displayCheckResults shows the checks in a formatted table
func displayCheckResults(out io.Writer, results []CheckResult, verbose bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "CHECK\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "-----\t------\t-------\n")

	for _, result := range results {
		status := "✓ ok"
		if !result.OK {
			status = "✗ failed"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", result.Name, status, result.Message)
	}

	_ = w.Flush()

	if verbose {
		for _, result := range results {
			if !result.OK && result.Suggestion != "" {
				fmt.Fprintf(out, "\n%s: %s\n", result.Name, result.Suggestion)
			}
		}
	}
}

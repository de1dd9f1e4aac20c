package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/systmms/kvsync/internal/confirm"
	dserrors "github.com/systmms/kvsync/internal/errors"
	"github.com/systmms/kvsync/internal/metrics"
	"github.com/systmms/kvsync/internal/session"
	"github.com/systmms/kvsync/internal/transfer"
)

const (
	directionPush = transfer.DirectionPush
	directionPull = transfer.DirectionPull
)

// NewTransferCommand creates the push or pull subcommand. Both behave like
// the root command with --direction set.
func NewTransferCommand(app *App, direction string) *cobra.Command {
	short := "Set every secret from the transfer file in the vault"
	if direction == directionPull {
		short = "Replace the transfer file with secrets fetched from the vault"
	}

	cmd := &cobra.Command{
		Use:   direction,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd.Context(), app, direction)
		},
	}

	addTransferFlags(cmd.Flags(), &app.Flags)
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}

// runTransfer is start -> authenticate -> select subscription -> confirm -> push|pull.
// Every configuration check happens before the first remote call.
func runTransfer(parent context.Context, app *App, direction string) error {
	cfg := app.Config
	logger := app.Logger

	if direction != directionPush && direction != directionPull {
		return dserrors.ConfigError{
			Field:      "direction",
			Value:      direction,
			Message:    "direction must be push or pull",
			Suggestion: "Pass --direction push or --direction pull",
		}
	}
	if err := cfg.RequireTarget(); err != nil {
		return err
	}
	if direction == directionPull {
		if err := transfer.ValidatePattern(cfg.NamePattern); err != nil {
			return err
		}
	} else if cfg.NamePattern != "" || len(cfg.Tags) > 0 {
		logger.Warn("--name and --tags only apply to pull; pushing every record in %s", cfg.Filename)
	}

	ctx, cancel := app.runContext(parent)
	defer cancel()

	recorder := metrics.NewRecorder()
	defer func() {
		if err := recorder.WriteFile(cfg.MetricsFile); err != nil {
			logger.Warn("Could not write metrics to %s: %v", cfg.MetricsFile, err)
		}
	}()

	client, err := app.NewClient(cfg, logger)
	if err != nil {
		recorder.Finished(direction, metrics.StatusFailure, app.Now())
		return err
	}

	sessions := session.New(client, logger)
	if err := sessions.EnsureSession(ctx); err != nil {
		recorder.Finished(direction, metrics.StatusFailure, app.Now())
		return err
	}
	if err := sessions.SwitchSubscription(ctx, cfg.Subscription); err != nil {
		recorder.Finished(direction, metrics.StatusFailure, app.Now())
		return err
	}

	gate := &confirm.Gate{In: app.Stdin, Out: app.Stdout, AssumeYes: cfg.AssumeYes}
	if !gate.Confirm(direction, cfg.VaultName) {
		recorder.Finished(direction, metrics.StatusCancelled, app.Now())
		return dserrors.ErrCancelled
	}

	engine := transfer.NewEngine(client, transfer.WithLogger(logger), transfer.WithMetrics(recorder))
	switch direction {
	case directionPush:
		result, err := engine.Push(ctx, cfg.VaultName, cfg.Filename)
		if err != nil {
			return err
		}
		logger.Debug("pushed %d secrets", len(result.Pushed))
	default:
		result, err := engine.Pull(ctx, transfer.PullOptions{
			Vault:       cfg.VaultName,
			Tags:        cfg.Tags,
			Path:        cfg.Filename,
			NamePattern: cfg.NamePattern,
			Verbose:     cfg.Verbose,
		})
		if err != nil {
			return err
		}
		if len(result.Failed) > 0 {
			logger.Warn("%d of %d secrets could not be pulled", len(result.Failed), len(result.Failed)+len(result.Records)+result.Skipped)
		}
	}
	return nil
}

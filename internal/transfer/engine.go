package transfer

import (
	"context"
	"fmt"
	"time"

	dserrors "github.com/systmms/kvsync/internal/errors"
	"github.com/systmms/kvsync/internal/logging"
	"github.com/systmms/kvsync/internal/metrics"
	"github.com/systmms/kvsync/internal/vault"
)

// Directions.
const (
	DirectionPush = "push"
	DirectionPull = "pull"
)

// Engine runs push and pull against a vault client.
type Engine struct {
	client  vault.Client
	logger  *logging.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the console logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records run counters in m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates a transfer engine.
func NewEngine(client vault.Client, opts ...Option) *Engine {
	e := &Engine{
		client: client,
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PushResult summarizes a push.
type PushResult struct {
	Pushed []string
}

// Push sets every record in path into vault, in file order. The first
// malformed record or failed write stops the run.
func (e *Engine) Push(ctx context.Context, vaultName, path string) (result PushResult, err error) {
	defer func() { e.finish(DirectionPush, err) }()

	entries, err := readEntries(path)
	if err != nil {
		e.logger.Error("Error reading %s", path)
		return result, err
	}
	e.logger.Debug("loaded %d records from %s", len(entries), path)

	for i, raw := range entries {
		rec, err := decodeEntry(raw)
		if err != nil {
			err = dserrors.E("push", dserrors.KindMalformedInput, dserrors.UserError{
				Message:    fmt.Sprintf("Malformed secret entry: record %d", i),
				Details:    err.Error(),
				Suggestion: "Every entry is an object with string name and value and an optional tags object of strings",
				Err:        err,
			})
			e.logger.Error("%v", err)
			return result, err
		}
		if err := validateRecord(i, rec); err != nil {
			e.logger.Error("%v", err)
			return result, err
		}

		tags := FlattenTags(rec.Tags)
		e.logger.Debug("pushing %s with %d tags", rec.Name, len(tags))
		if err := e.client.SetSecret(ctx, vaultName, rec.Name, rec.Value, tags); err != nil {
			e.metrics.Failed(DirectionPush)
			e.logger.Error("Error pushing secret %s", rec.Name)
			e.logDiagnostic(err)
			return result, dserrors.E("push "+rec.Name, dserrors.KindRemoteCallFailure, err)
		}

		e.metrics.Pushed()
		result.Pushed = append(result.Pushed, rec.Name)
		e.logger.Info("Secret %s pushed successfully", rec.Name)
	}

	return result, nil
}

func validateRecord(index int, rec vault.Record) error {
	var missing string
	switch {
	case rec.Name == "":
		missing = "name"
	case rec.Value == "":
		missing = "value"
	default:
		return nil
	}

	label := fmt.Sprintf("record %d", index)
	if rec.Name != "" {
		label += fmt.Sprintf(" (%s)", rec.Name)
	}
	return dserrors.E("push", dserrors.KindMalformedInput, dserrors.UserError{
		Message:    fmt.Sprintf("Malformed secret entry: %s is missing '%s'", label, missing),
		Suggestion: "Every entry needs a non-empty name and value",
	})
}

// PullOptions selects what a pull fetches and where it goes.
type PullOptions struct {
	Vault       string
	Tags        map[string]string
	Path        string
	NamePattern string
	Verbose     bool
}

// PullResult summarizes a pull.
type PullResult struct {
	Records []vault.Record
	Failed  []string
	Skipped int
}

// Pull fetches the secrets matching opts and replaces opts.Path with them.
// A failed listing leaves the file untouched; a failed fetch only drops that
// secret.
func (e *Engine) Pull(ctx context.Context, opts PullOptions) (result PullResult, err error) {
	defer func() { e.finish(DirectionPull, err) }()

	if err := ValidatePattern(opts.NamePattern); err != nil {
		return result, err
	}

	ids, err := e.client.ListSecrets(ctx, opts.Vault, opts.Tags)
	if err != nil {
		e.logger.Error("Error fetching secrets")
		e.logDiagnostic(err)
		return result, dserrors.E("list secrets", dserrors.KindRemoteCallFailure, err)
	}
	e.logger.Debug("listing returned %d secrets", len(ids))

	result.Records = []vault.Record{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec, err := e.client.ShowSecret(ctx, id)
		if err != nil {
			e.metrics.Failed(DirectionPull)
			result.Failed = append(result.Failed, id)
			e.logger.Error("Error pulling secret %s", id)
			e.logDiagnostic(err)
			continue
		}
		if rec.Tags == nil {
			rec.Tags = map[string]string{}
		}

		if !MatchName(opts.NamePattern, rec.Name) {
			e.metrics.Skipped()
			result.Skipped++
			e.logger.Debug("%s does not match %q", rec.Name, opts.NamePattern)
			continue
		}

		result.Records = append(result.Records, rec)
		e.metrics.Pulled()
		if opts.Verbose {
			e.logger.Info("Secret %s pulled successfully: value=%s tags=%v", rec.Name, rec.Value, rec.Tags)
		} else {
			e.logger.Info("Secret %s pulled successfully (value hidden)", rec.Name)
		}
	}

	if err := WriteFile(opts.Path, result.Records); err != nil {
		e.logger.Error("Error writing %s", opts.Path)
		return result, err
	}
	e.logger.Info("Secrets saved to %s", opts.Path)

	return result, nil
}

func (e *Engine) logDiagnostic(err error) {
	var cmdErr dserrors.CommandError
	if dserrors.As(err, &cmdErr) && cmdErr.Stderr != "" {
		e.logger.Detail(cmdErr.Stderr)
		return
	}
	e.logger.Detail(err.Error())
}

func (e *Engine) finish(direction string, err error) {
	status := metrics.StatusSuccess
	switch {
	case dserrors.IsCancelled(err):
		status = metrics.StatusCancelled
	case err != nil:
		status = metrics.StatusFailure
	}
	e.metrics.Finished(direction, status, e.now())
}

package pipeline

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
)

// Sentinel errors for the failure classes the process reports through its
// exit code. Wrap them with eris so call sites keep their context.
var (
	// ErrConfig marks a configuration failure detected before the run:
	// invalid dictionary, unreadable keyword file, bad option values.
	ErrConfig = errors.New("configuration error")

	// ErrTotalFetchFailure marks a run where every source came back empty.
	ErrTotalFetchFailure = errors.New("zero items fetched across all sources")
)

// Process exit codes. A report produced under partial failure or a flagged
// LLM failure still exits zero; only a run with nothing to report fails.
const (
	ExitOK           = 0
	ExitConfig       = 1
	ExitFetchFailure = 2
	ExitInternal     = 3
)

// ConfigError wraps err into the ErrConfig class.
func ConfigError(err error, msg string) error {
	return eris.Wrap(errors.Join(ErrConfig, err), msg)
}

// ExitCode maps an error from Run (or setup) to the process exit code.
// Cancellation has no code of its own; an interrupted run exits as an
// internal failure after discarding its artifacts.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfig):
		return ExitConfig
	case errors.Is(err, ErrTotalFetchFailure):
		return ExitFetchFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ExitInternal
	default:
		return ExitInternal
	}
}

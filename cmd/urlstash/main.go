package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ratchetapps/urlstash/internal/services"
)

const (
	exitFailure     = 1
	exitFatal       = 2
	exitInterrupted = 130
)

// exitCode maps an Execute error to the process exit status. Interrupted
// scans abandon their batch before unwinding, so cancellation is a clean
// stop rather than a failure worth printing. Configuration and catalog
// connectivity errors get a distinct status for scripted callers.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case services.IsFatal(err):
		return exitFatal
	default:
		return exitFailure
	}
}

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

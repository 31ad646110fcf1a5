package main

import (
	"fmt"
	"os"

	"github.com/vitadek/starcharts/internal/dispatcher"
)

// emit writes the tool's JSON response to stdout
// "CLI surface" contract and sets the process exit code from the
// error's apperr.Kind. It never itself calls os.Exit — the caller's
// RunE return value (via cobra's SilenceErrors/SilenceUsage) drives
// main's final os.Exit so deferred cleanup in Execute runs first.
func emit(result any, err error) error {
	body, encErr := dispatcher.Encode(result, err)
	if encErr != nil {
		return encErr
	}
	fmt.Fprintln(os.Stdout, string(body))
	exitCode = dispatcher.ExitCode(err)
	return nil
}

// exitCode is read by main after rootCmd.Execute returns; cobra's RunE
// contract has no channel for a custom exit code, so this mirrors the
// teacher's own package-level state idiom (ServerUUID, ServerLoc in
// globals.go) for the one value that genuinely needs to cross that
// boundary.
var exitCode int

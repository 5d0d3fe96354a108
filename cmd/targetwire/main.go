// Package main provides the targetwire CLI entrypoint.
//
// Usage:
//
//	targetwire <command> [subcommand] [options]
//
// Exit codes for decode, stream and listen:
//   - 0: success
//   - 1: a record failed to decode
//   - 2: configuration error
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/targetwire/cli/cmd"
	"github.com/pithecene-io/targetwire/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "targetwire",
		Usage:          "Tracked-target wire codec, stream and transport tools",
		Version:        fmt.Sprintf("%s (protocol %d, commit: %s)", types.Version, types.ProtocolVersion, commit),
		ExitErrHandler: exitErrHandler,
		Commands:       cmd.Commands(commit),
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus maps err to a process exit code and the message to print.
// cli.Exit("", N) prints nothing; any other error exits 1.
func exitStatus(err error) (int, string) {
	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg == fmt.Sprintf("exit status %d", code) {
			msg = ""
		}
		return code, msg
	}

	return 1, fmt.Sprintf("Error: %v", err)
}

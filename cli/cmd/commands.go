package cmd

import "github.com/urfave/cli/v2"

// Commands returns every targetwire command in help order.
func Commands(commit string) []*cli.Command {
	return []*cli.Command{
		EncodeCommand(),
		DecodeCommand(),
		EmitCommand(),
		StreamCommand(),
		ListenCommand(),
		StatsCommand(),
		DebugCommand(),
		VersionCommand(commit),
	}
}

// Package cmd provides CLI commands for the targetwire binary.
package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/targetwire/lode"
)

// Exit codes shared by the commands that consume records.
const (
	exitSuccess       = 0
	exitDecodeFailure = 1
	exitConfigError   = 2
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for select read-only commands (decode, stats).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (decode, stats only)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// TUIReadOnlyFlags returns flags for commands that support TUI mode.
// This is an alias for ReadOnlyFlags, kept for documentation clarity.
func TUIReadOnlyFlags() []cli.Flag {
	return ReadOnlyFlags()
}

// ConfigFlag points at a targetwire.yaml file.
var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "Path to targetwire.yaml (flags override file values)",
	EnvVars: []string{"TARGETWIRE_CONFIG"},
}

// CameraFlag names the camera a stream belongs to.
var CameraFlag = &cli.StringFlag{
	Name:  "camera",
	Usage: "Camera name (partition key and log field)",
}

// LogLevelFlag sets the zap level for command logs.
var LogLevelFlag = &cli.StringFlag{
	Name:  "log-level",
	Usage: "Log level: debug, info, warn, error",
}

// inputFlags select the bytes a command reads.
func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "in",
			Aliases: []string{"i"},
			Usage:   "Input file (default: stdin)",
		},
		&cli.BoolFlag{
			Name:  "hex",
			Usage: "Input is hex text instead of raw bytes",
		},
	}
}

// storageFlags configure the lode recorder and readers.
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "storage-dataset", Usage: "Lode dataset ID (default: \"" + lode.DefaultDataset + "\")"},
		&cli.StringFlag{Name: "storage-backend", Usage: "Storage backend: fs, memory or s3"},
		&cli.StringFlag{Name: "storage-path", Usage: "Storage path (fs: directory, s3: bucket/prefix)"},
		&cli.StringFlag{Name: "storage-region", Usage: "AWS region for S3 backend"},
		&cli.StringFlag{Name: "storage-endpoint", Usage: "Custom S3 endpoint (MinIO and other S3-compatible stores)"},
	}
}

// adapterFlags configure the publish transport.
func adapterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "adapter", Usage: "Publish adapter: redis or webhook"},
		&cli.StringFlag{Name: "adapter-url", Usage: "Adapter URL (redis://host:port/db or https://...)"},
		&cli.StringFlag{Name: "adapter-channel", Usage: "Redis channel name"},
		&cli.DurationFlag{Name: "adapter-timeout", Usage: "Per-publish timeout"},
		&cli.IntFlag{Name: "adapter-retries", Usage: "Retry attempts on publish failure"},
	}
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/targetwire/cli/render"
	"github.com/pithecene-io/targetwire/cli/tui"
	"github.com/pithecene-io/targetwire/lode"
)

// statsTimeout bounds every lode query.
const statsTimeout = 30 * time.Second

// StatsCommand returns the stats command with subcommands.
// Stats reads what stream recorded; it never writes.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show recorded session metrics and targets",
		Subcommands: []*cli.Command{
			statsSessionCommand(),
			statsTargetsCommand(),
		},
	}
}

func statsQueryFlags() []cli.Flag {
	flags := append(TUIReadOnlyFlags(), ConfigFlag, CameraFlag,
		&cli.StringFlag{Name: "session-id", Usage: "Restrict to one stream session"},
	)
	return append(flags, storageFlags()...)
}

func statsSessionCommand() *cli.Command {
	return &cli.Command{
		Name:   "session",
		Usage:  "Show the latest recorded session metrics",
		Flags:  statsQueryFlags(),
		Action: statsSessionAction,
	}
}

func statsSessionAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	ctx, cancel := context.WithTimeout(c.Context, statsTimeout)
	defer cancel()

	ds, err := buildReadDataset(ctx, cfg.Storage)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to initialize storage reader: %v", err), exitConfigError)
	}

	// The camera filter applies only when the user named one.
	camera := ""
	if c.IsSet("camera") {
		camera = cfg.Camera
	}
	record, err := lode.QueryLatestMetrics(ctx, ds, camera, c.String("session-id"))
	if err != nil {
		return fmt.Errorf("failed to read metrics from Lode: %w", err)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewStatsSession, &record.Snapshot)
	}
	return r.Render(record)
}

func statsTargetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "targets",
		Usage: "List recorded target rows",
		Flags: append(statsQueryFlags(),
			&cli.IntFlag{Name: "fiducial", Usage: "Only rows for this fiducial ID"},
			&cli.BoolFlag{Name: "pose-only", Usage: "Only rows with a computed pose"},
		),
		Action: statsTargetsAction,
	}
}

func statsTargetsAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for stats targets", exitConfigError)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	ctx, cancel := context.WithTimeout(c.Context, statsTimeout)
	defer cancel()

	ds, err := buildReadDataset(ctx, cfg.Storage)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to initialize storage reader: %v", err), exitConfigError)
	}

	filter := lode.TargetFilter{SessionID: c.String("session-id"), PoseOnly: c.Bool("pose-only")}
	if c.IsSet("camera") {
		filter.Camera = cfg.Camera
	}
	if c.IsSet("fiducial") {
		id := int32(c.Int("fiducial"))
		filter.FiducialID = &id
	}

	rows, err := lode.QueryTargets(ctx, ds, filter)
	if err != nil {
		return fmt.Errorf("failed to read targets from Lode: %w", err)
	}
	return r.Render(rows)
}

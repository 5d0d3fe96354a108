package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/targetwire/ipc"
	"github.com/pithecene-io/targetwire/metrics"
	"github.com/pithecene-io/targetwire/sim"
	"github.com/pithecene-io/targetwire/types"
)

// EmitCommand returns the emit command.
// Emit writes a framed stream of synthetic results, bracketed by hello and
// bye control frames, for exercising stream and the transports.
func EmitCommand() *cli.Command {
	return &cli.Command{
		Name:  "emit",
		Usage: "Write a synthetic framed result stream",
		Flags: []cli.Flag{
			ConfigFlag,
			CameraFlag,
			LogLevelFlag,
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output file (default: stdout)",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of results to emit",
				Value: 50,
			},
			&cli.Int64Flag{
				Name:  "start",
				Usage: "First frame index",
			},
			&cli.IntSliceFlag{
				Name:  "fiducial",
				Usage: "Fiducial IDs in view (repeatable)",
				Value: cli.NewIntSlice(1, 2),
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Pipeline seed",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "no-control",
				Usage: "Omit the hello and bye control frames",
			},
		},
		Action: emitAction,
	}
}

func emitAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	if c.Int("count") < 0 {
		return cli.Exit("--count must be >= 0", exitConfigError)
	}

	sessionID := uuid.NewString()
	logger, err := newLogger(c, cfg, sessionID)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer func() { _ = logger.Sync() }()

	ids := c.IntSlice("fiducial")
	fiducials := make([]int32, len(ids))
	for i, id := range ids {
		fiducials[i] = int32(id)
	}
	pipeline := sim.NewPipeline(cfg.Camera, fiducials, c.Uint64("seed"))

	out, err := openOutput(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot open output: %v", err), exitConfigError)
	}
	defer func() { _ = out.Close() }()

	collector := metrics.NewCollector(cfg.Camera, sessionID, "", "")
	enc := ipc.NewFrameEncoder(out)
	control := !c.Bool("no-control")

	if control {
		n, err := enc.WriteControl(&types.ControlMessage{
			Type:            types.ControlHello,
			Camera:          cfg.Camera,
			ProtocolVersion: types.ProtocolVersion,
			Timestamp:       pipeline.Start.UnixMilli(),
		})
		if err != nil {
			return fmt.Errorf("write hello: %w", err)
		}
		collector.AddBytesOut(n)
		collector.IncControlFrame()
	}

	start := c.Int64("start")
	count := c.Int("count")
	for i := start; i < start+int64(count); i++ {
		res := pipeline.Frame(i)
		n, err := enc.WriteResult(&res)
		if err != nil {
			return fmt.Errorf("write result %d: %w", i, err)
		}
		collector.IncResultEncoded()
		collector.AddBytesOut(n)
	}

	if control {
		reason := "done"
		n, err := enc.WriteControl(&types.ControlMessage{
			Type:            types.ControlBye,
			Camera:          cfg.Camera,
			ProtocolVersion: types.ProtocolVersion,
			Timestamp:       pipeline.Start.Add(time.Duration(start+int64(count)) * pipeline.FrameInterval).UnixMilli(),
			Reason:          &reason,
		})
		if err != nil {
			return fmt.Errorf("write bye: %w", err)
		}
		collector.AddBytesOut(n)
		collector.IncControlFrame()
	}

	snap := collector.Snapshot()
	logger.Info("emit complete", map[string]any{
		"results":   snap.ResultsEncoded,
		"bytes_out": snap.BytesOut,
		"fiducials": fiducials,
	})
	return nil
}

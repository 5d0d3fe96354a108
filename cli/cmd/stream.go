package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/targetwire/adapter"
	"github.com/pithecene-io/targetwire/cli/render"
	"github.com/pithecene-io/targetwire/iox"
	"github.com/pithecene-io/targetwire/ipc"
	"github.com/pithecene-io/targetwire/lode"
	"github.com/pithecene-io/targetwire/log"
	"github.com/pithecene-io/targetwire/metrics"
	"github.com/pithecene-io/targetwire/packet"
	"github.com/pithecene-io/targetwire/policy"
	"github.com/pithecene-io/targetwire/target"
	"github.com/pithecene-io/targetwire/types"
)

// StreamCommand returns the stream command.
// Stream is the consuming end of a framed result stream: it decodes each
// frame, publishes results through the adapter and records them in lode.
//
// Exit codes:
//   - 0: every frame decoded
//   - 1: at least one frame failed to decode, or the stream was cut short
//   - 2: configuration error
func StreamCommand() *cli.Command {
	flags := []cli.Flag{
		ConfigFlag,
		CameraFlag,
		LogLevelFlag,
		FormatFlag,
		&cli.StringFlag{
			Name:    "in",
			Aliases: []string{"i"},
			Usage:   "Framed stream file (default: stdin)",
		},
		&cli.BoolFlag{
			Name:  "capture",
			Usage: "Store the raw stream bytes next to the recorded rows",
		},
		&cli.DurationFlag{
			Name:  "metrics-interval",
			Usage: "Write a metrics row at this interval (0: at end only)",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress the metrics summary",
		},
		&cli.StringFlag{
			Name:  "policy",
			Usage: "Recording policy: strict or buffered",
		},
		&cli.IntFlag{
			Name:  "buffer-results",
			Usage: "Buffered policy: flush after this many results",
		},
		&cli.Int64Flag{
			Name:  "buffer-bytes",
			Usage: "Buffered policy: flush once buffered results reach this encoded size",
		},
		&cli.DurationFlag{
			Name:  "flush-interval",
			Usage: "Buffered policy: flush when this much time has passed since the last flush",
		},
	}
	flags = append(flags, storageFlags()...)
	flags = append(flags, adapterFlags()...)

	return &cli.Command{
		Name:   "stream",
		Usage:  "Decode a framed stream, publish and record every result",
		Flags:  flags,
		Action: streamAction,
	}
}

// streamSession holds everything one stream invocation touches.
type streamSession struct {
	camera    string
	logger    *log.Logger
	collector *metrics.Collector
	adapter   adapter.Adapter
	policy    policy.Policy
	recorder  *lode.Recorder

	metricsInterval time.Duration
	lastMetrics     time.Time

	decodeFailures int
}

func streamAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	sessionID := uuid.NewString()
	logger, err := newLogger(c, cfg, sessionID)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(cfg.Camera, sessionID, cfg.Adapter.Type, cfg.Storage.Backend)

	pub, err := buildAdapter(cfg.Adapter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("adapter: %v", err), exitConfigError)
	}
	if pub != nil {
		defer func() { _ = pub.Close() }()
	}

	rec, err := buildRecorder(ctx, cfg, sessionID, collector)
	if err != nil {
		return cli.Exit(fmt.Sprintf("storage: %v", err), exitConfigError)
	}
	pol, err := buildPolicy(cfg.Stream, rec, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("policy: %v", err), exitConfigError)
	}
	// Closing the policy closes the recorder.
	defer func() { _ = pol.Close() }()

	in, err := openInput(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot open input: %v", err), exitConfigError)
	}
	defer func() { _ = in.Close() }()

	var source io.Reader = in
	var capture *bytes.Buffer
	if cfg.Stream.Capture && rec != nil {
		capture = &bytes.Buffer{}
		source = io.TeeReader(in, capture)
	}
	counter := iox.NewCountingReader(source)

	s := &streamSession{
		camera:          cfg.Camera,
		logger:          logger,
		collector:       collector,
		adapter:         pub,
		policy:          pol,
		recorder:        rec,
		metricsInterval: cfg.Stream.MetricsInterval.Duration,
		lastMetrics:     time.Now(),
	}

	started := time.Now()
	logger.Info("stream started", map[string]any{
		"adapter": cfg.Adapter.Type,
		"storage": cfg.Storage.Backend,
		"policy":  policyName(cfg.Stream, rec),
	})

	streamErr := s.run(ctx, ipc.NewFrameDecoder(counter))

	// Final writes still happen after an interrupt.
	flushCtx := context.WithoutCancel(ctx)
	if err := pol.Flush(flushCtx); err != nil {
		logger.Error("final flush failed", map[string]any{"error": err.Error()})
	}
	if capture != nil {
		name := sessionID + ".twf"
		if err := rec.PutCapture(flushCtx, name, started, capture.Bytes()); err != nil {
			logger.Warn("capture not stored", map[string]any{"error": err.Error()})
		}
	}
	s.writeMetrics(flushCtx)

	snap := collector.Snapshot()
	ps := pol.Stats()
	logger.Info("stream finished", map[string]any{
		"persisted":       ps.ResultsPersisted,
		"dropped":         ps.ResultsDropped,
		"flushes":         ps.FlushCount,
		"results":         snap.ResultsDecoded,
		"targets":         snap.TargetsDecoded,
		"missing_pose":    snap.MissingPose,
		"frame_errors":    snap.FrameErrors,
		"bytes_read":      counter.Count(),
		"duration_millis": time.Since(started).Milliseconds(),
	})

	if !c.Bool("quiet") {
		if err := r.Render(snap); err != nil {
			return err
		}
	}

	if streamErr != nil {
		return cli.Exit(fmt.Sprintf("stream aborted: %v", streamErr), exitDecodeFailure)
	}
	if s.decodeFailures > 0 {
		return cli.Exit(fmt.Sprintf("%d frame(s) failed to decode", s.decodeFailures), exitDecodeFailure)
	}
	return nil
}

// run consumes frames until a clean end of stream, a fatal framing error
// or cancellation. Only those last two are returned; per-frame failures
// are counted and skipped.
func (s *streamSession) run(ctx context.Context, dec *ipc.FrameDecoder) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := dec.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			s.collector.IncFrameError()
			s.logger.Error("stream framing failed", map[string]any{"error": err.Error()})
			return err
		}
		s.collector.AddBytesIn(frame.Size())

		msg, err := ipc.DecodeFrame(frame)
		if err != nil {
			s.collector.IncFrameError()
			fields := map[string]any{"kind": frame.Kind.String(), "size": frame.Size(), "error": err.Error()}
			if frame.Kind == ipc.KindResult {
				s.decodeFailures++
				if errors.Is(err, packet.ErrUnderflow) {
					s.collector.IncUnderflow()
				}
				s.logger.Error("result frame failed to decode", fields)
			} else {
				s.logger.Warn("frame skipped", fields)
			}
			continue
		}

		switch m := msg.(type) {
		case *target.Result:
			s.handleResult(ctx, m)
		case *types.ControlMessage:
			s.handleControl(m)
		}
		s.maybeWriteMetrics(ctx)
	}
}

func (s *streamSession) handleResult(ctx context.Context, res *target.Result) {
	s.collector.IncResultDecoded(len(res.Targets))

	for i, t := range res.Targets {
		if t.HasPose() {
			continue
		}
		s.collector.IncMissingPose()
		s.logger.Debug("target has no pose", map[string]any{
			"sequence":      res.Sequence,
			"index":         i,
			"fiducial_id":   t.FiducialID,
			"obj_detect_id": t.ObjDetectID,
		})
		if t.IsFiducial() {
			// Fiducials are expected to carry a pose.
			s.logger.Warn("fiducial target has no pose", map[string]any{
				"sequence":    res.Sequence,
				"index":       i,
				"fiducial_id": t.FiducialID,
			})
		}
	}

	if s.adapter != nil {
		if err := s.adapter.Publish(ctx, adapter.NewResultMessage(s.camera, res)); err != nil {
			s.collector.IncPublishFailure()
			s.logger.Error("publish failed", map[string]any{"sequence": res.Sequence, "error": err.Error()})
		} else {
			s.collector.IncPublishSuccess()
		}
	}

	if err := s.policy.Ingest(ctx, res); err != nil {
		s.logger.Warn("result not recorded", map[string]any{"sequence": res.Sequence, "error": err.Error()})
	}
}

func (s *streamSession) handleControl(m *types.ControlMessage) {
	s.collector.IncControlFrame()
	fields := map[string]any{"type": string(m.Type), "peer_camera": m.Camera, "protocol_version": m.ProtocolVersion}
	if m.Reason != nil {
		fields["reason"] = *m.Reason
	}
	s.logger.Info("control frame", fields)

	if m.Type == types.ControlHello && m.ProtocolVersion != types.ProtocolVersion {
		s.logger.Warn("peer protocol version differs", map[string]any{
			"peer":  m.ProtocolVersion,
			"local": types.ProtocolVersion,
		})
	}
}

func (s *streamSession) maybeWriteMetrics(ctx context.Context) {
	if s.metricsInterval <= 0 || time.Since(s.lastMetrics) < s.metricsInterval {
		return
	}
	s.writeMetrics(ctx)
}

func (s *streamSession) writeMetrics(ctx context.Context) {
	s.lastMetrics = time.Now()
	if s.recorder == nil {
		return
	}
	if err := s.recorder.WriteMetrics(ctx, s.collector.Snapshot(), s.lastMetrics); err != nil {
		s.logger.Warn("metrics not recorded", map[string]any{"error": err.Error()})
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	redisadapter "github.com/pithecene-io/targetwire/adapter/redis"
	"github.com/pithecene-io/targetwire/cli/render"
	"github.com/pithecene-io/targetwire/target"
)

// ListenCommand returns the listen command.
// Listen subscribes to the redis channel a stream publishes to and renders
// each result as it arrives.
func ListenCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Subscribe to published results and render them",
		Flags: append(ReadOnlyFlags(),
			ConfigFlag,
			&cli.StringFlag{Name: "adapter-url", Usage: "Redis URL (redis://host:port/db)"},
			&cli.StringFlag{Name: "adapter-channel", Usage: "Redis channel name"},
			&cli.IntFlag{Name: "count", Usage: "Stop after this many results (0: run until interrupted)"},
			&cli.BoolFlag{Name: "latest", Usage: "Render the most recent result and exit"},
		),
		Action: listenAction,
	}
}

func listenAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for listen command", exitConfigError)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	if cfg.Adapter.Type != "" && cfg.Adapter.Type != "redis" {
		return cli.Exit(fmt.Sprintf("listen requires the redis adapter, config has %q", cfg.Adapter.Type), exitConfigError)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	a, err := redisadapter.New(redisadapter.Config{URL: cfg.Adapter.URL, Channel: cfg.Adapter.Channel})
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("latest") {
		payload, err := a.Latest(ctx)
		if err != nil {
			return err
		}
		return renderPayload(r, payload)
	}

	sub, err := a.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Close() }()

	limit := c.Int("count")
	for seen := 0; limit == 0 || seen < limit; seen++ {
		payload, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := renderPayload(r, payload); err != nil {
			return err
		}
	}
	return nil
}

// renderPayload decodes one published result and renders it. Payloads that
// fail to decode exit with the decode-failure code.
func renderPayload(r *render.Renderer, payload []byte) error {
	res, n, err := target.DecodeResult(payload)
	if err != nil {
		return cli.Exit(fmt.Sprintf("published payload failed to decode: %v", err), exitDecodeFailure)
	}
	if n != len(payload) {
		return cli.Exit(fmt.Sprintf("published payload has %d trailing bytes", len(payload)-n), exitDecodeFailure)
	}
	if r.Format() == render.FormatTable {
		return r.Render(targetRows(res.Targets))
	}
	return r.Render(res)
}

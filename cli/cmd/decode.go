package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/targetwire/cli/render"
	"github.com/pithecene-io/targetwire/cli/tui"
	"github.com/pithecene-io/targetwire/packet"
	"github.com/pithecene-io/targetwire/target"
)

// DecodeResponse is the rendered output of the decode command.
type DecodeResponse struct {
	Kind     string                `json:"kind" yaml:"kind"`
	Consumed int                   `json:"consumed" yaml:"consumed"`
	Trailing int                   `json:"trailing" yaml:"trailing"`
	Target   *target.TrackedTarget `json:"target,omitempty" yaml:"target,omitempty"`
	Result   *target.Result        `json:"result,omitempty" yaml:"result,omitempty"`
}

// DecodeSummary is the table header printed above the target rows.
type DecodeSummary struct {
	Kind     string `json:"kind"`
	Consumed int    `json:"consumed"`
	Trailing int    `json:"trailing"`
	Sequence int64  `json:"sequence"`
	Latency  string `json:"latency_ms"`
}

// DecodeCommand returns the decode command.
// Decode reads one record and reports how many bytes it consumed.
// Trailing bytes are reported, not rejected.
func DecodeCommand() *cli.Command {
	return &cli.Command{
		Name:   "decode",
		Usage:  "Decode one binary target or result and render it",
		Flags:  append(append(TUIReadOnlyFlags(), inputFlags()...), &cli.StringFlag{Name: "kind", Usage: "Record kind: target or result", Value: kindResult}),
		Action: decodeAction,
	}
}

func decodeAction(c *cli.Context) error {
	kind := c.String("kind")
	if kind != kindTarget && kind != kindResult {
		return cli.Exit(fmt.Sprintf("unknown kind %q (must be target or result)", kind), exitConfigError)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	data, err := readInput(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot read input: %v", err), exitConfigError)
	}

	resp, err := decodeBytes(kind, data)
	if err != nil {
		if errors.Is(err, packet.ErrUnderflow) {
			return cli.Exit(fmt.Sprintf("decode failed after %d bytes: %v", len(data), err), exitDecodeFailure)
		}
		return cli.Exit(err.Error(), exitDecodeFailure)
	}

	if c.Bool("tui") {
		if resp.Target != nil {
			return r.RenderTUI(tui.ViewInspectTarget, resp.Target)
		}
		return r.RenderTUI(tui.ViewInspectResult, resp.Result)
	}

	if r.Format() != render.FormatTable {
		return r.Render(resp)
	}

	summary := DecodeSummary{Kind: resp.Kind, Consumed: resp.Consumed, Trailing: resp.Trailing}
	var rows []TargetRow
	if resp.Target != nil {
		rows = []TargetRow{newTargetRow(0, *resp.Target)}
	} else {
		summary.Sequence = resp.Result.Sequence
		summary.Latency = fmt.Sprintf("%.3f", resp.Result.LatencyMillis)
		rows = targetRows(resp.Result.Targets)
	}
	if err := r.Render(summary); err != nil {
		return err
	}
	fmt.Fprintln(outWriter(c))
	return r.Render(rows)
}

// decodeBytes decodes one record of the given kind from the start of data.
func decodeBytes(kind string, data []byte) (*DecodeResponse, error) {
	switch kind {
	case kindTarget:
		t, n, err := target.Decode(data)
		if err != nil {
			return nil, err
		}
		return &DecodeResponse{Kind: kind, Consumed: n, Trailing: len(data) - n, Target: &t}, nil
	case kindResult:
		res, n, err := target.DecodeResult(data)
		if err != nil {
			return nil, err
		}
		return &DecodeResponse{Kind: kind, Consumed: n, Trailing: len(data) - n, Result: &res}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q (must be target or result)", kind)
	}
}

package cmd

import (
	"errors"
	"io"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/targetwire/cli/render"
	"github.com/pithecene-io/targetwire/ipc"
	"github.com/pithecene-io/targetwire/target"
	"github.com/pithecene-io/targetwire/types"
)

// DebugCommand returns the debug command with subcommands.
// Debug commands are read-only diagnostic tools.
func DebugCommand() *cli.Command {
	return &cli.Command{
		Name:  "debug",
		Usage: "Diagnostic tools (frames)",
		Subcommands: []*cli.Command{
			debugFramesCommand(),
		},
	}
}

// FrameInfo describes one frame of a stream.
type FrameInfo struct {
	Index   int    `json:"index"`
	Offset  int64  `json:"offset"`
	Kind    string `json:"kind"`
	Size    int    `json:"size"`
	Status  string `json:"status"`
	Targets int    `json:"targets"`
	Detail  string `json:"detail"`
}

// Frame statuses reported by debug frames.
const (
	frameOK    = "ok"
	frameError = "error"
	frameFatal = "fatal"
)

func debugFramesCommand() *cli.Command {
	return &cli.Command{
		Name:  "frames",
		Usage: "List the frames of a framed stream without publishing or recording",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:    "in",
				Aliases: []string{"i"},
				Usage:   "Framed stream file (default: stdin)",
			},
		),
		Action: debugFramesAction,
	}
}

func debugFramesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// TUI not supported for debug commands
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for debug commands", 1)
	}

	in, err := openInput(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer func() { _ = in.Close() }()

	infos, err := describeFrames(in)
	if renderErr := r.Render(infos); renderErr != nil {
		return renderErr
	}
	if err != nil {
		return cli.Exit("", exitDecodeFailure)
	}
	return nil
}

// describeFrames walks a framed stream. The returned error is non-nil when
// the stream ended inside a frame; the failing frame is still described.
func describeFrames(in io.Reader) ([]FrameInfo, error) {
	dec := ipc.NewFrameDecoder(in)
	var (
		infos  []FrameInfo
		offset int64
	)
	for i := 0; ; i++ {
		frame, err := dec.ReadFrame()
		if errors.Is(err, io.EOF) {
			return infos, nil
		}
		if err != nil {
			infos = append(infos, FrameInfo{Index: i, Offset: offset, Status: frameFatal, Detail: err.Error()})
			return infos, err
		}

		info := FrameInfo{Index: i, Offset: offset, Kind: frame.Kind.String(), Size: frame.Size(), Status: frameOK}
		msg, err := ipc.DecodeFrame(frame)
		if err != nil {
			info.Status = frameError
			info.Detail = err.Error()
		}
		switch m := msg.(type) {
		case *target.Result:
			info.Targets = len(m.Targets)
			info.Detail = "sequence " + strconv.FormatInt(m.Sequence, 10)
		case *types.ControlMessage:
			info.Detail = string(m.Type)
		}
		infos = append(infos, info)
		offset += int64(frame.Size())
	}
}

package cmd

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/targetwire/target"
)

// Record kinds accepted by encode and decode.
const (
	kindTarget = "target"
	kindResult = "result"
)

// EncodeCommand returns the encode command.
// Encode turns a YAML or JSON description into the wire encoding.
func EncodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "Encode a YAML/JSON target or result into its binary form",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "in",
				Aliases: []string{"i"},
				Usage:   "Input YAML/JSON file (default: stdin)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output file (default: stdout)",
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Record kind: target or result",
				Value: kindResult,
			},
			&cli.BoolFlag{
				Name:  "hex",
				Usage: "Write hex text instead of raw bytes",
			},
		},
		Action: encodeAction,
	}
}

func encodeAction(c *cli.Context) error {
	in, err := openInput(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot open input: %v", err), exitConfigError)
	}
	doc, err := io.ReadAll(in)
	_ = in.Close()
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot read input: %v", err), exitConfigError)
	}

	data, err := encodeDocument(c.String("kind"), doc)
	if err != nil {
		return cli.Exit(err.Error(), exitDecodeFailure)
	}

	out, err := openOutput(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot open output: %v", err), exitConfigError)
	}
	defer func() { _ = out.Close() }()

	if c.Bool("hex") {
		_, err = fmt.Fprintln(out, hex.EncodeToString(data))
	} else {
		_, err = out.Write(data)
	}
	return err
}

// encodeDocument parses a YAML/JSON document of the given kind and returns
// its wire encoding.
func encodeDocument(kind string, doc []byte) ([]byte, error) {
	switch kind {
	case kindTarget:
		var t targetInput
		if err := yaml.Unmarshal(doc, &t); err != nil {
			return nil, fmt.Errorf("invalid target document: %w", err)
		}
		return target.Encode(target.TrackedTarget(t)), nil
	case kindResult:
		var r resultInput
		if err := yaml.Unmarshal(doc, &r); err != nil {
			return nil, fmt.Errorf("invalid result document: %w", err)
		}
		return target.EncodeResult(r.result()), nil
	default:
		return nil, fmt.Errorf("unknown kind %q (must be target or result)", kind)
	}
}

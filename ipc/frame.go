// Package ipc frames targetwire messages on a byte stream.
//
// A frame is a 4-byte little-endian length, a 1-byte kind and the payload.
// The length counts the kind byte and the payload, not itself. Result
// frames carry a positional target.Result encoding; control frames carry a
// msgpack-encoded types.ControlMessage.
package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/targetwire/packet"
	"github.com/pithecene-io/targetwire/target"
	"github.com/pithecene-io/targetwire/types"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (1 MiB), including length prefix.
	MaxFrameSize = 1024 * 1024
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
	// KindSize is the size of the kind byte.
	KindSize = 1
	// MaxPayloadSize is the maximum payload size.
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize - KindSize
)

// Kind identifies what a frame payload holds.
type Kind uint8

const (
	// KindResult frames carry one encoded target.Result.
	KindResult Kind = 1
	// KindControl frames carry one msgpack types.ControlMessage.
	KindControl Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindResult:
		return "result"
	case KindControl:
		return "control"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// FrameErrorKind classifies frame errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates a payload that does not decode.
	FrameErrorDecode
	// FrameErrorUnknownKind indicates a frame kind this build does not know.
	FrameErrorUnknownKind
)

// FrameError represents a frame encoding or decoding error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the stream cannot continue after this error.
// Partial and oversized frames lose framing; a bad payload or an unknown
// kind still leaves the next frame boundary intact.
func (e *FrameError) IsFatal() bool {
	return e.Kind == FrameErrorPartial || e.Kind == FrameErrorTooLarge
}

// IsFatalFrameError returns true if the error is a fatal frame error.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}
	return false
}

// Frame is one decoded frame.
type Frame struct {
	Kind    Kind
	Payload []byte
}

// Size returns the number of stream bytes the frame occupied.
func (f *Frame) Size() int {
	return LengthPrefixSize + KindSize + len(f.Payload)
}

// FrameEncoder writes frames to a stream.
type FrameEncoder struct {
	writer io.Writer
}

// NewFrameEncoder creates a new frame encoder.
func NewFrameEncoder(w io.Writer) *FrameEncoder {
	return &FrameEncoder{writer: w}
}

// WriteResult writes r as a result frame and returns the bytes written.
func (e *FrameEncoder) WriteResult(r *target.Result) (int, error) {
	size := r.EncodedSize()
	if size > MaxPayloadSize {
		return 0, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("result size %d exceeds maximum %d", size, MaxPayloadSize),
		}
	}

	p := packet.NewWithCapacity(LengthPrefixSize + KindSize + size)
	p.WriteUint32(uint32(KindSize + size))
	p.WriteUint8(uint8(KindResult))
	r.Pack(p)
	return e.writer.Write(p.Bytes())
}

// WriteControl writes msg as a control frame and returns the bytes written.
func (e *FrameEncoder) WriteControl(msg *types.ControlMessage) (int, error) {
	payload, err := msgpack.Marshal(msg)
	if err != nil {
		return 0, &FrameError{Kind: FrameErrorDecode, Msg: "failed to encode control message", Err: err}
	}
	return e.WriteFrame(KindControl, payload)
}

// WriteFrame writes an arbitrary frame.
func (e *FrameEncoder) WriteFrame(kind Kind, payload []byte) (int, error) {
	if len(payload) > MaxPayloadSize {
		return 0, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}
	buf := make([]byte, LengthPrefixSize+KindSize, LengthPrefixSize+KindSize+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(KindSize+len(payload)))
	buf[LengthPrefixSize] = byte(kind)
	buf = append(buf, payload...)
	return e.writer.Write(buf)
}

// FrameDecoder decodes length-prefixed frames from a stream.
type FrameDecoder struct {
	reader io.Reader
}

// NewFrameDecoder creates a new frame decoder.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{reader: r}
}

// ReadFrame reads a single frame from the stream. Unknown kinds are
// returned as-is; the payload decoders reject them.
//
// Errors:
//   - io.EOF: stream ended cleanly (no more frames)
//   - *FrameError with Kind=FrameErrorPartial: incomplete frame (fatal)
//   - *FrameError with Kind=FrameErrorTooLarge: frame exceeds limit (fatal)
func (d *FrameDecoder) ReadFrame() (*Frame, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	length := binary.LittleEndian.Uint32(lengthBuf[:])
	if length < KindSize {
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "frame has no kind byte"}
	}
	if length-KindSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", length-KindSize, MaxPayloadSize),
		}
	}

	body := make([]byte, length)
	_, err = io.ReadFull(d.reader, body)
	if err != nil {
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read frame body",
			Err:  err,
		}
	}

	return &Frame{Kind: Kind(body[0]), Payload: body[KindSize:]}, nil
}

// DecodeFrame decodes a frame payload by kind, returning either a
// *target.Result or a *types.ControlMessage.
func DecodeFrame(f *Frame) (any, error) {
	switch f.Kind {
	case KindResult:
		r, err := DecodeResultFrame(f)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindControl:
		m, err := DecodeControlFrame(f)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, &FrameError{Kind: FrameErrorUnknownKind, Msg: "unknown frame " + f.Kind.String()}
	}
}

// DecodeResultFrame decodes a result frame. The payload must hold exactly
// one Result; an underflow is reachable with errors.Is(err, packet.ErrUnderflow).
func DecodeResultFrame(f *Frame) (*target.Result, error) {
	if f.Kind != KindResult {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "not a result frame: " + f.Kind.String()}
	}
	r, n, err := target.DecodeResult(f.Payload)
	if err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode result", Err: err}
	}
	if n != len(f.Payload) {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("result frame has %d trailing bytes", len(f.Payload)-n),
		}
	}
	return &r, nil
}

// DecodeControlFrame decodes a control frame.
func DecodeControlFrame(f *Frame) (*types.ControlMessage, error) {
	if f.Kind != KindControl {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "not a control frame: " + f.Kind.String()}
	}
	var msg types.ControlMessage
	if err := msgpack.Unmarshal(f.Payload, &msg); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode control message", Err: err}
	}
	if !msg.Type.IsValid() {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: fmt.Sprintf("unknown control type %q", msg.Type)}
	}
	return &msg, nil
}

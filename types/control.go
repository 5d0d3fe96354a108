// Package types defines the small shared types of the targetwire stream.
//
//nolint:revive // types is a common Go package naming convention
package types

// ControlType discriminates control frames.
type ControlType string

const (
	// ControlHello opens a stream and announces the camera.
	ControlHello ControlType = "hello"
	// ControlBye closes a stream. Reason is set when the producer stopped
	// for anything other than a clean shutdown.
	ControlBye ControlType = "bye"
)

// ControlMessage is the payload of a control frame. Unlike result frames,
// control frames are self-describing so fields can be added freely.
type ControlMessage struct {
	// Type is hello or bye.
	Type ControlType `msgpack:"type" json:"type"`
	// Camera names the producing camera.
	Camera string `msgpack:"camera" json:"camera"`
	// ProtocolVersion is the record layout the producer writes.
	ProtocolVersion int `msgpack:"protocol_version" json:"protocol_version"`
	// Timestamp is the producer wall clock in Unix microseconds.
	Timestamp int64 `msgpack:"timestamp" json:"timestamp"`
	// Reason explains an abnormal bye.
	Reason *string `msgpack:"reason,omitempty" json:"reason,omitempty"`
}

// IsValid reports whether the control type is known.
func (t ControlType) IsValid() bool {
	return t == ControlHello || t == ControlBye
}

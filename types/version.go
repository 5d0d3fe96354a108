package types

// Version is the canonical project version.
// The CLI and the control-frame handshake report this version.
const Version = "0.3.0"

// ProtocolVersion identifies the record layout. It changes only when a
// field is added, removed, reordered or resized; any such change breaks
// every deployed receiver.
const ProtocolVersion = 1

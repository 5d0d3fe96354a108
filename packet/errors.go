package packet

import (
	"errors"
	"fmt"
)

// ErrUnderflow is the sentinel matched by every UnderflowError.
// Use errors.Is(err, packet.ErrUnderflow) for typed assertions.
var ErrUnderflow = errors.New("packet underflow")

// UnderflowError reports a read past the end of the written bytes.
// It signals a framing or version mismatch, or a corrupted transport.
type UnderflowError struct {
	// Offset is the read cursor at the time of the failed read.
	Offset int
	// Need is the number of bytes the read required.
	Need int
	// Remaining is the number of unread bytes that were available.
	Remaining int
}

func (e *UnderflowError) Error() string {
	return fmt.Sprintf("packet underflow at offset %d: need %d bytes, %d remaining", e.Offset, e.Need, e.Remaining)
}

// Is reports whether target is ErrUnderflow.
func (e *UnderflowError) Is(target error) bool {
	return target == ErrUnderflow
}

// IsUnderflow returns true if err is or wraps an UnderflowError.
func IsUnderflow(err error) bool {
	return errors.Is(err, ErrUnderflow)
}

// ContractViolation is the panic value raised when a caller breaks an
// encoding precondition, such as writing a fixed array with the wrong
// element count. It is a programming error and is never returned.
//
// Violations always panic, in every build. Nothing is truncated or padded.
type ContractViolation struct {
	Op   string
	Want int
	Got  int
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("packet: %s: contract violation: want %d elements, got %d", e.Op, e.Want, e.Got)
}

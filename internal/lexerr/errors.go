// Package lexerr is the shared error taxonomy used across the table
// builder, device backend, and lexer core, so callers can use
// errors.Is/errors.As regardless of which layer raised the failure.
package lexerr

import "fmt"

// Sentinel errors, checked with errors.Is.
var (
	// ErrInputTooLarge is returned when an input exceeds the backend's
	// configured maximum byte length.
	ErrInputTooLarge = fmt.Errorf("lexer: input too large")

	// ErrUnterminatedInput is returned when the input ends mid-token in
	// a state with no accepting kind (an unterminated block comment,
	// for example).
	ErrUnterminatedInput = fmt.Errorf("lexer: unterminated input")

	// ErrTableCapacityExceeded is returned when UTF closure enumeration
	// would exceed the table builder's configured capacity.
	ErrTableCapacityExceeded = fmt.Errorf("lexer: table capacity exceeded")
)

// InvalidTableError reports a structurally broken table, checked with
// errors.As.
type InvalidTableError struct {
	Reason string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("lexer: invalid table: %s", e.Reason)
}

// DeviceFailureError wraps a failure raised by a Backend while running
// a compute pass, checked with errors.As.
type DeviceFailureError struct {
	Pass string
	Err  error
}

func (e *DeviceFailureError) Error() string {
	return fmt.Sprintf("lexer: device failure in pass %q: %v", e.Pass, e.Err)
}

func (e *DeviceFailureError) Unwrap() error { return e.Err }

package apperr

import "errors"

// Closed error-kind set for storage and generation failures. Callers classify
// with errors.Is; anything not matching one of these sentinels is treated as
// unexpected and propagated.
var (
	// ErrNotFound marks an absent object. A missing curriculum artifact is not
	// an error to the reader; it triggers background generation instead.
	ErrNotFound = errors.New("not found")
	// ErrCorruptData marks an artifact that exists but cannot be decoded.
	ErrCorruptData = errors.New("corrupt data")
	// ErrCredential marks an authentication failure against storage or the
	// model API. Fatal at initialization.
	ErrCredential = errors.New("credential failure")
	// ErrUnexpectedIO marks any other storage access failure during a read.
	ErrUnexpectedIO = errors.New("unexpected io failure")
)

package encryption

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for malformed options or arguments, such as an empty password.
	ErrInvalidInput = errors.New("invalid input")
	// ErrKeyDerivation is returned when the key cannot be derived from the given salt.
	ErrKeyDerivation = fmt.Errorf("%w: key derivation", ErrInvalidInput)
	// ErrFormat is returned when the input is not a recognized container.
	ErrFormat = errors.New("not a recognized container")
	// ErrTruncatedInput is returned when the container ends in the middle of a header or chunk.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrAuthentication is returned when a chunk fails verification.
	// Wrong passwords and corrupted data are reported identically.
	ErrAuthentication = errors.New("authentication failed")
	// ErrIO wraps failures of the underlying reader or writer.
	ErrIO = errors.New("i/o error")
)

// ChunkError reports which chunk of a container failed and where it starts.
type ChunkError struct {
	// Index is the zero-based chunk position.
	Index uint64
	// Offset is the byte offset of the chunk frame within the container.
	Offset int64
	// Err is the underlying failure, one of the package sentinels.
	Err error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// ioError marks err as an I/O failure while keeping the original error reachable.
func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

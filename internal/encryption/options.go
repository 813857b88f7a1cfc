package encryption

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultChunkSize is the plaintext size of every chunk except the last.
	DefaultChunkSize = 40_960
	// MaxChunkSize bounds the per-stream buffer.
	MaxChunkSize = 16 << 20
)

// Options configures a single encryption or decryption stream.
// Mode, Cipher, ChunkSize and Iterations are not recorded in the container
// and must match between encryption and decryption.
type Options struct {
	Mode       Mode
	Cipher     CipherKind
	ChunkSize  int
	Iterations int

	// Logger receives chunk-level debug events. Nil disables logging.
	Logger *logrus.Entry
}

// DefaultOptions returns tagged-mode, ctr-hmac options with the default chunk size and iteration count.
func DefaultOptions() Options {
	return Options{
		Mode:       ModeTagged,
		Cipher:     CipherCTRHMAC,
		ChunkSize:  DefaultChunkSize,
		Iterations: DefaultIterations,
	}
}

// withDefaults fills zero values and validates the result.
func (o Options) withDefaults() (Options, error) {
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}

	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}

	if o.Logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		o.Logger = logrus.NewEntry(discard)
	}

	if o.ChunkSize < 1 || o.ChunkSize > MaxChunkSize {
		return o, fmt.Errorf("%w: chunk size must be between 1 and %d, got %d", ErrInvalidInput, MaxChunkSize, o.ChunkSize)
	}

	if o.Iterations < 0 {
		return o, fmt.Errorf("%w: iteration count must be positive, got %d", ErrInvalidInput, o.Iterations)
	}

	switch o.Mode {
	case ModeTagged, ModeRaw:
	default:
		return o, fmt.Errorf("%w: unsupported mode %v", ErrInvalidInput, o.Mode)
	}

	switch o.Cipher {
	case CipherCTRHMAC, CipherSIV:
	default:
		return o, fmt.Errorf("%w: unsupported cipher %v", ErrInvalidInput, o.Cipher)
	}

	return o, nil
}

// Stats summarizes one processed stream.
type Stats struct {
	// Chunks is the number of frames, including the final one.
	Chunks uint64
	// Plaintext is the number of plaintext bytes.
	Plaintext int64
	// Container is the number of container bytes, header included.
	Container int64
}

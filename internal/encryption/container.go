package encryption

import (
	"bytes"
	"encoding/ascii85"
	"errors"
	"fmt"
	"io"
)

const (
	// Magic opens every tagged container.
	Magic = "#UF1#"

	headerDelimiter = '\n'
)

// maxEncodedSaltLen bounds how far ReadHeader scans for the delimiter.
var maxEncodedSaltLen = ascii85.MaxEncodedLen(SaltSize) //nolint:gochecknoglobals

// Header is the parsed container preamble.
type Header struct {
	Mode Mode
	Salt []byte

	// raw holds the bytes ReadHeader consumed; nil for headers built in memory.
	raw []byte
}

// Bytes returns the serialized header. It is also the authentication context
// bound into every chunk of the container. For a parsed header these are the
// exact bytes read, so any alternative encoding of the same salt fails verification.
func (h Header) Bytes() []byte {
	if h.raw != nil {
		return append([]byte(nil), h.raw...)
	}

	if h.Mode == ModeRaw {
		return append([]byte(nil), h.Salt...)
	}

	encoded := make([]byte, ascii85.MaxEncodedLen(len(h.Salt)))
	n := ascii85.Encode(encoded, h.Salt)

	out := make([]byte, 0, len(Magic)+n+1)
	out = append(out, Magic...)
	out = append(out, encoded[:n]...)

	return append(out, headerDelimiter)
}

// WriteHeader serializes h to w.
func WriteHeader(w io.Writer, h Header) error {
	if len(h.Salt) != SaltSize {
		return fmt.Errorf("%w: salt must be %d bytes, got %d", ErrInvalidInput, SaltSize, len(h.Salt))
	}

	if _, err := w.Write(h.Bytes()); err != nil {
		return ioError("writing header", err)
	}

	return nil
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

// ReadHeader parses a header of the given mode from r, consuming exactly the header bytes.
func ReadHeader(r byteReader, mode Mode) (Header, error) {
	switch mode {
	case ModeRaw:
		salt := make([]byte, SaltSize)
		if _, err := io.ReadFull(r, salt); err != nil {
			return Header{}, readFailure("reading salt", err)
		}

		return Header{Mode: ModeRaw, Salt: salt, raw: salt}, nil
	case ModeTagged:
		return readTaggedHeader(r)
	default:
		return Header{}, fmt.Errorf("%w: unsupported mode %v", ErrInvalidInput, mode)
	}
}

func readTaggedHeader(r byteReader) (Header, error) {
	magic := make([]byte, len(Magic))

	n, err := io.ReadFull(r, magic)
	if !bytes.Equal(magic[:n], []byte(Magic[:n])) {
		return Header{}, fmt.Errorf("%w: bad magic", ErrFormat)
	}

	if err != nil {
		return Header{}, readFailure("reading magic", err)
	}

	encoded := make([]byte, 0, maxEncodedSaltLen)

	for {
		c, err := r.ReadByte()
		if err != nil {
			return Header{}, readFailure("reading salt", err)
		}

		if c == headerDelimiter {
			break
		}

		if len(encoded) == maxEncodedSaltLen {
			return Header{}, fmt.Errorf("%w: salt encoding too long", ErrFormat)
		}

		encoded = append(encoded, c)
	}

	// 'z' expands a single character into four zero bytes.
	decoded := make([]byte, 4*len(encoded)+4)

	ndst, _, err := ascii85.Decode(decoded, encoded, true)
	if err != nil {
		return Header{}, fmt.Errorf("%w: decoding salt: %w", ErrFormat, err)
	}

	if ndst != SaltSize {
		return Header{}, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrFormat, SaltSize, ndst)
	}

	raw := make([]byte, 0, len(Magic)+len(encoded)+1)
	raw = append(raw, Magic...)
	raw = append(raw, encoded...)
	raw = append(raw, headerDelimiter)

	return Header{Mode: ModeTagged, Salt: decoded[:SaltSize], raw: raw}, nil
}

// readFailure maps a failed header read: short input is truncation, anything else is I/O.
func readFailure(op string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncatedInput, op)
	}

	return ioError(op, err)
}

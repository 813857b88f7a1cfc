package encryption

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

var errWriterClosed = errors.New("write to closed encryption writer")

// Writer encrypts everything written to it into a container on the underlying writer.
// The header is written by NewWriter; Close writes the final chunk and must be called.
// Close does not close the underlying writer.
type Writer struct {
	w         io.Writer
	codec     ChunkCodec
	chunkSize int
	log       *logrus.Entry

	// bufferPtr and framePtr are pooled; buffer and frame are their working views.
	bufferPtr *[]byte
	framePtr  *[]byte
	buffer    []byte
	frame     []byte
	index     uint64
	stats     Stats

	err    error
	closed bool
}

// NewWriter generates a salt, derives the key from password and writes the container header to w.
func NewWriter(w io.Writer, password []byte, opts Options) (*Writer, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}

	key, err := DeriveKey(password, salt, opts.Iterations)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	header := Header{Mode: opts.Mode, Salt: salt}

	codec, err := NewChunkCodec(opts.Cipher, key, header.Bytes())
	if err != nil {
		return nil, err
	}

	if err := WriteHeader(w, header); err != nil {
		return nil, err
	}

	bufferPtr := getBuffer(opts.ChunkSize)
	framePtr := getBuffer(opts.ChunkSize + codec.Overhead())

	return &Writer{
		w:         w,
		codec:     codec,
		chunkSize: opts.ChunkSize,
		log:       opts.Logger,
		bufferPtr: bufferPtr,
		framePtr:  framePtr,
		buffer:    (*bufferPtr)[:0],
		frame:     (*framePtr)[:0],
		stats:     Stats{Container: int64(len(header.Bytes()))},
	}, nil
}

// Write implements io.Writer, sealing every chunk as soon as it is full.
func (sw *Writer) Write(data []byte) (int, error) {
	if sw.closed {
		return 0, errWriterClosed
	}

	if sw.err != nil {
		return 0, sw.err
	}

	written := 0

	for len(data) > 0 {
		n := min(sw.chunkSize-len(sw.buffer), len(data))

		sw.buffer = append(sw.buffer, data[:n]...)
		data = data[n:]
		written += n

		if len(sw.buffer) == sw.chunkSize {
			if err := sw.flushChunk(false); err != nil {
				return written, err
			}
		}
	}

	return written, nil
}

// Close implements io.Closer, sealing the buffered remainder as the final chunk.
// The final chunk is always shorter than the chunk size and may be empty.
func (sw *Writer) Close() error {
	if sw.closed {
		return nil
	}

	sw.closed = true
	defer sw.release()

	if sw.err != nil {
		return sw.err
	}

	return sw.flushChunk(true)
}

// ReadFrom implements io.ReaderFrom, reading straight into the chunk buffer.
// It stops at EOF without writing the final chunk; Close does that.
// A read error is sticky, so a later Close never seals a short container.
func (sw *Writer) ReadFrom(r io.Reader) (int64, error) {
	if sw.closed {
		return 0, errWriterClosed
	}

	if sw.err != nil {
		return 0, sw.err
	}

	var total int64

	for {
		n, readErr := r.Read(sw.buffer[len(sw.buffer):sw.chunkSize])
		sw.buffer = sw.buffer[:len(sw.buffer)+n]
		total += int64(n)

		if len(sw.buffer) == sw.chunkSize {
			if err := sw.flushChunk(false); err != nil {
				return total, err
			}
		}

		if errors.Is(readErr, io.EOF) {
			return total, nil
		}

		if readErr != nil {
			sw.err = ioError("reading plaintext", readErr)

			return total, sw.err
		}
	}
}

// release returns the pooled buffers. The Writer is unusable afterwards.
func (sw *Writer) release() {
	putBuffer(sw.bufferPtr)
	putBuffer(sw.framePtr)

	sw.buffer, sw.frame = nil, nil
}

// Stats reports what has been written so far.
func (sw *Writer) Stats() Stats {
	return sw.stats
}

// flushChunk seals the buffer as chunk sw.index and writes the frame.
func (sw *Writer) flushChunk(final bool) error {
	frame, err := sw.codec.EncryptChunk(sw.frame[:0], sw.index, final, sw.buffer)
	if err != nil {
		sw.err = &ChunkError{Index: sw.index, Offset: sw.stats.Container, Err: err}

		return sw.err
	}

	if _, err := sw.w.Write(frame); err != nil {
		sw.err = &ChunkError{Index: sw.index, Offset: sw.stats.Container, Err: ioError("writing chunk", err)}

		return sw.err
	}

	sw.log.WithFields(logrus.Fields{
		"chunk":  sw.index,
		"offset": sw.stats.Container,
		"size":   len(sw.buffer),
		"final":  final,
	}).Debug("sealed chunk")

	sw.stats.Chunks++
	sw.stats.Plaintext += int64(len(sw.buffer))
	sw.stats.Container += int64(len(frame))

	clearBytes(sw.buffer)

	sw.frame = frame[:0]
	sw.buffer = sw.buffer[:0]
	sw.index++

	return nil
}

// EncryptStream encrypts everything from r into a container on w.
func EncryptStream(r io.Reader, w io.Writer, password []byte, opts Options) error {
	_, err := EncryptStreamStats(r, w, password, opts)

	return err
}

// EncryptStreamStats is EncryptStream that also reports chunk and byte counts.
func EncryptStreamStats(r io.Reader, w io.Writer, password []byte, opts Options) (Stats, error) {
	sw, err := NewWriter(w, password, opts)
	if err != nil {
		return Stats{}, err
	}

	if _, err := sw.ReadFrom(r); err != nil {
		sw.Close() //nolint:errcheck,gosec // only returns the buffers, err already set

		return sw.Stats(), fmt.Errorf("encrypting: %w", err)
	}

	if err := sw.Close(); err != nil {
		return sw.Stats(), fmt.Errorf("encrypting: %w", err)
	}

	return sw.Stats(), nil
}

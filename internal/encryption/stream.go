package encryption

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// DecryptStream reads a container from r and writes the verified plaintext to w.
// Chunks are released one at a time as they verify; when a later chunk fails,
// plaintext already written to w stays there.
func DecryptStream(r io.Reader, w io.Writer, password []byte, opts Options) error {
	_, err := DecryptStreamStats(r, w, password, opts)

	return err
}

// DecryptStreamStats is DecryptStream that also reports chunk and byte counts.
//
//nolint:cyclop,funlen
func DecryptStreamStats(r io.Reader, w io.Writer, password []byte, opts Options) (Stats, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return Stats{}, err
	}

	bufReader := bufio.NewReader(r)

	header, err := ReadHeader(bufReader, opts.Mode)
	if err != nil {
		return Stats{}, err
	}

	key, err := DeriveKey(password, header.Salt, opts.Iterations)
	if err != nil {
		return Stats{}, err
	}
	defer clearBytes(key)

	headerBytes := header.Bytes()

	codec, err := NewChunkCodec(opts.Cipher, key, headerBytes)
	if err != nil {
		return Stats{}, err
	}

	frameBuf := getBuffer(opts.ChunkSize + codec.Overhead())
	defer putBuffer(frameBuf)

	plainBuf := getBuffer(opts.ChunkSize)
	defer putBuffer(plainBuf)

	stats := Stats{Container: int64(len(headerBytes))}

	for index := uint64(0); ; index++ {
		var final bool

		n, err := io.ReadFull(bufReader, *frameBuf)

		switch {
		case err == nil:
			// A full frame is never the last one.
		case errors.Is(err, io.ErrUnexpectedEOF):
			final = true
		case errors.Is(err, io.EOF):
			return stats, &ChunkError{
				Index:  index,
				Offset: stats.Container,
				Err:    fmt.Errorf("%w: container ends without a final chunk", ErrTruncatedInput),
			}
		default:
			return stats, &ChunkError{Index: index, Offset: stats.Container, Err: ioError("reading chunk", err)}
		}

		plain, err := codec.DecryptChunk((*plainBuf)[:0], index, final, (*frameBuf)[:n])
		if err != nil {
			opts.Logger.WithFields(logrus.Fields{
				"chunk":  index,
				"offset": stats.Container,
			}).Debug("chunk failed verification")

			return stats, &ChunkError{Index: index, Offset: stats.Container, Err: err}
		}

		if _, err := w.Write(plain); err != nil {
			return stats, &ChunkError{Index: index, Offset: stats.Container, Err: ioError("writing plaintext", err)}
		}

		opts.Logger.WithFields(logrus.Fields{
			"chunk":  index,
			"offset": stats.Container,
			"size":   len(plain),
			"final":  final,
		}).Debug("opened chunk")

		stats.Chunks++
		stats.Plaintext += int64(len(plain))
		stats.Container += int64(n)

		if final {
			return stats, nil
		}
	}
}

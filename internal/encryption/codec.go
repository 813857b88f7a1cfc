package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"
)

// ChunkCodec seals and opens single chunks of a container.
// Implementations bind the chunk index and the final-chunk flag into the
// authentication so that reordered, duplicated or truncated chunks fail to open.
type ChunkCodec interface {
	// Overhead is the number of bytes a frame adds to its plaintext.
	Overhead() int
	// EncryptChunk appends the frame for plaintext to dst.
	EncryptChunk(dst []byte, index uint64, final bool, plaintext []byte) ([]byte, error)
	// DecryptChunk verifies frame and appends its plaintext to dst.
	// Nothing is appended when verification fails.
	DecryptChunk(dst []byte, index uint64, final bool, frame []byte) ([]byte, error)
}

// NewChunkCodec builds the codec of the given kind from a password-derived key.
// header is the serialized container header and becomes part of every chunk's authenticated context.
func NewChunkCodec(kind CipherKind, key, header []byte) (ChunkCodec, error) {
	switch kind {
	case CipherCTRHMAC:
		return newCTRHMACCodec(key, header)
	case CipherSIV:
		return newSIVCodec(key, header)
	default:
		return nil, fmt.Errorf("%w: unsupported cipher %v", ErrInvalidInput, kind)
	}
}

const (
	ctrHMACInfo      = "fernetcrypt/ctr-hmac"
	ctrHMACEncKeyLen = 32
	ctrHMACMacKeyLen = 32
	ctrHMACTagSize   = sha256.Size
)

// ctrHMACCodec encrypts with AES-256-CTR and authenticates with HMAC-SHA256 (encrypt-then-MAC).
// The IV of chunk i is i in the high 64 bits, so every chunk owns a disjoint counter range.
type ctrHMACCodec struct {
	block   cipher.Block
	mac     hash.Hash
	context []byte
}

func newCTRHMACCodec(key, header []byte) (*ctrHMACCodec, error) {
	derived, err := deriveSubKeys(key, ctrHMACInfo, ctrHMACEncKeyLen+ctrHMACMacKeyLen)
	if err != nil {
		return nil, err
	}
	defer clearBytes(derived)

	block, err := aes.NewCipher(derived[:ctrHMACEncKeyLen])
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return &ctrHMACCodec{
		block:   block,
		mac:     hmac.New(sha256.New, derived[ctrHMACEncKeyLen:]),
		context: append([]byte(nil), header...),
	}, nil
}

func (c *ctrHMACCodec) Overhead() int {
	return aes.BlockSize + ctrHMACTagSize
}

func (c *ctrHMACCodec) EncryptChunk(dst []byte, index uint64, final bool, plaintext []byte) ([]byte, error) {
	iv := chunkIV(index)

	start := len(dst)
	dst = append(dst, iv...)
	dst = append(dst, plaintext...)

	body := dst[start+aes.BlockSize:]
	cipher.NewCTR(c.block, iv).XORKeyStream(body, body)

	return append(dst, c.tag(index, final, iv, body)...), nil
}

func (c *ctrHMACCodec) DecryptChunk(dst []byte, index uint64, final bool, frame []byte) ([]byte, error) {
	if len(frame) < c.Overhead() {
		return dst, fmt.Errorf("%w: frame of %d bytes is shorter than its overhead", ErrTruncatedInput, len(frame))
	}

	iv := frame[:aes.BlockSize]
	body := frame[aes.BlockSize : len(frame)-ctrHMACTagSize]
	tag := frame[len(frame)-ctrHMACTagSize:]

	if !hmac.Equal(c.tag(index, final, iv, body), tag) {
		return dst, ErrAuthentication
	}

	start := len(dst)
	dst = append(dst, body...)
	cipher.NewCTR(c.block, iv).XORKeyStream(dst[start:], dst[start:])

	return dst, nil
}

// tag authenticates the header context, position, final flag, IV and ciphertext.
func (c *ctrHMACCodec) tag(index uint64, final bool, iv, ciphertext []byte) []byte {
	c.mac.Reset()
	c.mac.Write(chunkAssociatedData(c.context, index, final))
	c.mac.Write(iv)
	c.mac.Write(ciphertext)

	return c.mac.Sum(nil)
}

func chunkIV(index uint64) []byte {
	iv := make([]byte, aes.BlockSize)
	binary.BigEndian.PutUint64(iv, index)

	return iv
}

// chunkAssociatedData is len(header) || header || index || final.
func chunkAssociatedData(header []byte, index uint64, final bool) []byte {
	const (
		lengthSize     = 4
		chunkIndexSize = 8
	)

	ad := make([]byte, lengthSize+len(header)+chunkIndexSize+1)
	binary.BigEndian.PutUint32(ad, uint32(len(header))) //nolint:gosec
	copy(ad[lengthSize:], header)
	binary.BigEndian.PutUint64(ad[lengthSize+len(header):], index)

	if final {
		ad[len(ad)-1] = 1
	}

	return ad
}

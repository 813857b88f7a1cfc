package encryption

import (
	"fmt"
	"strings"
)

// Mode selects the container header layout.
type Mode byte

const (
	// ModeTagged writes the magic marker followed by the ascii85-encoded salt and a newline.
	ModeTagged Mode = iota
	// ModeRaw writes only the raw salt bytes; the reader must already know the format.
	ModeRaw
)

// String returns the flag spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeTagged:
		return "tagged"
	case ModeRaw:
		return "raw"
	default:
		return fmt.Sprintf("mode(%d)", byte(m))
	}
}

// ParseMode converts a flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "tagged":
		return ModeTagged, nil
	case "raw":
		return ModeRaw, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
	}
}

// CipherKind selects the per-chunk authenticated cipher.
type CipherKind byte

const (
	// CipherCTRHMAC is AES-256-CTR with a counter-derived IV, authenticated by HMAC-SHA256.
	CipherCTRHMAC CipherKind = iota
	// CipherSIV is AES-SIV deterministic AEAD from tink.
	CipherSIV
)

// String returns the flag spelling of the cipher.
func (c CipherKind) String() string {
	switch c {
	case CipherCTRHMAC:
		return "ctr-hmac"
	case CipherSIV:
		return "aes-siv"
	default:
		return fmt.Sprintf("cipher(%d)", byte(c))
	}
}

// ParseCipher converts a flag value into a CipherKind.
func ParseCipher(s string) (CipherKind, error) {
	switch strings.ToLower(s) {
	case "", "ctr-hmac":
		return CipherCTRHMAC, nil
	case "aes-siv", "siv":
		return CipherSIV, nil
	default:
		return 0, fmt.Errorf("%w: unknown cipher %q", ErrInvalidInput, s)
	}
}

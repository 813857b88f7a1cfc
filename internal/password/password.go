// Package password obtains the container password from a flag, a file, an
// environment variable or an interactive terminal prompt.
package password

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/linsomniac/fernetcrypt/internal/encryption"
)

// ErrMismatch is returned when the confirmation prompt differs from the first entry.
var ErrMismatch = errors.New("passwords do not match")

// Prompter reads a secret after showing prompt.
type Prompter interface {
	ReadPassword(prompt string) ([]byte, error)
}

// Source describes where the password comes from. At most one of Value, File
// and Env should be set; with none set the Prompter is asked.
type Source struct {
	Value string
	File  string
	Env   string

	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// Prompt defaults to the controlling terminal on stdin/stderr.
	Prompt Prompter
}

// Read returns the password. When confirm is set and the password is prompted
// for, it is asked twice and both entries must match.
func (s Source) Read(confirm bool) ([]byte, error) {
	var password []byte

	switch {
	case s.Value != "":
		password = []byte(s.Value)
	case s.File != "":
		data, err := os.ReadFile(s.File)
		if err != nil {
			return nil, fmt.Errorf("reading password file: %w", err)
		}

		password = trimNewline(data)
	case s.Env != "":
		getenv := s.Getenv
		if getenv == nil {
			getenv = os.Getenv
		}

		password = []byte(getenv(s.Env))
		if len(password) == 0 {
			return nil, fmt.Errorf("%w: environment variable %q is empty or unset", encryption.ErrInvalidInput, s.Env)
		}
	default:
		return s.prompt(confirm)
	}

	if len(password) == 0 {
		return nil, fmt.Errorf("%w: empty password", encryption.ErrInvalidInput)
	}

	return password, nil
}

func (s Source) prompt(confirm bool) ([]byte, error) {
	prompter := s.Prompt
	if prompter == nil {
		prompter = Terminal{In: os.Stdin, Out: os.Stderr}
	}

	first, err := prompter.ReadPassword("Enter password: ")
	if err != nil {
		return nil, err
	}

	if len(first) == 0 {
		return nil, fmt.Errorf("%w: empty password", encryption.ErrInvalidInput)
	}

	if !confirm {
		return first, nil
	}

	second, err := prompter.ReadPassword("Confirm password: ")
	if err != nil {
		Clear(first)

		return nil, err
	}
	defer Clear(second)

	if subtle.ConstantTimeCompare(first, second) != 1 {
		Clear(first)

		return nil, ErrMismatch
	}

	return first, nil
}

// Terminal prompts on a terminal without echoing the input.
type Terminal struct {
	In  *os.File
	Out io.Writer
}

// ReadPassword implements Prompter.
func (t Terminal) ReadPassword(prompt string) ([]byte, error) {
	fd := int(t.In.Fd()) //nolint:gosec

	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%w: no password given and stdin is not a terminal", encryption.ErrInvalidInput)
	}

	fmt.Fprint(t.Out, prompt)

	password, err := term.ReadPassword(fd)

	fmt.Fprintln(t.Out)

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}

// Clear zeroes b.
func Clear(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// trimNewline drops one trailing "\n" or "\r\n", as left by editors and echo.
func trimNewline(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))

	return bytes.TrimSuffix(b, []byte("\r"))
}

// Command fernetcrypt encrypts and decrypts files with a password.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/linsomniac/fernetcrypt/internal/commands"
	"github.com/linsomniac/fernetcrypt/internal/config"
	"github.com/linsomniac/fernetcrypt/internal/encryption"
	"github.com/linsomniac/fernetcrypt/internal/password"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "unknown"

// Process exit codes, one per error kind.
const (
	exitOK = iota
	exitFailure
	exitInvalidInput
	exitFormat
	exitTruncated
	exitAuthentication
	exitIO
)

func main() {
	var cfg config.Config

	root := commands.NewRootCommand(&cfg, version)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fernetcrypt: %v\n", err)

		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to its process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, encryption.ErrInvalidInput), errors.Is(err, password.ErrMismatch):
		return exitInvalidInput
	case errors.Is(err, encryption.ErrFormat):
		return exitFormat
	case errors.Is(err, encryption.ErrTruncatedInput):
		return exitTruncated
	case errors.Is(err, encryption.ErrAuthentication):
		return exitAuthentication
	case errors.Is(err, encryption.ErrIO):
		return exitIO
	default:
		return exitFailure
	}
}

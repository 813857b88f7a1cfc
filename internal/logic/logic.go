// Package logic implements the file-level workflow around the encryption streams.
package logic

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/linsomniac/fernetcrypt/internal/config"
	"github.com/linsomniac/fernetcrypt/internal/encryption"
	"github.com/linsomniac/fernetcrypt/internal/password"
)

// Run is the main logic of the application.
func Run(cfg *config.Config) error {
	start := time.Now()

	log := NewLogger(os.Stderr, cfg.Verbose)

	secret, err := readPassword(cfg)
	if err != nil {
		return err
	}
	defer password.Clear(secret)

	proc, err := NewProcessor(cfg, secret, log)
	if err != nil {
		return fmt.Errorf("creating processor: %w", err)
	}

	processed, errored, totalSize, err := proc.ProcessFiles()

	if cfg.Stats {
		printStats(os.Stderr, processed, errored, totalSize, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("running logic: %w", err)
	}

	return nil
}

// NewLogger returns the diagnostics logger: warnings by default, debug when verbose.
func NewLogger(out io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)

	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}

// readPassword resolves the configured password source. Encryption prompts twice.
func readPassword(cfg *config.Config) ([]byte, error) {
	source := password.Source{
		Value: cfg.Password,
		File:  cfg.PasswordFile,
		Env:   cfg.PasswordEnv,
	}

	prompting := source.Value == "" && source.File == "" && source.Env == ""
	if prompting && slices.Contains(cfg.Files, config.Stdio) {
		return nil, fmt.Errorf("%w: stdin carries the input, pass the password with --password-file or --password-env",
			encryption.ErrInvalidInput)
	}

	secret, err := source.Read(!cfg.Decrypt)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return secret, nil
}

// outputPath derives the output of filename from --output or the configured suffixes.
func outputPath(filename string, cfg *config.Config) string {
	if cfg.Output != "" {
		return cfg.Output
	}

	ext := cfg.EncryptSuffix

	if cfg.Decrypt {
		filename = strings.TrimSuffix(filename, cfg.EncryptSuffix)
		ext = cfg.DecryptSuffix
	}

	return filepath.Join(filepath.Dir(filename), filepath.Base(filename)+ext)
}

func printStats(out io.Writer, processed, errored int, totalSize int64, duration time.Duration) {
	fmt.Fprintf(out, "\nStats\n")
	fmt.Fprintf(out, "  Processed: %d\n", processed)
	fmt.Fprintf(out, "  Errors:    %d\n", errored)
	//nolint:gosec // totalSize is always non-negative (sum of file sizes)
	fmt.Fprintf(out, "  Size:      %s\n", humanize.IBytes(uint64(max(0, totalSize))))
	fmt.Fprintf(out, "  Duration:  %s\n", duration.Round(time.Millisecond))
}

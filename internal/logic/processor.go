package logic

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/linsomniac/fernetcrypt/internal/config"
	"github.com/linsomniac/fernetcrypt/internal/encryption"
	"github.com/linsomniac/fernetcrypt/internal/fileutil"
)

// Processor handles the encryption and decryption of files.
type Processor struct {
	// cfg contains runtime configuration options
	cfg *config.Config

	// opts is the per-stream configuration shared by every file
	opts encryption.Options

	// password is borrowed from the caller, who clears it
	password []byte

	log *logrus.Logger

	// stdin and stdout stand in for "-" paths
	stdin  io.Reader
	stdout io.Writer

	// messages receives the per-file result lines
	messages io.Writer

	// results channels processing outcomes to the printer goroutine
	results chan Result
}

// NewProcessor creates a Processor for cfg using the given password.
func NewProcessor(cfg *config.Config, password []byte, log *logrus.Logger) (*Processor, error) {
	opts, err := cfg.StreamOptions()
	if err != nil {
		return nil, err
	}

	opts.Logger = logrus.NewEntry(log)

	messages := io.Writer(os.Stdout)
	if cfg.Output == config.Stdio {
		messages = os.Stderr
	}

	return &Processor{
		cfg:      cfg,
		opts:     opts,
		password: password,
		log:      log,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		messages: messages,
		results:  make(chan Result, len(cfg.Files)),
	}, nil
}

// ProcessFiles concurrently processes all files specified in the configuration.
// Each file is its own single-threaded stream; at most cfg.Parallel run at once.
// Returns the number of successfully processed files and the number of errors.
//
//nolint:cyclop,gocognit
func (p *Processor) ProcessFiles() (processed, errored int, totalSize int64, err error) {
	group := errgroup.Group{}
	group.SetLimit(p.cfg.Parallel)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for result := range p.results {
			if result.Error != nil {
				errored++

				fmt.Fprintf(os.Stderr, "Error processing %q: %v\n", result.Input, result.Error)

				continue
			}

			processed++

			totalSize += result.OutputSize

			if !p.cfg.Quiet {
				fmt.Fprintf(p.messages, "Processed %q -> %q\n", result.Input, result.Output)
			}

			p.log.WithFields(logrus.Fields{
				"input":  result.Input,
				"chunks": result.Chunks,
				"bytes":  result.OutputSize,
			}).Debug("file done")

			if p.cfg.Delete {
				if err := os.Remove(result.Input); err != nil {
					fmt.Fprintf(os.Stderr, "Error deleting %q: %v\n", result.Input, err)
				} else if !p.cfg.Quiet {
					fmt.Fprintf(p.messages, "Deleted %q\n", result.Input)
				}
			}
		}
	}()

	for _, file := range p.cfg.Files {
		group.Go(func() error {
			outPath := outputPath(file, p.cfg)

			stats, size, err := p.processFile(file, outPath)
			if err != nil {
				p.results <- Result{Input: file, Error: err}

				return err
			}

			p.results <- Result{Input: file, Output: outPath, OutputSize: size, Chunks: stats.Chunks}

			return nil
		})
	}

	err = group.Wait()

	close(p.results)

	<-done // Wait for printer to finish

	if err != nil {
		return processed, errored, totalSize, fmt.Errorf("processing files: %w", err)
	}

	return processed, errored, totalSize, nil
}

// processFile streams one input into one output.
// File outputs are written to a temporary file and renamed into place only on success.
//
//nolint:funlen,cyclop
func (p *Processor) processFile(filename, outPath string) (stats encryption.Stats, size int64, err error) {
	var (
		reader  = p.stdin
		isExec  bool
		modTime = time.Now()
	)

	if filename != config.Stdio {
		if filepath.Clean(filename) == filepath.Clean(outPath) {
			return stats, 0, fmt.Errorf("%w: output %q would overwrite its input", encryption.ErrInvalidInput, outPath)
		}

		info, err := os.Stat(filename)
		if err != nil {
			return stats, 0, fmt.Errorf("getting file info for %q: %w", filename, err)
		}

		if info.IsDir() {
			return stats, 0, fmt.Errorf("%w: %q is a directory", encryption.ErrInvalidInput, filename)
		}

		isExec = info.Mode()&fileutil.ExecutableBits != 0
		modTime = info.ModTime()

		inFile, err := os.Open(filepath.Clean(filename))
		if err != nil {
			return stats, 0, fmt.Errorf("opening input file: %w", err)
		}
		defer inFile.Close()

		reader = inFile
	}

	if outPath == config.Stdio {
		stats, err = p.stream(reader, p.stdout)
		if err != nil {
			return stats, 0, err
		}

		if p.cfg.Decrypt {
			return stats, stats.Plaintext, nil
		}

		return stats, stats.Container, nil
	}

	tc, err := fileutil.NewTempContext(outPath)
	if err != nil {
		return stats, 0, fmt.Errorf("preparing atomic write: %w", err)
	}

	defer tc.CleanupOnError(&err)

	stats, err = p.stream(reader, tc.TmpFile)
	if err != nil {
		return stats, 0, err
	}

	if err = tc.Commit(fileutil.OutputPerm(isExec)); err != nil {
		return stats, 0, err
	}

	size, err = fileutil.FinalizeOutput(outPath, p.cfg.PreserveTimestamps, modTime)
	if err != nil {
		return stats, 0, fmt.Errorf("finalizing output: %w", err)
	}

	return stats, size, nil
}

// stream runs the configured direction over one reader/writer pair.
func (p *Processor) stream(r io.Reader, w io.Writer) (encryption.Stats, error) {
	if p.cfg.Decrypt {
		stats, err := encryption.DecryptStreamStats(r, w, p.password, p.opts)
		if err != nil {
			return stats, fmt.Errorf("decrypting: %w", err)
		}

		return stats, nil
	}

	stats, err := encryption.EncryptStreamStats(r, w, p.password, p.opts)
	if err != nil {
		return stats, fmt.Errorf("encrypting: %w", err)
	}

	return stats, nil
}

package config_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/idelchi/gogen/pkg/validator"

	"github.com/linsomniac/fernetcrypt/internal/config"
	"github.com/linsomniac/fernetcrypt/internal/encryption"
)

func validConfig() config.Config {
	return config.Config{
		Password:      "pw",
		Mode:          "tagged",
		Cipher:        "ctr-hmac",
		ChunkSize:     encryption.DefaultChunkSize,
		Iterations:    encryption.DefaultIterations,
		EncryptSuffix: ".fc",
		Parallel:      2,
		Files:         []string{"a.txt"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"valid", func(*config.Config) {}, false},
		{"raw aes-siv", func(c *config.Config) { c.Mode, c.Cipher = "raw", "aes-siv" }, false},
		{"prompted password", func(c *config.Config) { c.Password = "" }, false},
		{"password and file", func(c *config.Config) { c.PasswordFile = "pw.txt" }, true},
		{"password and env", func(c *config.Config) { c.PasswordEnv = "PW" }, true},
		{"file and env", func(c *config.Config) { c.Password, c.PasswordFile, c.PasswordEnv = "", "pw.txt", "PW" }, true},
		{"unknown mode", func(c *config.Config) { c.Mode = "base64" }, true},
		{"unknown cipher", func(c *config.Config) { c.Cipher = "des" }, true},
		{"zero chunk", func(c *config.Config) { c.ChunkSize = 0 }, true},
		{"huge chunk", func(c *config.Config) { c.ChunkSize = encryption.MaxChunkSize + 1 }, true},
		{"few iterations", func(c *config.Config) { c.Iterations = 999 }, true},
		{"no files", func(c *config.Config) { c.Files = nil }, true},
		{"empty file name", func(c *config.Config) { c.Files = []string{""} }, true},
		{"no parallelism", func(c *config.Config) { c.Parallel = 0 }, true},
		{"no suffix", func(c *config.Config) { c.EncryptSuffix = "" }, true},
		{"output with one file", func(c *config.Config) { c.Output = "out.fc" }, false},
		{"output with two files", func(c *config.Config) { c.Output, c.Files = "out.fc", []string{"a", "b"} }, true},
		{"stdin to stdout", func(c *config.Config) { c.Output, c.Files = config.Stdio, []string{config.Stdio} }, false},
		{"stdin without output", func(c *config.Config) { c.Files = []string{config.Stdio} }, true},
		{"stdin with delete", func(c *config.Config) {
			c.Output, c.Files, c.Delete = "out", []string{config.Stdio}, true
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && !errors.Is(err, encryption.ErrInvalidInput) {
				t.Errorf("Validate() error %v is not classified as invalid input", err)
			}
		})
	}
}

func TestValidateNamesFlags(t *testing.T) {
	cfg := validConfig()
	cfg.Iterations = 10

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() accepted 10 iterations")
	}

	if got := err.Error(); !strings.Contains(got, "--iterations") {
		t.Errorf("error %q does not name the flag", got)
	}
}

func TestValidateExclusiveMessage(t *testing.T) {
	cfg := validConfig()
	cfg.PasswordEnv = "PW"

	err := cfg.Validate()
	if !errors.Is(err, validator.ErrValidation) {
		t.Fatalf("Validate() error = %v, want a validation error", err)
	}

	if got := err.Error(); !strings.Contains(got, "--password is mutually exclusive") {
		t.Errorf("error %q does not explain the conflict", got)
	}
}

func TestStreamOptions(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "raw"
	cfg.Cipher = "aes-siv"
	cfg.ChunkSize = 1024
	cfg.Iterations = 5000

	opts, err := cfg.StreamOptions()
	if err != nil {
		t.Fatalf("StreamOptions: %v", err)
	}

	want := encryption.Options{
		Mode:       encryption.ModeRaw,
		Cipher:     encryption.CipherSIV,
		ChunkSize:  1024,
		Iterations: 5000,
	}

	if opts != want {
		t.Errorf("StreamOptions() = %+v, want %+v", opts, want)
	}
}

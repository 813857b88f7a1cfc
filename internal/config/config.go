// Package config holds the command-line configuration of fernetcrypt.
package config

import (
	"errors"
	"fmt"

	"github.com/idelchi/gogen/pkg/validator"

	"github.com/linsomniac/fernetcrypt/internal/encryption"
)

// Stdio is the path that stands for standard input or standard output.
const Stdio = "-"

// Config is populated by viper from flags and FERNETCRYPT_* environment variables.
type Config struct {
	// Password sources, at most one. With none set the password is prompted for.
	Password     string `mapstructure:"password"      validate:"exclusive=PasswordFile,exclusive=PasswordEnv"`
	PasswordFile string `mapstructure:"password-file" validate:"exclusive=PasswordEnv"`
	PasswordEnv  string `mapstructure:"password-env"`

	// Container options
	Mode       string `mapstructure:"mode"       validate:"oneof=tagged raw"`
	Cipher     string `mapstructure:"cipher"     validate:"oneof=ctr-hmac aes-siv"`
	ChunkSize  int    `mapstructure:"chunk-size" validate:"min=1,max=16777216"`
	Iterations int    `mapstructure:"iterations" validate:"min=1000"`

	// Output placement
	Output        string `mapstructure:"output"`
	EncryptSuffix string `mapstructure:"encrypt-ext" validate:"required"`
	DecryptSuffix string `mapstructure:"decrypt-ext"`

	// Behavior
	Parallel           int  `mapstructure:"parallel" validate:"min=1"`
	Quiet              bool `mapstructure:"quiet"`
	Delete             bool `mapstructure:"delete"`
	PreserveTimestamps bool `mapstructure:"preserve-timestamps"`
	Stats              bool `mapstructure:"stats"`
	Verbose            bool `mapstructure:"verbose"`

	// Set by the subcommand
	Decrypt bool `mapstructure:"-"`

	// Positional arguments
	Files []string `mapstructure:"-" validate:"min=1,dive,required"`
}

// Validate validates the configuration against the struct tags and cross-field rules.
func (c *Config) Validate() error {
	validate := validator.NewValidator()

	if err := registerExclusive(validate); err != nil {
		return err
	}

	if errs := validate.Validate(c); len(errs) > 0 {
		return fmt.Errorf("%w: validating configuration: %w", encryption.ErrInvalidInput, errors.Join(errs...))
	}

	if c.Output != "" && len(c.Files) != 1 {
		return fmt.Errorf("%w: --output requires exactly one input, got %d", encryption.ErrInvalidInput, len(c.Files))
	}

	for _, file := range c.Files {
		if file == Stdio && c.Output == "" {
			return fmt.Errorf("%w: reading from stdin requires --output", encryption.ErrInvalidInput)
		}

		if file == Stdio && c.Delete {
			return errors.Join(encryption.ErrInvalidInput, errors.New("--delete cannot be used with stdin"))
		}
	}

	return nil
}

// StreamOptions converts the container options into encryption.Options.
func (c *Config) StreamOptions() (encryption.Options, error) {
	mode, err := encryption.ParseMode(c.Mode)
	if err != nil {
		return encryption.Options{}, err
	}

	cipher, err := encryption.ParseCipher(c.Cipher)
	if err != nil {
		return encryption.Options{}, err
	}

	return encryption.Options{
		Mode:       mode,
		Cipher:     cipher,
		ChunkSize:  c.ChunkSize,
		Iterations: c.Iterations,
	}, nil
}

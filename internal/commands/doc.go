// Package commands provides the command-line interface for the fernetcrypt tool.
//
// It implements commands for:
//   - encryption
//   - decryption
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through cobra and viper.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/linsomniac/fernetcrypt/internal/config"
	"github.com/linsomniac/fernetcrypt/internal/encryption"
)

// preRun returns a PreRunE handler that binds flags and FERNETCRYPT_* variables
// into cfg, records the positional args and validates the result.
func preRun(cfg *config.Config, v *viper.Viper, decrypt bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("binding flags: %w", err)
		}

		if err := v.Unmarshal(cfg); err != nil {
			return fmt.Errorf("%w: parsing config: %w", encryption.ErrInvalidInput, err)
		}

		cfg.Files = args
		cfg.Decrypt = decrypt

		return cfg.Validate()
	}
}

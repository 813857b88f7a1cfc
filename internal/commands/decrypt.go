package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/linsomniac/fernetcrypt/internal/config"
	"github.com/linsomniac/fernetcrypt/internal/logic"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand(cfg *config.Config, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "decrypt [flags] files...",
		Aliases: []string{"dec"},
		Short:   "Decrypt files",
		Long: `Decrypt each container, stripping <encrypt-ext> and appending <decrypt-ext>.
--mode, --cipher, --chunk-size and --iterations must match the values used to encrypt.`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: preRun(cfg, v, true),
		RunE: func(_ *cobra.Command, _ []string) error {
			return logic.Run(cfg)
		},
	}
}

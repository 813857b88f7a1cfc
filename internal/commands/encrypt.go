package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/linsomniac/fernetcrypt/internal/config"
	"github.com/linsomniac/fernetcrypt/internal/logic"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "encrypt [flags] files...",
		Aliases: []string{"enc"},
		Short:   "Encrypt files",
		Long: `Encrypt each file into <file><encrypt-ext>, or into --output.
Use "-" as the file to read from stdin and as --output to write to stdout.`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: preRun(cfg, v, false),
		RunE: func(_ *cobra.Command, _ []string) error {
			return logic.Run(cfg)
		},
	}
}

package commands

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/idelchi/gogen/pkg/cobraext"

	"github.com/linsomniac/fernetcrypt/internal/config"
	"github.com/linsomniac/fernetcrypt/internal/encryption"
)

// EnvPrefix prefixes the environment variables that mirror the flags.
const EnvPrefix = "FERNETCRYPT"

// NewRootCommand creates the root command with common configuration.
// Flags and FERNETCRYPT_* variables are bound into a viper owned by this root,
// so separate roots never see each other's settings.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "fernetcrypt [flags] command [flags]",
		Short: "Password-based file encryption",
		Long: `Encrypt and decrypt files of any size with a password.
Files are processed in chunks, each one authenticated, so tampering,
truncation and wrong passwords are detected.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          cobraext.UnknownSubcommandAction,
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate("{{ .Version }}\n")

	addFlags(root.PersistentFlags())

	root.AddCommand(NewEncryptCommand(cfg, v), NewDecryptCommand(cfg, v))

	return root
}

// addFlags defines the flags shared by every subcommand.
func addFlags(flags *pflag.FlagSet) {
	flags.StringP("password", "p", "", "Password (visible in the process list, prefer the alternatives)")
	flags.String("password-file", "", "Read the password from this file")
	flags.String("password-env", "", "Read the password from this environment variable")

	flags.StringP("mode", "m", encryption.ModeTagged.String(), "Container header: tagged or raw")
	flags.String("cipher", encryption.CipherCTRHMAC.String(), "Chunk cipher: ctr-hmac or aes-siv")
	flags.Int("chunk-size", encryption.DefaultChunkSize, "Plaintext bytes per chunk")
	flags.Int("iterations", encryption.DefaultIterations, "PBKDF2 iterations")

	flags.StringP("output", "o", "", `Output path for a single input, "-" for stdout`)
	flags.String("encrypt-ext", ".fc", "Suffix to append to encrypted files")
	flags.String("decrypt-ext", "", "Suffix to append to decrypted files, after stripping the encrypted suffix")

	flags.IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	flags.BoolP("quiet", "q", false, "Suppress non-error output")
	flags.Bool("delete", false, "Delete the original file after successful encryption/decryption")
	flags.Bool("preserve-timestamps", false, "Copy the input modification time to the output")
	flags.Bool("stats", false, "Print a summary when done")
	flags.BoolP("verbose", "v", false, "Log chunk-level diagnostics to stderr")
}

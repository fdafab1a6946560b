// Package cli is the command-line surface of the bot: serve runs it, list and
// delete inspect a channel's pending scheduled messages from a terminal.
package cli

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-reminder-bot/internal/config"
	"github.com/tbourn/go-reminder-bot/internal/logging"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

var (
	cfg     config.Config
	envFile string
)

var rootCmd = &cobra.Command{
	Use:          "reminderbot",
	Short:        "Slack reminder and event scheduling bot",
	Long:         "Slash commands open modals; submissions become Slack scheduled messages.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Real environment variables win over the file.
		envErr := godotenv.Load(envFile)

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		logging.Setup(cfg.LogLevel, cfg.LogPretty)

		if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
			log.Warn().Err(envErr).Str("file", envFile).Msg("env file not loaded")
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newDeleteCmd())
}

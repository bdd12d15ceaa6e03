package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var logger = newLogger(false)

var rootCmd = &cobra.Command{
	Use:   "voicecut",
	Short: "Reduces polyphonic scores to a voice budget",
	Long: `Reduces every chord of a score to a maximum number of voices,
keeping repeated melodic material and the harmonically important tones.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

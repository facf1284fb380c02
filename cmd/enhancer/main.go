package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"ai-image-enhancer/internal/logging"

	"github.com/spf13/cobra"
)

// CLI flags
var (
	configFlag   string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "enhancer",
	Short: "Enhance images with Gemini through the relay",
	Long: `enhancer uploads an image to the enhancement relay, shows the result and
keeps a local history of past enhancements.

Examples:
  enhancer config init
  enhancer settings set --api-key AIza... --model models/gemini-2.5-flash-image
  enhancer enhance photo.jpg --level 4 --out ./results
  enhancer history list
  enhancer download 1718035200000 --out .`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevelFlag, true)
	},
}

func init() {
	defaultConfig := "enhancer.toml"
	if dir, err := os.UserConfigDir(); err == nil {
		defaultConfig = filepath.Join(dir, "ai-image-enhancer", "enhancer.toml")
	}
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", defaultConfig, "Path to the client TOML config")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(enhanceCmd(), historyCmd(), settingsCmd(), modelsCmd(), downloadCmd(), configCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

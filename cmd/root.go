package cmd

import (
	"log/slog"
	"os"

	"github.com/disgoorg/quest-bot/questbot"
	"github.com/disgoorg/quest-bot/questbot/logger"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"

	configPath string
	cfg        *questbot.Config
)

var rootCmd = &cobra.Command{
	Use:           "questbot",
	Short:         "Discord bot for shared quests between two people",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := questbot.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogger(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to config")
}

func setupLogger(c questbot.LogConfig) {
	var h slog.Handler
	if c.Format == "json" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: c.Level, AddSource: c.AddSource})
	} else {
		h = logger.NewHandler("questbot", c.Level)
	}
	slog.SetDefault(slog.New(h))
}

// Execute runs the CLI with the build metadata of the binary.
func Execute(v, c string) {
	version, commit = v, c
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed",
			slog.String("type", "sys"),
			slog.Any("error", err))
		os.Exit(1)
	}
}

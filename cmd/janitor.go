package cmd

import (
	"log/slog"
	"time"

	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/services"
	"github.com/spf13/cobra"
)

var maxAge = config.TempPhotoMaxAge

var janitorCMD = &cobra.Command{
	Use:   "janitor",
	Short: "remove leftover temporary photo downloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := services.CleanupTempFiles(cfg.Photos.Dir, maxAge, time.Now())
		if err != nil {
			return err
		}
		slog.Info("Temporary photos removed",
			slog.String("type", "sys"),
			slog.String("dir", cfg.Photos.Dir),
			slog.Int("removed", removed))
		return nil
	},
}

func init() {
	janitorCMD.Flags().DurationVar(&maxAge, "max-age", config.TempPhotoMaxAge, "remove files older than this")
	rootCmd.AddCommand(janitorCMD)
}

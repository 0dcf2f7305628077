package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/quest-bot/questbot"
	"github.com/disgoorg/quest-bot/questbot/commands"
	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/dashboard"
	"github.com/disgoorg/quest-bot/questbot/database"
	"github.com/disgoorg/quest-bot/questbot/database/repositories"
	"github.com/disgoorg/quest-bot/questbot/handlers"
	"github.com/disgoorg/quest-bot/questbot/notifier"
	"github.com/disgoorg/quest-bot/questbot/services"
	"github.com/spf13/cobra"
)

var syncCommands bool

var runCMD = &cobra.Command{
	Use:   "run",
	Short: "start the bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	runCMD.Flags().BoolVar(&syncCommands, "sync-commands", false, "Whether to sync commands to discord")
	rootCmd.AddCommand(runCMD)
}

func openDatabase(ctx context.Context) (*database.DB, error) {
	slog.Info("Initializing database connection...", slog.String("type", "db"))
	start := time.Now()

	db, err := database.New(ctx, database.Config{
		Host:         cfg.DB.Host,
		Port:         cfg.DB.Port,
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Database:     cfg.DB.Database,
		SSLMode:      cfg.DB.SSLMode,
		PoolSize:     cfg.DB.PoolSize,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxLifetime:  cfg.DB.MaxLifetime,
	})
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("type", "db"),
			slog.Any("error", err),
			slog.Duration("attempted_for", time.Since(start)))
		return nil, err
	}

	slog.Info("Database connected successfully",
		slog.String("type", "db"),
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(start)))
	return db, nil
}

func openArtifacts(ctx context.Context) (services.ArtifactStore, error) {
	if cfg.Spaces.Enabled() {
		slog.Info("Using Spaces artifact store",
			slog.String("type", "sys"),
			slog.String("bucket", cfg.Spaces.Bucket))
		return services.NewSpacesStore(ctx, services.SpacesOptions{
			Key:      cfg.Spaces.Key,
			Secret:   cfg.Spaces.Secret,
			Region:   cfg.Spaces.Region,
			Bucket:   cfg.Spaces.Bucket,
			Root:     cfg.Spaces.Root,
			Endpoint: cfg.Spaces.Endpoint,
		})
	}
	return services.NewLocalStore(cfg.Photos.Dir)
}

// build wires storage and services into a bot that is not connected yet.
func build(ctx context.Context, db *database.DB) (*questbot.Bot, error) {
	artifacts, err := openArtifacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}
	photos, err := services.NewPhotoIntake(services.PhotoIntakeConfig{
		Dir:     cfg.Photos.Dir,
		MaxSize: cfg.Photos.MaxSize,
		Quality: cfg.Photos.Quality,
	}, artifacts)
	if err != nil {
		return nil, fmt.Errorf("failed to set up photo intake: %w", err)
	}

	store := repositories.NewStore(db.BunDB())
	users, err := services.NewUserService(store)
	if err != nil {
		return nil, err
	}
	progress := services.NewProgressService(store)
	dm := notifier.New(cfg.Bot.AdminID, artifacts)

	b := questbot.New(*cfg, version, commit)
	b.DB = db
	b.Artifacts = artifacts
	b.Photos = photos
	b.Notifier = dm
	b.Users = users
	b.Progress = progress
	b.Quests = services.NewQuestService(store, artifacts)
	b.Submissions = services.NewSubmissionService(store, artifacts, dm, progress)

	if err = users.Seed(ctx, cfg.Bot.AdminID.String(), cfg.Bot.ParticipantID.String()); err != nil {
		return nil, err
	}

	removed, err := photos.CleanupTemp(config.TempPhotoMaxAge)
	if err != nil {
		slog.Warn("Temp photo cleanup failed", slog.String("type", "sys"), slog.Any("error", err))
	} else if removed > 0 {
		slog.Info("Removed stale temp photos", slog.String("type", "sys"), slog.Int("removed", removed))
	}
	return b, nil
}

func run(ctx context.Context) error {
	slog.Info("Starting quest bot",
		slog.String("type", "sys"),
		slog.String("version", version),
		slog.String("commit", commit))

	setupCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	db, err := openDatabase(setupCtx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err = db.Ping(setupCtx); err != nil {
		return err
	}
	if err = db.InitializeSchema(setupCtx); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	b, err := build(setupCtx, db)
	if err != nil {
		return err
	}

	h := handler.New()
	commands.Register(h, b)

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady), handlers.MessageHandler(b)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if syncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	var dash *dashboard.Server
	if cfg.Dashboard.Address != "" {
		dash = dashboard.New(cfg.Dashboard.Token, b.Progress, b.Participant)
		go func() {
			if err := dash.Listen(cfg.Dashboard.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Dashboard stopped", slog.String("type", "sys"), slog.Any("error", err))
			}
		}()
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(ctx, 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		return err
	}

	slog.Info("Bot is running. Press CTRL-C to exit.", slog.String("type", "sys"))
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...", slog.String("type", "sys"))

	if dash != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err = dash.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Dashboard shutdown failed", slog.String("type", "sys"), slog.Any("error", err))
		}
	}
	return nil
}

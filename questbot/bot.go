package questbot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
	"github.com/disgoorg/quest-bot/questbot/database"
	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/dialogue"
	"github.com/disgoorg/quest-bot/questbot/notifier"
	"github.com/disgoorg/quest-bot/questbot/services"
	"github.com/disgoorg/snowflake/v2"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Dialogues: dialogue.NewManager(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Dialogues *dialogue.Manager
	Version   string
	Commit    string

	DB          *database.DB
	Artifacts   services.ArtifactStore
	Photos      *services.PhotoIntake
	Notifier    *notifier.DMNotifier
	Users       *services.UserService
	Quests      *services.QuestService
	Submissions *services.SubmissionService
	Progress    *services.ProgressService
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentDirectMessages, gateway.IntentMessageContent)),
		bot.WithEventManagerConfigOpts(bot.WithAsyncEventsEnabled()),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	if b.Notifier != nil {
		b.Notifier.SetClient(client.Rest())
	}
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("Quest bot is now ready",
		slog.String("type", "sys"),
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("your quests"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.String("type", "sys"), slog.Any("error", err))
	}
}

type Role int

const (
	RoleNone Role = iota
	RoleAdmin
	RoleParticipant
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleParticipant:
		return "participant"
	default:
		return "none"
	}
}

// RoleOf maps a Discord user to one of the two configured identities.
func (b *Bot) RoleOf(id snowflake.ID) Role {
	switch id {
	case b.Cfg.Bot.AdminID:
		return RoleAdmin
	case b.Cfg.Bot.ParticipantID:
		return RoleParticipant
	default:
		return RoleNone
	}
}

// Identify returns the stored user for a known identity, creating it on first contact.
func (b *Bot) Identify(ctx context.Context, u discord.User) (*models.User, Role, error) {
	role := b.RoleOf(u.ID)
	if role == RoleNone {
		return nil, RoleNone, nil
	}
	user, err := b.Users.GetOrCreate(ctx, u.ID.String(), u.Username, role == RoleAdmin)
	if err != nil {
		return nil, role, fmt.Errorf("failed to load user %s: %w", u.ID, err)
	}
	return user, role, nil
}

// Participant returns the stored participant.
func (b *Bot) Participant(ctx context.Context) (*models.User, error) {
	return b.Users.Get(ctx, b.Cfg.Bot.ParticipantID.String())
}

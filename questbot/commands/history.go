package commands

import (
	"context"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/disgoorg/quest-bot/questbot"
	"github.com/disgoorg/quest-bot/questbot/components"
	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/handlers"
	"github.com/disgoorg/quest-bot/questbot/services"
)

var HistoryCommand = discord.SlashCommandCreate{
	Name:        "history",
	Description: "📜 Approved tasks, newest first",
}

// HistoryHandler pages through the participant's approved submissions.
// The administrator sees the participant's history too.
func HistoryHandler(b *questbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if b.RoleOf(e.User().ID) == questbot.RoleNone {
			return handlers.Deny(e)
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		participant, err := b.Participant(ctx)
		if err != nil {
			return handlers.RespondCommandError(e, "history", err)
		}
		first, err := b.Progress.History(ctx, participant.ID, 0, config.HistoryPerPage)
		if err != nil {
			return handlers.RespondCommandError(e, "history", err)
		}

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				current := first
				if page != 0 {
					pageCtx, pageCancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
					defer pageCancel()
					var pageErr error
					if current, pageErr = b.Progress.History(pageCtx, participant.ID, page, config.HistoryPerPage); pageErr != nil {
						slog.Error("Failed to load history page",
							slog.String("type", "db"),
							slog.Int("page", page),
							slog.Any("error", pageErr))
						current = &services.HistoryPage{Pages: first.Pages, Total: first.Total}
					}
				}
				components.HistoryPage(embed, current, page)
			},
			Pages:      first.Pages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

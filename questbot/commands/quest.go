package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/quest-bot/questbot"
	"github.com/disgoorg/quest-bot/questbot/components"
	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/handlers"
	"github.com/disgoorg/quest-bot/questbot/services"
	"github.com/disgoorg/quest-bot/questbot/utils"
)

var QuestCommand = discord.SlashCommandCreate{
	Name:        "quest",
	Description: "🎯 Open a quest for editing (admin)",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "quest",
			Description:  "Quest title",
			Required:     true,
			Autocomplete: true,
		},
	},
}

// resolveQuest accepts either an autocompleted quest id or a free-form title.
func resolveQuest(ctx context.Context, b *questbot.Bot, query string) (*models.Quest, error) {
	query = strings.TrimSpace(query)
	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		return b.Quests.GetQuest(ctx, id)
	}
	matches, err := b.Quests.SearchQuests(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("quest %q: %w", query, services.ErrNotFound)
	}
	return matches[0], nil
}

func QuestHandler(b *questbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if b.RoleOf(e.User().ID) != questbot.RoleAdmin {
			return handlers.Deny(e)
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		quest, err := resolveQuest(ctx, b, e.SlashCommandInteractionData().String("quest"))
		if err != nil {
			return handlers.RespondCommandError(e, "quest", err)
		}
		tasks, err := b.Quests.ListTasks(ctx, quest.ID)
		if err != nil {
			return handlers.RespondCommandError(e, "quest", err)
		}

		view := components.QuestDetails(quest, len(tasks))
		msg, att := view.Create(ctx, b.Artifacts)
		defer att.Close()
		return e.CreateMessage(msg)
	}
}

func QuestAutocomplete(b *questbot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		if b.RoleOf(e.User().ID) != questbot.RoleAdmin {
			return e.AutocompleteResult([]discord.AutocompleteChoice{})
		}

		focused := e.Data.Focused()
		query := ""
		if focused.Value != nil {
			if err := json.Unmarshal(focused.Value, &query); err != nil {
				slog.Error("Failed to unmarshal focused.Value",
					slog.String("type", "cmd"),
					slog.Any("error", err))
				return e.AutocompleteResult([]discord.AutocompleteChoice{})
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		quests, err := b.Quests.SearchQuests(ctx, strings.TrimSpace(query), config.MaxAutocompleteChoices)
		if err != nil {
			slog.Error("Failed to search quests",
				slog.String("type", "cmd"),
				slog.String("query", query),
				slog.Any("error", err))
			return e.AutocompleteResult([]discord.AutocompleteChoice{})
		}

		choices := make([]discord.AutocompleteChoice, 0, len(quests))
		for _, q := range quests {
			choices = append(choices, discord.AutocompleteChoiceString{
				Name:  utils.Truncate(q.Title, 100),
				Value: strconv.FormatInt(q.ID, 10),
			})
		}
		return e.AutocompleteResult(choices)
	}
}

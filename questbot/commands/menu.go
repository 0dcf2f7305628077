package commands

import (
	"context"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/quest-bot/questbot"
	"github.com/disgoorg/quest-bot/questbot/components"
	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/handlers"
)

var StartCommand = discord.SlashCommandCreate{
	Name:        "start",
	Description: "💞 Start the quest bot",
}

var MenuCommand = discord.SlashCommandCreate{
	Name:        "menu",
	Description: "🏠 Open the main menu",
}

var CancelCommand = discord.SlashCommandCreate{
	Name:        "cancel",
	Description: "✖ Cancel the current input",
}

// menuFor picks the menu of the user's role.
func menuFor(role questbot.Role, name string) components.View {
	if role == questbot.RoleAdmin {
		return components.AdminMenu()
	}
	return components.ParticipantMenu(name)
}

// MenuHandler serves /start and /menu. Both drop any unfinished dialogue.
func MenuHandler(b *questbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		user, role, err := b.Identify(ctx, e.User())
		if err != nil {
			return handlers.RespondCommandError(e, "menu", err)
		}
		if role == questbot.RoleNone {
			return handlers.Deny(e)
		}
		b.Dialogues.Cancel(e.User().ID)

		view := menuFor(role, user.Username)
		return e.CreateMessage(discord.MessageCreate{
			Embeds:     []discord.Embed{view.Embed},
			Components: view.Components,
		})
	}
}

func CancelHandler(b *questbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		role := b.RoleOf(e.User().ID)
		if role == questbot.RoleNone {
			return handlers.Deny(e)
		}

		msg := "Nothing to cancel."
		if b.Dialogues.Cancel(e.User().ID) {
			msg = "Cancelled. Nothing was saved."
		}
		view := menuFor(role, e.User().Username)
		return e.CreateMessage(discord.MessageCreate{
			Embeds:     []discord.Embed{components.Info(msg), view.Embed},
			Components: view.Components,
		})
	}
}

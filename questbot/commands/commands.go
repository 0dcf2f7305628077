package commands

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/quest-bot/questbot"
	"github.com/disgoorg/quest-bot/questbot/callbacks"
	"github.com/disgoorg/quest-bot/questbot/handlers"
)

var Commands = []discord.ApplicationCommandCreate{
	StartCommand,
	MenuCommand,
	CancelCommand,
	QuestCommand,
	HistoryCommand,
}

// Register wires every command, autocomplete and button route into r.
func Register(r handler.Router, b *questbot.Bot) {
	r.Command("/start", handlers.WrapWithLogging("start", MenuHandler(b)))
	r.Command("/menu", handlers.WrapWithLogging("menu", MenuHandler(b)))
	r.Command("/cancel", handlers.WrapWithLogging("cancel", CancelHandler(b)))
	r.Command("/quest", handlers.WrapWithLogging("quest", QuestHandler(b)))
	r.Autocomplete("/quest", QuestAutocomplete(b))
	r.Command("/history", handlers.WrapWithLogging("history", HistoryHandler(b)))
	r.Component(callbacks.Pattern, handlers.WrapComponentWithLogging("action", ActionHandler(b)))
}

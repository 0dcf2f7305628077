package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/quest-bot/questbot/callbacks"
	"github.com/disgoorg/quest-bot/questbot/components"
	"github.com/disgoorg/quest-bot/questbot/services"
)

// ErrorType represents different categories of errors for consistent handling
type ErrorType int

const (
	// UserError - validation failures the user can correct
	UserError ErrorType = iota
	// SystemError - database failures and anything unexpected
	SystemError
	// NotFoundError - the target was deleted in the meantime
	NotFoundError
	// PermissionError - neither of the two configured identities
	PermissionError
	// TransientError - downloads that may succeed on another try
	TransientError
)

const genericFailure = "Something went wrong, please try again."

// Classify maps an error onto the message shown to the user.
func Classify(err error) (ErrorType, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return NotFoundError, "That item no longer exists."
	case errors.Is(err, services.ErrSubmissionPending):
		return UserError, "This task is already waiting for review."
	case errors.Is(err, services.ErrAlreadyApproved):
		return UserError, "This task is already approved."
	case errors.Is(err, services.ErrDownloadFailed):
		return TransientError, "Could not download the photo. Please send it again."
	case errors.Is(err, services.ErrInvalidInput):
		_, reason, _ := strings.Cut(err.Error(), services.ErrInvalidInput.Error()+": ")
		if reason == "" {
			reason = "check the value and try again"
		}
		return UserError, "Invalid input: " + reason + "."
	case errors.Is(err, callbacks.ErrUnknownAction):
		return UserError, "This button is no longer supported. Open /menu again."
	default:
		return SystemError, genericFailure
	}
}

// ErrorEmbed logs unexpected failures and renders err for the user.
func ErrorEmbed(op string, err error) discord.Embed {
	kind, msg := Classify(err)
	if kind == SystemError {
		slog.Error("Request failed",
			slog.String("type", "error"),
			slog.String("op", op),
			slog.Any("error", err))
	} else {
		slog.Debug("Request rejected",
			slog.String("type", "cmd"),
			slog.String("op", op),
			slog.Any("error", err))
	}
	return components.Error(msg)
}

// RespondError answers a component interaction with an ephemeral error.
func RespondError(e *handler.ComponentEvent, op string, err error) error {
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{ErrorEmbed(op, err)},
		Flags:  discord.MessageFlagEphemeral,
	})
}

// RespondCommandError answers a slash command with an ephemeral error.
func RespondCommandError(e *handler.CommandEvent, op string, err error) error {
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{ErrorEmbed(op, err)},
		Flags:  discord.MessageFlagEphemeral,
	})
}

// Responder is any interaction that can be answered with a message.
type Responder interface {
	CreateMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error
}

// Deny answers anyone outside the two identities.
func Deny(e Responder) error {
	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{components.Denied()},
		Flags:  discord.MessageFlagEphemeral,
	})
}

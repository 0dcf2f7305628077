package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/quest-bot/questbot/config"
)

// interactionAttrs describes who triggered an interaction. Guild is absent in DMs.
func interactionAttrs(kind, name string, user discord.User, guildID, channelID fmt.Stringer) []any {
	attrs := []any{
		slog.String("type", kind),
		slog.String("name", name),
		slog.String("user_id", user.ID.String()),
		slog.String("user_name", user.Username),
	}
	if guildID != nil {
		attrs = append(attrs, slog.String("guild_id", guildID.String()))
	}
	if channelID != nil {
		attrs = append(attrs, slog.String("channel_id", channelID.String()))
	}
	return attrs
}

// track runs h and logs its outcome, giving up on it after the execution timeout.
func track(kind, label string, attrs []any, h func() error) error {
	start := time.Now()
	slog.Info(label+" started", attrs...)

	done := make(chan error, 1)
	go func() {
		done <- h()
	}()

	select {
	case err := <-done:
		attrs = append(attrs, slog.Duration("took", time.Since(start)))
		switch {
		case err != nil:
			slog.Error(label+" failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		case time.Since(start) > config.SlowCommandThreshold:
			slog.Warn(label+" executed slowly", append(attrs,
				slog.String("status", "slow"),
			)...)
		default:
			slog.Info(label+" completed", append(attrs,
				slog.String("status", "success"),
			)...)
		}
		return err

	case <-time.After(config.CommandExecutionTimeout):
		slog.Error(label+" timed out", append(attrs,
			slog.String("status", "timeout"),
			slog.Duration("timeout", config.CommandExecutionTimeout),
		)...)
		return fmt.Errorf("%s timed out after %s", kind, config.CommandExecutionTimeout)
	}
}

// WrapWithLogging wraps a command handler with logging functionality
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		attrs := interactionAttrs("cmd", name, e.User(), optionalID(e.GuildID()), e.ChannelID())
		return track("command", "Command", attrs, func() error { return h(e) })
	}
}

// WrapComponentWithLogging wraps a component handler with logging functionality
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		attrs := interactionAttrs("component", name, e.User(), optionalID(e.GuildID()), e.ChannelID())
		return track("component", "Component interaction", attrs, func() error { return h(e) })
	}
}

func optionalID[T fmt.Stringer](id *T) fmt.Stringer {
	if id == nil {
		return nil
	}
	return *id
}

// Package notifier delivers submission lifecycle events as Discord direct messages.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/quest-bot/questbot/components"
	"github.com/disgoorg/quest-bot/questbot/services"
	"github.com/disgoorg/snowflake/v2"
)

var ErrNotConnected = errors.New("discord client is not set")

// Messenger is the part of the Discord REST API the notifier needs.
type Messenger interface {
	CreateDMChannel(userID snowflake.ID, opts ...rest.RequestOpt) (*discord.DMChannel, error)
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
}

// DMNotifier implements services.Notifier over direct messages.
type DMNotifier struct {
	adminID   snowflake.ID
	artifacts services.ArtifactStore

	mu     sync.RWMutex
	client Messenger
}

var _ services.Notifier = (*DMNotifier)(nil)

func New(adminID snowflake.ID, artifacts services.ArtifactStore) *DMNotifier {
	return &DMNotifier{adminID: adminID, artifacts: artifacts}
}

// SetClient connects the notifier once the Discord client exists.
func (n *DMNotifier) SetClient(client Messenger) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.client = client
}

func (n *DMNotifier) SubmissionReceived(ctx context.Context, notice services.SubmissionNotice) error {
	return n.send(ctx, n.adminID, components.SubmissionReview(notice))
}

func (n *DMNotifier) SubmissionApproved(ctx context.Context, notice services.ApprovalNotice) error {
	return n.sendTo(ctx, notice.ParticipantID, components.Approved(notice))
}

func (n *DMNotifier) SubmissionRejected(ctx context.Context, notice services.RejectionNotice) error {
	return n.sendTo(ctx, notice.ParticipantID, components.Rejected(notice))
}

func (n *DMNotifier) QuestCompleted(ctx context.Context, notice services.CompletionNotice) error {
	return n.sendTo(ctx, notice.ParticipantID, components.Completed(notice))
}

func (n *DMNotifier) NextQuest(ctx context.Context, participantID string, view *services.QuestView) error {
	return n.sendTo(ctx, participantID, components.QuestView(view))
}

func (n *DMNotifier) sendTo(ctx context.Context, discordID string, view components.View) error {
	id, err := snowflake.Parse(discordID)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", discordID, err)
	}
	return n.send(ctx, id, view)
}

func (n *DMNotifier) send(ctx context.Context, userID snowflake.ID, view components.View) error {
	n.mu.RLock()
	client := n.client
	n.mu.RUnlock()
	if client == nil {
		return ErrNotConnected
	}

	channel, err := client.CreateDMChannel(userID, rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel with %s: %w", userID, err)
	}

	msg, att := view.Create(ctx, n.artifacts)
	defer att.Close()

	if _, err = client.CreateMessage(channel.ID(), msg, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to send DM to %s: %w", userID, err)
	}

	slog.Debug("Notification delivered",
		slog.String("type", "sys"),
		slog.String("recipient", userID.String()),
		slog.String("title", view.Embed.Title))
	return nil
}

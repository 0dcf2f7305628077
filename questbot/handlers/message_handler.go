package handlers

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/quest-bot/questbot"
	"github.com/disgoorg/quest-bot/questbot/components"
	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/dialogue"
	"github.com/disgoorg/quest-bot/questbot/services"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// PhotoURL returns the first image attachment of a message.
func PhotoURL(attachments []discord.Attachment) string {
	for _, a := range attachments {
		if a.Size > config.MaxPhotoBytes {
			continue
		}
		if a.ContentType != nil && strings.HasPrefix(*a.ContentType, "image/") {
			return a.URL
		}
		if imageExtensions[strings.ToLower(path.Ext(a.Filename))] {
			return a.URL
		}
	}
	return ""
}

// MessageHandler feeds direct messages into the sender's dialogue and finishes
// completed flows.
func MessageHandler(b *questbot.Bot) bot.EventListener {
	return bot.NewListenerFunc(func(e *events.DMMessageCreate) {
		author := e.Message.Author
		if author.Bot {
			return
		}
		role := b.RoleOf(author.ID)
		if role == questbot.RoleNone {
			return
		}

		reply := func(view components.View) {
			ctx, cancel := context.WithTimeout(context.Background(), config.NotificationTimeout)
			defer cancel()
			msg, att := view.Create(ctx, b.Artifacts)
			defer att.Close()
			if _, err := e.Client().Rest().CreateMessage(e.ChannelID, msg, rest.WithCtx(ctx)); err != nil {
				slog.Error("Failed to reply to direct message",
					slog.String("type", "sys"),
					slog.String("user_id", author.ID.String()),
					slog.Any("error", err))
			}
		}

		res, ok := b.Dialogues.Handle(author.ID, dialogue.Input{
			Text:     e.Message.Content,
			PhotoURL: PhotoURL(e.Message.Attachments),
		})
		if !ok {
			reply(components.View{Embed: components.Info("Use /menu to open the menu.")})
			return
		}
		if !res.Done {
			view := components.Prompt(res.Prompt)
			if res.Invalid {
				view.Embed.Color = config.WarningColor
			}
			reply(view)
			return
		}

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), config.PhotoIntakeTimeout)
		defer cancel()

		view, err := Finish(ctx, b, author, res.Session)
		attrs := []any{
			slog.String("type", "cmd"),
			slog.String("name", res.Session.Flow.String()),
			slog.String("user_id", author.ID.String()),
			slog.Duration("took", time.Since(start)),
		}
		if err != nil {
			if errors.Is(err, services.ErrDownloadFailed) && res.Session.Flow == dialogue.FlowSubmission {
				// let the participant resend the photo without pressing the task again
				b.Dialogues.StartSubmission(author.ID, res.Session.Submission.TaskID)
			}
			reply(components.View{Embed: ErrorEmbed(res.Session.Flow.String(), err)})
			slog.Warn("Dialogue flow failed", append(attrs, slog.Any("error", err))...)
			return
		}
		slog.Info("Dialogue flow completed", attrs...)
		reply(view)
	})
}

// Finish persists a completed dialogue session and returns the confirmation to show.
func Finish(ctx context.Context, b *questbot.Bot, author discord.User, s dialogue.Session) (components.View, error) {
	user, role, err := b.Identify(ctx, author)
	if err != nil {
		return components.View{}, err
	}

	switch s.Flow {
	case dialogue.FlowQuestCreate:
		if role != questbot.RoleAdmin {
			return components.View{}, errForbidden
		}
		return finishQuest(ctx, b, user, s.Quest)
	case dialogue.FlowTaskCreate:
		if role != questbot.RoleAdmin {
			return components.View{}, errForbidden
		}
		return finishTask(ctx, b, s.Task)
	case dialogue.FlowTaskEdit:
		if role != questbot.RoleAdmin {
			return components.View{}, errForbidden
		}
		task, err := b.Quests.EditTask(ctx, s.Edit.TaskID, s.Edit.Field, s.Edit.Value)
		if err != nil {
			return components.View{}, err
		}
		view := components.TaskDetails(task)
		view.Embed.Description = "✅ Saved.\n\n" + view.Embed.Description
		return view, nil
	case dialogue.FlowSubmission:
		if role != questbot.RoleParticipant {
			return components.View{}, errForbidden
		}
		return finishSubmission(ctx, b, user, s.Submission)
	default:
		return components.View{}, errors.New("unknown dialogue flow")
	}
}

var errForbidden = errors.New("flow not allowed for this user")

// fetchImage stores an optional image and returns a cleanup that removes it again.
func fetchImage(ctx context.Context, b *questbot.Bot, url string, role services.ArtifactRole) (string, func(), error) {
	if url == "" {
		return "", func() {}, nil
	}
	key, err := b.Photos.Fetch(ctx, url, role)
	if err != nil {
		return "", nil, err
	}
	return key, func() {
		if err := b.Artifacts.Delete(context.WithoutCancel(ctx), key); err != nil {
			slog.Warn("Failed to remove unused image",
				slog.String("type", "sys"),
				slog.String("key", key),
				slog.Any("error", err))
		}
	}, nil
}

func finishQuest(ctx context.Context, b *questbot.Bot, user *models.User, draft *dialogue.QuestDraft) (components.View, error) {
	key, cleanup, err := fetchImage(ctx, b, draft.ImageURL, services.RoleQuest)
	if err != nil {
		return components.View{}, err
	}
	quest, err := b.Quests.CreateQuest(ctx, services.QuestDraft{
		Title:               draft.Title,
		Description:         draft.Description,
		ImageKey:            key,
		Reward:              draft.Reward,
		RequiredCompletions: draft.Required,
		CreatedBy:           user.ID,
	})
	if err != nil {
		cleanup()
		return components.View{}, err
	}
	view := components.QuestDetails(quest, 0)
	view.Embed.Title = "✅ Quest created: " + quest.Title
	return view, nil
}

func finishTask(ctx context.Context, b *questbot.Bot, draft *dialogue.TaskDraft) (components.View, error) {
	key, cleanup, err := fetchImage(ctx, b, draft.ImageURL, services.RoleTask)
	if err != nil {
		return components.View{}, err
	}
	task, err := b.Quests.AddTask(ctx, services.TaskDraft{
		QuestID:       draft.QuestID,
		Title:         draft.Title,
		Description:   draft.Description,
		ImageKey:      key,
		Points:        draft.Points,
		ScheduledDate: draft.ScheduledDate,
	})
	if err != nil {
		cleanup()
		return components.View{}, err
	}
	view := components.TaskDetails(task)
	view.Embed.Title = "✅ Task added: " + task.Title
	return view, nil
}

func finishSubmission(ctx context.Context, b *questbot.Bot, user *models.User, draft *dialogue.SubmissionDraft) (components.View, error) {
	key, err := b.Photos.Fetch(ctx, draft.PhotoURL, services.RoleSubmission)
	if err != nil {
		return components.View{}, err
	}
	// CreatePending removes the photo itself when it fails
	if _, err = b.Submissions.CreatePending(ctx, draft.TaskID, user.ID, key, draft.Comment); err != nil {
		return components.View{}, err
	}
	return components.View{
		Embed:      components.Success("Sent for review! You will get a message once it is checked."),
		Components: components.ParticipantMenu(user.Username).Components,
	}, nil
}


package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/quest-bot/questbot"
	"github.com/disgoorg/quest-bot/questbot/callbacks"
	"github.com/disgoorg/quest-bot/questbot/components"
	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/handlers"
)

// Allowed reports whether role may trigger a.
func Allowed(role questbot.Role, a callbacks.Action) bool {
	switch {
	case role == questbot.RoleNone:
		return false
	case callbacks.AdminOnly(a):
		return role == questbot.RoleAdmin
	case callbacks.ParticipantOnly(a):
		return role == questbot.RoleParticipant
	default:
		return true
	}
}

// outcome is what an action changes on screen: the clicked message is replaced with
// replace or edited in place with edit, and followup is sent as a new message.
type outcome struct {
	replace  *components.View
	edit     *discord.MessageUpdate
	followup *components.View
}

type actionContext struct {
	ctx     context.Context
	b       *questbot.Bot
	user    discord.User
	role    questbot.Role
	message discord.Message
}

// ActionHandler decodes a button press once and runs the action it names.
func ActionHandler(b *questbot.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		action, err := callbacks.Parse(e.Data.CustomID())
		if err != nil {
			return handlers.RespondError(e, "decode", err)
		}
		role := b.RoleOf(e.User().ID)
		if !Allowed(role, action) {
			return handlers.Deny(e)
		}

		// Acknowledge immediately, reviews may wait on notifications
		if err = e.DeferUpdateMessage(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.PhotoIntakeTimeout)
		defer cancel()

		ac := actionContext{ctx: ctx, b: b, user: e.User(), role: role, message: e.Message}
		out, err := ac.run(action)
		if err != nil {
			_, ferr := e.CreateFollowupMessage(discord.MessageCreate{
				Embeds: []discord.Embed{handlers.ErrorEmbed(fmt.Sprintf("%T", action), err)},
				Flags:  discord.MessageFlagEphemeral,
			})
			return ferr
		}

		switch {
		case out.replace != nil:
			update, att := out.replace.Update(ctx, b.Artifacts)
			defer att.Close()
			if _, err = e.UpdateInteractionResponse(update); err != nil {
				return err
			}
		case out.edit != nil:
			if _, err = e.UpdateInteractionResponse(*out.edit); err != nil {
				return err
			}
		}

		if out.followup != nil {
			msg, att := out.followup.Create(ctx, b.Artifacts)
			defer att.Close()
			if _, err = e.CreateFollowupMessage(msg); err != nil {
				return err
			}
		}
		return nil
	}
}

func (ac actionContext) run(action callbacks.Action) (outcome, error) {
	b, ctx := ac.b, ac.ctx

	switch a := action.(type) {
	case callbacks.MainMenu:
		b.Dialogues.Cancel(ac.user.ID)
		return ac.menu("")
	case callbacks.Cancel:
		msg := "Nothing to cancel."
		if b.Dialogues.Cancel(ac.user.ID) {
			msg = "Cancelled. Nothing was saved."
		}
		return ac.menu(msg)

	case callbacks.CreateQuest:
		return prompt(components.Prompt(b.Dialogues.StartQuestCreation(ac.user.ID))), nil
	case callbacks.ManageQuests:
		return ac.questList()
	case callbacks.ManageQuest:
		return ac.questDetails(a.QuestID)
	case callbacks.QuestTasks:
		return ac.taskList(a.QuestID)
	case callbacks.AddTask:
		if _, err := b.Quests.GetQuest(ctx, a.QuestID); err != nil {
			return outcome{}, err
		}
		return prompt(components.Prompt(b.Dialogues.StartTaskCreation(ac.user.ID, a.QuestID))), nil
	case callbacks.DeleteQuest:
		quest, err := b.Quests.GetQuest(ctx, a.QuestID)
		if err != nil {
			return outcome{}, err
		}
		view := components.ConfirmDelete("quest "+quest.Title, callbacks.ConfirmDeleteQuest{QuestID: quest.ID}, callbacks.ManageQuest{QuestID: quest.ID})
		return outcome{replace: &view}, nil
	case callbacks.ConfirmDeleteQuest:
		if err := b.Quests.DeleteQuest(ctx, a.QuestID); err != nil {
			return outcome{}, err
		}
		out, err := ac.questList()
		out.followup = &components.View{Embed: components.Success("Quest deleted.")}
		return out, err

	case callbacks.EditTask:
		task, err := b.Quests.GetTask(ctx, a.TaskID)
		if err != nil {
			return outcome{}, err
		}
		view := components.TaskDetails(task)
		return outcome{replace: &view}, nil
	case callbacks.EditTaskField:
		if _, err := b.Quests.GetTask(ctx, a.TaskID); err != nil {
			return outcome{}, err
		}
		return prompt(components.Prompt(b.Dialogues.StartTaskEdit(ac.user.ID, a.TaskID, a.Field))), nil
	case callbacks.DeleteTask:
		task, err := b.Quests.GetTask(ctx, a.TaskID)
		if err != nil {
			return outcome{}, err
		}
		view := components.ConfirmDelete("task "+task.Title, callbacks.ConfirmDeleteTask{TaskID: task.ID}, callbacks.EditTask{TaskID: task.ID})
		return outcome{replace: &view}, nil
	case callbacks.ConfirmDeleteTask:
		task, err := b.Quests.GetTask(ctx, a.TaskID)
		if err != nil {
			return outcome{}, err
		}
		if err = b.Quests.DeleteTask(ctx, task.ID); err != nil {
			return outcome{}, err
		}
		out, err := ac.taskList(task.QuestID)
		out.followup = &components.View{Embed: components.Success("Task deleted.")}
		return out, err

	case callbacks.ParticipantStats:
		participant, err := b.Participant(ctx)
		if err != nil {
			return outcome{}, err
		}
		stats, err := b.Progress.Stats(ctx, participant.ID, time.Now())
		if err != nil {
			return outcome{}, err
		}
		view := components.Stats(participant.Username, stats)
		return outcome{replace: &view}, nil

	case callbacks.CurrentQuest:
		return ac.currentQuest()
	case callbacks.MyStats:
		user, _, err := b.Identify(ctx, ac.user)
		if err != nil {
			return outcome{}, err
		}
		stats, err := b.Progress.Stats(ctx, user.ID, time.Now())
		if err != nil {
			return outcome{}, err
		}
		view := components.Stats(user.Username, stats)
		return outcome{replace: &view}, nil
	case callbacks.Achievements:
		user, _, err := b.Identify(ctx, ac.user)
		if err != nil {
			return outcome{}, err
		}
		list, err := b.Progress.Achievements(ctx, user.ID)
		if err != nil {
			return outcome{}, err
		}
		view := components.Achievements(list)
		return outcome{replace: &view}, nil
	case callbacks.DoTask:
		user, _, err := b.Identify(ctx, ac.user)
		if err != nil {
			return outcome{}, err
		}
		task, err := b.Submissions.Start(ctx, a.TaskID, user.ID)
		if err != nil {
			return outcome{}, err
		}
		view := components.TaskPrompt(task)
		view.Embed.Description += "\n\n" + b.Dialogues.StartSubmission(ac.user.ID, task.ID)
		return prompt(view), nil

	case callbacks.Approve:
		return ac.approve(a.SubmissionID)
	case callbacks.Reject:
		return ac.reject(a.SubmissionID)
	}
	return outcome{}, fmt.Errorf("%w: %T", callbacks.ErrUnknownAction, action)
}

func prompt(view components.View) outcome {
	return outcome{followup: &view}
}

func (ac actionContext) menu(notice string) (outcome, error) {
	name := ac.user.Username
	if ac.role == questbot.RoleParticipant {
		if user, _, err := ac.b.Identify(ac.ctx, ac.user); err == nil {
			name = user.Username
		}
	}
	view := menuFor(ac.role, name)
	if notice != "" {
		view.Embed.Description = notice + "\n\n" + view.Embed.Description
	}
	return outcome{replace: &view}, nil
}

func (ac actionContext) questList() (outcome, error) {
	quests, err := ac.b.Quests.ListQuests(ac.ctx)
	if err != nil {
		return outcome{}, err
	}
	view := components.QuestList(quests)
	return outcome{replace: &view}, nil
}

func (ac actionContext) questDetails(questID int64) (outcome, error) {
	quest, err := ac.b.Quests.GetQuest(ac.ctx, questID)
	if err != nil {
		return outcome{}, err
	}
	tasks, err := ac.b.Quests.ListTasks(ac.ctx, questID)
	if err != nil {
		return outcome{}, err
	}
	view := components.QuestDetails(quest, len(tasks))
	return outcome{replace: &view}, nil
}

func (ac actionContext) taskList(questID int64) (outcome, error) {
	quest, err := ac.b.Quests.GetQuest(ac.ctx, questID)
	if err != nil {
		return outcome{}, err
	}
	tasks, err := ac.b.Quests.ListTasks(ac.ctx, questID)
	if err != nil {
		return outcome{}, err
	}
	view := components.TaskList(quest, tasks)
	return outcome{replace: &view}, nil
}

func (ac actionContext) currentQuest() (outcome, error) {
	user, _, err := ac.b.Identify(ac.ctx, ac.user)
	if err != nil {
		return outcome{}, err
	}
	current, err := ac.b.Progress.CurrentQuest(ac.ctx, user.ID)
	if err != nil {
		return outcome{}, err
	}
	view := components.QuestView(current)
	return outcome{replace: &view}, nil
}

// reviewed keeps the submission message and its photo but drops the buttons.
func (ac actionContext) reviewed(verdict string, color int) outcome {
	var embeds []discord.Embed
	if len(ac.message.Embeds) > 0 {
		embeds = []discord.Embed{components.Reviewed(ac.message.Embeds[0], verdict, color)}
	} else {
		embeds = []discord.Embed{{Description: verdict, Color: color}}
	}
	return outcome{edit: &discord.MessageUpdate{
		Embeds:     &embeds,
		Components: &[]discord.ContainerComponent{},
	}}
}

func (ac actionContext) approve(submissionID int64) (outcome, error) {
	res, err := ac.b.Submissions.Approve(ac.ctx, submissionID)
	if err != nil {
		return outcome{}, err
	}
	if res.AlreadyApproved {
		return ac.reviewed("✅ Already approved", config.InfoColor), nil
	}

	verdict := fmt.Sprintf("✅ Approved · %d/%d", res.Approved, res.Required)
	if res.QuestCompleted {
		verdict += " · 🎉 quest complete"
	}
	slog.Info("Submission approved",
		slog.String("type", "cmd"),
		slog.Int64("submission_id", submissionID),
		slog.Bool("quest_completed", res.QuestCompleted))
	return ac.reviewed(verdict, config.SuccessColor), nil
}

func (ac actionContext) reject(submissionID int64) (outcome, error) {
	if _, err := ac.b.Submissions.Reject(ac.ctx, submissionID); err != nil {
		return outcome{}, err
	}
	slog.Info("Submission rejected",
		slog.String("type", "cmd"),
		slog.Int64("submission_id", submissionID))
	return ac.reviewed("❌ Rejected", config.ErrorColor), nil
}

package components

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/quest-bot/questbot/callbacks"
	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/services"
)

// QuestList shows every active quest with a manage button each.
func QuestList(quests []models.QuestSummary) View {
	var desc strings.Builder
	buttons := []discord.InteractiveComponent{}
	for _, qs := range quests {
		fmt.Fprintf(&desc, "**#%d %s** · %d tasks · needs %d\n", qs.Quest.ID, qs.Quest.Title, qs.TaskCount, qs.Quest.RequiredCompletions)
		buttons = append(buttons, button(discord.ButtonStyleSecondary, qs.Quest.Title, callbacks.ManageQuest{QuestID: qs.Quest.ID}))
	}
	if len(quests) == 0 {
		desc.WriteString("_No quests yet._")
	}

	limit := (maxRows - 1) * config.MaxButtonsPerRow
	if len(buttons) > limit {
		buttons = buttons[:limit]
	}
	components := append(rows(buttons...), rows(
		button(discord.ButtonStylePrimary, "➕ New quest", callbacks.CreateQuest{}),
		backButton(),
	)...)

	return View{
		Embed: discord.NewEmbedBuilder().
			SetTitle("📋 Quests").
			SetDescription(desc.String()).
			SetColor(config.QuestColor).
			Build(),
		Components: components,
	}
}

// QuestDetails shows one quest with its management actions.
func QuestDetails(quest *models.Quest, taskCount int) View {
	embed := discord.NewEmbedBuilder().
		SetTitle("🎯 " + quest.Title).
		SetDescription(quest.Description).
		SetColor(config.QuestColor).
		AddField("Reward", orDash(quest.Reward), true).
		AddField("Required", fmt.Sprint(quest.RequiredCompletions), true).
		AddField("Tasks", fmt.Sprint(taskCount), true)
	if quest.ImageKey != "" {
		embed.SetImage(AttachmentURL(quest.ImageKey))
	}
	return View{
		Embed: embed.Build(),
		Components: rows(
			button(discord.ButtonStylePrimary, "📝 Tasks", callbacks.QuestTasks{QuestID: quest.ID}),
			button(discord.ButtonStylePrimary, "➕ Add task", callbacks.AddTask{QuestID: quest.ID}),
			button(discord.ButtonStyleDanger, "🗑 Delete", callbacks.DeleteQuest{QuestID: quest.ID}),
			button(discord.ButtonStyleSecondary, "⬅ Quests", callbacks.ManageQuests{}),
		),
		ImageKey: quest.ImageKey,
	}
}

// TaskList shows a quest's tasks in order with an edit button each.
func TaskList(quest *models.Quest, tasks []models.TaskSummary) View {
	var desc strings.Builder
	buttons := []discord.InteractiveComponent{}
	for _, ts := range tasks {
		marker := "▫️"
		if ts.Approved {
			marker = "✅"
		}
		fmt.Fprintf(&desc, "%s %d. **%s** · %d pts", marker, ts.Task.Position, ts.Task.Title, ts.Task.Points)
		if ts.Task.ScheduledDate != "" {
			desc.WriteString(" · 📅 " + ts.Task.ScheduledDate)
		}
		desc.WriteString("\n")
		buttons = append(buttons, button(discord.ButtonStyleSecondary, ts.Task.Title, callbacks.EditTask{TaskID: ts.Task.ID}))
	}
	if len(tasks) == 0 {
		desc.WriteString("_No tasks yet._")
	}

	limit := (maxRows - 1) * config.MaxButtonsPerRow
	if len(buttons) > limit {
		buttons = buttons[:limit]
	}
	components := append(rows(buttons...), rows(
		button(discord.ButtonStylePrimary, "➕ Add task", callbacks.AddTask{QuestID: quest.ID}),
		button(discord.ButtonStyleSecondary, "⬅ Quest", callbacks.ManageQuest{QuestID: quest.ID}),
	)...)

	return View{
		Embed: discord.NewEmbedBuilder().
			SetTitle("📝 Tasks of " + quest.Title).
			SetDescription(desc.String()).
			SetColor(config.QuestColor).
			Build(),
		Components: components,
	}
}

// TaskDetails shows a task with one edit button per field.
func TaskDetails(task *models.Task) View {
	embed := discord.NewEmbedBuilder().
		SetTitle("🔧 " + task.Title).
		SetDescription(task.Description).
		SetColor(config.InfoColor).
		AddField("Points", fmt.Sprint(task.Points), true).
		AddField("Date", orDash(task.ScheduledDate), true)
	if task.ImageKey != "" {
		embed.SetImage(AttachmentURL(task.ImageKey))
	}
	return View{
		Embed: embed.Build(),
		Components: rows(
			button(discord.ButtonStyleSecondary, "Title", callbacks.EditTaskField{TaskID: task.ID, Field: services.TaskFieldTitle}),
			button(discord.ButtonStyleSecondary, "Description", callbacks.EditTaskField{TaskID: task.ID, Field: services.TaskFieldDescription}),
			button(discord.ButtonStyleSecondary, "Points", callbacks.EditTaskField{TaskID: task.ID, Field: services.TaskFieldPoints}),
			button(discord.ButtonStyleSecondary, "Date", callbacks.EditTaskField{TaskID: task.ID, Field: services.TaskFieldDate}),
			button(discord.ButtonStyleDanger, "🗑 Delete", callbacks.DeleteTask{TaskID: task.ID}),
			button(discord.ButtonStyleSecondary, "⬅ Tasks", callbacks.QuestTasks{QuestID: task.QuestID}),
		),
		ImageKey: task.ImageKey,
	}
}

// ConfirmDelete asks before a destructive action.
func ConfirmDelete(what string, confirm, back callbacks.Action) View {
	return View{
		Embed: discord.Embed{
			Title:       "⚠️ Delete " + what + "?",
			Description: "All photos and submissions that belong to it are removed as well. This cannot be undone.",
			Color:       config.WarningColor,
		},
		Components: rows(
			button(discord.ButtonStyleDanger, "Delete", confirm),
			button(discord.ButtonStyleSecondary, "Keep", back),
		),
	}
}

// SubmissionReview is sent to the administrator with the submitted photo.
func SubmissionReview(n services.SubmissionNotice) View {
	desc := fmt.Sprintf("**%s** sent proof for **%s**\nQuest: %s · %d pts", n.SubmitterName, n.TaskTitle, n.QuestTitle, n.Points)
	if n.Comment != "" {
		desc += "\n\n💬 " + n.Comment
	}
	embed := discord.NewEmbedBuilder().
		SetTitle("📬 New submission").
		SetDescription(desc).
		SetColor(config.InfoColor).
		SetFooterText(fmt.Sprintf("Submission #%d", n.SubmissionID))
	if n.PhotoKey != "" {
		embed.SetImage(AttachmentURL(n.PhotoKey))
	}
	return View{
		Embed: embed.Build(),
		Components: rows(
			button(discord.ButtonStyleSuccess, "✅ Approve", callbacks.Approve{SubmissionID: n.SubmissionID}),
			button(discord.ButtonStyleDanger, "❌ Reject", callbacks.Reject{SubmissionID: n.SubmissionID}),
		),
		ImageKey: n.PhotoKey,
	}
}

// Reviewed replaces the review buttons once a decision was made.
func Reviewed(original discord.Embed, verdict string, color int) discord.Embed {
	original.Color = color
	original.Fields = append(original.Fields, discord.EmbedField{Name: "Decision", Value: verdict})
	return original
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

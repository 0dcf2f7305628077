// Package components renders core results into Discord embeds and buttons.
package components

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/quest-bot/questbot/callbacks"
	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/services"
	"github.com/disgoorg/quest-bot/questbot/utils"
)

const maxRows = 5

// View is a rendered message. ImageKey names an artifact that must be attached
// to the message and is referenced by the embed image.
type View struct {
	Embed      discord.Embed
	Components []discord.ContainerComponent
	ImageKey   string
}

// AttachmentURL is the embed reference to an attached artifact.
func AttachmentURL(key string) string {
	return "attachment://" + key
}

func button(style discord.ButtonStyle, label string, a callbacks.Action) discord.InteractiveComponent {
	return discord.ButtonComponent{
		Style:    style,
		Label:    utils.Truncate(label, config.MaxButtonLabelLength),
		CustomID: callbacks.CustomID(a),
	}
}

// rows lays buttons out five per row, dropping whatever does not fit in a message.
func rows(buttons ...discord.InteractiveComponent) []discord.ContainerComponent {
	var out []discord.ContainerComponent
	for len(buttons) > 0 && len(out) < maxRows {
		n := min(len(buttons), config.MaxButtonsPerRow)
		out = append(out, discord.NewActionRow(buttons[:n]...))
		buttons = buttons[n:]
	}
	return out
}

func backButton() discord.InteractiveComponent {
	return button(discord.ButtonStyleSecondary, "🏠 Menu", callbacks.MainMenu{})
}

// AdminMenu is the administrator's main menu.
func AdminMenu() View {
	return View{
		Embed: discord.NewEmbedBuilder().
			SetTitle("👑 Admin panel").
			SetDescription("Create quests, manage tasks and follow the participant's progress.").
			SetColor(config.QuestColor).
			Build(),
		Components: rows(
			button(discord.ButtonStylePrimary, "➕ New quest", callbacks.CreateQuest{}),
			button(discord.ButtonStylePrimary, "📋 Quests", callbacks.ManageQuests{}),
			button(discord.ButtonStyleSecondary, "📊 Stats", callbacks.ParticipantStats{}),
		),
	}
}

// ParticipantMenu is the participant's main menu.
func ParticipantMenu(name string) View {
	return View{
		Embed: discord.NewEmbedBuilder().
			SetTitle(fmt.Sprintf("💞 Hi, %s!", name)).
			SetDescription("Complete tasks, send a photo as proof and collect rewards.").
			SetColor(config.QuestColor).
			Build(),
		Components: rows(
			button(discord.ButtonStylePrimary, "🎯 Quest", callbacks.CurrentQuest{}),
			button(discord.ButtonStyleSecondary, "📊 My stats", callbacks.MyStats{}),
			button(discord.ButtonStyleSecondary, "🏆 Badges", callbacks.Achievements{}),
		),
	}
}

// Denied is shown to anyone who is neither the administrator nor the participant.
func Denied() discord.Embed {
	return discord.Embed{
		Description: "🚫 This bot is private.",
		Color:       config.ErrorColor,
	}
}

func taskMarker(state services.TaskState) string {
	switch state {
	case services.TaskApproved:
		return "✅"
	case services.TaskPending:
		return "⏳"
	case services.TaskScheduled:
		return "📅"
	default:
		return "🔹"
	}
}

// QuestView renders the participant's current quest. Only available tasks get a button.
// A nil view means every active quest is complete.
func QuestView(view *services.QuestView) View {
	if view == nil {
		return View{
			Embed: discord.NewEmbedBuilder().
				SetTitle("🎉 All quests complete").
				SetDescription("There are no quests left. New ones will show up here.").
				SetColor(config.RewardColor).
				Build(),
			Components: rows(backButton()),
		}
	}

	var desc strings.Builder
	if view.Quest.Description != "" {
		desc.WriteString(view.Quest.Description)
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "%s %d%%\n**%d/%d** tasks approved\n", view.Bar, view.Percent, view.Approved, view.Required)
	if view.Quest.Reward != "" {
		fmt.Fprintf(&desc, "🎁 Reward: **%s**\n", view.Quest.Reward)
	}
	desc.WriteString("\n")

	var buttons []discord.InteractiveComponent
	for _, tv := range view.Tasks {
		line := fmt.Sprintf("%s **%s** (%d pts)", taskMarker(tv.State), tv.Task.Title, tv.Task.Points)
		if tv.State == services.TaskScheduled {
			line += " from " + tv.Task.ScheduledDate
		}
		desc.WriteString(line + "\n")
		if tv.State == services.TaskAvailable {
			buttons = append(buttons, button(discord.ButtonStylePrimary, tv.Task.Title, callbacks.DoTask{TaskID: tv.Task.ID}))
		}
	}
	if len(view.Tasks) == 0 {
		desc.WriteString("_No tasks yet._\n")
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("🎯 " + view.Quest.Title).
		SetDescription(desc.String()).
		SetColor(config.QuestColor)
	if view.Quest.ImageKey != "" {
		embed.SetImage(AttachmentURL(view.Quest.ImageKey))
	}

	// the menu button always keeps its own row
	if len(buttons) > (maxRows-1)*config.MaxButtonsPerRow {
		buttons = buttons[:(maxRows-1)*config.MaxButtonsPerRow]
	}
	components := append(rows(buttons...), rows(backButton())...)
	return View{Embed: embed.Build(), Components: components, ImageKey: view.Quest.ImageKey}
}

// TaskPrompt introduces a task the participant chose before the photo is requested.
func TaskPrompt(task *models.Task) View {
	embed := discord.NewEmbedBuilder().
		SetTitle("📸 " + task.Title).
		SetDescription(task.Description).
		SetColor(config.InfoColor).
		SetFooterText(fmt.Sprintf("%d points", task.Points))
	if task.ImageKey != "" {
		embed.SetImage(AttachmentURL(task.ImageKey))
	}
	return View{
		Embed:      embed.Build(),
		Components: rows(button(discord.ButtonStyleDanger, "✖ Cancel", callbacks.Cancel{})),
		ImageKey:   task.ImageKey,
	}
}

// Stats renders the participant's statistics.
func Stats(name string, stats *services.Stats) View {
	var activity strings.Builder
	for _, day := range stats.Activity {
		fmt.Fprintf(&activity, "`%s` %s %d\n", day.Day.Format("Mon 02.01"), day.Bar, day.Count)
	}

	var quests strings.Builder
	for _, qp := range stats.Quests {
		marker := "🔸"
		if qp.Completed {
			marker = "✅"
		}
		fmt.Fprintf(&quests, "%s **%s** %s %d/%d\n", marker, qp.Quest.Title, qp.Bar, qp.Approved, qp.Required)
		if qp.Completed && qp.Quest.Reward != "" {
			fmt.Fprintf(&quests, "　🎁 %s\n", qp.Quest.Reward)
		}
	}
	if quests.Len() == 0 {
		quests.WriteString("_No active quests._")
	}

	return View{
		Embed: discord.NewEmbedBuilder().
			SetTitle("📊 Stats for "+name).
			SetColor(config.InfoColor).
			AddField("Approved tasks", fmt.Sprint(stats.TotalApproved), true).
			AddField("Points", fmt.Sprint(stats.TotalPoints), true).
			AddField("Awaiting review", fmt.Sprint(stats.Pending), true).
			AddField("Last 7 days", activity.String(), false).
			AddField("Quests", quests.String(), false).
			Build(),
		Components: rows(backButton()),
	}
}

// Achievements renders the milestone list.
func Achievements(list []services.Achievement) View {
	var desc strings.Builder
	earned := 0
	for _, a := range list {
		if a.Earned {
			earned++
			fmt.Fprintf(&desc, "%s\n%s\n\n", a.Title, a.Description)
		} else {
			fmt.Fprintf(&desc, "🔒 ~~%s~~\n%s\n\n", a.Title, a.Description)
		}
	}
	return View{
		Embed: discord.NewEmbedBuilder().
			SetTitle("🏆 Achievements").
			SetDescription(desc.String()).
			SetColor(config.RewardColor).
			SetFooterText(fmt.Sprintf("%d/%d unlocked", earned, len(list))).
			Build(),
		Components: rows(backButton()),
	}
}

// HistoryPage renders one page of approved submissions into embed.
func HistoryPage(embed *discord.EmbedBuilder, page *services.HistoryPage, index int) {
	var desc strings.Builder
	for _, sub := range page.Submissions {
		title := "deleted task"
		points := 0
		if sub.Task != nil {
			title, points = sub.Task.Title, sub.Task.Points
		}
		when := sub.SubmittedAt
		if sub.ApprovedAt != nil {
			when = *sub.ApprovedAt
		}
		fmt.Fprintf(&desc, "✅ **%s** · %d pts · %s\n", title, points, when.Format(config.DateLayout))
		if sub.Comment != "" {
			fmt.Fprintf(&desc, "　💬 %s\n", utils.Truncate(sub.Comment, 80))
		}
	}
	if len(page.Submissions) == 0 {
		desc.WriteString("_Nothing approved yet._")
	}
	embed.SetTitle("📜 History").
		SetDescription(desc.String()).
		SetColor(config.EmbedDefaultColor).
		SetFooterText(fmt.Sprintf("Page %d/%d • %d approved", index+1, page.Pages, page.Total))
}

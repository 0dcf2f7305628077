package components

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/quest-bot/questbot/callbacks"
	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/services"
	"github.com/disgoorg/quest-bot/questbot/utils"
)

func Approved(n services.ApprovalNotice) View {
	return View{
		Embed: discord.NewEmbedBuilder().
			SetTitle("✅ Task approved").
			SetDescription(fmt.Sprintf("**%s** was approved!\n\n%s\n%s: %d/%d",
				n.TaskTitle, utils.FormatProgressBar(n.Approved, n.Required), n.QuestTitle, n.Approved, n.Required)).
			SetColor(config.SuccessColor).
			Build(),
		Components: rows(button(discord.ButtonStylePrimary, "🎯 Quest", callbacks.CurrentQuest{})),
	}
}

func Rejected(n services.RejectionNotice) View {
	return View{
		Embed: discord.Embed{
			Title:       "❌ Task rejected",
			Description: fmt.Sprintf("**%s** was not accepted. You can send a new photo any time.", n.TaskTitle),
			Color:       config.WarningColor,
		},
		Components: rows(button(discord.ButtonStylePrimary, "🎯 Quest", callbacks.CurrentQuest{})),
	}
}

func Completed(n services.CompletionNotice) View {
	desc := fmt.Sprintf("You finished **%s**!", n.QuestTitle)
	if n.Reward != "" {
		desc += fmt.Sprintf("\n\n🎁 Your reward: **%s**", n.Reward)
	}
	return View{
		Embed: discord.Embed{
			Title:       "🎉 Quest complete",
			Description: desc,
			Color:       config.RewardColor,
		},
	}
}

// Success is a short confirmation.
func Success(msg string) discord.Embed {
	return discord.Embed{Description: "✅ " + msg, Color: config.SuccessColor}
}

// Info is a short neutral message.
func Info(msg string) discord.Embed {
	return discord.Embed{Description: msg, Color: config.InfoColor}
}

// Error is a short failure message.
func Error(msg string) discord.Embed {
	return discord.Embed{Description: "❌ " + msg, Color: config.ErrorColor}
}

// Prompt is a dialogue question with a cancel button.
func Prompt(msg string) View {
	return View{
		Embed:      discord.Embed{Description: msg, Color: config.EmbedDefaultColor},
		Components: rows(button(discord.ButtonStyleDanger, "✖ Cancel", callbacks.Cancel{})),
	}
}

package commands

import (
	"testing"

	"github.com/disgoorg/quest-bot/questbot"
	"github.com/disgoorg/quest-bot/questbot/callbacks"
	"github.com/disgoorg/quest-bot/questbot/services"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		action      callbacks.Action
		admin       bool
		participant bool
	}{
		{callbacks.MainMenu{}, true, true},
		{callbacks.Cancel{}, true, true},
		{callbacks.CreateQuest{}, true, false},
		{callbacks.ManageQuests{}, true, false},
		{callbacks.ConfirmDeleteQuest{QuestID: 1}, true, false},
		{callbacks.EditTaskField{TaskID: 1, Field: services.TaskFieldPoints}, true, false},
		{callbacks.ParticipantStats{}, true, false},
		{callbacks.Approve{SubmissionID: 1}, true, false},
		{callbacks.Reject{SubmissionID: 1}, true, false},
		{callbacks.CurrentQuest{}, false, true},
		{callbacks.MyStats{}, false, true},
		{callbacks.Achievements{}, false, true},
		{callbacks.DoTask{TaskID: 1}, false, true},
	}

	for _, tt := range tests {
		t.Run(callbacks.CustomID(tt.action), func(t *testing.T) {
			if got := Allowed(questbot.RoleAdmin, tt.action); got != tt.admin {
				t.Errorf("admin allowed = %v, want %v", got, tt.admin)
			}
			if got := Allowed(questbot.RoleParticipant, tt.action); got != tt.participant {
				t.Errorf("participant allowed = %v, want %v", got, tt.participant)
			}
			if Allowed(questbot.RoleNone, tt.action) {
				t.Error("stranger allowed")
			}
		})
	}
}

func TestCommandsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Commands {
		name := c.CommandName()
		if seen[name] {
			t.Errorf("duplicate command %q", name)
		}
		seen[name] = true
	}
	for _, want := range []string{"start", "menu", "cancel", "quest", "history"} {
		if !seen[want] {
			t.Errorf("command %q is not registered", want)
		}
	}
}

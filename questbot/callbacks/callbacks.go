// Package callbacks encodes button actions into component custom IDs and decodes them back.
// Every custom ID has the form /qb/<verb>/<id>; actions without a target use id 0.
package callbacks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/quest-bot/questbot/services"
)

const (
	Prefix = "/qb/"
	// Pattern is the handler route matching every action.
	Pattern = "/qb/{verb}/{id}"
)

var ErrUnknownAction = errors.New("unknown action")

// Action is one of the closed set of button actions below.
type Action interface {
	verb() string
	target() int64
}

// CustomID encodes a for use as a component custom ID.
func CustomID(a Action) string {
	return fmt.Sprintf("%s%s/%d", Prefix, a.verb(), a.target())
}

type (
	MainMenu         struct{}
	Cancel           struct{}
	CreateQuest      struct{}
	ManageQuests     struct{}
	ParticipantStats struct{}
	CurrentQuest     struct{}
	MyStats          struct{}
	Achievements     struct{}

	ManageQuest        struct{ QuestID int64 }
	QuestTasks         struct{ QuestID int64 }
	AddTask            struct{ QuestID int64 }
	DeleteQuest        struct{ QuestID int64 }
	ConfirmDeleteQuest struct{ QuestID int64 }

	EditTask          struct{ TaskID int64 }
	DeleteTask        struct{ TaskID int64 }
	ConfirmDeleteTask struct{ TaskID int64 }
	EditTaskField     struct {
		TaskID int64
		Field  services.TaskField
	}
	DoTask struct{ TaskID int64 }

	Approve struct{ SubmissionID int64 }
	Reject  struct{ SubmissionID int64 }
)

func (MainMenu) verb() string           { return "menu" }
func (Cancel) verb() string             { return "cancel" }
func (CreateQuest) verb() string        { return "quest-new" }
func (ManageQuests) verb() string       { return "quests" }
func (ParticipantStats) verb() string   { return "stats-of" }
func (CurrentQuest) verb() string       { return "current" }
func (MyStats) verb() string            { return "stats" }
func (Achievements) verb() string       { return "achievements" }
func (ManageQuest) verb() string        { return "quest" }
func (QuestTasks) verb() string         { return "tasks" }
func (AddTask) verb() string            { return "task-new" }
func (DeleteQuest) verb() string        { return "quest-del" }
func (ConfirmDeleteQuest) verb() string { return "quest-del-ok" }
func (EditTask) verb() string           { return "task" }
func (DeleteTask) verb() string         { return "task-del" }
func (ConfirmDeleteTask) verb() string  { return "task-del-ok" }
func (a EditTaskField) verb() string    { return "edit-" + string(a.Field) }
func (DoTask) verb() string             { return "do" }
func (Approve) verb() string            { return "approve" }
func (Reject) verb() string             { return "reject" }

func (MainMenu) target() int64             { return 0 }
func (Cancel) target() int64               { return 0 }
func (CreateQuest) target() int64          { return 0 }
func (ManageQuests) target() int64         { return 0 }
func (ParticipantStats) target() int64     { return 0 }
func (CurrentQuest) target() int64         { return 0 }
func (MyStats) target() int64              { return 0 }
func (Achievements) target() int64         { return 0 }
func (a ManageQuest) target() int64        { return a.QuestID }
func (a QuestTasks) target() int64         { return a.QuestID }
func (a AddTask) target() int64            { return a.QuestID }
func (a DeleteQuest) target() int64        { return a.QuestID }
func (a ConfirmDeleteQuest) target() int64 { return a.QuestID }
func (a EditTask) target() int64           { return a.TaskID }
func (a DeleteTask) target() int64         { return a.TaskID }
func (a ConfirmDeleteTask) target() int64  { return a.TaskID }
func (a EditTaskField) target() int64      { return a.TaskID }
func (a DoTask) target() int64             { return a.TaskID }
func (a Approve) target() int64            { return a.SubmissionID }
func (a Reject) target() int64             { return a.SubmissionID }

var decoders = map[string]func(id int64) Action{
	"menu":         func(int64) Action { return MainMenu{} },
	"cancel":       func(int64) Action { return Cancel{} },
	"quest-new":    func(int64) Action { return CreateQuest{} },
	"quests":       func(int64) Action { return ManageQuests{} },
	"stats-of":     func(int64) Action { return ParticipantStats{} },
	"current":      func(int64) Action { return CurrentQuest{} },
	"stats":        func(int64) Action { return MyStats{} },
	"achievements": func(int64) Action { return Achievements{} },
	"quest":        func(id int64) Action { return ManageQuest{QuestID: id} },
	"tasks":        func(id int64) Action { return QuestTasks{QuestID: id} },
	"task-new":     func(id int64) Action { return AddTask{QuestID: id} },
	"quest-del":    func(id int64) Action { return DeleteQuest{QuestID: id} },
	"quest-del-ok": func(id int64) Action { return ConfirmDeleteQuest{QuestID: id} },
	"task":         func(id int64) Action { return EditTask{TaskID: id} },
	"task-del":     func(id int64) Action { return DeleteTask{TaskID: id} },
	"task-del-ok":  func(id int64) Action { return ConfirmDeleteTask{TaskID: id} },
	"do":           func(id int64) Action { return DoTask{TaskID: id} },
	"approve":      func(id int64) Action { return Approve{SubmissionID: id} },
	"reject":       func(id int64) Action { return Reject{SubmissionID: id} },
}

// Parse decodes a custom ID produced by CustomID.
func Parse(customID string) (Action, error) {
	rest, ok := strings.CutPrefix(customID, Prefix)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, customID)
	}
	verb, rawID, ok := strings.Cut(rest, "/")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, customID)
	}
	return Decode(verb, rawID)
}

// Decode builds an action from the verb and id segments of a custom ID.
func Decode(verb, rawID string) (Action, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id < 0 {
		return nil, fmt.Errorf("%w: bad id %q", ErrUnknownAction, rawID)
	}

	if field, ok := strings.CutPrefix(verb, "edit-"); ok {
		f := services.TaskField(field)
		if !f.Valid() {
			return nil, fmt.Errorf("%w: task field %q", ErrUnknownAction, field)
		}
		return EditTaskField{TaskID: id, Field: f}, nil
	}

	decode, ok := decoders[verb]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, verb)
	}
	return decode(id), nil
}

// AdminOnly reports whether only the administrator may trigger a.
func AdminOnly(a Action) bool {
	switch a.(type) {
	case MainMenu, Cancel, CurrentQuest, MyStats, Achievements, DoTask:
		return false
	}
	return true
}

// ParticipantOnly reports whether only the participant may trigger a.
func ParticipantOnly(a Action) bool {
	switch a.(type) {
	case CurrentQuest, MyStats, Achievements, DoTask:
		return true
	}
	return false
}

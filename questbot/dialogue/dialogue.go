package dialogue

import (
	"errors"
	"strings"
	"sync"

	"github.com/disgoorg/quest-bot/questbot/services"
	"github.com/disgoorg/quest-bot/questbot/utils"
	"github.com/disgoorg/snowflake/v2"
)

type Flow int

const (
	FlowNone Flow = iota
	FlowQuestCreate
	FlowTaskCreate
	FlowTaskEdit
	FlowSubmission
)

func (f Flow) String() string {
	switch f {
	case FlowQuestCreate:
		return "quest_create"
	case FlowTaskCreate:
		return "task_create"
	case FlowTaskEdit:
		return "task_edit"
	case FlowSubmission:
		return "submission"
	default:
		return "none"
	}
}

type Step int

const (
	StepNone Step = iota

	StepQuestTitle
	StepQuestDescription
	StepQuestImage
	StepQuestReward
	StepQuestRequired

	StepTaskTitle
	StepTaskDescription
	StepTaskImage
	StepTaskPoints
	StepTaskDate

	StepEditValue

	StepSubmissionPhoto
	StepSubmissionComment
)

type QuestDraft struct {
	Title       string
	Description string
	ImageURL    string
	Reward      string
	Required    int
}

type TaskDraft struct {
	QuestID       int64
	Title         string
	Description   string
	ImageURL      string
	Points        int
	ScheduledDate string
}

type EditDraft struct {
	TaskID int64
	Field  services.TaskField
	Value  string
}

type SubmissionDraft struct {
	TaskID   int64
	PhotoURL string
	Comment  string
}

// Session is one user's in-progress entry. Exactly one draft matches Flow.
type Session struct {
	Flow       Flow
	Step       Step
	Quest      *QuestDraft
	Task       *TaskDraft
	Edit       *EditDraft
	Submission *SubmissionDraft
}

// Input is one direct message: text, an attached photo, or both (a captioned photo).
type Input struct {
	Text     string
	PhotoURL string
}

// Result is the outcome of feeding one input into a session.
type Result struct {
	// Prompt is the next question, or the re-prompt when Invalid is set.
	Prompt  string
	Invalid bool
	// Done is set when the flow finished. Session then holds the completed draft
	// and the user no longer has an active session.
	Done    bool
	Session Session
}

// Manager keeps dialogue sessions per Discord user.
type Manager struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[snowflake.ID]*Session)}
}

func (m *Manager) start(user snowflake.ID, s *Session) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[user] = s
	return promptFor(s)
}

func (m *Manager) StartQuestCreation(user snowflake.ID) string {
	return m.start(user, &Session{Flow: FlowQuestCreate, Step: StepQuestTitle, Quest: &QuestDraft{}})
}

func (m *Manager) StartTaskCreation(user snowflake.ID, questID int64) string {
	return m.start(user, &Session{Flow: FlowTaskCreate, Step: StepTaskTitle, Task: &TaskDraft{QuestID: questID}})
}

func (m *Manager) StartTaskEdit(user snowflake.ID, taskID int64, field services.TaskField) string {
	return m.start(user, &Session{Flow: FlowTaskEdit, Step: StepEditValue, Edit: &EditDraft{TaskID: taskID, Field: field}})
}

func (m *Manager) StartSubmission(user snowflake.ID, taskID int64) string {
	return m.start(user, &Session{Flow: FlowSubmission, Step: StepSubmissionPhoto, Submission: &SubmissionDraft{TaskID: taskID}})
}

// Cancel drops the user's session and reports whether one existed.
func (m *Manager) Cancel(user snowflake.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[user]
	delete(m.sessions, user)
	return ok
}

// Active returns a copy of the user's session.
func (m *Manager) Active(user snowflake.ID) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[user]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Handle advances the user's session with in. It returns false when the user has no session.
func (m *Manager) Handle(user snowflake.ID, in Input) (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[user]
	if !ok {
		return Result{}, false
	}

	if msg := advance(s, in); msg != "" {
		return Result{Prompt: msg, Invalid: true, Session: *s}, true
	}
	if s.Step == StepNone {
		delete(m.sessions, user)
		return Result{Done: true, Session: *s}, true
	}
	return Result{Prompt: promptFor(s), Session: *s}, true
}

// advance applies in to the current step and moves on. It returns a re-prompt on invalid input.
func advance(s *Session, in Input) string {
	text := strings.TrimSpace(in.Text)

	switch s.Step {
	case StepQuestTitle:
		if text == "" {
			return "The title cannot be empty. Enter the quest title:"
		}
		s.Quest.Title, s.Step = text, StepQuestDescription
	case StepQuestDescription:
		if text == "" {
			return "Enter the quest description:"
		}
		s.Quest.Description, s.Step = text, StepQuestImage
	case StepQuestImage:
		url, msg := optionalPhoto(in, text)
		if msg != "" {
			return msg
		}
		s.Quest.ImageURL, s.Step = url, StepQuestReward
	case StepQuestReward:
		if text == "" {
			return "Enter the reward for finishing the quest:"
		}
		s.Quest.Reward, s.Step = text, StepQuestRequired
	case StepQuestRequired:
		n, err := utils.ParseInt(text, 1)
		if err != nil {
			return "Enter a whole number greater than zero:"
		}
		s.Quest.Required, s.Step = n, StepNone

	case StepTaskTitle:
		if text == "" {
			return "The title cannot be empty. Enter the task title:"
		}
		s.Task.Title, s.Step = text, StepTaskDescription
	case StepTaskDescription:
		if text == "" {
			return "Enter the task description:"
		}
		s.Task.Description, s.Step = text, StepTaskImage
	case StepTaskImage:
		url, msg := optionalPhoto(in, text)
		if msg != "" {
			return msg
		}
		s.Task.ImageURL, s.Step = url, StepTaskPoints
	case StepTaskPoints:
		n, err := utils.ParseInt(text, 0)
		if err != nil {
			return "Enter the points as a whole number (0 or more):"
		}
		s.Task.Points, s.Step = n, StepTaskDate
	case StepTaskDate:
		date, err := utils.ParseScheduledDate(text)
		if err != nil {
			return "Invalid date. Use YYYY-MM-DD or type `none`:"
		}
		s.Task.ScheduledDate, s.Step = date, StepNone

	case StepEditValue:
		value, msg := validateEdit(s.Edit.Field, text)
		if msg != "" {
			return msg
		}
		s.Edit.Value, s.Step = value, StepNone

	case StepSubmissionPhoto:
		if in.PhotoURL == "" {
			return "📸 Please send a photo of the completed task."
		}
		s.Submission.PhotoURL = in.PhotoURL
		if text != "" {
			s.Submission.Comment, s.Step = text, StepNone
		} else {
			s.Step = StepSubmissionComment
		}
	case StepSubmissionComment:
		if in.PhotoURL != "" && text == "" {
			return "The photo is already attached. Now write a comment:"
		}
		if text == "" {
			return "Write a comment about the task:"
		}
		s.Submission.Comment, s.Step = text, StepNone
	}
	return ""
}

func optionalPhoto(in Input, text string) (string, string) {
	if in.PhotoURL != "" {
		return in.PhotoURL, ""
	}
	if utils.IsNone(text) {
		return "", ""
	}
	return "", "Send a photo or type `none`:"
}

var errEmpty = errors.New("empty value")

func validateEdit(field services.TaskField, text string) (string, string) {
	var err error
	switch field {
	case services.TaskFieldTitle, services.TaskFieldDescription:
		if text == "" {
			err = errEmpty
		}
	case services.TaskFieldPoints:
		_, err = utils.ParseInt(text, 0)
	case services.TaskFieldDate:
		text, err = utils.ParseScheduledDate(text)
		if err == nil && text == "" {
			text = "none"
		}
	}
	if err != nil {
		return "", "Invalid value. " + editPrompt(field)
	}
	return text, ""
}

func promptFor(s *Session) string {
	switch s.Step {
	case StepQuestTitle:
		return "📝 **New quest**\n\nEnter the quest title:"
	case StepQuestDescription:
		return "Enter the quest description:"
	case StepQuestImage:
		return "🖼️ Send a quest image or type `none`:"
	case StepQuestReward:
		return "🎁 Enter the reward for finishing the quest:"
	case StepQuestRequired:
		return "🔢 How many tasks must be approved to finish the quest?"
	case StepTaskTitle:
		return "📝 **New task**\n\nEnter the task title:"
	case StepTaskDescription:
		return "Enter the task description:"
	case StepTaskImage:
		return "🖼️ Send a task image or type `none`:"
	case StepTaskPoints:
		return "⭐ How many points is the task worth?"
	case StepTaskDate:
		return "📅 Enter the date the task opens (YYYY-MM-DD) or type `none`:"
	case StepEditValue:
		return editPrompt(s.Edit.Field)
	case StepSubmissionPhoto:
		return "📸 Send a photo of the completed task."
	case StepSubmissionComment:
		return "💬 Now write a comment about the task:"
	}
	return ""
}

func editPrompt(field services.TaskField) string {
	switch field {
	case services.TaskFieldTitle:
		return "Enter the new title:"
	case services.TaskFieldDescription:
		return "Enter the new description:"
	case services.TaskFieldPoints:
		return "Enter the new number of points:"
	case services.TaskFieldDate:
		return "Enter the new date (YYYY-MM-DD) or type `none`:"
	}
	return "Enter the new value:"
}

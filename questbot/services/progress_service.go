package services

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/database/repositories"
	"github.com/disgoorg/quest-bot/questbot/utils"
)

// TaskState is how a task is shown in the participant's quest view.
type TaskState int

const (
	TaskAvailable TaskState = iota
	TaskApproved
	TaskPending
	TaskScheduled
)

func (s TaskState) String() string {
	switch s {
	case TaskApproved:
		return "approved"
	case TaskPending:
		return "pending"
	case TaskScheduled:
		return "scheduled"
	default:
		return "available"
	}
}

// ResolveTaskState applies the display precedence approved > pending > scheduled > available.
// today is a YYYY-MM-DD date; ISO dates compare correctly as strings.
func ResolveTaskState(task *models.Task, approved, pending bool, today string) TaskState {
	switch {
	case approved:
		return TaskApproved
	case pending:
		return TaskPending
	case task.ScheduledDate != "" && task.ScheduledDate > today:
		return TaskScheduled
	default:
		return TaskAvailable
	}
}

type TaskView struct {
	Task  *models.Task
	State TaskState
}

// QuestView is the participant's current quest with per-task state.
type QuestView struct {
	Quest    *models.Quest
	Approved int
	Required int
	Percent  int
	Bar      string
	Tasks    []TaskView
}

// QuestProgress is one quest's approved count against its threshold.
type QuestProgress struct {
	Quest     *models.Quest
	Approved  int
	Required  int
	Completed bool
	Bar       string
}

type DayActivity struct {
	Day   time.Time
	Count int
	Bar   string
}

type Stats struct {
	TotalApproved int
	TotalPoints   int
	Pending       int
	Activity      []DayActivity
	Quests        []QuestProgress
}

type Achievement struct {
	Title       string
	Description string
	Earned      bool
}

type ProgressService struct {
	store Store
	now   func() time.Time
}

func NewProgressService(store Store) *ProgressService {
	return &ProgressService{store: store, now: time.Now}
}

// CurrentQuest returns the lowest-id active quest the user has not completed, or nil.
func (s *ProgressService) CurrentQuest(ctx context.Context, userID int64) (*QuestView, error) {
	r := s.store.Repos()

	completed, err := r.Completions.QuestIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed quests: %w", err)
	}
	quest, err := r.Quests.FirstActiveExcluding(ctx, completed)
	if err != nil {
		return nil, fmt.Errorf("failed to select current quest: %w", err)
	}
	if quest == nil {
		return nil, nil
	}
	return s.questView(ctx, r, quest, userID)
}

func (s *ProgressService) questView(ctx context.Context, r *repositories.Repositories, quest *models.Quest, userID int64) (*QuestView, error) {
	tasks, err := r.Tasks.ListByQuest(ctx, quest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	approvedIDs, err := r.Submissions.TaskIDs(ctx, quest.ID, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved tasks: %w", err)
	}
	pendingIDs, err := r.Submissions.TaskIDs(ctx, quest.ID, userID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending tasks: %w", err)
	}
	count, err := r.Submissions.CountApprovedForQuest(ctx, quest.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count approvals: %w", err)
	}

	approved := idSet(approvedIDs)
	pending := idSet(pendingIDs)
	today := utils.Today(s.now())

	view := &QuestView{
		Quest:    quest,
		Approved: count,
		Required: quest.RequiredCompletions,
		Percent:  utils.Percent(count, quest.RequiredCompletions),
		Bar:      utils.FormatProgressBar(count, quest.RequiredCompletions),
		Tasks:    make([]TaskView, 0, len(tasks)),
	}
	for _, t := range tasks {
		view.Tasks = append(view.Tasks, TaskView{
			Task:  t,
			State: ResolveTaskState(t, approved[t.ID], pending[t.ID], today),
		})
	}
	return view, nil
}

func (s *ProgressService) QuestProgress(ctx context.Context, questID, userID int64) (*QuestProgress, error) {
	r := s.store.Repos()

	quest, err := r.Quests.GetByID(ctx, questID)
	if err != nil {
		return nil, notFound(err, "quest", questID)
	}
	return questProgress(ctx, r, quest, userID)
}

func questProgress(ctx context.Context, r *repositories.Repositories, quest *models.Quest, userID int64) (*QuestProgress, error) {
	count, err := r.Submissions.CountApprovedForQuest(ctx, quest.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count approvals: %w", err)
	}
	done, err := r.Completions.Exists(ctx, quest.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check completion: %w", err)
	}
	return &QuestProgress{
		Quest:     quest,
		Approved:  count,
		Required:  quest.RequiredCompletions,
		Completed: done,
		Bar:       utils.FormatProgressBar(count, quest.RequiredCompletions),
	}, nil
}

// Stats aggregates lifetime counts, the last week of activity (oldest day first) and per-quest progress.
func (s *ProgressService) Stats(ctx context.Context, userID int64, now time.Time) (*Stats, error) {
	r := s.store.Repos()
	stats := &Stats{}

	var err error
	if stats.TotalApproved, err = r.Submissions.CountApproved(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to count approved submissions: %w", err)
	}
	if stats.TotalPoints, err = r.Submissions.SumApprovedPoints(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to sum points: %w", err)
	}
	if stats.Pending, err = r.Submissions.CountPending(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to count pending submissions: %w", err)
	}

	start := startOfDay(now).AddDate(0, 0, -(config.ActivityDays - 1))
	times, err := r.Submissions.ApprovedTimesSince(ctx, userID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	stats.Activity = bucketByDay(times, start, config.ActivityDays)

	quests, err := r.Quests.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quests: %w", err)
	}
	for _, q := range quests {
		p, err := questProgress(ctx, r, q, userID)
		if err != nil {
			return nil, err
		}
		stats.Quests = append(stats.Quests, *p)
	}
	return stats, nil
}

// HistoryPage is one page of a user's approved submissions, newest first.
type HistoryPage struct {
	Submissions []*models.Submission
	Total       int
	Pages       int
}

// History returns page (zero based) of the user's approved submissions.
func (s *ProgressService) History(ctx context.Context, userID int64, page, perPage int) (*HistoryPage, error) {
	if perPage <= 0 {
		return nil, invalid("page size must be positive")
	}
	page = max(page, 0)

	subs, total, err := s.store.Repos().Submissions.ListApproved(ctx, userID, page*perPage, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return &HistoryPage{
		Submissions: subs,
		Total:       total,
		Pages:       max(1, (total+perPage-1)/perPage),
	}, nil
}

// Achievements evaluates the fixed milestones against lifetime counts.
func (s *ProgressService) Achievements(ctx context.Context, userID int64) ([]Achievement, error) {
	r := s.store.Repos()

	approved, err := r.Submissions.CountApproved(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count approved submissions: %w", err)
	}
	quests, err := r.Completions.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed quests: %w", err)
	}
	return EvaluateAchievements(approved, quests), nil
}

func EvaluateAchievements(approved, completedQuests int) []Achievement {
	return []Achievement{
		{Title: "🏆 Newcomer", Description: "Complete 1 task", Earned: approved >= config.AchievementFirstTask},
		{Title: "⭐ Experienced", Description: "Complete 10 tasks", Earned: approved >= config.AchievementTenTasks},
		{Title: "💪 Pro", Description: "Complete 25 tasks", Earned: approved >= config.AchievementQuarterTask},
		{Title: "👑 Legend", Description: "Complete 50 tasks", Earned: approved >= config.AchievementFiftyTasks},
		{Title: "🎯 First Quest", Description: "Finish 1 quest", Earned: completedQuests >= config.AchievementFirstQuest},
		{Title: "🌟 Quest Master", Description: "Finish 3 quests", Earned: completedQuests >= config.AchievementThreeQuests},
	}
}

func bucketByDay(times []time.Time, start time.Time, days int) []DayActivity {
	activity := make([]DayActivity, days)
	for i := range activity {
		activity[i].Day = start.AddDate(0, 0, i)
	}
	for _, t := range times {
		t = t.In(start.Location())
		for i := days - 1; i >= 0; i-- {
			if !t.Before(activity[i].Day) {
				if i < days-1 || t.Before(activity[i].Day.AddDate(0, 0, 1)) {
					activity[i].Count++
				}
				break
			}
		}
	}
	for i := range activity {
		activity[i].Bar = utils.ActivityBar(activity[i].Count)
	}
	return activity
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

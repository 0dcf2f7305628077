package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/database/repositories"
	"github.com/disgoorg/quest-bot/questbot/utils"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"
)

// TaskField names an editable task attribute.
type TaskField string

const (
	TaskFieldTitle       TaskField = "title"
	TaskFieldDescription TaskField = "desc"
	TaskFieldPoints      TaskField = "points"
	TaskFieldDate        TaskField = "date"
)

func (f TaskField) Valid() bool {
	switch f {
	case TaskFieldTitle, TaskFieldDescription, TaskFieldPoints, TaskFieldDate:
		return true
	}
	return false
}

type QuestDraft struct {
	Title               string
	Description         string
	ImageKey            string
	Reward              string
	RequiredCompletions int
	CreatedBy           int64
}

type TaskDraft struct {
	QuestID       int64
	Title         string
	Description   string
	ImageKey      string
	Points        int
	ScheduledDate string
}

// QuestService covers quest and task administration.
type QuestService struct {
	store     Store
	artifacts ArtifactStore
}

func NewQuestService(store Store, artifacts ArtifactStore) *QuestService {
	return &QuestService{store: store, artifacts: artifacts}
}

func (s *QuestService) CreateQuest(ctx context.Context, draft QuestDraft) (*models.Quest, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, invalid("quest title is empty")
	}
	if draft.RequiredCompletions <= 0 {
		return nil, invalid("required completions must be positive, got %d", draft.RequiredCompletions)
	}

	quest := &models.Quest{
		Title:               strings.TrimSpace(draft.Title),
		Description:         draft.Description,
		ImageKey:            draft.ImageKey,
		Reward:              draft.Reward,
		RequiredCompletions: draft.RequiredCompletions,
		IsActive:            true,
		CreatedBy:           draft.CreatedBy,
	}
	if err := s.store.Repos().Quests.Create(ctx, quest); err != nil {
		return nil, fmt.Errorf("failed to create quest: %w", err)
	}

	slog.Info("Quest created",
		slog.String("type", "db"),
		slog.Int64("quest_id", quest.ID),
		slog.String("title", quest.Title))
	return quest, nil
}

// AddTask appends a task to the end of its quest.
func (s *QuestService) AddTask(ctx context.Context, draft TaskDraft) (*models.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, invalid("task title is empty")
	}
	if draft.Points < 0 {
		return nil, invalid("points must not be negative, got %d", draft.Points)
	}
	date, err := utils.ParseScheduledDate(draft.ScheduledDate)
	if err != nil {
		return nil, invalid("%v", err)
	}

	task := &models.Task{
		QuestID:       draft.QuestID,
		Title:         strings.TrimSpace(draft.Title),
		Description:   draft.Description,
		ImageKey:      draft.ImageKey,
		Points:        draft.Points,
		ScheduledDate: date,
	}
	err = s.store.Transaction(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		if _, err := r.Quests.GetByID(ctx, draft.QuestID); err != nil {
			return notFound(err, "quest", draft.QuestID)
		}
		count, err := r.Tasks.CountByQuest(ctx, draft.QuestID)
		if err != nil {
			return fmt.Errorf("failed to count tasks: %w", err)
		}
		task.Position = count + 1
		return r.Tasks.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Task created",
		slog.String("type", "db"),
		slog.Int64("quest_id", task.QuestID),
		slog.Int64("task_id", task.ID),
		slog.Int("position", task.Position))
	return task, nil
}

// EditTask sets one field from raw user input. Dates accept "none" to clear the schedule.
func (s *QuestService) EditTask(ctx context.Context, taskID int64, field TaskField, value string) (*models.Task, error) {
	r := s.store.Repos()

	task, err := r.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err, "task", taskID)
	}

	var column string
	switch field {
	case TaskFieldTitle:
		if strings.TrimSpace(value) == "" {
			return nil, invalid("task title is empty")
		}
		task.Title, column = strings.TrimSpace(value), "title"
	case TaskFieldDescription:
		task.Description, column = value, "description"
	case TaskFieldPoints:
		points, err := utils.ParseInt(value, 0)
		if err != nil {
			return nil, invalid("%v", err)
		}
		task.Points, column = points, "points"
	case TaskFieldDate:
		date, err := utils.ParseScheduledDate(value)
		if err != nil {
			return nil, invalid("%v", err)
		}
		task.ScheduledDate, column = date, "scheduled_date"
	default:
		return nil, invalid("unknown task field %q", field)
	}

	if err = r.Tasks.Update(ctx, task, column); err != nil {
		return nil, notFound(err, "task", taskID)
	}
	return task, nil
}

// DeleteTask removes every artifact under the task, then the task row.
// Submissions go with the row.
func (s *QuestService) DeleteTask(ctx context.Context, taskID int64) error {
	r := s.store.Repos()

	task, err := r.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return notFound(err, "task", taskID)
	}
	subs, err := r.Submissions.ListByTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to load task submissions: %w", err)
	}

	keys := []string{task.ImageKey}
	for _, sub := range subs {
		keys = append(keys, sub.PhotoKey)
	}
	s.deleteArtifacts(ctx, keys)

	deleted, err := r.Tasks.Delete(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}

	slog.Info("Task deleted",
		slog.String("type", "db"),
		slog.Int64("task_id", taskID),
		slog.Int("artifacts", len(keys)))
	return nil
}

// DeleteQuest removes the quest image and every task and submission artifact, then the quest row.
// Tasks, submissions and completions go with the row.
func (s *QuestService) DeleteQuest(ctx context.Context, questID int64) error {
	r := s.store.Repos()

	quest, err := r.Quests.GetByID(ctx, questID)
	if err != nil {
		return notFound(err, "quest", questID)
	}
	tasks, err := r.Tasks.ListByQuest(ctx, questID)
	if err != nil {
		return fmt.Errorf("failed to load quest tasks: %w", err)
	}
	subs, err := r.Submissions.ListByQuest(ctx, questID)
	if err != nil {
		return fmt.Errorf("failed to load quest submissions: %w", err)
	}

	keys := []string{quest.ImageKey}
	for _, t := range tasks {
		keys = append(keys, t.ImageKey)
	}
	for _, sub := range subs {
		keys = append(keys, sub.PhotoKey)
	}
	s.deleteArtifacts(ctx, keys)

	deleted, err := r.Quests.Delete(ctx, questID)
	if err != nil {
		return fmt.Errorf("failed to delete quest: %w", err)
	}
	if !deleted {
		return fmt.Errorf("quest %d: %w", questID, ErrNotFound)
	}

	slog.Info("Quest deleted",
		slog.String("type", "db"),
		slog.Int64("quest_id", questID),
		slog.Int("tasks", len(tasks)),
		slog.Int("artifacts", len(keys)))
	return nil
}

// deleteArtifacts removes artifacts concurrently. Failures are logged inside deleteArtifact.
func (s *QuestService) deleteArtifacts(ctx context.Context, keys []string) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(config.MaxConcurrentDeletes)
	for _, key := range keys {
		if key == "" {
			continue
		}
		g.Go(func() error {
			deleteArtifact(ctx, s.artifacts, key)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *QuestService) GetQuest(ctx context.Context, questID int64) (*models.Quest, error) {
	quest, err := s.store.Repos().Quests.GetByID(ctx, questID)
	if err != nil {
		return nil, notFound(err, "quest", questID)
	}
	return quest, nil
}

func (s *QuestService) GetTask(ctx context.Context, taskID int64) (*models.Task, error) {
	task, err := s.store.Repos().Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err, "task", taskID)
	}
	return task, nil
}

func (s *QuestService) ListQuests(ctx context.Context) ([]models.QuestSummary, error) {
	summaries, err := s.store.Repos().Quests.ListActiveWithTaskCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	return summaries, nil
}

// ListTasks returns the quest's tasks in order, flagging those with any approved submission.
func (s *QuestService) ListTasks(ctx context.Context, questID int64) ([]models.TaskSummary, error) {
	r := s.store.Repos()

	tasks, err := r.Tasks.ListByQuest(ctx, questID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	approvedIDs, err := r.Submissions.ApprovedTaskIDs(ctx, questID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved tasks: %w", err)
	}
	approved := idSet(approvedIDs)

	summaries := make([]models.TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		summaries = append(summaries, models.TaskSummary{Task: t, Approved: approved[t.ID]})
	}
	return summaries, nil
}

type questSource []*models.Quest

func (q questSource) String(i int) string { return q[i].Title }
func (q questSource) Len() int            { return len(q) }

// SearchQuests fuzzy-matches active quest titles. An empty query lists quests in id order.
func (s *QuestService) SearchQuests(ctx context.Context, query string, limit int) ([]*models.Quest, error) {
	quests, err := s.store.Repos().Quests.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	query = strings.TrimSpace(query)
	var results []*models.Quest
	if query == "" {
		results = quests
	} else {
		for _, match := range fuzzy.FindFrom(query, questSource(quests)) {
			results = append(results, quests[match.Index])
		}
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

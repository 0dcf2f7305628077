package repositories

import (
	"context"

	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/uptrace/bun"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	// GetByID loads the task together with its quest.
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	ListByQuest(ctx context.Context, questID int64) ([]*models.Task, error)
	CountByQuest(ctx context.Context, questID int64) (int, error)
	Update(ctx context.Context, task *models.Task, columns ...string) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type taskRepository struct {
	db bun.IDB
}

func NewTaskRepository(db bun.IDB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().Model(task).Returning("id").Exec(ctx)
	return handleError("create", "task", task.Title, err)
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	task := new(models.Task)
	err := r.db.NewSelect().
		Model(task).
		Relation("Quest").
		Where("t.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, handleError("get_by_id", "task", id, err)
	}
	return task, nil
}

func (r *taskRepository) ListByQuest(ctx context.Context, questID int64) ([]*models.Task, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var tasks []*models.Task
	err := r.db.NewSelect().
		Model(&tasks).
		Where("quest_id = ?", questID).
		Order("position ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, handleError("list_by_quest", "task", questID, err)
	}
	return tasks, nil
}

func (r *taskRepository) CountByQuest(ctx context.Context, questID int64) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := r.db.NewSelect().
		Model((*models.Task)(nil)).
		Where("quest_id = ?", questID).
		Count(ctx)
	if err != nil {
		return 0, handleError("count_by_quest", "task", questID, err)
	}
	return n, nil
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task, columns ...string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := r.db.NewUpdate().Model(task).WherePK()
	if len(columns) > 0 {
		query = query.Column(columns...)
	} else {
		query = query.ExcludeColumn("id", "quest_id")
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return handleError("update", "task", task.ID, err)
	}
	if rowsAffected(res) == 0 {
		return &NotFoundError{Entity: "task", ID: task.ID}
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.NewDelete().
		Model((*models.Task)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, handleError("delete", "task", id, err)
	}
	return rowsAffected(res) > 0, nil
}

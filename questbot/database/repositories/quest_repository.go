package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/uptrace/bun"
)

type QuestRepository interface {
	Create(ctx context.Context, quest *models.Quest) error
	GetByID(ctx context.Context, id int64) (*models.Quest, error)
	ListActive(ctx context.Context) ([]*models.Quest, error)
	ListActiveWithTaskCounts(ctx context.Context) ([]models.QuestSummary, error)
	// FirstActiveExcluding returns the lowest-id active quest not in excluded, or nil when none remain.
	FirstActiveExcluding(ctx context.Context, excluded []int64) (*models.Quest, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type questRepository struct {
	db bun.IDB
}

func NewQuestRepository(db bun.IDB) QuestRepository {
	return &questRepository{db: db}
}

func (r *questRepository) Create(ctx context.Context, quest *models.Quest) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().Model(quest).Returning("id, created_at").Exec(ctx)
	return handleError("create", "quest", quest.Title, err)
}

func (r *questRepository) GetByID(ctx context.Context, id int64) (*models.Quest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	quest := new(models.Quest)
	err := r.db.NewSelect().
		Model(quest).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, handleError("get_by_id", "quest", id, err)
	}
	return quest, nil
}

func (r *questRepository) ListActive(ctx context.Context) ([]*models.Quest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var quests []*models.Quest
	err := r.db.NewSelect().
		Model(&quests).
		Where("is_active").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, handleError("list_active", "quest", nil, err)
	}
	return quests, nil
}

func (r *questRepository) ListActiveWithTaskCounts(ctx context.Context) ([]models.QuestSummary, error) {
	quests, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var counts []struct {
		QuestID int64 `bun:"quest_id"`
		N       int   `bun:"n"`
	}
	err = r.db.NewSelect().
		Model((*models.Task)(nil)).
		Column("quest_id").
		ColumnExpr("COUNT(*) AS n").
		Group("quest_id").
		Scan(ctx, &counts)
	if err != nil {
		return nil, handleError("count_tasks", "quest", nil, err)
	}

	byQuest := make(map[int64]int, len(counts))
	for _, c := range counts {
		byQuest[c.QuestID] = c.N
	}

	summaries := make([]models.QuestSummary, 0, len(quests))
	for _, q := range quests {
		summaries = append(summaries, models.QuestSummary{Quest: q, TaskCount: byQuest[q.ID]})
	}
	return summaries, nil
}

func (r *questRepository) FirstActiveExcluding(ctx context.Context, excluded []int64) (*models.Quest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	quest := new(models.Quest)
	query := r.db.NewSelect().
		Model(quest).
		Where("is_active")
	if len(excluded) > 0 {
		query = query.Where("id NOT IN (?)", bun.In(excluded))
	}
	err := query.Order("id ASC").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, handleError("first_active", "quest", nil, err)
	}
	return quest, nil
}

func (r *questRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.NewDelete().
		Model((*models.Quest)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, handleError("delete", "quest", id, err)
	}
	return rowsAffected(res) > 0, nil
}

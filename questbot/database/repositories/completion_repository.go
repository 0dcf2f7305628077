package repositories

import (
	"context"

	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/uptrace/bun"
)

type CompletionRepository interface {
	// CreateIfAbsent inserts the completion unless one already exists for the quest and user.
	// It reports whether a row was created.
	CreateIfAbsent(ctx context.Context, completion *models.QuestCompletion) (bool, error)
	Exists(ctx context.Context, questID, userID int64) (bool, error)
	QuestIDs(ctx context.Context, userID int64) ([]int64, error)
	Count(ctx context.Context, userID int64) (int, error)
}

type completionRepository struct {
	db bun.IDB
}

func NewCompletionRepository(db bun.IDB) CompletionRepository {
	return &completionRepository{db: db}
}

func (r *completionRepository) CreateIfAbsent(ctx context.Context, completion *models.QuestCompletion) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.insertIfAbsent(completion).Exec(ctx)
	if err != nil {
		return false, handleError("create", "quest_completion", completion.QuestID, err)
	}
	return rowsAffected(res) == 1, nil
}

func (r *completionRepository) insertIfAbsent(completion *models.QuestCompletion) *bun.InsertQuery {
	return r.db.NewInsert().
		Model(completion).
		On("CONFLICT (quest_id, user_id) DO NOTHING")
}

func (r *completionRepository) Exists(ctx context.Context, questID, userID int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	exists, err := r.db.NewSelect().
		Model((*models.QuestCompletion)(nil)).
		Where("quest_id = ? AND user_id = ?", questID, userID).
		Exists(ctx)
	if err != nil {
		return false, handleError("exists", "quest_completion", questID, err)
	}
	return exists, nil
}

func (r *completionRepository) QuestIDs(ctx context.Context, userID int64) ([]int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var ids []int64
	err := r.db.NewSelect().
		Model((*models.QuestCompletion)(nil)).
		Column("quest_id").
		Where("user_id = ?", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, handleError("quest_ids", "quest_completion", userID, err)
	}
	return ids, nil
}

func (r *completionRepository) Count(ctx context.Context, userID int64) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := r.db.NewSelect().
		Model((*models.QuestCompletion)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, handleError("count", "quest_completion", userID, err)
	}
	return n, nil
}

package repositories

import (
	"context"
	"time"

	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/uptrace/bun"
)

const tasksOfQuest = "s.task_id IN (SELECT id FROM tasks WHERE quest_id = ?)"

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	// GetByID loads the submission together with its task and the task's quest.
	GetByID(ctx context.Context, id int64) (*models.Submission, error)
	ListPending(ctx context.Context, taskID, userID int64) ([]*models.Submission, error)
	ListByTask(ctx context.Context, taskID int64) ([]*models.Submission, error)
	ListByQuest(ctx context.Context, questID int64) ([]*models.Submission, error)
	// ListApproved pages through a user's approved submissions, newest first, and returns the total.
	ListApproved(ctx context.Context, userID int64, offset, limit int) ([]*models.Submission, int, error)
	// MarkApproved flips a pending submission to approved. It reports false when nothing changed.
	MarkApproved(ctx context.Context, id int64, at time.Time) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	CountApprovedForQuest(ctx context.Context, questID, userID int64) (int, error)
	CountApproved(ctx context.Context, userID int64) (int, error)
	CountPending(ctx context.Context, userID int64) (int, error)
	SumApprovedPoints(ctx context.Context, userID int64) (int, error)
	// TaskIDs returns the ids of a quest's tasks the user has approved (or pending) submissions for.
	TaskIDs(ctx context.Context, questID, userID int64, approved bool) ([]int64, error)
	// ApprovedTaskIDs returns the ids of a quest's tasks with at least one approved submission.
	ApprovedTaskIDs(ctx context.Context, questID int64) ([]int64, error)
	ApprovedTimesSince(ctx context.Context, userID int64, since time.Time) ([]time.Time, error)
}

type submissionRepository struct {
	db bun.IDB
}

func NewSubmissionRepository(db bun.IDB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().Model(submission).Returning("id").Exec(ctx)
	return handleError("create", "submission", submission.TaskID, err)
}

func (r *submissionRepository) GetByID(ctx context.Context, id int64) (*models.Submission, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	submission := new(models.Submission)
	err := r.db.NewSelect().
		Model(submission).
		Relation("Task").
		Relation("Task.Quest").
		Where("s.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, handleError("get_by_id", "submission", id, err)
	}
	return submission, nil
}

func (r *submissionRepository) ListPending(ctx context.Context, taskID, userID int64) ([]*models.Submission, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var submissions []*models.Submission
	err := r.db.NewSelect().
		Model(&submissions).
		Where("s.task_id = ? AND s.user_id = ? AND NOT s.is_approved", taskID, userID).
		Scan(ctx)
	if err != nil {
		return nil, handleError("list_pending", "submission", taskID, err)
	}
	return submissions, nil
}

func (r *submissionRepository) ListByTask(ctx context.Context, taskID int64) ([]*models.Submission, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var submissions []*models.Submission
	err := r.db.NewSelect().
		Model(&submissions).
		Where("s.task_id = ?", taskID).
		Scan(ctx)
	if err != nil {
		return nil, handleError("list_by_task", "submission", taskID, err)
	}
	return submissions, nil
}

func (r *submissionRepository) ListByQuest(ctx context.Context, questID int64) ([]*models.Submission, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var submissions []*models.Submission
	err := r.db.NewSelect().
		Model(&submissions).
		Where(tasksOfQuest, questID).
		Scan(ctx)
	if err != nil {
		return nil, handleError("list_by_quest", "submission", questID, err)
	}
	return submissions, nil
}

func (r *submissionRepository) ListApproved(ctx context.Context, userID int64, offset, limit int) ([]*models.Submission, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var submissions []*models.Submission
	total, err := r.db.NewSelect().
		Model(&submissions).
		Relation("Task").
		Where("s.user_id = ? AND s.is_approved", userID).
		Order("s.approved_at DESC", "s.id DESC").
		Offset(offset).
		Limit(limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, handleError("list_approved", "submission", userID, err)
	}
	return submissions, total, nil
}

func (r *submissionRepository) MarkApproved(ctx context.Context, id int64, at time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.markApproved(id, at).Exec(ctx)
	if err != nil {
		return false, handleError("approve", "submission", id, err)
	}
	return rowsAffected(res) > 0, nil
}

// markApproved only matches a pending row, so a second approval affects nothing.
func (r *submissionRepository) markApproved(id int64, at time.Time) *bun.UpdateQuery {
	return r.db.NewUpdate().
		Model((*models.Submission)(nil)).
		Set("is_approved = TRUE").
		Set("approved_at = ?", at).
		Where("id = ? AND NOT is_approved", id)
}

func (r *submissionRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.NewDelete().
		Model((*models.Submission)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, handleError("delete", "submission", id, err)
	}
	return rowsAffected(res) > 0, nil
}

func (r *submissionRepository) CountApprovedForQuest(ctx context.Context, questID, userID int64) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := r.approvedForQuest(questID, userID).Count(ctx)
	if err != nil {
		return 0, handleError("count_approved_for_quest", "submission", questID, err)
	}
	return n, nil
}

func (r *submissionRepository) approvedForQuest(questID, userID int64) *bun.SelectQuery {
	return r.db.NewSelect().
		Model((*models.Submission)(nil)).
		Where("s.user_id = ? AND s.is_approved", userID).
		Where(tasksOfQuest, questID)
}

func (r *submissionRepository) CountApproved(ctx context.Context, userID int64) (int, error) {
	return r.count(ctx, "count_approved", userID, true)
}

func (r *submissionRepository) CountPending(ctx context.Context, userID int64) (int, error) {
	return r.count(ctx, "count_pending", userID, false)
}

func (r *submissionRepository) count(ctx context.Context, op string, userID int64, approved bool) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := r.db.NewSelect().
		Model((*models.Submission)(nil)).
		Where("s.user_id = ? AND s.is_approved = ?", userID, approved).
		Count(ctx)
	if err != nil {
		return 0, handleError(op, "submission", userID, err)
	}
	return n, nil
}

func (r *submissionRepository) SumApprovedPoints(ctx context.Context, userID int64) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var sum int
	err := r.db.NewSelect().
		Model((*models.Submission)(nil)).
		ColumnExpr("COALESCE(SUM(t.points), 0)").
		Join("JOIN tasks AS t ON t.id = s.task_id").
		Where("s.user_id = ? AND s.is_approved", userID).
		Scan(ctx, &sum)
	if err != nil {
		return 0, handleError("sum_points", "submission", userID, err)
	}
	return sum, nil
}

func (r *submissionRepository) TaskIDs(ctx context.Context, questID, userID int64, approved bool) ([]int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var ids []int64
	err := r.db.NewSelect().
		Model((*models.Submission)(nil)).
		ColumnExpr("DISTINCT s.task_id").
		Where("s.user_id = ? AND s.is_approved = ?", userID, approved).
		Where(tasksOfQuest, questID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, handleError("task_ids", "submission", questID, err)
	}
	return ids, nil
}

func (r *submissionRepository) ApprovedTaskIDs(ctx context.Context, questID int64) ([]int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var ids []int64
	err := r.db.NewSelect().
		Model((*models.Submission)(nil)).
		ColumnExpr("DISTINCT s.task_id").
		Where("s.is_approved").
		Where(tasksOfQuest, questID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, handleError("approved_task_ids", "submission", questID, err)
	}
	return ids, nil
}

func (r *submissionRepository) ApprovedTimesSince(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var times []time.Time
	err := r.db.NewSelect().
		Model((*models.Submission)(nil)).
		Column("approved_at").
		Where("s.user_id = ? AND s.is_approved AND s.approved_at >= ?", userID, since).
		Order("approved_at ASC").
		Scan(ctx, &times)
	if err != nil {
		return nil, handleError("approved_since", "submission", userID, err)
	}
	return times, nil
}

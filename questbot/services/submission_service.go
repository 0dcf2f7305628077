package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/database/repositories"
	"github.com/disgoorg/quest-bot/questbot/logger"
)

// ApproveResult describes what an approval changed.
type ApproveResult struct {
	Submission *models.Submission
	// AlreadyApproved is set when the submission had been approved before; nothing changed.
	AlreadyApproved bool
	Approved        int
	Required        int
	// QuestCompleted is set only by the approval that recorded the completion.
	QuestCompleted bool
}

// SubmissionService owns the pending -> approved | rejected lifecycle of submissions.
// A submission's artifact is deleted before its row.
type SubmissionService struct {
	store     Store
	artifacts ArtifactStore
	notifier  Notifier
	progress  *ProgressService

	// mu serializes the check-then-insert steps; the storage constraints back it up.
	mu  sync.Mutex
	now func() time.Time
}

func NewSubmissionService(store Store, artifacts ArtifactStore, notifier Notifier, progress *ProgressService) *SubmissionService {
	return &SubmissionService{
		store:     store,
		artifacts: artifacts,
		notifier:  notifier,
		progress:  progress,
		now:       time.Now,
	}
}

// Start checks that the user may submit evidence for the task and returns it.
func (s *SubmissionService) Start(ctx context.Context, taskID, userID int64) (*models.Task, error) {
	r := s.store.Repos()

	task, err := r.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err, "task", taskID)
	}

	pending, err := r.Submissions.ListPending(ctx, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending submissions: %w", err)
	}
	if len(pending) > 0 {
		return nil, ErrSubmissionPending
	}

	approved, err := r.Submissions.TaskIDs(ctx, task.QuestID, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to check approved submissions: %w", err)
	}
	if slices.Contains(approved, taskID) {
		return nil, ErrAlreadyApproved
	}
	return task, nil
}

// CreatePending stores a new pending submission, superseding any earlier pending one for the
// same task and user, then asks the administrator to review it.
// On failure the new artifact is removed so nothing is left behind.
func (s *SubmissionService) CreatePending(ctx context.Context, taskID, userID int64, photoKey, comment string) (*models.Submission, error) {
	var (
		submission *models.Submission
		submitter  *models.User
		task       *models.Task
	)
	err := s.transaction(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		var err error
		if task, err = r.Tasks.GetByID(ctx, taskID); err != nil {
			return notFound(err, "task", taskID)
		}

		stale, err := r.Submissions.ListPending(ctx, taskID, userID)
		if err != nil {
			return fmt.Errorf("failed to load pending submissions: %w", err)
		}
		for _, old := range stale {
			deleteArtifact(ctx, s.artifacts, old.PhotoKey)
			if _, err = r.Submissions.Delete(ctx, old.ID); err != nil {
				return fmt.Errorf("failed to remove superseded submission %d: %w", old.ID, err)
			}
			logger.LogLifecycle("superseded", old.ID, slog.Int64("task_id", taskID))
		}

		submission = &models.Submission{
			TaskID:      taskID,
			UserID:      userID,
			PhotoKey:    photoKey,
			Comment:     comment,
			SubmittedAt: s.now(),
		}
		if err = r.Submissions.Create(ctx, submission); err != nil {
			if repositories.IsConflict(err) {
				return ErrSubmissionPending
			}
			return fmt.Errorf("failed to save submission: %w", err)
		}

		if submitter, err = r.Users.GetByID(ctx, userID); err != nil {
			return notFound(err, "user", userID)
		}
		return nil
	})
	if err != nil {
		deleteArtifact(ctx, s.artifacts, photoKey)
		return nil, err
	}
	submission.Task = task
	logger.LogLifecycle("created", submission.ID, slog.Int64("task_id", taskID))

	notice := SubmissionNotice{
		SubmissionID:  submission.ID,
		SubmitterName: submitter.Username,
		TaskTitle:     task.Title,
		Points:        task.Points,
		Comment:       comment,
		PhotoKey:      photoKey,
	}
	if task.Quest != nil {
		notice.QuestTitle = task.Quest.Title
	}
	s.notify(ctx, "submission_received", func(ctx context.Context) error {
		return s.notifier.SubmissionReceived(ctx, notice)
	})

	return submission, nil
}

// Approve marks a pending submission approved and records the quest completion when the
// threshold is reached. Approving an approved submission changes nothing and notifies no one.
func (s *SubmissionService) Approve(ctx context.Context, submissionID int64) (*ApproveResult, error) {
	res := &ApproveResult{}
	var participant *models.User
	err := s.transaction(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		sub, err := r.Submissions.GetByID(ctx, submissionID)
		if err != nil {
			return notFound(err, "submission", submissionID)
		}
		res.Submission = sub
		if sub.IsApproved {
			res.AlreadyApproved = true
			return nil
		}

		now := s.now()
		changed, err := r.Submissions.MarkApproved(ctx, submissionID, now)
		if err != nil {
			return fmt.Errorf("failed to approve submission: %w", err)
		}
		if !changed {
			res.AlreadyApproved = true
			return nil
		}
		sub.IsApproved = true
		sub.ApprovedAt = &now

		quest := sub.Task.Quest
		if res.Approved, err = r.Submissions.CountApprovedForQuest(ctx, quest.ID, sub.UserID); err != nil {
			return fmt.Errorf("failed to count approvals: %w", err)
		}
		res.Required = quest.RequiredCompletions

		if res.Approved >= quest.RequiredCompletions {
			res.QuestCompleted, err = r.Completions.CreateIfAbsent(ctx, &models.QuestCompletion{
				QuestID:     quest.ID,
				UserID:      sub.UserID,
				CompletedAt: now,
			})
			if err != nil {
				return fmt.Errorf("failed to record quest completion: %w", err)
			}
		}

		if participant, err = r.Users.GetByID(ctx, sub.UserID); err != nil {
			return notFound(err, "user", sub.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.AlreadyApproved {
		logger.LogLifecycle("already approved", submissionID)
		return res, nil
	}

	task := res.Submission.Task
	s.notify(ctx, "submission_approved", func(ctx context.Context) error {
		return s.notifier.SubmissionApproved(ctx, ApprovalNotice{
			ParticipantID: participant.DiscordID,
			TaskTitle:     task.Title,
			QuestTitle:    task.Quest.Title,
			Approved:      res.Approved,
			Required:      res.Required,
		})
	})

	if res.QuestCompleted {
		slog.Info("Quest completed",
			slog.String("type", "sys"),
			slog.Int64("quest_id", task.QuestID),
			slog.Int64("user_id", participant.ID))

		s.notify(ctx, "quest_completed", func(ctx context.Context) error {
			return s.notifier.QuestCompleted(ctx, CompletionNotice{
				ParticipantID: participant.DiscordID,
				QuestTitle:    task.Quest.Title,
				Reward:        task.Quest.Reward,
			})
		})
		s.notify(ctx, "next_quest", func(ctx context.Context) error {
			view, err := s.progress.CurrentQuest(ctx, participant.ID)
			if err != nil {
				return err
			}
			return s.notifier.NextQuest(ctx, participant.DiscordID, view)
		})
	}

	return res, nil
}

// Reject deletes a pending submission and its artifact. Completion state is untouched.
func (s *SubmissionService) Reject(ctx context.Context, submissionID int64) (*models.Submission, error) {
	var (
		sub         *models.Submission
		participant *models.User
	)
	err := s.transaction(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		var err error
		if sub, err = r.Submissions.GetByID(ctx, submissionID); err != nil {
			return notFound(err, "submission", submissionID)
		}
		if sub.IsApproved {
			return ErrAlreadyApproved
		}

		deleteArtifact(ctx, s.artifacts, sub.PhotoKey)
		if _, err = r.Submissions.Delete(ctx, sub.ID); err != nil {
			return fmt.Errorf("failed to delete submission: %w", err)
		}

		if participant, err = r.Users.GetByID(ctx, sub.UserID); err != nil {
			return notFound(err, "user", sub.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogLifecycle("rejected", sub.ID, slog.Int64("task_id", sub.TaskID))
	s.notify(ctx, "submission_rejected", func(ctx context.Context) error {
		return s.notifier.SubmissionRejected(ctx, RejectionNotice{
			ParticipantID: participant.DiscordID,
			TaskTitle:     sub.Task.Title,
		})
	})
	return sub, nil
}

// transaction runs fn in one transaction under the lifecycle lock.
// Notifications are sent after it returns.
func (s *SubmissionService) transaction(ctx context.Context, fn func(ctx context.Context, r *repositories.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Transaction(ctx, fn)
}

// notify runs a delivery after commit. Failures are logged; the state change stands.
func (s *SubmissionService) notify(ctx context.Context, event string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.NotificationTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		logger.LogError("Failed to deliver notification", err, slog.String("event", event))
	}
}

package services

//go:generate mockgen -source=notifier.go -destination=mock/notifier.go -package=mock

import "context"

// Notifier delivers lifecycle events to the two participants.
// Implementations address the administrator themselves; notices carry the participant.
type Notifier interface {
	// SubmissionReceived asks the administrator to review a new submission.
	SubmissionReceived(ctx context.Context, n SubmissionNotice) error
	SubmissionApproved(ctx context.Context, n ApprovalNotice) error
	SubmissionRejected(ctx context.Context, n RejectionNotice) error
	QuestCompleted(ctx context.Context, n CompletionNotice) error
	// NextQuest shows the participant their next quest. A nil view means every quest is done.
	NextQuest(ctx context.Context, participantID string, view *QuestView) error
}

type SubmissionNotice struct {
	SubmissionID  int64
	SubmitterName string
	QuestTitle    string
	TaskTitle     string
	Points        int
	Comment       string
	PhotoKey      string
}

type ApprovalNotice struct {
	ParticipantID string
	TaskTitle     string
	QuestTitle    string
	Approved      int
	Required      int
}

type RejectionNotice struct {
	ParticipantID string
	TaskTitle     string
}

type CompletionNotice struct {
	ParticipantID string
	QuestTitle    string
	Reward        string
}

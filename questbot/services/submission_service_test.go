package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/quest-bot/questbot/services"
	"go.uber.org/mock/gomock"
)

func TestSubmissionService_CompletionFiresOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quest, tasks := f.quest(t, "Weekend", 2, "Breakfast in bed", "Picnic")

	f.notifier.EXPECT().SubmissionReceived(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.notifier.EXPECT().SubmissionApproved(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.notifier.EXPECT().
		QuestCompleted(gomock.Any(), services.CompletionNotice{
			ParticipantID: f.participant.DiscordID,
			QuestTitle:    "Weekend",
			Reward:        "Dinner out",
		}).
		Return(nil).
		Times(1)
	f.notifier.EXPECT().NextQuest(gomock.Any(), f.participant.DiscordID, gomock.Nil()).Return(nil).Times(1)

	subA, err := f.submissions.CreatePending(ctx, tasks[0].ID, f.participant.ID, f.artifact(t, services.RoleSubmission), "done")
	if err != nil {
		t.Fatalf("CreatePending(A) error = %v", err)
	}
	res, err := f.submissions.Approve(ctx, subA.ID)
	if err != nil {
		t.Fatalf("Approve(A) error = %v", err)
	}
	if res.Approved != 1 || res.Required != 2 || res.QuestCompleted {
		t.Fatalf("Approve(A) = %+v, want 1/2 without completion", res)
	}
	if done, _ := f.store.Repos().Completions.Exists(ctx, quest.ID, f.participant.ID); done {
		t.Fatal("quest completed after one approval")
	}

	subB, err := f.submissions.CreatePending(ctx, tasks[1].ID, f.participant.ID, f.artifact(t, services.RoleSubmission), "so fun")
	if err != nil {
		t.Fatalf("CreatePending(B) error = %v", err)
	}
	res, err = f.submissions.Approve(ctx, subB.ID)
	if err != nil {
		t.Fatalf("Approve(B) error = %v", err)
	}
	if res.Approved != 2 || !res.QuestCompleted {
		t.Fatalf("Approve(B) = %+v, want 2/2 with completion", res)
	}

	// second approval of the same id
	res, err = f.submissions.Approve(ctx, subB.ID)
	if err != nil {
		t.Fatalf("Approve(B) again error = %v", err)
	}
	if !res.AlreadyApproved || res.QuestCompleted {
		t.Errorf("Approve(B) again = %+v, want AlreadyApproved", res)
	}

	if n, _ := f.store.Repos().Completions.Count(ctx, f.participant.ID); n != 1 {
		t.Errorf("completions = %d, want 1", n)
	}
	if n, _ := f.store.Repos().Submissions.CountApprovedForQuest(ctx, quest.ID, f.participant.ID); n != 2 {
		t.Errorf("approved for quest = %d, want 2", n)
	}
}

func TestSubmissionService_CompletionAdvancesToNextQuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, tasks := f.quest(t, "First", 1, "Walk")
	next, _ := f.quest(t, "Second", 1, "Movie night")

	f.notifier.EXPECT().SubmissionReceived(gomock.Any(), gomock.Any()).Return(nil)
	f.notifier.EXPECT().SubmissionApproved(gomock.Any(), gomock.Any()).Return(nil)
	f.notifier.EXPECT().QuestCompleted(gomock.Any(), gomock.Any()).Return(nil)
	f.notifier.EXPECT().
		NextQuest(gomock.Any(), f.participant.DiscordID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, view *services.QuestView) error {
			if view == nil || view.Quest.ID != next.ID {
				t.Errorf("NextQuest view = %+v, want quest %d", view, next.ID)
			}
			return nil
		})

	sub, err := f.submissions.CreatePending(ctx, tasks[0].ID, f.participant.ID, f.artifact(t, services.RoleSubmission), "")
	if err != nil {
		t.Fatalf("CreatePending() error = %v", err)
	}
	if _, err = f.submissions.Approve(ctx, sub.ID); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
}

func TestSubmissionService_CreatePendingSupersedes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, tasks := f.quest(t, "Weekend", 2, "Breakfast in bed")

	f.notifier.EXPECT().SubmissionReceived(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	oldKey := f.artifact(t, services.RoleSubmission)
	first, err := f.submissions.CreatePending(ctx, tasks[0].ID, f.participant.ID, oldKey, "first try")
	if err != nil {
		t.Fatalf("CreatePending(first) error = %v", err)
	}

	newKey := f.artifact(t, services.RoleSubmission)
	second, err := f.submissions.CreatePending(ctx, tasks[0].ID, f.participant.ID, newKey, "second try")
	if err != nil {
		t.Fatalf("CreatePending(second) error = %v", err)
	}

	pending, _ := f.store.Repos().Submissions.ListPending(ctx, tasks[0].ID, f.participant.ID)
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("pending = %v, want only submission %d", pending, second.ID)
	}
	if _, err = f.store.Repos().Submissions.GetByID(ctx, first.ID); err == nil {
		t.Error("superseded submission still stored")
	}
	if f.hasArtifact(oldKey) {
		t.Error("superseded artifact still stored")
	}
	if !f.hasArtifact(newKey) {
		t.Error("new artifact missing")
	}
}

func TestSubmissionService_CreatePendingMissingTask(t *testing.T) {
	f := newFixture(t)
	key := f.artifact(t, services.RoleSubmission)

	_, err := f.submissions.CreatePending(context.Background(), 999, f.participant.ID, key, "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("CreatePending() error = %v, want ErrNotFound", err)
	}
	if f.hasArtifact(key) {
		t.Error("artifact of failed submission still stored")
	}
}

func TestSubmissionService_Reject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quest, tasks := f.quest(t, "Weekend", 2, "Breakfast in bed", "Picnic")

	f.notifier.EXPECT().SubmissionReceived(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.notifier.EXPECT().SubmissionApproved(gomock.Any(), gomock.Any()).Return(nil)
	f.notifier.EXPECT().
		SubmissionRejected(gomock.Any(), services.RejectionNotice{
			ParticipantID: f.participant.DiscordID,
			TaskTitle:     "Picnic",
		}).
		Return(nil)

	approvedSub, _ := f.submissions.CreatePending(ctx, tasks[0].ID, f.participant.ID, f.artifact(t, services.RoleSubmission), "")
	if _, err := f.submissions.Approve(ctx, approvedSub.ID); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	key := f.artifact(t, services.RoleSubmission)
	sub, err := f.submissions.CreatePending(ctx, tasks[1].ID, f.participant.ID, key, "")
	if err != nil {
		t.Fatalf("CreatePending() error = %v", err)
	}
	if _, err = f.submissions.Reject(ctx, sub.ID); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	if f.hasArtifact(key) {
		t.Error("rejected artifact still stored")
	}
	if _, err = f.store.Repos().Submissions.GetByID(ctx, sub.ID); err == nil {
		t.Error("rejected submission still stored")
	}
	if n, _ := f.store.Repos().Submissions.CountApprovedForQuest(ctx, quest.ID, f.participant.ID); n != 1 {
		t.Errorf("approved for quest = %d, want 1", n)
	}

	if _, err = f.submissions.Reject(ctx, sub.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Reject(deleted) error = %v, want ErrNotFound", err)
	}
	if _, err = f.submissions.Reject(ctx, approvedSub.ID); !errors.Is(err, services.ErrAlreadyApproved) {
		t.Errorf("Reject(approved) error = %v, want ErrAlreadyApproved", err)
	}
}

func TestSubmissionService_ApproveMissing(t *testing.T) {
	f := newFixture(t)

	if _, err := f.submissions.Approve(context.Background(), 42); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Approve() error = %v, want ErrNotFound", err)
	}
}

func TestSubmissionService_Start(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, tasks := f.quest(t, "Weekend", 3, "Breakfast in bed", "Picnic")

	f.notifier.EXPECT().SubmissionReceived(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.notifier.EXPECT().SubmissionApproved(gomock.Any(), gomock.Any()).Return(nil)

	if task, err := f.submissions.Start(ctx, tasks[0].ID, f.participant.ID); err != nil || task.ID != tasks[0].ID {
		t.Fatalf("Start() = %v, %v", task, err)
	}

	if _, err := f.submissions.CreatePending(ctx, tasks[0].ID, f.participant.ID, f.artifact(t, services.RoleSubmission), ""); err != nil {
		t.Fatalf("CreatePending() error = %v", err)
	}
	if _, err := f.submissions.Start(ctx, tasks[0].ID, f.participant.ID); !errors.Is(err, services.ErrSubmissionPending) {
		t.Errorf("Start(pending) error = %v, want ErrSubmissionPending", err)
	}

	sub, _ := f.submissions.CreatePending(ctx, tasks[1].ID, f.participant.ID, f.artifact(t, services.RoleSubmission), "")
	if _, err := f.submissions.Approve(ctx, sub.ID); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if _, err := f.submissions.Start(ctx, tasks[1].ID, f.participant.ID); !errors.Is(err, services.ErrAlreadyApproved) {
		t.Errorf("Start(approved) error = %v, want ErrAlreadyApproved", err)
	}

	if _, err := f.submissions.Start(ctx, 999, f.participant.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Start(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSubmissionService_NotificationFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, tasks := f.quest(t, "Weekend", 5, "Picnic")

	f.notifier.EXPECT().SubmissionReceived(gomock.Any(), gomock.Any()).Return(errors.New("dm closed"))

	sub, err := f.submissions.CreatePending(ctx, tasks[0].ID, f.participant.ID, f.artifact(t, services.RoleSubmission), "")
	if err != nil {
		t.Fatalf("CreatePending() error = %v", err)
	}
	if _, err = f.store.Repos().Submissions.GetByID(ctx, sub.ID); err != nil {
		t.Errorf("submission missing after failed notification: %v", err)
	}
}

func TestSubmissionService_ReviewNotBlockedByDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, tasks := f.quest(t, "Weekend", 2, "Breakfast in bed", "Picnic")

	f.notifier.EXPECT().SubmissionReceived(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.notifier.EXPECT().SubmissionRejected(gomock.Any(), gomock.Any()).Return(nil)

	approved, err := f.submissions.CreatePending(ctx, tasks[0].ID, f.participant.ID, f.artifact(t, services.RoleSubmission), "")
	if err != nil {
		t.Fatalf("CreatePending(approved) error = %v", err)
	}
	other, err := f.submissions.CreatePending(ctx, tasks[1].ID, f.participant.ID, f.artifact(t, services.RoleSubmission), "")
	if err != nil {
		t.Fatalf("CreatePending(other) error = %v", err)
	}

	// the approval notice is still being delivered while the other submission is rejected
	f.notifier.EXPECT().
		SubmissionApproved(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ services.ApprovalNotice) error {
			done := make(chan error, 1)
			go func() {
				_, err := f.submissions.Reject(ctx, other.ID)
				done <- err
			}()
			select {
			case err := <-done:
				if err != nil {
					t.Errorf("Reject() during delivery error = %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Error("Reject() blocked while an approval notice was being delivered")
			}
			return nil
		})

	if _, err = f.submissions.Approve(ctx, approved.ID); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
}

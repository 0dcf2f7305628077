package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/quest-bot/questbot/services"
	"github.com/disgoorg/snowflake/v2"
)

type sent struct {
	channel snowflake.ID
	msg     discord.MessageCreate
	files   map[string]string
}

type fakeMessenger struct {
	opened []snowflake.ID
	sent   []sent
}

func (f *fakeMessenger) CreateDMChannel(userID snowflake.ID, _ ...rest.RequestOpt) (*discord.DMChannel, error) {
	f.opened = append(f.opened, userID)
	var ch discord.DMChannel
	// DM channel ids mirror the recipient to keep assertions simple
	if err := json.Unmarshal([]byte(`{"id":"`+userID.String()+`","type":1}`), &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (f *fakeMessenger) CreateMessage(channelID snowflake.ID, msg discord.MessageCreate, _ ...rest.RequestOpt) (*discord.Message, error) {
	files := map[string]string{}
	for _, file := range msg.Files {
		b, err := io.ReadAll(file.Reader)
		if err != nil {
			return nil, err
		}
		files[file.Name] = string(b)
	}
	f.sent = append(f.sent, sent{channel: channelID, msg: msg, files: files})
	return &discord.Message{}, nil
}

func newNotifier(t *testing.T) (*DMNotifier, *fakeMessenger, *services.LocalStore) {
	t.Helper()
	store, err := services.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	n := New(snowflake.ID(100), store)
	fake := &fakeMessenger{}
	n.SetClient(fake)
	return n, fake, store
}

func TestSubmissionReceived_AttachesPhotoForAdmin(t *testing.T) {
	n, fake, store := newNotifier(t)
	ctx := context.Background()

	key := services.NewArtifactKey(services.RoleSubmission)
	if err := store.Put(ctx, key, strings.NewReader("photo")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	err := n.SubmissionReceived(ctx, services.SubmissionNotice{
		SubmissionID:  3,
		SubmitterName: "sunny",
		TaskTitle:     "Walk",
		PhotoKey:      key,
	})
	if err != nil {
		t.Fatalf("SubmissionReceived() error = %v", err)
	}

	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fake.sent))
	}
	got := fake.sent[0]
	if got.channel != 100 {
		t.Errorf("channel = %s, want admin DM", got.channel)
	}
	if got.files[key] != "photo" {
		t.Errorf("files = %v, want %s attached", got.files, key)
	}
	if len(got.msg.Components) == 0 {
		t.Error("review message has no buttons")
	}
}

func TestSubmissionReceived_MissingPhotoStillSends(t *testing.T) {
	n, fake, _ := newNotifier(t)

	err := n.SubmissionReceived(context.Background(), services.SubmissionNotice{SubmissionID: 3, PhotoKey: "submission_gone.jpg"})
	if err != nil {
		t.Fatalf("SubmissionReceived() error = %v", err)
	}
	if len(fake.sent) != 1 || len(fake.sent[0].files) != 0 {
		t.Fatalf("sent = %+v, want one message without files", fake.sent)
	}
	if fake.sent[0].msg.Embeds[0].Image != nil {
		t.Error("embed still references the missing image")
	}
}

func TestParticipantNotices(t *testing.T) {
	n, fake, _ := newNotifier(t)
	ctx := context.Background()

	if err := n.SubmissionApproved(ctx, services.ApprovalNotice{ParticipantID: "200", TaskTitle: "Walk", Approved: 1, Required: 2}); err != nil {
		t.Fatalf("SubmissionApproved() error = %v", err)
	}
	if err := n.QuestCompleted(ctx, services.CompletionNotice{ParticipantID: "200", QuestTitle: "Spring", Reward: "Picnic"}); err != nil {
		t.Fatalf("QuestCompleted() error = %v", err)
	}
	if err := n.NextQuest(ctx, "200", nil); err != nil {
		t.Fatalf("NextQuest() error = %v", err)
	}
	if err := n.SubmissionRejected(ctx, services.RejectionNotice{ParticipantID: "200", TaskTitle: "Walk"}); err != nil {
		t.Fatalf("SubmissionRejected() error = %v", err)
	}

	if len(fake.sent) != 4 {
		t.Fatalf("sent %d messages, want 4", len(fake.sent))
	}
	for _, s := range fake.sent {
		if s.channel != 200 {
			t.Errorf("message %q went to %s", s.msg.Embeds[0].Title, s.channel)
		}
	}
	if !strings.Contains(fake.sent[1].msg.Embeds[0].Description, "Picnic") {
		t.Errorf("completion message misses the reward: %q", fake.sent[1].msg.Embeds[0].Description)
	}
}

func TestSendErrors(t *testing.T) {
	n, _, _ := newNotifier(t)
	if err := n.SubmissionApproved(context.Background(), services.ApprovalNotice{ParticipantID: "not-an-id"}); err == nil {
		t.Error("expected an error for an invalid recipient")
	}

	detached := New(1, nil)
	if err := detached.QuestCompleted(context.Background(), services.CompletionNotice{ParticipantID: "200"}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("error = %v, want ErrNotConnected", err)
	}
}

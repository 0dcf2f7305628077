package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/services"
	"github.com/disgoorg/quest-bot/questbot/services/mock"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	store       *memStore
	artifacts   *services.LocalStore
	notifier    *mock.MockNotifier
	progress    *services.ProgressService
	submissions *services.SubmissionService
	quests      *services.QuestService
	users       *services.UserService

	admin       *models.User
	participant *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	artifacts, err := services.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	notifier := mock.NewMockNotifier(gomock.NewController(t))
	progress := services.NewProgressService(store)
	users, err := services.NewUserService(store)
	if err != nil {
		t.Fatalf("NewUserService() error = %v", err)
	}

	f := &fixture{
		store:       store,
		artifacts:   artifacts,
		notifier:    notifier,
		progress:    progress,
		submissions: services.NewSubmissionService(store, artifacts, notifier, progress),
		quests:      services.NewQuestService(store, artifacts),
		users:       users,
	}

	ctx := context.Background()
	if f.admin, err = users.GetOrCreate(ctx, "100", "admin", true); err != nil {
		t.Fatalf("GetOrCreate(admin) error = %v", err)
	}
	if f.participant, err = users.GetOrCreate(ctx, "200", "sunny", false); err != nil {
		t.Fatalf("GetOrCreate(participant) error = %v", err)
	}
	return f
}

func (f *fixture) artifact(t *testing.T, role services.ArtifactRole) string {
	t.Helper()
	key := services.NewArtifactKey(role)
	if err := f.artifacts.Put(context.Background(), key, strings.NewReader("jpeg")); err != nil {
		t.Fatalf("Put(%s) error = %v", key, err)
	}
	return key
}

func (f *fixture) hasArtifact(key string) bool {
	rc, err := f.artifacts.Open(context.Background(), key)
	if errors.Is(err, services.ErrNotFound) {
		return false
	}
	if rc != nil {
		rc.Close()
	}
	return err == nil
}

func (f *fixture) quest(t *testing.T, title string, required int, tasks ...string) (*models.Quest, []*models.Task) {
	t.Helper()
	ctx := context.Background()

	quest, err := f.quests.CreateQuest(ctx, services.QuestDraft{
		Title:               title,
		Reward:              "Dinner out",
		RequiredCompletions: required,
		CreatedBy:           f.admin.ID,
	})
	if err != nil {
		t.Fatalf("CreateQuest() error = %v", err)
	}

	var created []*models.Task
	for _, name := range tasks {
		task, err := f.quests.AddTask(ctx, services.TaskDraft{QuestID: quest.ID, Title: name, Points: 2})
		if err != nil {
			t.Fatalf("AddTask(%s) error = %v", name, err)
		}
		created = append(created, task)
	}
	return quest, created
}

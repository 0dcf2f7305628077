package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/services"
)

type fakeProgress struct {
	view  *services.QuestView
	stats *services.Stats
	err   error
}

func (f *fakeProgress) CurrentQuest(context.Context, int64) (*services.QuestView, error) {
	return f.view, f.err
}

func (f *fakeProgress) Stats(context.Context, int64, time.Time) (*services.Stats, error) {
	return f.stats, f.err
}

func (f *fakeProgress) Achievements(context.Context, int64) ([]services.Achievement, error) {
	return services.EvaluateAchievements(12, 1), f.err
}

func participant(context.Context) (*models.User, error) {
	return &models.User{ID: 2, DiscordID: "200", Username: "sunny"}, nil
}

func do(t *testing.T, s *Server, path, token string) (int, APIResponse, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Test(%s) error = %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	var env APIResponse
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("response %q is not JSON: %v", body, err)
	}
	data, _ := env.Data.(map[string]any)
	return resp.StatusCode, env, data
}

func TestHealthNeedsNoToken(t *testing.T) {
	s := New("secret", &fakeProgress{}, participant)
	status, env, _ := do(t, s, "/health", "")
	if status != http.StatusOK || !env.Success {
		t.Errorf("health = %d %+v", status, env)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	s := New("secret", &fakeProgress{}, participant)
	for _, token := range []string{"", "wrong"} {
		status, env, _ := do(t, s, "/api/stats", token)
		if status != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
			t.Errorf("token %q: status %d, body %+v", token, status, env)
		}
	}
}

func TestProgress(t *testing.T) {
	view := &services.QuestView{
		Quest:    &models.Quest{ID: 1, Title: "Spring", Reward: "Picnic"},
		Approved: 1,
		Required: 2,
		Percent:  50,
		Bar:      "█████░░░░░",
		Tasks: []services.TaskView{
			{Task: &models.Task{ID: 10, Title: "Walk", Points: 2}, State: services.TaskApproved},
			{Task: &models.Task{ID: 11, Title: "Cook", Points: 1}, State: services.TaskAvailable},
		},
	}
	s := New("secret", &fakeProgress{view: view}, participant)

	status, _, data := do(t, s, "/api/progress", "secret")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	quest, ok := data["quest"].(map[string]any)
	if !ok {
		t.Fatalf("data = %v, want a quest", data)
	}
	if quest["title"] != "Spring" || quest["percent"] != float64(50) {
		t.Errorf("quest = %v", quest)
	}
	tasks := quest["tasks"].([]any)
	if len(tasks) != 2 || tasks[0].(map[string]any)["state"] != "approved" {
		t.Errorf("tasks = %v", tasks)
	}
}

func TestProgressAllComplete(t *testing.T) {
	s := New("secret", &fakeProgress{}, participant)
	_, _, data := do(t, s, "/api/progress", "secret")
	if data["all_complete"] != true {
		t.Errorf("data = %v, want all_complete", data)
	}
}

func TestStats(t *testing.T) {
	stats := &services.Stats{
		TotalApproved: 3,
		TotalPoints:   6,
		Pending:       1,
		Activity:      []services.DayActivity{{Day: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Count: 2}},
		Quests:        []services.QuestProgress{{Quest: &models.Quest{ID: 1, Title: "Spring"}, Approved: 3, Required: 3, Completed: true}},
	}
	s := New("secret", &fakeProgress{stats: stats}, participant)

	_, _, data := do(t, s, "/api/stats", "secret")
	if data["total_points"] != float64(6) || data["pending"] != float64(1) {
		t.Errorf("data = %v", data)
	}
	day := data["activity"].([]any)[0].(map[string]any)
	if day["day"] != "2025-03-10" || day["count"] != float64(2) {
		t.Errorf("activity = %v", day)
	}
}

func TestAchievements(t *testing.T) {
	s := New("secret", &fakeProgress{}, participant)
	status, env, _ := do(t, s, "/api/achievements", "secret")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	list, ok := env.Data.([]any)
	if !ok || len(list) != 6 {
		t.Fatalf("data = %v, want 6 achievements", env.Data)
	}
	earned := 0
	for _, a := range list {
		if a.(map[string]any)["earned"] == true {
			earned++
		}
	}
	if earned != 3 {
		t.Errorf("earned = %d, want 3", earned)
	}
}

func TestFailures(t *testing.T) {
	s := New("secret", &fakeProgress{err: errors.New("db down")}, participant)
	status, env, _ := do(t, s, "/api/stats", "secret")
	if status != http.StatusInternalServerError || env.Error == nil {
		t.Errorf("stats failure = %d %+v", status, env)
	}

	missing := func(context.Context) (*models.User, error) { return nil, services.ErrNotFound }
	s = New("secret", &fakeProgress{}, missing)
	status, _, _ = do(t, s, "/api/progress", "secret")
	if status != http.StatusNotFound {
		t.Errorf("missing participant status = %d, want 404", status)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := New("secret", &fakeProgress{}, participant)
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestAPIRateLimited(t *testing.T) {
	s := New("secret", &fakeProgress{}, participant)
	for i := 0; i < config.DashboardRateLimit; i++ {
		if status, _, _ := do(t, s, "/api/stats", "wrong"); status != http.StatusUnauthorized {
			t.Fatalf("request %d: status %d", i, status)
		}
	}
	status, env, _ := do(t, s, "/api/stats", "secret")
	if status != http.StatusTooManyRequests || env.Error == nil || env.Error.Code != "RATE_LIMITED" {
		t.Errorf("status %d, body %+v", status, env)
	}
}

package database

import (
	"database/sql"
	"net/url"
	"strings"
	"testing"

	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db.local", Port: 5433, User: "quest", Password: "p@ss/word", Database: "questbot"}

	u, err := url.Parse(cfg.dsn())
	if err != nil {
		t.Fatalf("dsn is not a URL: %v", err)
	}
	if u.Host != "db.local:5433" || u.Path != "/questbot" {
		t.Errorf("unexpected host/path %q %q", u.Host, u.Path)
	}
	if pw, _ := u.User.Password(); pw != "p@ss/word" {
		t.Errorf("password = %q", pw)
	}
	if got := u.Query().Get("sslmode"); got != "disable" {
		t.Errorf("sslmode = %q", got)
	}

	cfg.SSLMode = "require"
	u, _ = url.Parse(cfg.dsn())
	if got := u.Query().Get("sslmode"); got != "require" {
		t.Errorf("sslmode = %q", got)
	}
}

func offlineDB() *bun.DB {
	return bun.NewDB(sql.OpenDB(pgdriver.NewConnector()), pgdialect.New())
}

func schemaFor(t *testing.T, model any) string {
	t.Helper()
	for _, table := range schemaTables {
		if table.model == model {
			return createTableQuery(offlineDB(), table).String()
		}
	}
	t.Fatalf("no schema table for %T", model)
	return ""
}

func TestSchemaTables(t *testing.T) {
	submissions := schemaFor(t, (*models.Submission)(nil))
	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "submissions"`,
		`FOREIGN KEY ("task_id") REFERENCES "tasks" ("id") ON DELETE CASCADE`,
		`FOREIGN KEY ("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
	} {
		if !strings.Contains(submissions, want) {
			t.Errorf("submissions schema missing %q:\n%s", want, submissions)
		}
	}

	tasks := schemaFor(t, (*models.Task)(nil))
	if !strings.Contains(tasks, `FOREIGN KEY ("quest_id") REFERENCES "quests" ("id") ON DELETE CASCADE`) {
		t.Errorf("tasks schema missing quest cascade:\n%s", tasks)
	}
	if strings.Contains(tasks, "DEFAULT 1") {
		t.Errorf("points must not default to 1:\n%s", tasks)
	}
}

func TestSchemaIndexes(t *testing.T) {
	want := map[string]string{
		"uq_submissions_pending":          "UNIQUE INDEX IF NOT EXISTS uq_submissions_pending ON submissions(task_id, user_id) WHERE NOT is_approved",
		"uq_quest_completions_quest_user": "UNIQUE INDEX IF NOT EXISTS uq_quest_completions_quest_user ON quest_completions(quest_id, user_id)",
	}
	for name, stmt := range want {
		found := false
		for _, idx := range schemaIndexes {
			if strings.Contains(idx, stmt) {
				found = true
			}
		}
		if !found {
			t.Errorf("index %s not declared as %q", name, stmt)
		}
	}
}

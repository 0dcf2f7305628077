package models

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

func testDB() *bun.DB {
	return bun.NewDB(sql.OpenDB(pgdriver.NewConnector()), pgdialect.New())
}

func TestTaskInsertKeepsZeroPoints(t *testing.T) {
	query := testDB().NewInsert().
		Model(&Task{QuestID: 1, Title: "free", Points: 0, Position: 1}).
		String()

	// id, quest_id, title, description, image_key, points, position, scheduled_date, is_completed
	want := "VALUES (DEFAULT, 1, 'free', '', DEFAULT, 0, 1, DEFAULT, DEFAULT)"
	if !strings.Contains(query, want) {
		t.Fatalf("insert = %s\nwant values %s", query, want)
	}
}

func TestQuestInsertKeepsInactiveFlag(t *testing.T) {
	query := testDB().NewInsert().
		Model(&Quest{Title: "Paused", RequiredCompletions: 1, IsActive: false}).
		String()

	if !strings.Contains(strings.ToUpper(query), "1, FALSE, DEFAULT, DEFAULT)") {
		t.Fatalf("insert = %s, want is_active written as FALSE", query)
	}
}

package models

import (
	"github.com/uptrace/bun"
)

type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID          int64  `bun:"id,pk,autoincrement"`
	QuestID     int64  `bun:"quest_id,notnull"`
	Title       string `bun:"title,notnull"`
	Description string `bun:"description,type:text"`
	ImageKey    string `bun:"image_key,nullzero"`
	Points      int    `bun:"points,notnull"`
	Position    int    `bun:"position,notnull"`
	// ScheduledDate is a YYYY-MM-DD string; empty means always available.
	ScheduledDate string `bun:"scheduled_date,nullzero"`
	// IsCompleted is kept for schema compatibility. Completion is derived from submissions.
	IsCompleted bool `bun:"is_completed,notnull,default:false"`

	Quest *Quest `bun:"rel:belongs-to,join:quest_id=id"`
}

// TaskSummary is a task with whether any approved submission exists for it.
type TaskSummary struct {
	Task     *Task
	Approved bool
}

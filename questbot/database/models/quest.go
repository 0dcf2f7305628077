package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Quest struct {
	bun.BaseModel `bun:"table:quests,alias:q"`

	ID                  int64     `bun:"id,pk,autoincrement"`
	Title               string    `bun:"title,notnull"`
	Description         string    `bun:"description,type:text"`
	ImageKey            string    `bun:"image_key,nullzero"`
	Reward              string    `bun:"reward"`
	RequiredCompletions int       `bun:"required_completions,notnull"`
	IsActive            bool      `bun:"is_active,notnull"`
	CreatedBy           int64     `bun:"created_by,nullzero"`
	CreatedAt           time.Time `bun:"created_at,notnull,default:current_timestamp"`

	Tasks []*Task `bun:"rel:has-many,join:id=quest_id"`
}

// QuestSummary is an active quest with the number of tasks it owns.
type QuestSummary struct {
	Quest     *Quest
	TaskCount int
}

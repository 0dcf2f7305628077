package models

import (
	"time"

	"github.com/uptrace/bun"
)

type QuestCompletion struct {
	bun.BaseModel `bun:"table:quest_completions,alias:qc"`

	ID            int64     `bun:"id,pk,autoincrement"`
	QuestID       int64     `bun:"quest_id,notnull"`
	UserID        int64     `bun:"user_id,notnull"`
	CompletedAt   time.Time `bun:"completed_at,notnull"`
	RewardClaimed bool      `bun:"reward_claimed,notnull,default:false"`
}

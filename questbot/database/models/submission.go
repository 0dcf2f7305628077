package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID          int64      `bun:"id,pk,autoincrement"`
	TaskID      int64      `bun:"task_id,notnull"`
	UserID      int64      `bun:"user_id,notnull"`
	PhotoKey    string     `bun:"photo_key"`
	Comment     string     `bun:"comment,type:text"`
	SubmittedAt time.Time  `bun:"submitted_at,notnull"`
	IsApproved  bool       `bun:"is_approved,notnull,default:false"`
	ApprovedAt  *time.Time `bun:"approved_at"`

	Task *Task `bun:"rel:belongs-to,join:task_id=id"`
}

// DailyCount is the number of approvals on one calendar day.
type DailyCount struct {
	Day   time.Time
	Count int
}

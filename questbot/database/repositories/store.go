package repositories

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// Repositories groups every repository bound to the same connection or transaction.
type Repositories struct {
	Users       UserRepository
	Quests      QuestRepository
	Tasks       TaskRepository
	Submissions SubmissionRepository
	Completions CompletionRepository
}

// New binds all repositories to db, which may be a *bun.DB or a bun.Tx.
func New(db bun.IDB) *Repositories {
	return &Repositories{
		Users:       NewUserRepository(db),
		Quests:      NewQuestRepository(db),
		Tasks:       NewTaskRepository(db),
		Submissions: NewSubmissionRepository(db),
		Completions: NewCompletionRepository(db),
	}
}

// Store hands out repositories and runs units of work in a transaction.
type Store struct {
	db    *bun.DB
	repos *Repositories
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, repos: New(db)}
}

func (s *Store) Repos() *Repositories {
	return s.repos
}

// Transaction runs fn with repositories bound to a single read-committed transaction.
// The transaction is rolled back when fn returns an error.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, r *Repositories) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, New(tx))
	})
}

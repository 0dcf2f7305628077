package services

import (
	"context"

	"github.com/disgoorg/quest-bot/questbot/database/repositories"
)

// Store is the persistence boundary of the services.
type Store interface {
	Repos() *repositories.Repositories
	Transaction(ctx context.Context, fn func(ctx context.Context, r *repositories.Repositories) error) error
}

package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/uptrace/bun"
)

type UserRepository interface {
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// Upsert inserts the user or refreshes the stored username, filling user.ID either way.
	Upsert(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db bun.IDB
}

func NewUserRepository(db bun.IDB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("discord_id = ?", discordID).
		Scan(ctx)
	if err != nil {
		return nil, handleError("get_by_discord_id", "user", discordID, err)
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, handleError("get_by_id", "user", id, err)
	}
	return user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := r.db.NewInsert().
		Model(user).
		On("CONFLICT (discord_id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("is_admin = EXCLUDED.is_admin").
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		return handleError("upsert", "user", user.DiscordID, err)
	}

	slog.Debug("User upserted",
		slog.String("type", "db"),
		slog.String("discord_id", user.DiscordID),
		slog.Int64("user_internal_id", user.ID))
	return nil
}

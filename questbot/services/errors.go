package services

import (
	"errors"
	"fmt"

	"github.com/disgoorg/quest-bot/questbot/database/repositories"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrSubmissionPending = errors.New("a submission for this task is already waiting for review")
	ErrAlreadyApproved   = errors.New("submission is already approved")
	ErrDownloadFailed    = errors.New("photo download failed")
	ErrInvalidInput      = errors.New("invalid input")
)

// notFound maps a repository miss onto ErrNotFound and passes other errors through.
func notFound(err error, what string, id int64) error {
	if repositories.IsNotFound(err) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %d: %w", what, id, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

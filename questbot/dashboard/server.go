// Package dashboard serves a small read-only JSON view of the participant's progress.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// ProgressReader is the read side of the progress aggregator.
type ProgressReader interface {
	CurrentQuest(ctx context.Context, userID int64) (*services.QuestView, error)
	Stats(ctx context.Context, userID int64, now time.Time) (*services.Stats, error)
	Achievements(ctx context.Context, userID int64) ([]services.Achievement, error)
}

// ParticipantFunc loads the participant the dashboard reports on.
type ParticipantFunc func(ctx context.Context) (*models.User, error)

type Server struct {
	app         *fiber.App
	progress    ProgressReader
	participant ParticipantFunc
	now         func() time.Time
}

func New(token string, progress ProgressReader, participant ParticipantFunc) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "questbot-dashboard",
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
			ReadTimeout:           config.DefaultQueryTimeout,
			WriteTimeout:          config.DefaultQueryTimeout,
		}),
		progress:    progress,
		participant: participant,
		now:         time.Now,
	}

	s.app.Use(recover.New())
	s.app.Use(securityHeaders())
	s.app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	s.app.Use(requestLogger())

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return sendSuccess(c, fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api", rateLimit(config.DashboardRateLimit, time.Minute), bearerAuth(token))
	api.Get("/progress", s.handleProgress)
	api.Get("/stats", s.handleStats)
	api.Get("/achievements", s.handleAchievements)
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(address string) error {
	slog.Info("Dashboard listening", slog.String("type", "sys"), slog.String("address", address))
	return s.app.Listen(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// user resolves the participant and writes the failure response itself.
func (s *Server) user(c *fiber.Ctx) (*models.User, bool, error) {
	user, err := s.participant(c.UserContext())
	if errors.Is(err, services.ErrNotFound) {
		return nil, false, sendError(c, http.StatusNotFound, "NOT_FOUND", "participant has not started yet")
	}
	if err != nil {
		return nil, false, s.internal(c, "participant", err)
	}
	return user, true, nil
}

func (s *Server) internal(c *fiber.Ctx, op string, err error) error {
	slog.Error("Dashboard query failed",
		slog.String("type", "error"),
		slog.String("op", op),
		slog.Any("error", err))
	return sendError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load "+op)
}

func (s *Server) handleProgress(c *fiber.Ctx) error {
	user, ok, err := s.user(c)
	if !ok {
		return err
	}
	view, err := s.progress.CurrentQuest(c.UserContext(), user.ID)
	if err != nil {
		return s.internal(c, "progress", err)
	}
	if view == nil {
		return sendSuccess(c, ProgressResponse{AllComplete: true})
	}

	quest := &QuestResponse{
		ID:       view.Quest.ID,
		Title:    view.Quest.Title,
		Reward:   view.Quest.Reward,
		Approved: view.Approved,
		Required: view.Required,
		Percent:  view.Percent,
		Bar:      view.Bar,
		Tasks:    make([]TaskResponse, 0, len(view.Tasks)),
	}
	for _, tv := range view.Tasks {
		quest.Tasks = append(quest.Tasks, TaskResponse{
			ID:            tv.Task.ID,
			Title:         tv.Task.Title,
			Points:        tv.Task.Points,
			ScheduledDate: tv.Task.ScheduledDate,
			State:         tv.State.String(),
		})
	}
	return sendSuccess(c, ProgressResponse{Quest: quest})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	user, ok, err := s.user(c)
	if !ok {
		return err
	}
	stats, err := s.progress.Stats(c.UserContext(), user.ID, s.now())
	if err != nil {
		return s.internal(c, "stats", err)
	}

	resp := StatsResponse{
		TotalApproved: stats.TotalApproved,
		TotalPoints:   stats.TotalPoints,
		Pending:       stats.Pending,
		Activity:      make([]DayResponse, 0, len(stats.Activity)),
		Quests:        make([]QuestProgressResponse, 0, len(stats.Quests)),
	}
	for _, day := range stats.Activity {
		resp.Activity = append(resp.Activity, DayResponse{Day: day.Day.Format(config.DateLayout), Count: day.Count})
	}
	for _, qp := range stats.Quests {
		resp.Quests = append(resp.Quests, QuestProgressResponse{
			ID:        qp.Quest.ID,
			Title:     qp.Quest.Title,
			Approved:  qp.Approved,
			Required:  qp.Required,
			Completed: qp.Completed,
		})
	}
	return sendSuccess(c, resp)
}

func (s *Server) handleAchievements(c *fiber.Ctx) error {
	user, ok, err := s.user(c)
	if !ok {
		return err
	}
	list, err := s.progress.Achievements(c.UserContext(), user.ID)
	if err != nil {
		return s.internal(c, "achievements", err)
	}
	resp := make([]AchievementResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, AchievementResponse{Title: a.Title, Description: a.Description, Earned: a.Earned})
	}
	return sendSuccess(c, resp)
}

package dashboard

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// APIResponse is the envelope of every dashboard response.
type APIResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func sendSuccess(c *fiber.Ctx, data any) error {
	return c.Status(http.StatusOK).JSON(APIResponse{Success: true, Data: data, Timestamp: time.Now()})
}

func sendError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(APIResponse{
		Error:     &APIError{Code: code, Message: message},
		Timestamp: time.Now(),
	})
}

// errorHandler renders errors that escaped a handler, including fiber's own.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	return sendError(c, code, http.StatusText(code), message)
}

type TaskResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Points        int    `json:"points"`
	ScheduledDate string `json:"scheduled_date,omitempty"`
	State         string `json:"state"`
}

type QuestResponse struct {
	ID       int64          `json:"id"`
	Title    string         `json:"title"`
	Reward   string         `json:"reward"`
	Approved int            `json:"approved"`
	Required int            `json:"required"`
	Percent  int            `json:"percent"`
	Bar      string         `json:"bar"`
	Tasks    []TaskResponse `json:"tasks"`
}

type ProgressResponse struct {
	AllComplete bool           `json:"all_complete"`
	Quest       *QuestResponse `json:"quest,omitempty"`
}

type DayResponse struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type QuestProgressResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Approved  int    `json:"approved"`
	Required  int    `json:"required"`
	Completed bool   `json:"completed"`
}

type StatsResponse struct {
	TotalApproved int                     `json:"total_approved"`
	TotalPoints   int                     `json:"total_points"`
	Pending       int                     `json:"pending"`
	Activity      []DayResponse           `json:"activity"`
	Quests        []QuestProgressResponse `json:"quests"`
}

type AchievementResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}

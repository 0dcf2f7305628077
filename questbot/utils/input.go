package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/quest-bot/questbot/config"
)

var (
	ErrNotANumber  = errors.New("value is not a whole number")
	ErrOutOfRange  = errors.New("value is out of range")
	ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")
)

// noneWords are accepted wherever an optional value may be left out.
var noneWords = map[string]struct{}{
	"none": {},
	"no":   {},
	"skip": {},
	"-":    {},
	"нет":  {},
}

// IsNone reports whether the input means "leave this empty".
func IsNone(s string) bool {
	_, ok := noneWords[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseInt parses a whole number not smaller than min.
func ParseInt(s string, min int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrNotANumber
	}
	if n < min {
		return 0, ErrOutOfRange
	}
	return n, nil
}

// ValidateDate reports whether s is a calendar date in YYYY-MM-DD form.
func ValidateDate(s string) bool {
	_, err := time.Parse(config.DateLayout, s)
	return err == nil
}

// ParseScheduledDate normalizes an optional schedule date. "none" and empty input clear it.
func ParseScheduledDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || IsNone(s) {
		return "", nil
	}
	if !ValidateDate(s) {
		return "", ErrInvalidDate
	}
	return s, nil
}

// Today formats t as a schedule date.
func Today(t time.Time) string {
	return t.Format(config.DateLayout)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

package utils

import (
	"strings"

	"github.com/disgoorg/quest-bot/questbot/config"
)

const (
	barFilled = "█"
	barEmpty  = "░"
)

// Percent returns completed as a share of total in whole percent, clamped to [0, 100].
func Percent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := completed * 100 / total
	if p > 100 {
		return 100
	}
	return p
}

// FormatProgressBar renders a fixed-width bar with one cell per ten percent.
// A zero total renders an empty bar.
func FormatProgressBar(completed, total int) string {
	filled := Percent(completed, total) * config.ProgressBarLength / 100
	return bar(filled, config.ProgressBarLength)
}

// ActivityBar renders one cell per approval, capped at the bar length.
func ActivityBar(count int) string {
	return bar(count, config.ActivityBarLength)
}

func bar(filled, length int) string {
	if filled < 0 {
		filled = 0
	}
	if filled > length {
		filled = length
	}
	return strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, length-filled)
}

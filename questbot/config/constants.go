package config

import "time"

// UI and Display Constants
const (
	HistoryPerPage = 8

	// Colors
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	EmbedDefaultColor = 0x2B2D31
	QuestColor        = 0xFF69B4
	RewardColor       = 0xFFD700

	// Progress bars
	ProgressBarLength = 10
	ActivityBarLength = 5
	ActivityDays      = 7

	// Discord limits
	MaxAutocompleteChoices = 25
	MaxButtonLabelLength   = 15
	MaxButtonsPerRow       = 5
)

// Database and Performance Constants
const (
	DefaultQueryTimeout     = 30 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	SlowCommandThreshold    = 2 * time.Second
	NotificationTimeout     = 15 * time.Second
	UserCacheSize           = 64
	MaxConcurrentDeletes    = 8
	DashboardRateLimit      = 60
)

// Photo Intake Constants
const (
	DownloadMaxAttempts    = 3
	DownloadRetryBackoff   = 2 * time.Second
	DownloadAttemptTimeout = 30 * time.Second
	PhotoIntakeTimeout     = 2 * time.Minute

	DefaultPhotoDir     = "photos"
	DefaultImageMaxSize = 800
	DefaultImageQuality = 85
	TempPhotoPrefix     = "temp_"
	TempPhotoMaxAge     = 24 * time.Hour
	MaxPhotoBytes       = 25 << 20
)

// Achievement thresholds
const (
	AchievementFirstTask   = 1
	AchievementTenTasks    = 10
	AchievementQuarterTask = 25
	AchievementFiftyTasks  = 50
	AchievementFirstQuest  = 1
	AchievementThreeQuests = 3
)

// DateLayout is the layout of scheduled task dates.
const DateLayout = "2006-01-02"

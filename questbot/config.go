package questbot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads the TOML file at path, then applies overrides from the process
// environment and an optional .env file next to the working directory.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := defaultConfig()
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err = godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", slog.Any("error", err))
	}
	if err = cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log       LogConfig       `toml:"log"`
	Bot       BotConfig       `toml:"bot"`
	DB        DBConfig        `toml:"db"`
	Photos    PhotoConfig     `toml:"photos"`
	Spaces    SpacesConfig    `toml:"spaces"`
	Dashboard DashboardConfig `toml:"dashboard"`
}

type BotConfig struct {
	DevGuilds     []snowflake.ID `toml:"dev_guilds"`
	Token         string         `toml:"token"`
	AdminID       snowflake.ID   `toml:"admin_id"`
	ParticipantID snowflake.ID   `toml:"participant_id"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	SSLMode      string `toml:"ssl_mode"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type PhotoConfig struct {
	Dir     string `toml:"dir"`
	MaxSize int    `toml:"max_size"`
	Quality int    `toml:"quality"`
}

// SpacesConfig enables the S3-compatible artifact store when Bucket is set.
type SpacesConfig struct {
	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
	Root     string `toml:"root"`
	Endpoint string `toml:"endpoint"`
}

func (c SpacesConfig) Enabled() bool {
	return c.Bucket != ""
}

// DashboardConfig enables the read-only status API when Address is set.
type DashboardConfig struct {
	Address string `toml:"address"`
	Token   string `toml:"token"`
}

func defaultConfig() Config {
	return Config{
		Log: LogConfig{Level: slog.LevelInfo},
		DB: DBConfig{
			Host:     "localhost",
			Port:     5432,
			PoolSize: 10,
		},
		Photos: PhotoConfig{
			Dir:     config.DefaultPhotoDir,
			MaxSize: config.DefaultImageMaxSize,
			Quality: config.DefaultImageQuality,
		},
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("QUESTBOT_TOKEN"); ok && v != "" {
		c.Bot.Token = v
	}
	for key, dst := range map[string]*snowflake.ID{
		"QUESTBOT_ADMIN_ID":       &c.Bot.AdminID,
		"QUESTBOT_PARTICIPANT_ID": &c.Bot.ParticipantID,
	} {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		id, err := snowflake.Parse(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = id
	}
	if v, ok := lookup("QUESTBOT_DB_PASSWORD"); ok && v != "" {
		c.DB.Password = v
	}
	if v, ok := lookup("QUESTBOT_DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QUESTBOT_DB_PORT: %w", err)
		}
		c.DB.Port = port
	}
	if v, ok := lookup("QUESTBOT_SPACES_SECRET"); ok && v != "" {
		c.Spaces.Secret = v
	}
	if v, ok := lookup("QUESTBOT_DASHBOARD_TOKEN"); ok && v != "" {
		c.Dashboard.Token = v
	}
	return nil
}

// Validate checks the settings the bot cannot start without.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot token is not configured")
	}
	if c.Bot.AdminID == 0 {
		return errors.New("admin_id is not configured")
	}
	if c.Bot.ParticipantID == 0 {
		return errors.New("participant_id is not configured")
	}
	if c.Bot.AdminID == c.Bot.ParticipantID {
		return errors.New("admin_id and participant_id must differ")
	}
	if c.Dashboard.Address != "" && c.Dashboard.Token == "" {
		return errors.New("dashboard token is required when the dashboard is enabled")
	}
	return nil
}

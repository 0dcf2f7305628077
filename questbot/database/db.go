package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	dialTimeout    = 5 * time.Second
	dialAttempts   = 3
	dialBackoff    = time.Second
	defaultSSLMode = "disable"
)

type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	PoolSize     int
	MaxIdleConns int
	MaxLifetime  int
}

// DB holds a pgx pool for raw statements and a bun handle for the repositories.
type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg Config) (*DB, error) {
	if err := waitForServer(ctx, net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))); err != nil {
		return nil, err
	}

	dsn := cfg.dsn()
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if cfg.PoolSize > 0 {
		sqldb.SetMaxOpenConns(cfg.PoolSize)
	}
	return &DB{pool: pool, bunDB: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// waitForServer dials addr until it accepts a TCP connection or the attempts run out.
func waitForServer(ctx context.Context, addr string) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	var err error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		var conn net.Conn
		if conn, err = dialer.DialContext(ctx, "tcp", addr); err == nil {
			return conn.Close()
		}
		slog.Warn("Database not reachable, retrying",
			slog.String("type", "db"),
			slog.String("addr", addr),
			slog.Int("attempt", attempt),
			slog.Any("error", err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	return fmt.Errorf("database server unreachable after %d attempts: %w", dialAttempts, err)
}

func (c Config) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	logger.LogQuery("exec", sql, time.Since(start), result.RowsAffected(), err)
	return result, err
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

type schemaTable struct {
	model       any
	foreignKeys []string
}

// schemaTables is in foreign key order.
var schemaTables = []schemaTable{
	{model: (*models.User)(nil)},
	{
		model:       (*models.Quest)(nil),
		foreignKeys: []string{`("created_by") REFERENCES "users" ("id") ON DELETE SET NULL`},
	},
	{
		model:       (*models.Task)(nil),
		foreignKeys: []string{`("quest_id") REFERENCES "quests" ("id") ON DELETE CASCADE`},
	},
	{
		model: (*models.Submission)(nil),
		foreignKeys: []string{
			`("task_id") REFERENCES "tasks" ("id") ON DELETE CASCADE`,
			`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*models.QuestCompletion)(nil),
		foreignKeys: []string{
			`("quest_id") REFERENCES "quests" ("id") ON DELETE CASCADE`,
			`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
		},
	},
}

var schemaIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_quests_active ON quests(id) WHERE is_active;",
	"CREATE INDEX IF NOT EXISTS idx_tasks_quest_position ON tasks(quest_id, position, id);",
	"CREATE INDEX IF NOT EXISTS idx_submissions_user_approved ON submissions(user_id, is_approved);",
	"CREATE INDEX IF NOT EXISTS idx_submissions_approved_at ON submissions(user_id, approved_at) WHERE is_approved;",
	// At most one pending submission per task and participant
	"CREATE UNIQUE INDEX IF NOT EXISTS uq_submissions_pending ON submissions(task_id, user_id) WHERE NOT is_approved;",
	// Target of the completion insert's ON CONFLICT clause
	"CREATE UNIQUE INDEX IF NOT EXISTS uq_quest_completions_quest_user ON quest_completions(quest_id, user_id);",
}

func createTableQuery(db bun.IDB, table schemaTable) *bun.CreateTableQuery {
	query := db.NewCreateTable().
		Model(table.model).
		IfNotExists()
	for _, fk := range table.foreignKeys {
		query = query.ForeignKey(fk)
	}
	return query
}

// InitializeSchema creates all tables, constraints and indexes. It is safe to run repeatedly.
func (db *DB) InitializeSchema(ctx context.Context) error {
	if err := db.ensureUTF8Encoding(ctx); err != nil {
		return fmt.Errorf("failed to ensure UTF-8 encoding: %w", err)
	}

	for _, table := range schemaTables {
		if _, err := createTableQuery(db.bunDB, table).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, idx := range schemaIndexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	slog.Info("Database schema initialized", slog.String("type", "db"))
	return nil
}

// Ping verifies both database connections are working
func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pgxpool ping failed: %w", err)
	}
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}
	return nil
}

func (db *DB) ensureUTF8Encoding(ctx context.Context) error {
	var encoding string
	if err := db.pool.QueryRow(ctx, "SHOW server_encoding;").Scan(&encoding); err != nil {
		return fmt.Errorf("failed to check database encoding: %w", err)
	}

	// Task titles and comments carry emoji and Cyrillic text
	if encoding != "UTF8" {
		slog.Warn("Database is not using UTF-8 encoding",
			slog.String("type", "db"),
			slog.String("current_encoding", encoding))
	}
	return nil
}

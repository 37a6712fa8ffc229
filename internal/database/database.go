package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"playcafe/internal/config"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // libsql driver
)

var (
	ErrNotFound               = errors.New("not found")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrDuplicate              = errors.New("duplicate entry")
)

// timeLayout is fixed-width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02 15:04:05.000000"

type DB struct {
	*sql.DB
	driver string
	path   string
	logger *zerolog.Logger
}

// NewDB opens a local SQLite database, creating its directory when needed.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	return Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}, logger)
}

// Open connects to the configured driver and applies the schema.
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	switch cfg.Driver {
	case config.DriverLibSQL:
		sqlDB, err = sql.Open("libsql", libsqlDSN(cfg.URL, cfg.AuthToken))
	case config.DriverSQLite, "":
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		sqlDB, err = sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000&_foreign_keys=on")
		if err == nil {
			// One connection keeps :memory: databases shared and serializes writers.
			sqlDB.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, driver: cfg.Driver, path: cfg.Path, logger: logger}
	if err := db.createTables(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := db.ensureColumn(ctx, "cafes", "telegram_chat_id", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("driver", db.Driver()).Msg("Database initialized")
	return db, nil
}

// Driver reports which SQL driver backs the database.
func (db *DB) Driver() string {
	if db.driver == "" {
		return config.DriverSQLite
	}
	return db.driver
}

// Path is the local file path for sqlite3 databases.
func (db *DB) Path() string {
	return db.path
}

func libsqlDSN(url, token string) string {
	if token == "" {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "authToken=" + token
}

func (db *DB) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS owners (
            id TEXT PRIMARY KEY,
            username TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS cafes (
            id TEXT PRIMARY KEY,
            owner_id TEXT NOT NULL,
            name TEXT NOT NULL,
            address TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            opening_hours TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            hourly_rate INTEGER NOT NULL DEFAULT 0,
            cover_image_url TEXT NOT NULL DEFAULT '',
            tech_specs TEXT NOT NULL DEFAULT '{}',
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS cafe_inventory (
            cafe_id TEXT NOT NULL,
            console_type TEXT NOT NULL,
            count INTEGER NOT NULL,
            PRIMARY KEY (cafe_id, console_type)
        )`,
		`CREATE TABLE IF NOT EXISTS user_profiles (
            id TEXT PRIMARY KEY,
            full_name TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            cafe_id TEXT NOT NULL,
            user_id TEXT,
            booking_date TEXT NOT NULL,
            start_time TEXT NOT NULL DEFAULT '',
            duration INTEGER NOT NULL,
            total_amount INTEGER,
            status TEXT NOT NULL,
            source TEXT NOT NULL,
            payment_mode TEXT NOT NULL DEFAULT '',
            customer_name TEXT NOT NULL DEFAULT '',
            customer_phone TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS booking_items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id TEXT NOT NULL,
            console_type TEXT NOT NULL,
            quantity INTEGER NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS pricing_tiers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            cafe_id TEXT NOT NULL,
            console_type TEXT NOT NULL,
            quantity INTEGER NOT NULL,
            duration INTEGER NOT NULL,
            price INTEGER NOT NULL,
            UNIQUE (cafe_id, console_type, quantity, duration)
        )`,
		`CREATE TABLE IF NOT EXISTS station_pricing (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            cafe_id TEXT NOT NULL,
            station_name TEXT NOT NULL,
            console_type TEXT NOT NULL,
            half_hour_rate INTEGER,
            hour_rate INTEGER,
            controller_rates TEXT NOT NULL DEFAULT '[]',
            UNIQUE (cafe_id, station_name)
        )`,
		`CREATE TABLE IF NOT EXISTS membership_plans (
            id TEXT PRIMARY KEY,
            cafe_id TEXT NOT NULL,
            name TEXT NOT NULL,
            plan_type TEXT NOT NULL,
            console_type TEXT NOT NULL,
            player_count TEXT NOT NULL,
            price INTEGER NOT NULL,
            hours INTEGER,
            validity_days INTEGER NOT NULL,
            is_active INTEGER NOT NULL DEFAULT 1,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS gallery_images (
            id TEXT PRIMARY KEY,
            cafe_id TEXT NOT NULL,
            url TEXT NOT NULL,
            object_key TEXT NOT NULL DEFAULT '',
            caption TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id TEXT NOT NULL DEFAULT '',
            payload TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL,
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at TEXT NOT NULL,
            processed_at TEXT,
            next_retry_at TEXT
        )`,

		`CREATE INDEX IF NOT EXISTS idx_cafes_owner_id ON cafes(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_cafe_date ON bookings(cafe_id, booking_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_items_booking_id ON booking_items(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_membership_plans_cafe ON membership_plans(cafe_id)`,
		`CREATE INDEX IF NOT EXISTS idx_gallery_images_cafe ON gallery_images(cafe_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// ensureColumn adds a column introduced after the table was first created.
func (db *DB) ensureColumn(ctx context.Context, table, column, definition string) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// inBatchSize caps the ids bound into one IN (...) list. SQLite rejects
// statements with more than 32766 variables.
const inBatchSize = 500

// inBatches splits ids into consecutive slices of at most inBatchSize, each
// returned with its arguments ready to bind.
func inBatches(ids []string) [][]any {
	var batches [][]any
	for start := 0; start < len(ids); start += inBatchSize {
		end := min(start+inBatchSize, len(ids))
		args := make([]any, 0, end-start)
		for _, id := range ids[start:end] {
			args = append(args, id)
		}
		batches = append(batches, args)
	}
	return batches
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

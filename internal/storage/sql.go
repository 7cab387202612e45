package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/iWorld-y/event_research/internal/config"
	"github.com/iWorld-y/event_research/internal/model"
)

const reportsTable = "reports"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id           BIGSERIAL PRIMARY KEY,
	timestamp    TEXT NOT NULL,
	event_ticker TEXT NOT NULL,
	ddgs_report  TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (timestamp, event_ticker)
)`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp    TEXT NOT NULL,
	event_ticker TEXT NOT NULL,
	ddgs_report  TEXT NOT NULL,
	created_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (timestamp, event_ticker)
)`

// SQLStore 基于 database/sql 的报告存储，支持 PostgreSQL 与 SQLite
type SQLStore struct {
	db          *sql.DB
	builder     sq.StatementBuilderType
	isDuplicate func(error) bool
}

var _ ReportStore = (*SQLStore)(nil)

// NewPostgresStore 连接 PostgreSQL 并建表
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig) (*SQLStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	s := &SQLStore{
		db:          db,
		builder:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		isDuplicate: isPostgresDuplicate,
	}
	if err := s.migrate(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore 打开本地 SQLite 文件并建表
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	// SQLite 单写者，避免并发写入时的 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &SQLStore{
		db:          db,
		builder:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		isDuplicate: isSQLiteDuplicate,
	}
	if err := s.migrate(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context, schema string) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// GetReport 实现 ReportStore
func (s *SQLStore) GetReport(ctx context.Context, timestamp, ticker string) (string, bool, error) {
	query, args, err := s.builder.
		Select("ddgs_report").
		From(reportsTable).
		Where(sq.Eq{"timestamp": timestamp, "event_ticker": ticker}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var text string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query report: %w", err)
	}
	return text, true, nil
}

// SaveReport 实现 ReportStore
func (s *SQLStore) SaveReport(ctx context.Context, report *model.Report) error {
	query, args, err := s.builder.
		Insert(reportsTable).
		Columns("timestamp", "event_ticker", "ddgs_report").
		Values(report.Timestamp, report.EventTicker, sanitizeText(report.Text)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if s.isDuplicate(err) {
			return ErrReportExists
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Close 实现 ReportStore
func (s *SQLStore) Close(context.Context) error {
	return s.db.Close()
}

func isPostgresDuplicate(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isSQLiteDuplicate(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}

// Package history records validation runs in a local SQLite database so
// earlier outcomes of a configuration can be listed and compared.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/sbat/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Issue is the stored form of a config.ConfigError.
type Issue struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Path     string `json:"path,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
}

// Run is one recorded validation of a configuration document.
type Run struct {
	ID           int64
	RunID        string
	ConfigPath   string
	ConfigSHA256 string
	Format       string
	ModelName    string
	Valid        bool
	ErrorCount   int
	WarningCount int
	Issues       []Issue
	CreatedAt    time.Time
}

// NewRun builds a Run from a validation report. ConfigPath is made absolute
// so runs from different working directories group together.
func NewRun(report *config.Report) *Run {
	path := report.Path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	run := &Run{
		RunID:        uuid.NewString(),
		ConfigPath:   path,
		ConfigSHA256: report.SHA256,
		Format:       string(report.Format),
		Valid:        report.Valid(),
		ErrorCount:   len(report.Errors()),
		WarningCount: len(report.Warnings()),
	}
	if report.Config != nil {
		run.ModelName = report.Config.Info.ModelName
	}
	for _, issue := range report.Issues {
		run.Issues = append(run.Issues, Issue{
			Kind:     issue.Kind.String(),
			Severity: issue.Severity.String(),
			Path:     issue.Path,
			Line:     issue.Line,
			Message:  issue.Message,
		})
	}
	return run
}

// Store manages the history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the database at dbPath and applies pending migrations.
// ":memory:" opens a private in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	// busy_timeout must come first so the others wait on locks.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry retries statements failing with "database is locked" using
// exponential backoff.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts run and sets its ID. A missing RunID or CreatedAt is filled in.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	issuesJSON := "[]"
	if len(run.Issues) > 0 {
		data, err := json.Marshal(run.Issues)
		if err != nil {
			return fmt.Errorf("marshal issues: %w", err)
		}
		issuesJSON = string(data)
	}

	query := `INSERT INTO validation_runs
		(run_id, config_path, config_sha256, format, model_name, valid, error_count, warning_count, errors_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.ConfigPath,
		run.ConfigSHA256,
		run.Format,
		run.ModelName,
		run.Valid,
		run.ErrorCount,
		run.WarningCount,
		issuesJSON,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert validation run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	run.ID = id
	return nil
}

const selectRuns = `SELECT id, run_id, config_path, config_sha256, format, model_name, valid, error_count, warning_count, errors_json, created_at
		FROM validation_runs`

// List returns the most recent runs, newest first. limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	return s.query(ctx, selectRuns+` ORDER BY id DESC LIMIT ?`, sqlLimit(limit))
}

// ListForConfig returns the runs of one configuration file, newest first.
func (s *Store) ListForConfig(ctx context.Context, configPath string, limit int) ([]*Run, error) {
	if abs, err := filepath.Abs(configPath); err == nil {
		configPath = abs
	}
	return s.query(ctx, selectRuns+` WHERE config_path = ? ORDER BY id DESC LIMIT ?`, configPath, sqlLimit(limit))
}

// Latest returns the most recent run of configPath, or nil when there is none.
func (s *Store) Latest(ctx context.Context, configPath string) (*Run, error) {
	runs, err := s.ListForConfig(ctx, configPath, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func (s *Store) query(ctx context.Context, query string, args ...interface{}) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query validation runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var format, modelName, issuesJSON sql.NullString
		var createdAt string
		err := rows.Scan(
			&run.ID,
			&run.RunID,
			&run.ConfigPath,
			&run.ConfigSHA256,
			&format,
			&modelName,
			&run.Valid,
			&run.ErrorCount,
			&run.WarningCount,
			&issuesJSON,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan validation run: %w", err)
		}

		if format.Valid {
			run.Format = format.String
		}
		if modelName.Valid {
			run.ModelName = modelName.String
		}
		if issuesJSON.Valid && issuesJSON.String != "" && issuesJSON.String != "[]" {
			if err := json.Unmarshal([]byte(issuesJSON.String), &run.Issues); err != nil {
				return nil, fmt.Errorf("unmarshal issues of run %s: %w", run.RunID, err)
			}
		}
		run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of run %s: %w", run.RunID, err)
		}

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validation runs: %w", err)
	}
	return runs, nil
}

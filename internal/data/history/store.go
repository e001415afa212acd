package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

const runColumns = `
  id, schema_version, header, lib_name, ts_utc, duration_ns, status, error_code, message,
  decl_count, entry_count, stub_count, opaque_count, output_path, output_hash`

// Store persists generation runs in a SQLite database.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun inserts run, assigning an ID and timestamp when missing, and
// returns the stored record.
func (s *Store) SaveRun(run Run) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.Header = strings.TrimSpace(run.Header)
	if run.Header == "" {
		return run, fmt.Errorf("run header must not be empty")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	if run.SchemaVersion == 0 {
		run.SchemaVersion = SchemaVersion
	}
	if run.SchemaVersion != SchemaVersion {
		return run, fmt.Errorf("unsupported run schema version %d", run.SchemaVersion)
	}
	if run.Status == "" {
		run.Status = StatusOK
	}

	query := `INSERT INTO runs (` + runColumns + `
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	err := s.withRetry("save run", func() error {
		_, err := s.db.Exec(
			query,
			run.ID,
			run.SchemaVersion,
			run.Header,
			run.LibName,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			int64(run.Duration),
			run.Status,
			run.ErrorCode,
			run.Message,
			run.DeclCount,
			run.EntryCount,
			run.StubCount,
			run.OpaqueCount,
			run.OutputPath,
			run.OutputHash,
		)
		return err
	})
	return run, err
}

// LoadRuns returns the runs for header at or after since, oldest first.
func (s *Store) LoadRuns(header string, since time.Time) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + runColumns + ` FROM runs WHERE header = ?`
	args := []any{strings.TrimSpace(header)}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, id ASC"
	return s.queryRuns("load runs", query, args...)
}

// LatestSuccess returns the most recent successful run for header, or
// ok=false when none exists.
func (s *Store) LatestSuccess(header string) (Run, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.queryRuns("latest run",
		`SELECT `+runColumns+` FROM runs WHERE header = ? AND status = ? ORDER BY ts_utc DESC, id DESC LIMIT 1`,
		strings.TrimSpace(header), StatusOK)
	if err != nil || len(runs) == 0 {
		return Run{}, false, err
	}
	return runs[0], true, nil
}

// Prune deletes all but the newest keep runs for header and returns how many
// were removed. keep <= 0 is a no-op.
func (s *Store) Prune(header string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.withRetry("prune runs", func() error {
		res, err := s.db.Exec(`
DELETE FROM runs WHERE header = ? AND id NOT IN (
  SELECT id FROM runs WHERE header = ? ORDER BY ts_utc DESC, id DESC LIMIT ?
)`, header, header, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

func (s *Store) queryRuns(op, query string, args ...any) ([]Run, error) {
	var rows *sql.Rows
	err := s.withRetry(op, func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run        Run
			tsRaw      string
			durationNs int64
		)
		if err := rows.Scan(
			&run.ID,
			&run.SchemaVersion,
			&run.Header,
			&run.LibName,
			&tsRaw,
			&durationNs,
			&run.Status,
			&run.ErrorCode,
			&run.Message,
			&run.DeclCount,
			&run.EntryCount,
			&run.StubCount,
			&run.OpaqueCount,
			&run.OutputPath,
			&run.OutputHash,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(durationNs)

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

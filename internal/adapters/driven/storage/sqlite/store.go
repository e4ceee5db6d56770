package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/titlegrid-labs/titlegrid-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driven"
)

// Store is a SQLite-backed session store.
type Store struct {
	db   *sql.DB
	path string

	// mu serializes read-modify-write Update calls.
	mu sync.Mutex
}

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.titlegrid/data/sessions.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".titlegrid", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sessions.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Create stores a new session under its id.
func (s *Store) Create(ctx context.Context, session domain.SearchSession) error {
	query, outcomes, documents, notes, err := marshalSession(session)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, status, created_at, completed_at,
			sources_attempted, sources_succeeded, sources_failed, document_count,
			query, outcomes, documents, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID, string(session.Status), session.CreatedAt.UTC(), nullTime(session.CompletedAt),
		session.Counts.SourcesAttempted, session.Counts.SourcesSucceeded,
		session.Counts.SourcesFailed, session.Counts.Documents,
		query, outcomes, documents, notes)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Get retrieves a session by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.SearchSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, created_at, completed_at,
			sources_attempted, sources_succeeded, sources_failed, document_count,
			query, outcomes, documents, notes
		FROM sessions WHERE id = ?
	`, id)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Update applies a mutation to a stored session and persists the result.
func (s *Store) Update(ctx context.Context, id string, mutate func(*domain.SearchSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	mutate(session)

	query, outcomes, documents, notes, err := marshalSession(*session)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE sessions SET
			status = ?, completed_at = ?,
			sources_attempted = ?, sources_succeeded = ?, sources_failed = ?, document_count = ?,
			query = ?, outcomes = ?, documents = ?, notes = ?
		WHERE id = ?
	`, string(session.Status), nullTime(session.CompletedAt),
		session.Counts.SourcesAttempted, session.Counts.SourcesSucceeded,
		session.Counts.SourcesFailed, session.Counts.Documents,
		query, outcomes, documents, notes, id)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

// List returns all sessions, newest first.
func (s *Store) List(ctx context.Context) ([]domain.SearchSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, created_at, completed_at,
			sources_attempted, sources_succeeded, sources_failed, document_count,
			query, outcomes, documents, notes
		FROM sessions ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.SearchSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*domain.SearchSession, error) {
	var (
		session     domain.SearchSession
		status      string
		completedAt sql.NullTime
		queryJSON   string
		outcomes    string
		documents   string
		notes       string
	)
	err := row.Scan(
		&session.ID, &status, &session.CreatedAt, &completedAt,
		&session.Counts.SourcesAttempted, &session.Counts.SourcesSucceeded,
		&session.Counts.SourcesFailed, &session.Counts.Documents,
		&queryJSON, &outcomes, &documents, &notes,
	)
	if err != nil {
		return nil, err
	}

	session.Status = domain.SessionStatus(status)
	if completedAt.Valid {
		session.CompletedAt = completedAt.Time
	}
	if err := json.Unmarshal([]byte(queryJSON), &session.Query); err != nil {
		return nil, fmt.Errorf("unmarshalling query: %w", err)
	}
	if err := json.Unmarshal([]byte(outcomes), &session.Outcomes); err != nil {
		return nil, fmt.Errorf("unmarshalling outcomes: %w", err)
	}
	if err := json.Unmarshal([]byte(documents), &session.Documents); err != nil {
		return nil, fmt.Errorf("unmarshalling documents: %w", err)
	}
	if err := json.Unmarshal([]byte(notes), &session.Notes); err != nil {
		return nil, fmt.Errorf("unmarshalling notes: %w", err)
	}
	return &session, nil
}

func marshalSession(session domain.SearchSession) (query, outcomes, documents, notes string, err error) {
	q, err := json.Marshal(session.Query)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshalling query: %w", err)
	}
	o, err := json.Marshal(session.Outcomes)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshalling outcomes: %w", err)
	}
	d, err := json.Marshal(session.Documents)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshalling documents: %w", err)
	}
	n, err := json.Marshal(session.Notes)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshalling notes: %w", err)
	}
	return string(q), string(o), string(d), string(n), nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

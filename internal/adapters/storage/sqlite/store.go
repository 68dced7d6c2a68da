// Package sqlite provides a SQLite-backed implementation of the storage
// ports using the pure-Go modernc.org/sqlite driver. A single Store owns the
// database handle; the port interfaces are served by wrapper types that
// share it.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jsamuelsen/taxonomy-service/internal/adapters/storage/sqlite/migrations"
	"github.com/jsamuelsen/taxonomy-service/internal/domain"
	"github.com/jsamuelsen/taxonomy-service/internal/ports"
)

// Store is a SQLite-backed storage shared by the vocabulary and term stores.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (and if necessary creates) the database at dbPath and runs
// any pending migrations. The parent directory is created when missing.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite store requires a database path")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// WAL mode for better concurrency; busy_timeout avoids spurious
	// SQLITE_BUSY under concurrent writers.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()

		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}

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

// Vocabularies returns the vocabulary store view.
func (s *Store) Vocabularies() ports.VocabularyStore {
	return &vocabularyStore{store: s}
}

// Terms returns the term store view.
func (s *Store) Terms() ports.TermStore {
	return &termStore{store: s}
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "sqlite"
}

// Check implements ports.HealthChecker by pinging the database.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs all pending .up.sql migrations in version order.
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
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
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

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// violation.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	code := sqliteErr.Code()

	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// ==================== Vocabulary Store ====================

type vocabularyStore struct {
	store *Store
}

var _ ports.VocabularyStore = (*vocabularyStore)(nil)

func (vs *vocabularyStore) Create(ctx context.Context, name string) (*domain.Vocabulary, error) {
	result, err := vs.store.db.ExecContext(ctx,
		"INSERT INTO vocabularies (name) VALUES (?)", name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.NewConflictError("vocabulary", "name already exists")
		}

		return nil, fmt.Errorf("inserting vocabulary: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary id: %w", err)
	}

	return &domain.Vocabulary{ID: id, Name: name}, nil
}

func (vs *vocabularyStore) GetByID(ctx context.Context, id int64) (*domain.Vocabulary, error) {
	row := vs.store.db.QueryRowContext(ctx,
		"SELECT id, name FROM vocabularies WHERE id = ?", id)

	return scanVocabulary(row, "")
}

func (vs *vocabularyStore) GetByName(ctx context.Context, name string) (*domain.Vocabulary, error) {
	row := vs.store.db.QueryRowContext(ctx,
		"SELECT id, name FROM vocabularies WHERE name = ?", name)

	return scanVocabulary(row, name)
}

func (vs *vocabularyStore) List(ctx context.Context) ([]domain.Vocabulary, error) {
	rows, err := vs.store.db.QueryContext(ctx,
		"SELECT id, name FROM vocabularies ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying vocabularies: %w", err)
	}
	defer rows.Close()

	var vocabs []domain.Vocabulary //nolint:prealloc // size unknown from query

	for rows.Next() {
		var vocab domain.Vocabulary
		if err := rows.Scan(&vocab.ID, &vocab.Name); err != nil {
			return nil, fmt.Errorf("scanning vocabulary: %w", err)
		}

		vocabs = append(vocabs, vocab)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vocabularies: %w", err)
	}

	return vocabs, nil
}

// Delete removes the vocabulary; its terms go with it via ON DELETE CASCADE.
func (vs *vocabularyStore) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := vs.store.db.ExecContext(ctx,
		"DELETE FROM vocabularies WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting vocabulary: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}

	return affected > 0, nil
}

func scanVocabulary(row *sql.Row, key string) (*domain.Vocabulary, error) {
	var vocab domain.Vocabulary

	if err := row.Scan(&vocab.ID, &vocab.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("vocabulary", key)
		}

		return nil, fmt.Errorf("scanning vocabulary: %w", err)
	}

	return &vocab, nil
}

// ==================== Term Store ====================

type termStore struct {
	store *Store
}

var _ ports.TermStore = (*termStore)(nil)

const termColumns = "id, vocabulary_id, name, parent_id, weight"

func (ts *termStore) Create(ctx context.Context, term domain.Term) (*domain.Term, error) {
	result, err := ts.store.db.ExecContext(ctx, `
		INSERT INTO terms (vocabulary_id, name, parent_id, weight)
		VALUES (?, ?, ?, ?)
	`, term.VocabularyID, term.Name, term.ParentID, term.Weight)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.NewConflictError("term", "duplicate sibling")
		}

		return nil, fmt.Errorf("inserting term: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading term id: %w", err)
	}

	term.ID = id

	return &term, nil
}

func (ts *termStore) GetByID(ctx context.Context, id int64) (*domain.Term, error) {
	row := ts.store.db.QueryRowContext(ctx,
		"SELECT "+termColumns+" FROM terms WHERE id = ?", id)

	return scanTerm(row, "")
}

func (ts *termStore) FirstByName(ctx context.Context, vocabularyID int64, name string) (*domain.Term, error) {
	row := ts.store.db.QueryRowContext(ctx, `
		SELECT `+termColumns+` FROM terms
		WHERE vocabulary_id = ? AND name = ?
		ORDER BY id LIMIT 1
	`, vocabularyID, name)

	return scanTerm(row, name)
}

func (ts *termStore) ListByVocabulary(ctx context.Context, vocabularyID, afterID int64, limit int) ([]domain.Term, error) {
	query := `
		SELECT ` + termColumns + ` FROM terms
		WHERE vocabulary_id = ? AND id > ?
		ORDER BY id
	`
	args := []any{vocabularyID, afterID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := ts.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	return scanTerms(rows)
}

func (ts *termStore) ListChildren(ctx context.Context, vocabularyID, parentID int64) ([]domain.Term, error) {
	rows, err := ts.store.db.QueryContext(ctx, `
		SELECT `+termColumns+` FROM terms
		WHERE vocabulary_id = ? AND parent_id = ?
		ORDER BY weight, id
	`, vocabularyID, parentID)
	if err != nil {
		return nil, fmt.Errorf("querying children: %w", err)
	}
	defer rows.Close()

	return scanTerms(rows)
}

func (ts *termStore) CountByVocabulary(ctx context.Context, vocabularyID int64) (int64, error) {
	var count int64

	err := ts.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM terms WHERE vocabulary_id = ?", vocabularyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting terms: %w", err)
	}

	return count, nil
}

func (ts *termStore) HasSibling(ctx context.Context, vocabularyID, parentID int64, name string) (bool, error) {
	var count int

	err := ts.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM terms
		WHERE vocabulary_id = ? AND parent_id = ? AND name = ?
	`, vocabularyID, parentID, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking sibling: %w", err)
	}

	return count > 0, nil
}

func scanTerm(row *sql.Row, key string) (*domain.Term, error) {
	var term domain.Term

	if err := row.Scan(&term.ID, &term.VocabularyID, &term.Name, &term.ParentID, &term.Weight); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("term", key)
		}

		return nil, fmt.Errorf("scanning term: %w", err)
	}

	return &term, nil
}

func scanTerms(rows *sql.Rows) ([]domain.Term, error) {
	var terms []domain.Term //nolint:prealloc // size unknown from query

	for rows.Next() {
		var term domain.Term
		if err := rows.Scan(&term.ID, &term.VocabularyID, &term.Name, &term.ParentID, &term.Weight); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}

		terms = append(terms, term)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating terms: %w", err)
	}

	return terms, nil
}

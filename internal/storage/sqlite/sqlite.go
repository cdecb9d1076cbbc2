// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// Importing go-sqlite3 registers the "sqlite3" driver with database/sql;
// its error type is also used to recognise constraint violations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Email uniqueness only applies to non-empty values, so it lives in a
// partial index instead of a column constraint.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS student (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		name       TEXT     NOT NULL CHECK (name <> ''),
		reg_number TEXT     NOT NULL UNIQUE,
		email      TEXT     NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS student_email_key
		ON student (email) WHERE email <> ''`,
}

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is a connection pool and is safe for concurrent use.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.StoragePath, creates the student
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.StoragePath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite.New: create directory: %w", err)
	}

	// Writers take the lock at BEGIN and wait up to busy_timeout for it
	// instead of failing with SQLITE_BUSY.
	db, err := sql.Open("sqlite3", cfg.StoragePath+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite.New: create schema: %w", err)
		}
	}

	return &SQLite{Db: db}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateStudent inserts one row inside a transaction.
//
// ATOMICITY:
// ──────────
// The INSERT and the id lookup run inside tx. Any early return hits the
// deferred Rollback, so a failed create leaves zero rows behind; once
// Commit succeeds the Rollback is a no-op.
//
// Placeholders (?) keep user input out of the SQL text: the driver sends
// values separately and SQLite treats them as data only.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return types.Student{}, storage.Unavailable("CreateStudent: begin", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"INSERT INTO student (name, reg_number, email, created_at) VALUES (?, ?, ?, ?)",
		student.Name, student.RegNumber, student.Email, student.CreatedAt.UTC(),
	)
	if err != nil {
		return types.Student{}, classify("CreateStudent: exec", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return types.Student{}, storage.Unavailable("CreateStudent: last insert id", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, classify("CreateStudent: commit", err)
	}

	student.ID = id
	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudents returns all rows ordered by id, which is insertion order.
//
// rows.Next() advances the cursor; Scan reads columns in SELECT order.
// rows.Err() catches failures that happen during iteration, separately
// from Scan errors. The slice starts non-nil so the API encodes [].
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT id, name, reg_number, email, created_at FROM student ORDER BY id",
	)
	if err != nil {
		return nil, storage.Unavailable("GetStudents: query", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)

	for rows.Next() {
		var student types.Student

		if err := rows.Scan(
			&student.ID,
			&student.Name,
			&student.RegNumber,
			&student.Email,
			&student.CreatedAt,
		); err != nil {
			return nil, storage.Unavailable("GetStudents: scan row", err)
		}

		student.CreatedAt = student.CreatedAt.UTC()
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable("GetStudents: rows iteration", err)
	}

	return students, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.Db.PingContext(ctx); err != nil {
		return storage.Unavailable("Ping", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}

// classify turns a UNIQUE violation into a *storage.ConflictError naming
// the offending column; everything else is reported as unavailable.
func classify(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		// SQLite reports the columns of the violated index, e.g.
		// "UNIQUE constraint failed: student.email".
		if strings.Contains(sqliteErr.Error(), "student.email") {
			return fmt.Errorf("%s: %w", op, storage.Conflict(storage.FieldEmail, err))
		}
		return fmt.Errorf("%s: %w", op, storage.Conflict(storage.FieldRegNumber, err))
	}
	return storage.Unavailable(op, err)
}

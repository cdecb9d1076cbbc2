// Package storage defines the Storage interface, the contract every
// database backend satisfies to work with this application.
//
// Handlers receive a Storage explicitly; there is no process-wide
// database handle. Tests pass the in-memory backend instead of a real
// database.
package storage

import (
	"context"

	"github.com/aanand-mishra/student-records/internal/types"
)

// ─────────────────────────────────────────────────────────────────────────────
// Storage is the database contract.
//
// Implementations: sqlite (default), postgres, memory (tests and demos).
// Every method that touches the backend takes a context so a cancelled
// request stops waiting on the database.
// ─────────────────────────────────────────────────────────────────────────────
type Storage interface {
	// CreateStudent inserts a new student inside a transaction and returns
	// the stored record with its generated ID. On any failure nothing is
	// persisted. A unique-constraint violation returns a *ConflictError;
	// every other failure wraps ErrUnavailable.
	CreateStudent(ctx context.Context, student types.Student) (types.Student, error)

	// GetStudents returns every student in insertion order.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// Ping reports whether the backend can serve requests.
	Ping(ctx context.Context) error

	Close() error
}

// Package memory is an in-process storage.Storage used by tests and by
// the "memory" driver. Contents are lost when the process exits.
package memory

import (
	"context"
	"sync"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Memory enforces the same unique constraints as the SQL backends under a
// single mutex, so a create either fully happens or not at all.
type Memory struct {
	mu       sync.RWMutex
	students []types.Student
	nextID   int64
	closed   bool
}

func New() *Memory {
	return &Memory{nextID: 1}
}

func (m *Memory) CreateStudent(_ context.Context, student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.Student{}, storage.Unavailable("CreateStudent", errClosed)
	}

	for _, existing := range m.students {
		if existing.RegNumber == student.RegNumber {
			return types.Student{}, storage.Conflict(storage.FieldRegNumber, nil)
		}
		if student.Email != "" && existing.Email == student.Email {
			return types.Student{}, storage.Conflict(storage.FieldEmail, nil)
		}
	}

	student.ID = m.nextID
	m.nextID++
	m.students = append(m.students, student)

	return student, nil
}

func (m *Memory) GetStudents(_ context.Context) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, storage.Unavailable("GetStudents", errClosed)
	}

	students := make([]types.Student, len(m.students))
	copy(students, m.students)
	return students, nil
}

func (m *Memory) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return storage.Unavailable("Ping", errClosed)
	}
	return nil
}

// Close makes every later call fail with storage.ErrUnavailable, which
// is how tests simulate an outage.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

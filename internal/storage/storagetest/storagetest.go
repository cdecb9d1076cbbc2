// Package storagetest holds the behaviour every storage.Storage backend
// must share. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Factory returns an empty backend. Run closes it when a subtest ends.
type Factory func(t *testing.T) storage.Storage

// Run exercises s against the storage.Storage contract.
func Run(t *testing.T, newStorage Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"EmptyList", testEmptyList},
		{"CreateAssignsID", testCreateAssignsID},
		{"ListInInsertionOrder", testListInInsertionOrder},
		{"DuplicateRegNumber", testDuplicateRegNumber},
		{"DuplicateEmail", testDuplicateEmail},
		{"EmptyEmailNeverConflicts", testEmptyEmailNeverConflicts},
		{"ConcurrentDuplicates", testConcurrentDuplicates},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStorage(t)
			t.Cleanup(func() { s.Close() })
			tt.fn(t, s)
		})
	}
}

func student(name, reg, email string) types.Student {
	return types.NewStudent(types.CreateStudentRequest{Name: name, RegNumber: reg, Email: email}, time.Now())
}

func testEmptyList(t *testing.T, s storage.Storage) {
	students, err := s.GetStudents(context.Background())
	require.NoError(t, err)
	require.NotNil(t, students)
	assert.Empty(t, students)
}

func testCreateAssignsID(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	in := student("Jane Doe", "JAN24/BCS/0001", "jane@uni.ac")

	created, err := s.CreateStudent(ctx, in)
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, in.Name, created.Name)
	assert.Equal(t, in.RegNumber, created.RegNumber)
	assert.Equal(t, in.Email, created.Email)
	assert.True(t, in.CreatedAt.Equal(created.CreatedAt))

	students, err := s.GetStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, created.Representation(), students[0].Representation())
}

func testListInInsertionOrder(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a, err := s.CreateStudent(ctx, student("A", "REG-A", ""))
	require.NoError(t, err)
	b, err := s.CreateStudent(ctx, student("B", "REG-B", "b@uni.ac"))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	students, err := s.GetStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, a.Representation(), students[0].Representation())
	assert.Equal(t, b.Representation(), students[1].Representation())
}

func testDuplicateRegNumber(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	_, err := s.CreateStudent(ctx, student("First", "JAN24/BCS/0001", ""))
	require.NoError(t, err)

	_, err = s.CreateStudent(ctx, student("Second", "JAN24/BCS/0001", "second@uni.ac"))
	require.ErrorIs(t, err, storage.ErrConflict)

	var ce *storage.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, storage.FieldRegNumber, ce.Field)

	students, err := s.GetStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, "First", students[0].Name)
}

func testDuplicateEmail(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	_, err := s.CreateStudent(ctx, student("First", "REG-1", "same@uni.ac"))
	require.NoError(t, err)

	_, err = s.CreateStudent(ctx, student("Second", "REG-2", "same@uni.ac"))
	var ce *storage.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, storage.FieldEmail, ce.Field)

	students, err := s.GetStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func testEmptyEmailNeverConflicts(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	for i := range 3 {
		_, err := s.CreateStudent(ctx, student("No Mail", fmt.Sprintf("REG-%d", i), ""))
		require.NoError(t, err)
	}

	students, err := s.GetStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 3)
	for _, st := range students {
		assert.Equal(t, "", st.Email)
	}
}

func testConcurrentDuplicates(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateStudent(ctx, student(fmt.Sprintf("W%d", i), "RACE-1", ""))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, storage.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)

	students, err := s.GetStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func testPing(t *testing.T, s storage.Storage) {
	assert.NoError(t, s.Ping(context.Background()))
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/storagetest"
	"github.com/aanand-mishra/student-records/internal/types"
)

func newTestDB(t *testing.T, path string) *SQLite {
	t.Helper()
	cfg := &config.Config{Storage: config.Storage{Driver: config.DriverSQLite, StoragePath: path}}
	db, err := New(cfg)
	require.NoError(t, err)
	return db
}

func TestStorageContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return newTestDB(t, filepath.Join(t.TempDir(), "students.db"))
	})
}

func TestSchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.db")
	ctx := context.Background()

	first := newTestDB(t, path)
	created, err := first.CreateStudent(ctx, types.NewStudent(types.CreateStudentRequest{Name: "A", RegNumber: "R1"}, time.Now()))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newTestDB(t, path)
	defer second.Close()

	students, err := second.GetStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, created.Representation(), students[0].Representation())
}

func TestClosedDatabaseIsUnavailable(t *testing.T) {
	db := newTestDB(t, filepath.Join(t.TempDir(), "students.db"))
	require.NoError(t, db.Close())
	ctx := context.Background()

	_, err := db.GetStudents(ctx)
	assert.ErrorIs(t, err, storage.ErrUnavailable)

	_, err = db.CreateStudent(ctx, types.NewStudent(types.CreateStudentRequest{Name: "A", RegNumber: "R1"}, time.Now()))
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.NotErrorIs(t, err, storage.ErrConflict)

	assert.ErrorIs(t, db.Ping(ctx), storage.ErrUnavailable)
}

package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
	"github.com/aanand-mishra/student-records/internal/types"
)

func backends() map[string]func(t *testing.T) storage.Storage {
	return map[string]func(t *testing.T) storage.Storage{
		"memory": func(t *testing.T) storage.Storage { return memory.New() },
		"sqlite": func(t *testing.T) storage.Storage {
			cfg := &config.Config{Storage: config.Storage{
				Driver:      config.DriverSQLite,
				StoragePath: filepath.Join(t.TempDir(), "students.db"),
			}}
			db, err := sqlite.New(cfg)
			require.NoError(t, err)
			return db
		},
	}
}

func newServer(t *testing.T, s storage.Storage) *httptest.Server {
	t.Helper()
	h, err := New(Deps{
		Storage: s,
		Index:   config.IndexPage{Instructor: "OKELLO BENJAMIN", RegNumber: "JAN24/BCS/3855U/TF"},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})
	return srv
}

func createStudent(t *testing.T, srv *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/students", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func listStudents(t *testing.T, srv *httptest.Server) []types.Representation {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/students")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []types.Representation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestStudentAPI(t *testing.T) {
	for name, newStorage := range backends() {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, newStorage(t))

			t.Run("empty list", func(t *testing.T) {
				resp, err := http.Get(srv.URL + "/api/students")
				require.NoError(t, err)
				defer resp.Body.Close()
				b, _ := io.ReadAll(resp.Body)

				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.JSONEq(t, `[]`, string(b))
			})

			requested := time.Now().UTC().Truncate(time.Microsecond)

			resp, body := createStudent(t, srv, `{"name":"Alice","reg_number":"JAN24/BCS/0001","email":"alice@uni.ac"}`)
			require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
			var alice types.Representation
			require.NoError(t, json.Unmarshal(body, &alice))

			t.Run("create response", func(t *testing.T) {
				assert.Positive(t, alice.ID)
				assert.Equal(t, "JAN24/BCS/0001", alice.RegNumber)
				createdAt, err := time.Parse(time.RFC3339Nano, alice.CreatedAt)
				require.NoError(t, err)
				assert.False(t, createdAt.Before(requested))
			})

			t.Run("duplicate reg_number stores nothing", func(t *testing.T) {
				resp, body := createStudent(t, srv, `{"name":"Impostor","reg_number":"JAN24/BCS/0001"}`)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Contains(t, string(body), `"error"`)
				assert.Len(t, listStudents(t, srv), 1)
			})

			resp, body = createStudent(t, srv, `{"name":"Brian","reg_number":"JAN24/BCS/0002"}`)
			require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
			var brian types.Representation
			require.NoError(t, json.Unmarshal(body, &brian))

			t.Run("absent email stored as empty and never conflicts", func(t *testing.T) {
				assert.Equal(t, "", brian.Email)
				resp, body := createStudent(t, srv, `{"name":"Carol","reg_number":"JAN24/BCS/0003"}`)
				assert.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
			})

			t.Run("ids are unique", func(t *testing.T) {
				assert.NotEqual(t, alice.ID, brian.ID)
			})

			t.Run("list round-trips create responses", func(t *testing.T) {
				list := listStudents(t, srv)
				require.Len(t, list, 3)
				assert.Equal(t, alice, list[0])
				assert.Equal(t, brian, list[1])
			})

			t.Run("missing fields", func(t *testing.T) {
				resp, body := createStudent(t, srv, `{"email":"x@uni.ac"}`)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Contains(t, string(body), "field name is required")
				assert.Contains(t, string(body), "field reg_number is required")
			})
		})
	}
}

func TestPages(t *testing.T) {
	srv := newServer(t, memory.New())

	_, body := createStudent(t, srv, `{"name":"Alice","reg_number":"JAN24/BCS/0001"}`)
	require.Contains(t, string(body), "Alice")

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/", http.StatusOK, "OKELLO BENJAMIN"},
		{"/dashboard", http.StatusOK, "JAN24/BCS/0001"},
		{"/static/js/main.js", http.StatusOK, "add-student"},
		{"/healthz", http.StatusOK, `"ok"`},
		{"/readyz", http.StatusOK, `"ok"`},
		{"/metrics", http.StatusOK, "students_api_students_created_total"},
		{"/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			b, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, string(b), tt.contains)
			assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newServer(t, memory.New())

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/students", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /explode", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	h := withMiddleware(mux, logger)

	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "GET /explode", "500")
	before := testutil.ToFloat64(counter)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/explode", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	var requestLine map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == "http request" {
			requestLine = entry
		}
	}
	require.NotNil(t, requestLine, buf.String())
	assert.EqualValues(t, http.StatusInternalServerError, requestLine["status"])
	assert.Equal(t, "/explode", requestLine["path"])
}

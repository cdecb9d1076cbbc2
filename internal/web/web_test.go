package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIndex(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = r.Render(rr, http.StatusOK, "index.html", map[string]any{
		"instructor": "OKELLO BENJAMIN",
		"reg_number": "JAN24/BCS/3855U/TF",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "OKELLO BENJAMIN")
	assert.Contains(t, rr.Body.String(), "JAN24/BCS/3855U/TF")
}

func TestRenderEscapesData(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, r.Render(rr, http.StatusOK, "index.html", map[string]any{
		"instructor": "<script>alert(1)</script>",
	}))
	assert.NotContains(t, rr.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, rr.Body.String(), "&lt;script&gt;")
}

func TestRenderUnknownTemplateWritesNothing(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = r.Render(rr, http.StatusOK, "missing.html", nil)
	require.Error(t, err)
	assert.Zero(t, rr.Body.Len())
}

func TestStatic(t *testing.T) {
	rr := httptest.NewRecorder()
	Static().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/js/main.js", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/api/students")
}

func TestNewFromFSRejectsMalformedTemplate(t *testing.T) {
	_, err := NewFromFS(fstest.MapFS{
		"index.html": {Data: []byte("{{if}}")},
	}, "*.html")
	assert.Error(t, err)
}

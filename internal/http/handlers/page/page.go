// Package page serves the server-rendered HTML pages.
//
// Both handlers follow the same factory pattern as the JSON API: the
// dependencies (storage, renderer, page metadata) are captured once at
// route registration and the returned closure runs per request.
package page

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Renderer executes a named template and writes it with status.
// *web.Renderer satisfies it; implementations must write nothing when
// they return an error, so the handler can still send a clean 500.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data any) error
}

// ─────────────────────────────────────────────────────────────────────────────
// Index handles GET /
// A static page showing the configured instructor and registration
// number. It never touches storage.
//
// Template variables:
//
//	instructor: e.g. "OKELLO BENJAMIN"
//	reg_number: e.g. "JAN24/BCS/3855U/TF"
//
// ─────────────────────────────────────────────────────────────────────────────
func Index(renderer Renderer, info config.IndexPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := renderer.Render(w, http.StatusOK, "index.html", map[string]any{
			"instructor": info.Instructor,
			"reg_number": info.RegNumber,
		})
		if err != nil {
			renderFailed(w, err)
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Dashboard handles GET /dashboard
// Lists every student in storage order.
//
// Template variables:
//
//	students: []types.Representation, empty when there are none
//
// Error responses:
//
//	503 Service Unavailable: error page when storage cannot be read
//	500 Internal Server Error: plain text when a template fails
//
// ─────────────────────────────────────────────────────────────────────────────
func Dashboard(s storage.Storage, renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("rendering dashboard")

		students, err := s.GetStudents(r.Context())
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			errorPage(w, renderer, http.StatusServiceUnavailable, "The student database is unavailable. Please try again later.")
			return
		}

		err = renderer.Render(w, http.StatusOK, "dashboard.html", map[string]any{
			"students": types.Representations(students),
		})
		if err != nil {
			renderFailed(w, err)
		}
	}
}

func errorPage(w http.ResponseWriter, renderer Renderer, status int, message string) {
	err := renderer.Render(w, status, "error.html", map[string]any{
		"status":  http.StatusText(status),
		"message": message,
	})
	if err != nil {
		renderFailed(w, err)
	}
}

// renderFailed is the last resort when a template cannot be executed.
// Nothing has been written yet, so a plain 500 is still possible.
func renderFailed(w http.ResponseWriter, err error) {
	slog.Error("error rendering page", slog.String("error", err.Error()))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Package response provides helpers for writing consistent JSON HTTP
// responses, and maps storage errors onto stable status codes and
// messages that never expose backend details.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-records/internal/storage"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope returned for error cases.
//
// Success responses may return any JSON shape (a student, a list…).
// Error responses always look like:
//
//	{ "status": "error", "error": "field name is required", "fields": ["name"] }
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string   `json:"status"`
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Messages sent to clients for storage failures.
const (
	MsgStorageUnavailable = "storage unavailable"
	MsgDuplicateRegNumber = "a student with this reg_number already exists"
	MsgDuplicateEmail     = "a student with this email already exists"
)

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes a JSON-encoded response with the given HTTP status code.
// Header() must be set before WriteHeader(), and WriteHeader() before any
// body bytes.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard Response shape.
// Only pass errors whose message is safe to show a client.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts every failing field into one sentence and
// joins them, so the client learns about all problems at once:
//
//	{ "status": "error", "error": "field name is required, field reg_number is required" }
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	var (
		errMessages []string
		fields      []string
	)

	for _, e := range errs {
		fields = append(fields, e.Field())

		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		case "max":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at most %s characters", e.Field(), e.Param()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
		Fields: fields,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// StorageError picks the status code and client-facing body for an error
// returned by storage.Storage. Conflicts are the client's fault (400);
// anything else means the backend could not serve the request (503).
//
// The underlying error text is never copied into the body: it can name
// hosts, tables or constraints. Callers log it instead.
// ─────────────────────────────────────────────────────────────────────────────
func StorageError(err error) (int, Response) {
	var conflict *storage.ConflictError
	if errors.As(err, &conflict) {
		msg := MsgDuplicateRegNumber
		if conflict.Field == storage.FieldEmail {
			msg = MsgDuplicateEmail
		}
		return http.StatusBadRequest, Response{
			Status: StatusError,
			Error:  msg,
			Fields: []string{conflict.Field},
		}
	}

	return http.StatusServiceUnavailable, Response{
		Status: StatusError,
		Error:  MsgStorageUnavailable,
	}
}

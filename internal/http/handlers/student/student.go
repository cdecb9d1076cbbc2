// Package student contains the JSON API handlers for the Student resource.
//
// Handlers are factories: they receive their dependencies once at route
// registration and return the function the router calls per request.
//
//	router.HandleFunc("POST /api/students", student.New(storage))
package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

const maxBodyBytes = 1 << 20

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves every request. Field names in errors come from the
// json tags, matching what the client sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students.
//
// Request body (JSON):
//
//	{ "name": "Jane Doe", "reg_number": "JAN24/BCS/0001", "email": "jane@uni.ac" }
//
// email is optional and defaults to "".
//
// Success response (201 Created): the stored student, including id and
// created_at.
//
// Error responses:
//
//	400 Bad Request: empty body, malformed JSON, failed validation,
//	                 or duplicate reg_number / email
//	503 Service Unavailable: the database could not be reached
//
// ─────────────────────────────────────────────────────────────────────────────
func New(s storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		// ── Step 1: Decode JSON body ──────────────────────────────────
		var req types.CreateStudentRequest

		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		err := dec.Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(decodeError(err)))
			return
		}

		// Decode stops after the first value; the body must hold nothing
		// else but trailing whitespace.
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(trailingDataError(err)))
			return
		}

		// ── Step 2: Validate every field at once ──────────────────────
		req.Normalize()

		if err := validate.Struct(req); err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// ── Step 3: Persist in a single transaction ───────────────────
		student, err := s.CreateStudent(r.Context(), types.NewStudent(req, time.Now()))
		if err != nil {
			status, body := response.StorageError(err)
			slog.Warn("error creating student",
				slog.String("reg_number", req.RegNumber),
				slog.Int("status", status),
				slog.String("error", err.Error()))
			response.WriteJSON(w, status, body)
			return
		}

		// ── Step 4: Return 201 Created with the full record ───────────
		metrics.StudentsCreated.Inc()
		slog.Info("student created",
			slog.Int64("id", student.ID),
			slog.String("reg_number", student.RegNumber))

		response.WriteJSON(w, http.StatusCreated, student.Representation())
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students.
//
// Success response (200 OK):
//
//	[
//	  { "id": 1, "name": "Jane Doe", "reg_number": "JAN24/BCS/0001", ... },
//	  { "id": 2, "name": "John Okello", "reg_number": "JAN24/BCS/0002", ... }
//	]
//
// Returns an empty array [] (not null) when there are no students, and
// 503 when the database cannot be reached.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(s storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := s.GetStudents(r.Context())
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			status, body := response.StorageError(err)
			response.WriteJSON(w, status, body)
			return
		}

		response.WriteJSON(w, http.StatusOK, types.Representations(students))
	}
}

// trailingDataError reports what followed the first JSON value. An
// oversized body is still reported as such; anything else is invalid JSON.
func trailingDataError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return decodeError(err)
	}
	return errors.New("request body is not valid JSON")
}

// decodeError turns a json decoding failure into a message that is safe
// and useful to send back.
func decodeError(err error) error {
	var (
		typeErr *json.UnmarshalTypeError
		maxErr  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return fmt.Errorf("field %s must be a %s", typeErr.Field, typeErr.Type.Kind())
	case errors.As(err, &typeErr):
		return errors.New("request body must be a JSON object")
	case errors.As(err, &maxErr):
		return fmt.Errorf("request body must not exceed %d bytes", maxErr.Limit)
	default:
		return errors.New("request body is not valid JSON")
	}
}

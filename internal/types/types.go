// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, storage, and utils all import types without depending on
// each other.
package types

import (
	"strings"
	"time"
)

// Student is the sole persisted entity. ID and CreatedAt are assigned
// when the record is stored and never change afterwards.
type Student struct {
	ID        int64
	Name      string
	RegNumber string
	Email     string
	CreatedAt time.Time
}

// Representation is the flat JSON shape of a Student used in API
// responses. CreatedAt is an RFC 3339 (ISO-8601) timestamp in UTC.
type Representation struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	RegNumber string `json:"reg_number"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// TimeFormat is the layout used for created_at in JSON responses.
const TimeFormat = time.RFC3339Nano

// Representation renders the student for the JSON API.
func (s Student) Representation() Representation {
	return Representation{
		ID:        s.ID,
		Name:      s.Name,
		RegNumber: s.RegNumber,
		Email:     s.Email,
		CreatedAt: s.CreatedAt.UTC().Format(TimeFormat),
	}
}

// Representations maps a list of students through Representation.
// The result is never nil so it encodes as [] rather than null.
func Representations(students []Student) []Representation {
	out := make([]Representation, 0, len(students))
	for _, s := range students {
		out = append(out, s.Representation())
	}
	return out
}

// CreateStudentRequest is the decoded body of POST /api/students.
//
// Struct tags serve two purposes:
//
//  1. json:"...": the key names clients send.
//  2. validate:"...": rules checked by go-playground/validator.
//     omitempty on Email lets an absent or empty email through while
//     still rejecting a malformed one.
type CreateStudentRequest struct {
	Name      string `json:"name"       validate:"required,max=100"`
	RegNumber string `json:"reg_number" validate:"required,max=20"`
	Email     string `json:"email"      validate:"omitempty,email,max=100"`
}

// Normalize trims surrounding whitespace so "  " counts as missing.
func (r *CreateStudentRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.RegNumber = strings.TrimSpace(r.RegNumber)
	r.Email = strings.TrimSpace(r.Email)
}

// NewStudent builds an unsaved Student from a validated request.
// CreatedAt is truncated to microseconds, the finest precision every
// storage backend keeps.
func NewStudent(req CreateStudentRequest, now time.Time) Student {
	return Student{
		Name:      req.Name,
		RegNumber: req.RegNumber,
		Email:     req.Email,
		CreatedAt: now.UTC().Truncate(time.Microsecond),
	}
}

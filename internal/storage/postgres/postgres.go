// Package postgres implements storage.Storage on PostgreSQL through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

const uniqueViolation = "23505"

const (
	regNumberKey = "student_reg_number_key"
	emailKey     = "student_email_key"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS student (
		id         BIGINT       GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name       VARCHAR(100) NOT NULL CHECK (name <> ''),
		reg_number VARCHAR(20)  NOT NULL CONSTRAINT ` + regNumberKey + ` UNIQUE,
		email      VARCHAR(100) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ  NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + emailKey + `
		ON student (email) WHERE email <> ''`,
}

type Postgres struct {
	pool *pgxpool.Pool
}

// ─────────────────────────────────────────────────────────────────────────────
// New connects to cfg.DatabaseURL, verifies the connection and creates
// the schema if needed.
//
// The pool holds up to 10 connections and health-checks idle ones every
// 30 seconds. A failed ping closes the pool before returning.
// ─────────────────────────────────────────────────────────────────────────────
func New(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse dsn: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres.New: create schema: %w", err)
		}
	}

	return &Postgres{pool: pool}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateStudent inserts one row inside a transaction and reads the
// generated id back with RETURNING. The deferred Rollback undoes the
// INSERT on every error path and is a no-op after Commit.
// ─────────────────────────────────────────────────────────────────────────────
func (p *Postgres) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return types.Student{}, storage.Unavailable("CreateStudent: begin", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO student (name, reg_number, email, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		student.Name, student.RegNumber, student.Email, student.CreatedAt,
	).Scan(&student.ID)
	if err != nil {
		return types.Student{}, classify("CreateStudent: insert", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Student{}, classify("CreateStudent: commit", err)
	}

	return student, nil
}

// GetStudents returns all rows ordered by id. created_at comes back in
// the session time zone and is normalised to UTC.
func (p *Postgres) GetStudents(ctx context.Context) ([]types.Student, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, reg_number, email, created_at FROM student ORDER BY id`,
	)
	if err != nil {
		return nil, storage.Unavailable("GetStudents: query", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var s types.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.RegNumber, &s.Email, &s.CreatedAt); err != nil {
			return nil, storage.Unavailable("GetStudents: scan row", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable("GetStudents: rows iteration", err)
	}

	return students, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return storage.Unavailable("Ping", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// classify maps SQLSTATE 23505 (unique_violation) to a
// *storage.ConflictError, using the constraint name to tell reg_number
// from email.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field := storage.FieldRegNumber
		if pgErr.ConstraintName == emailKey {
			field = storage.FieldEmail
		}
		return fmt.Errorf("%s: %w", op, storage.Conflict(field, err))
	}
	return storage.Unavailable(op, err)
}

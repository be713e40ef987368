package store

import (
	"database/sql"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by owner-scoped updates and deletes that match no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("duplicate")
)

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dukerupert/chorely/internal/apperr"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface{ Scan(...any) error }

// classify wraps a driver error, mapping constraint violations onto
// application error kinds.
func classify(err error, op string) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return apperr.Wrap(apperr.KindConflict, err, "%s: record already exists", op)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return apperr.Wrap(apperr.KindNotFound, err, "%s: referenced record does not exist", op)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}

func exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func requireUsers(ctx context.Context, q querier, uids []string) error {
	for _, uid := range uids {
		ok, err := exists(ctx, q, `SELECT 1 FROM users WHERE uid = ?`, uid)
		if err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if !ok {
			return apperr.NotFound("User with UID %s not found", uid)
		}
	}
	return nil
}

// ensureUser inserts a bare profile row for uid if none exists.
func ensureUser(ctx context.Context, q querier, uid string, now time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO users (uid, created_at, updated_at) VALUES (?, ?, ?) ON CONFLICT(uid) DO NOTHING`,
		uid, now, now,
	)
	if err != nil {
		return classify(err, "ensure user")
	}
	return nil
}

// dedupe keeps the first occurrence of each non-empty value.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

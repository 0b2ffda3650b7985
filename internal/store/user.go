package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/model"
)

type UserStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, now: time.Now}
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	var email, name, photo sql.NullString
	if err := s.Scan(&u.UID, &email, &name, &photo, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Email, u.DisplayName, u.PhotoURL = email.String, name.String, photo.String
	u.CreatedAt, u.UpdatedAt = u.CreatedAt.UTC(), u.UpdatedAt.UTC()
	return &u, nil
}

const userCols = `uid, email, display_name, photo_url, created_at, updated_at`

// Upsert creates the profile or updates its provided fields in a single
// statement. created_at is kept on update.
func (s *UserStore) Upsert(ctx context.Context, p model.UserProfile) (*model.User, error) {
	now := s.now().UTC()
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (uid, email, display_name, photo_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
		     email = COALESCE(excluded.email, users.email),
		     display_name = COALESCE(excluded.display_name, users.display_name),
		     photo_url = COALESCE(excluded.photo_url, users.photo_url),
		     updated_at = excluded.updated_at
		 RETURNING `+userCols,
		p.UID, nullString(p.Email), nullString(p.DisplayName), nullString(p.PhotoURL), now, now,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err, "upsert user")
	}
	return u, nil
}

func (s *UserStore) Get(ctx context.Context, uid string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE uid = ?`, uid)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User with UID %s not found", uid)
	}
	if err != nil {
		return nil, classify(err, "get user")
	}
	return u, nil
}

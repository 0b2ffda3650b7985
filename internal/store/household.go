package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/model"
)

type HouseholdStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db, now: time.Now}
}

func scanHousehold(s scanner) (*model.Household, error) {
	var h model.Household
	if err := s.Scan(&h.ID, &h.Name, &h.CreatedBy, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	h.CreatedAt, h.UpdatedAt = h.CreatedAt.UTC(), h.UpdatedAt.UTC()
	return &h, nil
}

const householdCols = `id, name, created_by, created_at, updated_at`

func householdNotFound(id string) error {
	return apperr.NotFound("Household with ID %s not found", id)
}

// Create inserts the household and the creator's membership in one
// transaction.
func (s *HouseholdStore) Create(ctx context.Context, name, creator string) (*model.Household, error) {
	id := uuid.NewString()
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := ensureUser(ctx, tx, creator, now); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO households (id, name, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, creator, now, now,
	); err != nil {
		return nil, classify(err, "insert household")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO household_members (user_id, household_id, joined_at) VALUES (?, ?, ?)`,
		creator, id, now,
	); err != nil {
		return nil, classify(err, "insert household member")
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit household: %w", err)
	}
	return s.Get(ctx, id)
}

// Get returns the household with its member identities and the profiles of
// members that have one.
func (s *HouseholdStore) Get(ctx context.Context, id string) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, householdNotFound(id)
	}
	if err != nil {
		return nil, classify(err, "get household")
	}
	if err := s.loadMembers(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *HouseholdStore) loadMembers(ctx context.Context, h *model.Household) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hm.user_id, u.uid, u.email, u.display_name, u.photo_url, u.created_at, u.updated_at
		 FROM household_members hm
		 LEFT JOIN users u ON u.uid = hm.user_id
		 WHERE hm.household_id = ?
		 ORDER BY hm.joined_at ASC, hm.user_id ASC`,
		h.ID,
	)
	if err != nil {
		return classify(err, "list members")
	}
	defer rows.Close()

	h.Members = []string{}
	h.MemberDetails = []model.User{}
	for rows.Next() {
		var memberID string
		var uid, email, name, photo sql.NullString
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&memberID, &uid, &email, &name, &photo, &createdAt, &updatedAt); err != nil {
			return fmt.Errorf("scan member: %w", err)
		}
		h.Members = append(h.Members, memberID)
		if !uid.Valid {
			continue
		}
		h.MemberDetails = append(h.MemberDetails, model.User{
			UID:         uid.String,
			Email:       email.String,
			DisplayName: name.String,
			PhotoURL:    photo.String,
			CreatedAt:   createdAt.Time.UTC(),
			UpdatedAt:   updatedAt.Time.UTC(),
		})
	}
	return rows.Err()
}

// ListForUser returns every household uid belongs to, oldest first.
func (s *HouseholdStore) ListForUser(ctx context.Context, uid string) ([]model.Household, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT h.id, h.name, h.created_by, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_members hm ON h.id = hm.household_id
		 WHERE hm.user_id = ?
		 ORDER BY h.created_at ASC, h.id ASC`,
		uid,
	)
	if err != nil {
		return nil, classify(err, "list households for user")
	}

	households := []model.Household{}
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list households for user: %w", err)
	}
	rows.Close()

	for i := range households {
		if err := s.loadMembers(ctx, &households[i]); err != nil {
			return nil, err
		}
	}
	return households, nil
}

func (s *HouseholdStore) Rename(ctx context.Context, id, name string) (*model.Household, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE households SET name = ?, updated_at = ? WHERE id = ?`,
		name, s.now().UTC(), id,
	)
	if err != nil {
		return nil, classify(err, "rename household")
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, householdNotFound(id)
	}
	return s.Get(ctx, id)
}

// AddMember adds uid to the household. It never removes existing members.
func (s *HouseholdStore) AddMember(ctx context.Context, householdID, uid string) (*model.Household, error) {
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ok, err := exists(ctx, tx, `SELECT 1 FROM households WHERE id = ?`, householdID)
	if err != nil {
		return nil, classify(err, "check household")
	}
	if !ok {
		return nil, householdNotFound(householdID)
	}
	if err := requireUsers(ctx, tx, []string{uid}); err != nil {
		return nil, err
	}
	member, err := exists(ctx, tx,
		`SELECT 1 FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, uid,
	)
	if err != nil {
		return nil, classify(err, "check membership")
	}
	if member {
		return nil, apperr.Conflict("User is already a member of this household")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO household_members (user_id, household_id, joined_at) VALUES (?, ?, ?)`,
		uid, householdID, now,
	); err != nil {
		return nil, classify(err, "add member")
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE households SET updated_at = ? WHERE id = ?`, now, householdID,
	); err != nil {
		return nil, classify(err, "touch household")
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit member: %w", err)
	}
	return s.Get(ctx, householdID)
}

func (s *HouseholdStore) IsMember(ctx context.Context, householdID, uid string) (bool, error) {
	ok, err := exists(ctx, s.db,
		`SELECT 1 FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, uid,
	)
	if err != nil {
		return false, classify(err, "check membership")
	}
	return ok, nil
}

func (s *HouseholdStore) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := exists(ctx, s.db, `SELECT 1 FROM households WHERE id = ?`, id)
	if err != nil {
		return false, classify(err, "check household")
	}
	return ok, nil
}

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

const defaultRegistryLimit = 50

type RegistryStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewRegistryStore(db *sql.DB) *RegistryStore {
	return &RegistryStore{db: db, now: time.Now}
}

func scanRegistryEntry(s scanner) (*model.RegistryEntry, error) {
	var e model.RegistryEntry
	err := s.Scan(
		&e.ID, &e.HouseholdID, &e.ChoreID, &e.UserID, &e.Times,
		&e.CompletedAt, &e.CreatedAt, &e.Points, &e.ChoreName, &e.UserName,
	)
	if err != nil {
		return nil, err
	}
	e.CompletedAt, e.CreatedAt = e.CompletedAt.UTC(), e.CreatedAt.UTC()
	return &e, nil
}

// registrySelect takes the chore and user placeholder labels as its first
// two arguments.
const registrySelect = `SELECT r.id, r.household_id, r.chore_id, r.user_id, r.times,
	r.completed_at, r.created_at,
	COALESCE(c.points, 0),
	COALESCE(c.name, ?),
	COALESCE(NULLIF(u.display_name, ''), NULLIF(u.email, ''), ?)
	FROM registry_entries r
	LEFT JOIN chores c ON c.id = r.chore_id AND c.household_id = r.household_id
	LEFT JOIN users u ON u.uid = r.user_id`

// List returns entries newest first, enriched with chore and user labels.
func (s *RegistryStore) List(ctx context.Context, householdID string, q model.RegistryQuery) ([]model.RegistryEntry, error) {
	query := registrySelect + ` WHERE r.household_id = ?`
	args := []any{model.UnknownChore, model.UnknownUser, householdID}
	if !q.Start.IsZero() {
		query += ` AND r.completed_at >= ?`
		args = append(args, q.Start.UTC())
	}
	if !q.End.IsZero() {
		query += ` AND r.completed_at < ?`
		args = append(args, q.End.UTC())
	}
	if q.UserID != "" {
		query += ` AND r.user_id = ?`
		args = append(args, q.UserID)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultRegistryLimit
	}
	query += ` ORDER BY r.completed_at DESC, r.created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "list registry")
	}
	defer rows.Close()

	entries := []model.RegistryEntry{}
	for rows.Next() {
		e, err := scanRegistryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registry entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *RegistryStore) Get(ctx context.Context, householdID, id string) (*model.RegistryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		registrySelect+` WHERE r.id = ? AND r.household_id = ?`,
		model.UnknownChore, model.UnknownUser, id, householdID,
	)
	e, err := scanRegistryEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Registry entry with ID %s not found", id)
	}
	if err != nil {
		return nil, classify(err, "get registry entry")
	}
	return e, nil
}

// Create records a completion. The chore must belong to the household and
// the user must have a profile. completedAt and createdAt are the same
// instant.
func (s *RegistryStore) Create(ctx context.Context, householdID string, in model.NewRegistryEntry) (*model.RegistryEntry, error) {
	times := in.Times
	if times == 0 {
		times = 1
	}
	if times < 1 {
		return nil, apperr.Validation("times must be at least 1", map[string]string{"times": "must be at least 1"})
	}

	id := uuid.NewString()
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ok, err := exists(ctx, tx, `SELECT 1 FROM chores WHERE id = ? AND household_id = ?`, in.ChoreID, householdID)
	if err != nil {
		return nil, classify(err, "check chore")
	}
	if !ok {
		return nil, choreNotFound(in.ChoreID)
	}
	if err := requireUsers(ctx, tx, []string{in.UserID}); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO registry_entries (id, household_id, chore_id, user_id, times, completed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, householdID, in.ChoreID, in.UserID, times, now, now,
	); err != nil {
		return nil, classify(err, "insert registry entry")
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit registry entry: %w", err)
	}
	return s.Get(ctx, householdID, id)
}

// CreateBatch creates entries one at a time in input order. The first
// failure stops the batch; entries created before it stay committed.
func (s *RegistryStore) CreateBatch(ctx context.Context, householdID string, in []model.NewRegistryEntry) ([]model.RegistryEntry, error) {
	created := make([]model.RegistryEntry, 0, len(in))
	for i, e := range in {
		entry, err := s.Create(ctx, householdID, e)
		if err != nil {
			return created, fmt.Errorf("registry batch entry %d: %w", i, err)
		}
		created = append(created, *entry)
	}
	return created, nil
}

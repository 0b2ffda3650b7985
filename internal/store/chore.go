package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/model"
)

type ChoreStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db, now: time.Now}
}

func scanChore(s scanner) (*model.Chore, error) {
	var c model.Chore
	var description, categoryID, categoryName sql.NullString
	err := s.Scan(
		&c.ID, &c.HouseholdID, &c.Name, &description, &c.Points,
		&categoryID, &categoryName, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Description = description.String
	if categoryID.Valid {
		c.CategoryID = &categoryID.String
	}
	c.CategoryName = categoryName.String
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	c.AssignedTo = []string{}
	return &c, nil
}

const choreSelect = `SELECT c.id, c.household_id, c.name, c.description, c.points,
	c.category_id, cat.name, c.created_at, c.updated_at
	FROM chores c
	LEFT JOIN categories cat ON cat.id = c.category_id`

func choreNotFound(id string) error {
	return apperr.NotFound("Chore with ID %s not found", id)
}

func (s *ChoreStore) List(ctx context.Context, householdID string) ([]model.Chore, error) {
	rows, err := s.db.QueryContext(ctx,
		choreSelect+` WHERE c.household_id = ? ORDER BY c.name ASC`,
		householdID,
	)
	if err != nil {
		return nil, classify(err, "list chores")
	}

	chores := []model.Chore{}
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list chores: %w", err)
	}
	rows.Close()

	assigned, err := s.householdAssignments(ctx, householdID)
	if err != nil {
		return nil, err
	}
	for i := range chores {
		if ids, ok := assigned[chores[i].ID]; ok {
			chores[i].AssignedTo = ids
		}
	}
	return chores, nil
}

func (s *ChoreStore) householdAssignments(ctx context.Context, householdID string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ca.chore_id, ca.user_id
		 FROM chore_assignments ca
		 JOIN chores c ON c.id = ca.chore_id
		 WHERE c.household_id = ?
		 ORDER BY ca.assigned_at ASC, ca.user_id ASC`,
		householdID,
	)
	if err != nil {
		return nil, classify(err, "list assignments")
	}
	defer rows.Close()

	assigned := make(map[string][]string)
	for rows.Next() {
		var choreID, userID string
		if err := rows.Scan(&choreID, &userID); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assigned[choreID] = append(assigned[choreID], userID)
	}
	return assigned, rows.Err()
}

// Get returns the chore scoped to its household, enriched with its
// category name and assignees.
func (s *ChoreStore) Get(ctx context.Context, householdID, id string) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx,
		choreSelect+` WHERE c.id = ? AND c.household_id = ?`,
		id, householdID,
	)
	c, err := scanChore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, choreNotFound(id)
	}
	if err != nil {
		return nil, classify(err, "get chore")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM chore_assignments WHERE chore_id = ? ORDER BY assigned_at ASC, user_id ASC`,
		id,
	)
	if err != nil {
		return nil, classify(err, "list assignments")
	}
	defer rows.Close()
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		c.AssignedTo = append(c.AssignedTo, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return c, nil
}

// Create inserts the chore and its assignments in one transaction.
func (s *ChoreStore) Create(ctx context.Context, householdID string, in model.ChoreInput) (*model.Chore, error) {
	id := uuid.NewString()
	now := s.now().UTC()
	assignees := dedupe(in.AssignedTo)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if in.CategoryID != "" {
		if err := requireCategory(ctx, tx, householdID, in.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := requireUsers(ctx, tx, assignees); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chores (id, household_id, name, description, points, category_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, householdID, in.Name, nullString(in.Description), in.Points, nullString(in.CategoryID), now, now,
	); err != nil {
		return nil, classify(err, "insert chore")
	}
	if err := insertAssignments(ctx, tx, id, assignees, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit chore: %w", err)
	}
	return s.Get(ctx, householdID, id)
}

// Update applies the patch. When the patch carries an assignee list the
// existing assignments are deleted and recreated from it in the same
// transaction.
func (s *ChoreStore) Update(ctx context.Context, householdID, id string, patch model.ChorePatch) (*model.Chore, error) {
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ok, err := exists(ctx, tx, `SELECT 1 FROM chores WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return nil, classify(err, "check chore")
	}
	if !ok {
		return nil, choreNotFound(id)
	}

	sets := []string{"updated_at = ?"}
	args := []any{now}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Points != nil {
		sets = append(sets, "points = ?")
		args = append(args, *patch.Points)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullStringPtr(patch.Description))
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID != "" {
			if err := requireCategory(ctx, tx, householdID, *patch.CategoryID); err != nil {
				return nil, err
			}
		}
		sets = append(sets, "category_id = ?")
		args = append(args, nullStringPtr(patch.CategoryID))
	}
	args = append(args, id, householdID)

	if _, err := tx.ExecContext(ctx,
		`UPDATE chores SET `+strings.Join(sets, ", ")+` WHERE id = ? AND household_id = ?`,
		args...,
	); err != nil {
		return nil, classify(err, "update chore")
	}

	if patch.AssignedTo != nil {
		assignees := dedupe(*patch.AssignedTo)
		if err := requireUsers(ctx, tx, assignees); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chore_assignments WHERE chore_id = ?`, id); err != nil {
			return nil, classify(err, "clear assignments")
		}
		if err := insertAssignments(ctx, tx, id, assignees, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit chore: %w", err)
	}
	return s.Get(ctx, householdID, id)
}

// Delete removes the chore; its assignments go with it.
func (s *ChoreStore) Delete(ctx context.Context, householdID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM chores WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	if err != nil {
		return classify(err, "delete chore")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return choreNotFound(id)
	}
	return nil
}

func requireCategory(ctx context.Context, q querier, householdID, categoryID string) error {
	ok, err := exists(ctx, q, `SELECT 1 FROM categories WHERE id = ? AND household_id = ?`, categoryID, householdID)
	if err != nil {
		return classify(err, "check category")
	}
	if !ok {
		return categoryNotFound(categoryID)
	}
	return nil
}

func insertAssignments(ctx context.Context, q querier, choreID string, userIDs []string, at time.Time) error {
	for _, uid := range userIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO chore_assignments (chore_id, user_id, assigned_at) VALUES (?, ?, ?)`,
			choreID, uid, at,
		); err != nil {
			return classify(err, "insert assignment")
		}
	}
	return nil
}

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

type CategoryStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db, now: time.Now}
}

func scanCategory(s scanner) (*model.Category, error) {
	var c model.Category
	if err := s.Scan(&c.ID, &c.HouseholdID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return &c, nil
}

const categoryCols = `id, household_id, name, created_at, updated_at`

func categoryNotFound(id string) error {
	return apperr.NotFound("Category with ID %s not found", id)
}

func (s *CategoryStore) List(ctx context.Context, householdID string) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE household_id = ? ORDER BY name ASC`,
		householdID,
	)
	if err != nil {
		return nil, classify(err, "list categories")
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// Get looks the category up within its household; a category owned by
// another household is reported as not found.
func (s *CategoryStore) Get(ctx context.Context, householdID, id string) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, categoryNotFound(id)
	}
	if err != nil {
		return nil, classify(err, "get category")
	}
	return c, nil
}

func (s *CategoryStore) Create(ctx context.Context, householdID, name string) (*model.Category, error) {
	c := model.Category{
		ID:          uuid.NewString(),
		HouseholdID: householdID,
		Name:        name,
		CreatedAt:   s.now().UTC(),
	}
	c.UpdatedAt = c.CreatedAt

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryCols+`) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.HouseholdID, c.Name, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return nil, classify(err, "insert category")
	}
	return &c, nil
}

func (s *CategoryStore) Rename(ctx context.Context, householdID, id, name string) (*model.Category, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, updated_at = ? WHERE id = ? AND household_id = ?`,
		name, s.now().UTC(), id, householdID,
	)
	if err != nil {
		return nil, classify(err, "rename category")
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, categoryNotFound(id)
	}
	return s.Get(ctx, householdID, id)
}

// Delete removes the category. Chores that referenced it keep existing
// with their category cleared by the schema.
func (s *CategoryStore) Delete(ctx context.Context, householdID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	if err != nil {
		return classify(err, "delete category")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return categoryNotFound(id)
	}
	return nil
}

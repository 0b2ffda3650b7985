package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/model"
)

// Importer writes records carried over from another system, keeping their
// identifiers and timestamps. Every write is an upsert so a run can be
// repeated.
type Importer struct {
	db  *sql.DB
	now func() time.Time
}

func NewImporter(db *sql.DB) *Importer {
	return &Importer{db: db, now: time.Now}
}

func (im *Importer) User(ctx context.Context, u model.User) error {
	_, err := im.db.ExecContext(ctx,
		`INSERT INTO users (uid, email, display_name, photo_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
		     email = excluded.email,
		     display_name = excluded.display_name,
		     photo_url = excluded.photo_url,
		     created_at = excluded.created_at,
		     updated_at = excluded.updated_at`,
		u.UID, nullString(u.Email), nullString(u.DisplayName), nullString(u.PhotoURL),
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	if err != nil {
		return classify(err, "import user")
	}
	return nil
}

// Household upserts the household and adds its creator and members.
// Members without a profile get a bare one.
func (im *Importer) Household(ctx context.Context, h model.Household) error {
	now := im.now().UTC()

	tx, err := im.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO households (id, name, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     created_by = excluded.created_by,
		     created_at = excluded.created_at,
		     updated_at = excluded.updated_at`,
		h.ID, h.Name, h.CreatedBy, h.CreatedAt.UTC(), h.UpdatedAt.UTC(),
	); err != nil {
		return classify(err, "import household")
	}

	members := dedupe(append([]string{h.CreatedBy}, h.Members...))
	for _, uid := range members {
		if err := ensureUser(ctx, tx, uid, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO household_members (user_id, household_id, joined_at) VALUES (?, ?, ?)
			 ON CONFLICT(user_id, household_id) DO NOTHING`,
			uid, h.ID, h.CreatedAt.UTC(),
		); err != nil {
			return classify(err, "import household member")
		}
	}
	return tx.Commit()
}

// Category upserts the category. An id already held by another household
// is a Conflict and the stored row is left alone.
func (im *Importer) Category(ctx context.Context, c model.Category) error {
	res, err := im.db.ExecContext(ctx,
		`INSERT INTO categories (id, household_id, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     created_at = excluded.created_at,
		     updated_at = excluded.updated_at
		 WHERE categories.household_id = excluded.household_id`,
		c.ID, c.HouseholdID, c.Name, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	return sameHousehold(res, err, "category", c.ID)
}

// Chore upserts the chore and replaces its assignments. A category that
// does not exist in the chore's household is dropped. An id already held
// by another household is a Conflict.
func (im *Importer) Chore(ctx context.Context, c model.Chore) error {
	now := im.now().UTC()

	tx, err := im.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	categoryID := c.CategoryID
	if categoryID != nil {
		ok, err := exists(ctx, tx, `SELECT 1 FROM categories WHERE id = ? AND household_id = ?`, *categoryID, c.HouseholdID)
		if err != nil {
			return classify(err, "check category")
		}
		if !ok {
			categoryID = nil
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO chores (id, household_id, name, description, points, category_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     description = excluded.description,
		     points = excluded.points,
		     category_id = excluded.category_id,
		     created_at = excluded.created_at,
		     updated_at = excluded.updated_at
		 WHERE chores.household_id = excluded.household_id`,
		c.ID, c.HouseholdID, c.Name, nullString(c.Description), c.Points, nullStringPtr(categoryID),
		c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err := sameHousehold(res, err, "chore", c.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chore_assignments WHERE chore_id = ?`, c.ID); err != nil {
		return classify(err, "clear assignments")
	}
	assignees := dedupe(c.AssignedTo)
	for _, uid := range assignees {
		if err := ensureUser(ctx, tx, uid, now); err != nil {
			return err
		}
	}
	if err := insertAssignments(ctx, tx, c.ID, assignees, c.UpdatedAt.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func (im *Importer) RegistryEntry(ctx context.Context, e model.RegistryEntry) error {
	now := im.now().UTC()
	times := e.Times
	if times < 1 {
		times = 1
	}

	tx, err := im.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := ensureUser(ctx, tx, e.UserID, now); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO registry_entries (id, household_id, chore_id, user_id, times, completed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     chore_id = excluded.chore_id,
		     user_id = excluded.user_id,
		     times = excluded.times,
		     completed_at = excluded.completed_at,
		     created_at = excluded.created_at
		 WHERE registry_entries.household_id = excluded.household_id`,
		e.ID, e.HouseholdID, e.ChoreID, e.UserID, times, e.CompletedAt.UTC(), e.CreatedAt.UTC(),
	)
	if err := sameHousehold(res, err, "registry entry", e.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// sameHousehold turns an upsert whose WHERE clause rejected the update into
// a Conflict. SQLite reports zero changed rows in that case.
func sameHousehold(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return classify(err, "import "+kind)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("import %s: %w", kind, err)
	}
	if n == 0 {
		return apperr.Conflict("%s %s belongs to another household", kind, id)
	}
	return nil
}

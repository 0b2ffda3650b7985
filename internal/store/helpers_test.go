package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func createTestUser(t *testing.T, db *sql.DB, uid, name string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Upsert(context.Background(), model.UserProfile{
		UID:         uid,
		Email:       uid + "@example.com",
		DisplayName: name,
	})
	if err != nil {
		t.Fatalf("upsert user %s: %v", uid, err)
	}
	return u
}

func createTestHousehold(t *testing.T, db *sql.DB, name, creator string) *model.Household {
	t.Helper()
	h, err := NewHouseholdStore(db).Create(context.Background(), name, creator)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return h
}

package store

import (
	"context"
	"testing"

	"github.com/dukerupert/chorely/internal/apperr"
)

func TestHouseholdCreateAddsCreator(t *testing.T) {
	db := setupTestDB(t)
	u1 := createTestUser(t, db, "u1", "Alice")
	hs := NewHouseholdStore(db)
	ctx := context.Background()

	h, err := hs.Create(ctx, "Smith Family", "u1")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.ID == "" {
		t.Error("expected generated ID")
	}
	if h.CreatedBy != "u1" {
		t.Errorf("createdBy = %q, want u1", h.CreatedBy)
	}

	list, err := hs.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 household, got %d", len(list))
	}
	if list[0].Name != "Smith Family" {
		t.Errorf("name = %q, want %q", list[0].Name, "Smith Family")
	}
	if len(list[0].MemberDetails) != 1 || list[0].MemberDetails[0].UID != u1.UID {
		t.Fatalf("memberDetails = %+v, want [u1]", list[0].MemberDetails)
	}
	if list[0].MemberDetails[0].DisplayName != "Alice" {
		t.Errorf("member displayName = %q, want Alice", list[0].MemberDetails[0].DisplayName)
	}
	if len(list[0].Members) != 1 || list[0].Members[0] != "u1" {
		t.Errorf("members = %v, want [u1]", list[0].Members)
	}
}

func TestHouseholdCreateWithoutProfile(t *testing.T) {
	db := setupTestDB(t)
	hs := NewHouseholdStore(db)

	h, err := hs.Create(context.Background(), "Fresh", "new-user")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if len(h.Members) != 1 || h.Members[0] != "new-user" {
		t.Errorf("members = %v, want [new-user]", h.Members)
	}
}

func TestHouseholdGetNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewHouseholdStore(db).Get(context.Background(), "missing")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if got := apperr.Message(err); got != "Household with ID missing not found" {
		t.Errorf("message = %q", got)
	}
}

func TestHouseholdRename(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "u1", "Alice")
	h := createTestHousehold(t, db, "Old Name", "u1")
	hs := NewHouseholdStore(db)
	ctx := context.Background()

	updated, err := hs.Rename(ctx, h.ID, "New Name")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("name = %q, want %q", updated.Name, "New Name")
	}
	if updated.CreatedBy != "u1" {
		t.Errorf("createdBy changed to %q", updated.CreatedBy)
	}

	if _, err := hs.Rename(ctx, "missing", "X"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("rename missing: expected NotFound, got %v", err)
	}
}

func TestHouseholdAddMember(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "u1", "Alice")
	createTestUser(t, db, "u2", "Bob")
	h := createTestHousehold(t, db, "Home", "u1")
	hs := NewHouseholdStore(db)
	ctx := context.Background()

	updated, err := hs.AddMember(ctx, h.ID, "u2")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if len(updated.Members) != 2 {
		t.Fatalf("members = %v, want 2", updated.Members)
	}
	if len(updated.MemberDetails) != 2 {
		t.Errorf("memberDetails = %d, want 2", len(updated.MemberDetails))
	}

	_, err = hs.AddMember(ctx, h.ID, "u2")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second add: expected Conflict, got %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM household_members WHERE household_id = ?`, h.ID).Scan(&count); err != nil {
		t.Fatalf("count members: %v", err)
	}
	if count != 2 {
		t.Errorf("membership rows = %d, want 2", count)
	}

	list, err := hs.ListForUser(ctx, "u2")
	if err != nil {
		t.Fatalf("list for u2: %v", err)
	}
	if len(list) != 1 || list[0].ID != h.ID {
		t.Errorf("u2 households = %+v", list)
	}
}

func TestHouseholdAddMemberErrors(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "u1", "Alice")
	h := createTestHousehold(t, db, "Home", "u1")
	hs := NewHouseholdStore(db)
	ctx := context.Background()

	if _, err := hs.AddMember(ctx, "missing", "u1"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("missing household: expected NotFound, got %v", err)
	}
	if _, err := hs.AddMember(ctx, h.ID, "ghost"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown user: expected NotFound, got %v", err)
	}
}

func TestHouseholdMembershipChecks(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "u1", "Alice")
	createTestUser(t, db, "u2", "Bob")
	h := createTestHousehold(t, db, "Home", "u1")
	hs := NewHouseholdStore(db)
	ctx := context.Background()

	if ok, err := hs.IsMember(ctx, h.ID, "u1"); err != nil || !ok {
		t.Errorf("IsMember(u1) = %v, %v", ok, err)
	}
	if ok, err := hs.IsMember(ctx, h.ID, "u2"); err != nil || ok {
		t.Errorf("IsMember(u2) = %v, %v", ok, err)
	}
	if ok, err := hs.Exists(ctx, h.ID); err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
	if ok, err := hs.Exists(ctx, "missing"); err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v", ok, err)
	}
}

func TestHouseholdMemberWithoutProfileDropped(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "u1", "Alice")
	h := createTestHousehold(t, db, "Home", "u1")

	if _, err := db.Exec(`PRAGMA foreign_keys = OFF`); err != nil {
		t.Fatalf("disable fk: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO household_members (user_id, household_id, joined_at) VALUES ('ghost', ?, CURRENT_TIMESTAMP)`, h.ID); err != nil {
		t.Fatalf("insert dangling member: %v", err)
	}

	got, err := NewHouseholdStore(db).Get(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Members) != 2 {
		t.Errorf("members = %v, want 2 identities", got.Members)
	}
	if len(got.MemberDetails) != 1 || got.MemberDetails[0].UID != "u1" {
		t.Errorf("memberDetails = %+v, want only u1", got.MemberDetails)
	}
}

package store

import (
	"context"
	"sort"
	"testing"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/model"
)

func setupChoreTest(t *testing.T) (*ChoreStore, *model.Household) {
	t.Helper()
	db := setupTestDB(t)
	createTestUser(t, db, "u1", "Alice")
	createTestUser(t, db, "u2", "Bob")
	createTestUser(t, db, "u3", "Carol")
	h := createTestHousehold(t, db, "Home", "u1")
	return NewChoreStore(db), h
}

func sortedAssignees(c *model.Chore) []string {
	out := append([]string(nil), c.AssignedTo...)
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestChoreCreateWithAssignees(t *testing.T) {
	cs, h := setupChoreTest(t)
	ctx := context.Background()

	created, err := cs.Create(ctx, h.ID, model.ChoreInput{
		Name:       "Wash dishes",
		Points:     5,
		AssignedTo: []string{"u1", "u2"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := cs.Get(ctx, h.ID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Wash dishes" || got.Points != 5 {
		t.Errorf("unexpected chore: %+v", got)
	}
	if !equalStrings(sortedAssignees(got), []string{"u1", "u2"}) {
		t.Errorf("assignedTo = %v, want u1 and u2", got.AssignedTo)
	}
	if got.CategoryID != nil || got.CategoryName != "" {
		t.Errorf("expected no category, got %v %q", got.CategoryID, got.CategoryName)
	}
}

func TestChoreCreateWithoutAssignees(t *testing.T) {
	cs, h := setupChoreTest(t)

	c, err := cs.Create(context.Background(), h.ID, model.ChoreInput{Name: "Vacuum", Points: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.AssignedTo == nil || len(c.AssignedTo) != 0 {
		t.Errorf("assignedTo = %#v, want empty slice", c.AssignedTo)
	}
}

func TestChoreCreateRejectsUnknownReferences(t *testing.T) {
	cs, h := setupChoreTest(t)
	ctx := context.Background()

	_, err := cs.Create(ctx, h.ID, model.ChoreInput{Name: "Mop", Points: 1, CategoryID: "nope"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown category: expected NotFound, got %v", err)
	}
	_, err = cs.Create(ctx, h.ID, model.ChoreInput{Name: "Mop", Points: 1, AssignedTo: []string{"u1", "ghost"}})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown assignee: expected NotFound, got %v", err)
	}

	list, err := cs.List(ctx, h.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("failed creates left %d chores behind", len(list))
	}
}

func TestChoreUpdateReplacesAssignments(t *testing.T) {
	cs, h := setupChoreTest(t)
	ctx := context.Background()

	c, err := cs.Create(ctx, h.ID, model.ChoreInput{Name: "Laundry", Points: 4, AssignedTo: []string{"u1", "u2"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	next := []string{"u3"}
	updated, err := cs.Update(ctx, h.ID, c.ID, model.ChorePatch{AssignedTo: &next})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !equalStrings(updated.AssignedTo, []string{"u3"}) {
		t.Errorf("assignedTo = %v, want [u3]", updated.AssignedTo)
	}

	empty := []string{}
	updated, err = cs.Update(ctx, h.ID, c.ID, model.ChorePatch{AssignedTo: &empty})
	if err != nil {
		t.Fatalf("update empty: %v", err)
	}
	if len(updated.AssignedTo) != 0 {
		t.Errorf("assignedTo = %v, want empty", updated.AssignedTo)
	}
}

func TestChoreUpdateWithoutAssigneesKeepsThem(t *testing.T) {
	cs, h := setupChoreTest(t)
	ctx := context.Background()

	c, err := cs.Create(ctx, h.ID, model.ChoreInput{Name: "Laundry", Points: 4, Description: "Whites", AssignedTo: []string{"u1", "u2"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := cs.Update(ctx, h.ID, c.ID, model.ChorePatch{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !equalStrings(sortedAssignees(updated), []string{"u1", "u2"}) {
		t.Errorf("assignedTo = %v, want u1 and u2", updated.AssignedTo)
	}
	if updated.Name != "Laundry" || updated.Points != 4 || updated.Description != "Whites" {
		t.Errorf("fields changed on empty patch: %+v", updated)
	}

	name, points := "Laundry (colors)", 6
	updated, err = cs.Update(ctx, h.ID, c.ID, model.ChorePatch{Name: &name, Points: &points})
	if err != nil {
		t.Fatalf("update fields: %v", err)
	}
	if updated.Name != name || updated.Points != points {
		t.Errorf("unexpected chore after update: %+v", updated)
	}
	if updated.Description != "Whites" {
		t.Errorf("description = %q, want preserved", updated.Description)
	}
	if !equalStrings(sortedAssignees(updated), []string{"u1", "u2"}) {
		t.Errorf("assignedTo = %v, want u1 and u2", updated.AssignedTo)
	}
}

func TestChoreUpdateCategory(t *testing.T) {
	cs, h := setupChoreTest(t)
	ctx := context.Background()

	cat, err := NewCategoryStore(cs.db).Create(ctx, h.ID, "Outside")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	c, err := cs.Create(ctx, h.ID, model.ChoreInput{Name: "Mow", Points: 8})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	updated, err := cs.Update(ctx, h.ID, c.ID, model.ChorePatch{CategoryID: &cat.ID})
	if err != nil {
		t.Fatalf("set category: %v", err)
	}
	if updated.CategoryName != "Outside" {
		t.Errorf("categoryName = %q, want Outside", updated.CategoryName)
	}

	none := ""
	updated, err = cs.Update(ctx, h.ID, c.ID, model.ChorePatch{CategoryID: &none})
	if err != nil {
		t.Fatalf("clear category: %v", err)
	}
	if updated.CategoryID != nil {
		t.Errorf("categoryId = %v, want nil", *updated.CategoryID)
	}
}

func TestChoreScopedLookups(t *testing.T) {
	cs, h := setupChoreTest(t)
	ctx := context.Background()
	other := createTestHousehold(t, cs.db, "Other", "u2")

	c, err := cs.Create(ctx, h.ID, model.ChoreInput{Name: "Dust", Points: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := cs.Get(ctx, other.ID, c.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("get: expected NotFound, got %v", err)
	}
	name := "Hijacked"
	if _, err := cs.Update(ctx, other.ID, c.ID, model.ChorePatch{Name: &name}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("update: expected NotFound, got %v", err)
	}
	if err := cs.Delete(ctx, other.ID, c.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("delete: expected NotFound, got %v", err)
	}
}

func TestChoreDeleteCascadesAssignments(t *testing.T) {
	cs, h := setupChoreTest(t)
	ctx := context.Background()

	c, err := cs.Create(ctx, h.ID, model.ChoreInput{Name: "Trash", Points: 1, AssignedTo: []string{"u1"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := cs.Delete(ctx, h.ID, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var count int
	if err := cs.db.QueryRow(`SELECT COUNT(*) FROM chore_assignments WHERE chore_id = ?`, c.ID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("assignments left = %d, want 0", count)
	}
	if _, err := cs.Get(ctx, h.ID, c.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("get after delete: expected NotFound, got %v", err)
	}
}

func TestChoreListOrderedWithAssignees(t *testing.T) {
	cs, h := setupChoreTest(t)
	ctx := context.Background()

	for _, in := range []model.ChoreInput{
		{Name: "Vacuum", Points: 3, AssignedTo: []string{"u2"}},
		{Name: "Dishes", Points: 5, AssignedTo: []string{"u1", "u1"}},
		{Name: "Mop", Points: 2},
	} {
		if _, err := cs.Create(ctx, h.ID, in); err != nil {
			t.Fatalf("create %s: %v", in.Name, err)
		}
	}

	list, err := cs.List(ctx, h.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 chores, got %d", len(list))
	}
	wantNames := []string{"Dishes", "Mop", "Vacuum"}
	wantAssigned := [][]string{{"u1"}, {}, {"u2"}}
	for i := range list {
		if list[i].Name != wantNames[i] {
			t.Errorf("list[%d].Name = %q, want %q", i, list[i].Name, wantNames[i])
		}
		if !equalStrings(list[i].AssignedTo, wantAssigned[i]) {
			t.Errorf("list[%d].AssignedTo = %v, want %v", i, list[i].AssignedTo, wantAssigned[i])
		}
	}
}

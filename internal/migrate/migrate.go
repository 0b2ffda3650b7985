package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/model"
)

// Sink receives converted records. Every write must be an idempotent
// upsert that keeps the given ids.
type Sink interface {
	User(ctx context.Context, u model.User) error
	Household(ctx context.Context, h model.Household) error
	Category(ctx context.Context, c model.Category) error
	Chore(ctx context.Context, c model.Chore) error
	RegistryEntry(ctx context.Context, e model.RegistryEntry) error
}

// Summary counts what a run wrote.
type Summary struct {
	Users           int `json:"users"`
	Households      int `json:"households"`
	Categories      int `json:"categories"`
	Chores          int `json:"chores"`
	RegistryEntries int `json:"registryEntries"`
	SkippedRegistry int `json:"skippedRegistry"`
	Conflicts       int `json:"conflicts"`
}

func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("users", s.Users),
		slog.Int("households", s.Households),
		slog.Int("categories", s.Categories),
		slog.Int("chores", s.Chores),
		slog.Int("registry_entries", s.RegistryEntries),
		slog.Int("skipped_registry", s.SkippedRegistry),
		slog.Int("conflicts", s.Conflicts),
	)
}

type Migrator struct {
	source Source
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

func New(source Source, sink Sink, logger *slog.Logger) *Migrator {
	return &Migrator{source: source, sink: sink, logger: logger, now: time.Now}
}

// Run copies users, then households with their members, then categories,
// chores and registry entries. A category, chore or entry whose id is
// already held by another household is logged and counted in Conflicts.
// Any other write error stops the run with the counts reached so far.
func (m *Migrator) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	now := m.now().UTC()

	users, err := m.source.Users(ctx)
	if err != nil {
		return sum, err
	}
	for _, doc := range users {
		if err := m.sink.User(ctx, userFromDoc(doc, now)); err != nil {
			return sum, fmt.Errorf("migrate user %s: %w", doc.ID, err)
		}
		sum.Users++
	}
	m.logger.Info("migrated users", "count", sum.Users)

	households, err := m.source.Households(ctx)
	if err != nil {
		return sum, err
	}
	for _, doc := range households {
		if err := m.sink.Household(ctx, householdFromDoc(doc, now)); err != nil {
			return sum, fmt.Errorf("migrate household %s: %w", doc.ID, err)
		}
		sum.Households++
	}
	m.logger.Info("migrated households", "count", sum.Households)

	for _, h := range households {
		docs, err := m.source.Categories(ctx, h.ID)
		if err != nil {
			return sum, err
		}
		for _, doc := range docs {
			err := m.sink.Category(ctx, categoryFromDoc(h.ID, doc, now))
			if m.conflict(&sum, err, "category", h.ID, doc.ID) {
				continue
			}
			if err != nil {
				return sum, fmt.Errorf("migrate category %s: %w", doc.ID, err)
			}
			sum.Categories++
		}
	}
	m.logger.Info("migrated categories", "count", sum.Categories)

	for _, h := range households {
		docs, err := m.source.Chores(ctx, h.ID)
		if err != nil {
			return sum, err
		}
		for _, doc := range docs {
			err := m.sink.Chore(ctx, choreFromDoc(h.ID, doc, now))
			if m.conflict(&sum, err, "chore", h.ID, doc.ID) {
				continue
			}
			if err != nil {
				return sum, fmt.Errorf("migrate chore %s: %w", doc.ID, err)
			}
			sum.Chores++
		}
	}
	m.logger.Info("migrated chores", "count", sum.Chores)

	for _, h := range households {
		docs, err := m.source.Registry(ctx, h.ID)
		if err != nil {
			return sum, err
		}
		for _, doc := range docs {
			entry, ok := registryFromDoc(h.ID, doc, now)
			if !ok {
				m.logger.Warn("skipping registry entry missing choreId or userId", "household_id", h.ID, "entry_id", doc.ID)
				sum.SkippedRegistry++
				continue
			}
			err := m.sink.RegistryEntry(ctx, entry)
			if m.conflict(&sum, err, "registry entry", h.ID, doc.ID) {
				continue
			}
			if err != nil {
				return sum, fmt.Errorf("migrate registry entry %s: %w", doc.ID, err)
			}
			sum.RegistryEntries++
		}
	}
	m.logger.Info("migrated registry entries", "count", sum.RegistryEntries, "skipped", sum.SkippedRegistry)

	return sum, nil
}

func (m *Migrator) conflict(sum *Summary, err error, kind, householdID, id string) bool {
	if !apperr.Is(err, apperr.KindConflict) {
		return false
	}
	m.logger.Warn("skipping "+kind+" held by another household", "household_id", householdID, "id", id, "error", err)
	sum.Conflicts++
	return true
}

func userFromDoc(doc Document, now time.Time) model.User {
	return model.User{
		UID:         doc.ID,
		Email:       stringField(doc.Data, "email"),
		DisplayName: stringField(doc.Data, "displayName"),
		PhotoURL:    stringField(doc.Data, "photoURL"),
		CreatedAt:   timeField(doc.Data, "createdAt", now),
		UpdatedAt:   timeField(doc.Data, "updatedAt", now),
	}
}

// householdFromDoc reads members, falling back to the older memberIds
// field. A missing creator falls back to the first member.
func householdFromDoc(doc Document, now time.Time) model.Household {
	members := stringsField(doc.Data, "members")
	if len(members) == 0 {
		members = stringsField(doc.Data, "memberIds")
	}
	createdBy := stringField(doc.Data, "createdBy")
	if createdBy == "" && len(members) > 0 {
		createdBy = members[0]
	}
	return model.Household{
		ID:        doc.ID,
		Name:      stringField(doc.Data, "name"),
		CreatedBy: createdBy,
		Members:   members,
		CreatedAt: timeField(doc.Data, "createdAt", now),
		UpdatedAt: timeField(doc.Data, "updatedAt", now),
	}
}

func categoryFromDoc(householdID string, doc Document, now time.Time) model.Category {
	return model.Category{
		ID:          doc.ID,
		HouseholdID: householdID,
		Name:        stringField(doc.Data, "name"),
		CreatedAt:   timeField(doc.Data, "createdAt", now),
		UpdatedAt:   timeField(doc.Data, "updatedAt", now),
	}
}

func choreFromDoc(householdID string, doc Document, now time.Time) model.Chore {
	c := model.Chore{
		ID:          doc.ID,
		HouseholdID: householdID,
		Name:        stringField(doc.Data, "name"),
		Description: stringField(doc.Data, "description"),
		AssignedTo:  stringsField(doc.Data, "assignedTo"),
		CreatedAt:   timeField(doc.Data, "createdAt", now),
		UpdatedAt:   timeField(doc.Data, "updatedAt", now),
	}
	c.Points, _ = intField(doc.Data, "points")
	if id := stringField(doc.Data, "categoryId"); id != "" {
		c.CategoryID = &id
	}
	return c
}

func registryFromDoc(householdID string, doc Document, now time.Time) (model.RegistryEntry, bool) {
	choreID := stringField(doc.Data, "choreId")
	userID := stringField(doc.Data, "userId")
	if choreID == "" || userID == "" {
		return model.RegistryEntry{}, false
	}
	times, ok := intField(doc.Data, "times")
	if !ok || times < 1 {
		times = 1
	}
	return model.RegistryEntry{
		ID:          doc.ID,
		HouseholdID: householdID,
		ChoreID:     choreID,
		UserID:      userID,
		Times:       times,
		CompletedAt: timeField(doc.Data, "completedAt", now),
		CreatedAt:   timeField(doc.Data, "createdAt", now),
	}, true
}

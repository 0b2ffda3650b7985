// Package migrate copies a Firestore-shaped document tree into the
// relational store.
package migrate

import "context"

// Document is one source record: its document id and raw fields.
type Document struct {
	ID   string
	Data map[string]any
}

// Source reads the top-level users and households collections and the
// categories, chores and registry collections nested under each household.
type Source interface {
	Users(ctx context.Context) ([]Document, error)
	Households(ctx context.Context) ([]Document, error)
	Categories(ctx context.Context, householdID string) ([]Document, error)
	Chores(ctx context.Context, householdID string) ([]Document, error)
	Registry(ctx context.Context, householdID string) ([]Document, error)
}

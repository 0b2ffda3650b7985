package migrate

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// FirestoreSource reads the live Firestore database.
type FirestoreSource struct {
	client *firestore.Client
}

func NewFirestoreSource(client *firestore.Client) *FirestoreSource {
	return &FirestoreSource{client: client}
}

func (s *FirestoreSource) Users(ctx context.Context) ([]Document, error) {
	return readAll(ctx, s.client.Collection("users"))
}

func (s *FirestoreSource) Households(ctx context.Context) ([]Document, error) {
	return readAll(ctx, s.client.Collection("households"))
}

func (s *FirestoreSource) Categories(ctx context.Context, householdID string) ([]Document, error) {
	return readAll(ctx, s.household(householdID).Collection("categories"))
}

func (s *FirestoreSource) Chores(ctx context.Context, householdID string) ([]Document, error) {
	return readAll(ctx, s.household(householdID).Collection("chores"))
}

func (s *FirestoreSource) Registry(ctx context.Context, householdID string) ([]Document, error) {
	return readAll(ctx, s.household(householdID).Collection("registry"))
}

func (s *FirestoreSource) household(id string) *firestore.DocumentRef {
	return s.client.Collection("households").Doc(id)
}

func readAll(ctx context.Context, col *firestore.CollectionRef) ([]Document, error) {
	snaps, err := col.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", col.Path, err)
	}
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

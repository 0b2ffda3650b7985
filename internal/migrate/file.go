package migrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// FileSource serves an exported snapshot. The file is YAML or JSON with
// top-level users and households maps keyed by document id; each household
// nests categories, chores and registry maps the same way.
type FileSource struct {
	users      []Document
	households []Document
	nested     map[string]map[string][]Document
}

var nestedCollections = []string{"categories", "chores", "registry"}

func LoadFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return ParseSnapshot(f)
}

func ParseSnapshot(r io.Reader) (*FileSource, error) {
	var raw struct {
		Users      map[string]map[string]any `yaml:"users"`
		Households map[string]map[string]any `yaml:"households"`
	}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	src := &FileSource{
		users:  collection(raw.Users),
		nested: make(map[string]map[string][]Document),
	}
	for _, doc := range collection(raw.Households) {
		children := make(map[string][]Document, len(nestedCollections))
		for _, name := range nestedCollections {
			sub, ok := doc.Data[name]
			if !ok {
				continue
			}
			delete(doc.Data, name)
			m, ok := sub.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("parse snapshot: households.%s.%s must be a map", doc.ID, name)
			}
			docs, err := anyCollection(m)
			if err != nil {
				return nil, fmt.Errorf("parse snapshot: households.%s.%s: %w", doc.ID, name, err)
			}
			children[name] = docs
		}
		src.households = append(src.households, doc)
		src.nested[doc.ID] = children
	}
	return src, nil
}

// collection orders documents by id so runs are deterministic.
func collection(m map[string]map[string]any) []Document {
	docs := make([]Document, 0, len(m))
	for id, data := range m {
		if data == nil {
			data = map[string]any{}
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	slices.SortFunc(docs, func(a, b Document) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return docs
}

func anyCollection(m map[string]any) ([]Document, error) {
	typed := make(map[string]map[string]any, len(m))
	for id, v := range m {
		switch data := v.(type) {
		case map[string]any:
			typed[id] = data
		case nil:
			typed[id] = nil
		default:
			return nil, fmt.Errorf("document %s must be a map", id)
		}
	}
	return collection(typed), nil
}

func (s *FileSource) Users(context.Context) ([]Document, error) {
	return s.users, nil
}

func (s *FileSource) Households(context.Context) ([]Document, error) {
	return s.households, nil
}

func (s *FileSource) Categories(_ context.Context, householdID string) ([]Document, error) {
	return s.nested[householdID]["categories"], nil
}

func (s *FileSource) Chores(_ context.Context, householdID string) ([]Document, error) {
	return s.nested[householdID]["chores"], nil
}

func (s *FileSource) Registry(_ context.Context, householdID string) ([]Document, error) {
	return s.nested[householdID]["registry"], nil
}

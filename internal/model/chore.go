package model

import "time"

// Chore is a household task definition enriched with its category name and
// assignee identities.
type Chore struct {
	ID           string    `json:"id"`
	HouseholdID  string    `json:"householdId"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Points       int       `json:"points"`
	CategoryID   *string   `json:"categoryId,omitempty"`
	CategoryName string    `json:"categoryName,omitempty"`
	AssignedTo   []string  `json:"assignedTo"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ChoreInput struct {
	Name        string
	Points      int
	Description string
	CategoryID  string
	AssignedTo  []string
}

// ChorePatch holds optional overwrites. A nil field is left unchanged.
// A non-nil AssignedTo replaces the whole assignment set, and an empty
// CategoryID clears the category.
type ChorePatch struct {
	Name        *string
	Points      *int
	Description *string
	CategoryID  *string
	AssignedTo  *[]string
}

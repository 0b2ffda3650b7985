package model

import "time"

const (
	UnknownChore = "Unknown Chore"
	UnknownUser  = "Unknown User"
)

// RegistryEntry records a chore completion. Points, ChoreName and UserName
// are resolved at read time.
type RegistryEntry struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"householdId"`
	ChoreID     string    `json:"choreId"`
	UserID      string    `json:"userId"`
	Times       int       `json:"times"`
	CompletedAt time.Time `json:"completedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	Points      int       `json:"points"`
	ChoreName   string    `json:"choreName"`
	UserName    string    `json:"userName"`
}

type NewRegistryEntry struct {
	ChoreID string
	UserID  string
	Times   int
}

// RegistryQuery selects entries with Start <= completedAt < End. Zero
// bounds are open.
type RegistryQuery struct {
	Start  time.Time
	End    time.Time
	UserID string
	Limit  int
}

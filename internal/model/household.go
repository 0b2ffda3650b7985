package model

import "time"

type Household struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatedBy     string    `json:"createdBy"`
	Members       []string  `json:"members"`
	MemberDetails []User    `json:"memberDetails"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type HouseholdMember struct {
	UserID      string    `json:"userId"`
	HouseholdID string    `json:"householdId"`
	JoinedAt    time.Time `json:"joinedAt"`
}

package model

import "time"

// User is a profile keyed by the identity provider's uid.
type User struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UserProfile carries the mutable profile fields for an upsert. Empty
// fields leave the stored value untouched.
type UserProfile struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Label returns the display name, falling back to email and then to
// UnknownUser.
func (u User) Label() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	default:
		return UnknownUser
	}
}

// Package identity resolves bearer credentials to user identities through
// an external provider.
package identity

import (
	"context"
	"time"
)

// Claims is the verified content of a bearer credential.
type Claims struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	DisplayName   string    `json:"displayName,omitempty"`
	PhotoURL      string    `json:"photoURL,omitempty"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt,omitempty"`
}

// Record is the provider's current view of an identity.
type Record struct {
	Claims
	Disabled     bool
	CreatedAt    time.Time
	LastSignInAt time.Time
}

// Resolver verifies credentials and looks identities up.
//
// Verify fails with an apperr Unauthorized error for any expired, revoked,
// malformed or unverifiable credential. Lookup fails with apperr NotFound
// when the provider has no such identity.
type Resolver interface {
	Verify(ctx context.Context, token string) (*Claims, error)
	Lookup(ctx context.Context, uid string) (*Record, error)
}

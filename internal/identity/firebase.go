package identity

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"

	"github.com/dukerupert/chorely/internal/apperr"
)

// FirebaseResolver delegates to Firebase Authentication.
type FirebaseResolver struct {
	client *auth.Client
}

func NewFirebaseResolver(ctx context.Context, app *firebase.App) (*FirebaseResolver, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &FirebaseResolver{client: client}, nil
}

func (r *FirebaseResolver) Verify(ctx context.Context, token string) (*Claims, error) {
	tok, err := r.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, verifyError(err)
	}
	return claimsFromToken(tok), nil
}

func (r *FirebaseResolver) Lookup(ctx context.Context, uid string) (*Record, error) {
	u, err := r.client.GetUser(ctx, uid)
	if err != nil {
		return nil, lookupError(err)
	}
	return recordFromUser(u), nil
}

func verifyError(err error) error {
	switch {
	case auth.IsIDTokenExpired(err):
		return apperr.Wrap(apperr.KindUnauthorized, err, "Token has expired")
	case auth.IsIDTokenRevoked(err):
		return apperr.Wrap(apperr.KindUnauthorized, err, "Token has been revoked")
	case auth.IsUserDisabled(err):
		return apperr.Wrap(apperr.KindForbidden, err, "User account has been disabled")
	default:
		return apperr.Wrap(apperr.KindUnauthorized, err, "Invalid token")
	}
}

func lookupError(err error) error {
	switch {
	case auth.IsUserNotFound(err):
		return apperr.Wrap(apperr.KindNotFound, err, "User not found")
	case auth.IsUserDisabled(err):
		return apperr.Wrap(apperr.KindForbidden, err, "User account has been disabled")
	default:
		return fmt.Errorf("firebase get user: %w", err)
	}
}

func claimsFromToken(tok *auth.Token) *Claims {
	c := &Claims{
		UID:         tok.UID,
		Email:       stringClaim(tok.Claims, "email"),
		DisplayName: stringClaim(tok.Claims, "name"),
		PhotoURL:    stringClaim(tok.Claims, "picture"),
		PhoneNumber: stringClaim(tok.Claims, "phone_number"),
	}
	if v, ok := tok.Claims["email_verified"].(bool); ok {
		c.EmailVerified = v
	}
	if tok.Expires > 0 {
		c.ExpiresAt = time.Unix(tok.Expires, 0).UTC()
	}
	return c
}

func stringClaim(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}

func recordFromUser(u *auth.UserRecord) *Record {
	rec := &Record{Disabled: u.Disabled}
	rec.EmailVerified = u.EmailVerified
	if u.UserInfo != nil {
		rec.UID = u.UID
		rec.Email = u.Email
		rec.DisplayName = u.DisplayName
		rec.PhotoURL = u.PhotoURL
		rec.PhoneNumber = u.PhoneNumber
	}
	if u.UserMetadata != nil {
		if u.UserMetadata.CreationTimestamp > 0 {
			rec.CreatedAt = time.UnixMilli(u.UserMetadata.CreationTimestamp).UTC()
		}
		if u.UserMetadata.LastLogInTimestamp > 0 {
			rec.LastSignInAt = time.UnixMilli(u.UserMetadata.LastLogInTimestamp).UTC()
		}
	}
	return rec
}

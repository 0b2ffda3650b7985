package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/model"
)

// ProfileLookup reads stored user profiles.
type ProfileLookup interface {
	Get(ctx context.Context, uid string) (*model.User, error)
}

// LocalResolver verifies HS256 tokens signed with a shared secret and
// answers lookups from the user directory. It stands in for the hosted
// provider in development and tests.
type LocalResolver struct {
	secret []byte
	users  ProfileLookup
	now    func() time.Time
}

func NewLocalResolver(secret string, users ProfileLookup) *LocalResolver {
	return &LocalResolver{secret: []byte(secret), users: users, now: time.Now}
}

type localClaims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token for c that expires after ttl.
func (r *LocalResolver) Issue(c Claims, ttl time.Duration) (string, error) {
	if c.UID == "" {
		return "", errors.New("issue token: uid is required")
	}
	now := r.now()
	claims := &localClaims{
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		Name:          c.DisplayName,
		Picture:       c.PhotoURL,
		PhoneNumber:   c.PhoneNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func (r *LocalResolver) Verify(_ context.Context, token string) (*Claims, error) {
	var lc localClaims
	_, err := jwt.ParseWithClaims(token, &lc, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(r.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, apperr.Wrap(apperr.KindUnauthorized, err, "Token has expired")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, err, "Invalid token")
	}
	if lc.Subject == "" {
		return nil, apperr.Unauthorized("Invalid token")
	}

	c := &Claims{
		UID:           lc.Subject,
		Email:         lc.Email,
		EmailVerified: lc.EmailVerified,
		DisplayName:   lc.Name,
		PhotoURL:      lc.Picture,
		PhoneNumber:   lc.PhoneNumber,
	}
	if lc.ExpiresAt != nil {
		c.ExpiresAt = lc.ExpiresAt.Time.UTC()
	}
	return c, nil
}

func (r *LocalResolver) Lookup(ctx context.Context, uid string) (*Record, error) {
	u, err := r.users.Get(ctx, uid)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "User not found")
	}
	if err != nil {
		return nil, err
	}
	return &Record{
		Claims: Claims{
			UID:         u.UID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			PhotoURL:    u.PhotoURL,
		},
		CreatedAt:    u.CreatedAt,
		LastSignInAt: u.UpdatedAt,
	}, nil
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/identity"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

type AuthHandler struct {
	resolver  identity.Resolver
	userStore *store.UserStore
	logger    *slog.Logger
}

func NewAuthHandler(resolver identity.Resolver, us *store.UserStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{resolver: resolver, userStore: us, logger: logger}
}

type loginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type authResponse struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	DisplayName   string `json:"displayName,omitempty"`
	PhotoURL      string `json:"photoURL,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
}

func newAuthResponse(c identity.Claims) authResponse {
	return authResponse{
		UID:           c.UID,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		DisplayName:   c.DisplayName,
		PhotoURL:      c.PhotoURL,
		PhoneNumber:   c.PhoneNumber,
	}
}

type meResponse struct {
	authResponse
	Disabled bool           `json:"disabled"`
	Metadata recordMetadata `json:"metadata"`
}

type recordMetadata struct {
	CreationTime   *time.Time `json:"creationTime,omitempty"`
	LastSignInTime *time.Time `json:"lastSignInTime,omitempty"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Login verifies an ID token and records the caller's profile.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	claims, err := h.resolver.Verify(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, err := h.userStore.Upsert(r.Context(), model.UserProfile{
		UID:         claims.UID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
	}); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user logged in", "uid", claims.UID)
	writeJSON(w, http.StatusOK, newAuthResponse(*claims))
}

// Me returns the identity provider's current record for the caller.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	rec, err := h.resolver.Lookup(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		authResponse: newAuthResponse(rec.Claims),
		Disabled:     rec.Disabled,
		Metadata: recordMetadata{
			CreationTime:   timePtr(rec.CreatedAt),
			LastSignInTime: timePtr(rec.LastSignInAt),
		},
	})
}

// Logout is an acknowledgement only; tokens are dropped client-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/identity"
	"github.com/dukerupert/chorely/internal/model"
)

// HouseholdLookup loads a household with its member identities.
type HouseholdLookup interface {
	Get(ctx context.Context, id string) (*model.Household, error)
}

// RequireAuth verifies the bearer credential and populates AuthContext.
// WebSocket upgrades may pass the credential as an access_token query
// parameter instead, since browsers cannot set headers on them.
func RequireAuth(resolver identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				apperr.Write(w, r, apperr.Unauthorized("No token provided"))
				return
			}

			claims, err := resolver.Verify(r.Context(), token)
			if err != nil {
				apperr.Write(w, r, err)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				UserID: claims.UID,
				Claims: claims,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// RequireHouseholdMember admits the caller to the household named by the
// householdId path value. An unknown household is reported before the
// membership check. The loaded household is attached to the context.
func RequireHouseholdMember(households HouseholdLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := auth.UserID(r.Context())
			if uid == "" {
				apperr.Write(w, r, apperr.Forbidden("User must be authenticated"))
				return
			}

			householdID := r.PathValue("householdId")
			if householdID == "" {
				apperr.Write(w, r, apperr.Forbidden("Household ID is required"))
				return
			}

			h, err := households.Get(r.Context(), householdID)
			if err != nil {
				apperr.Write(w, r, err)
				return
			}
			if !slices.Contains(h.Members, uid) {
				apperr.Write(w, r, apperr.Forbidden("You do not have access to this household"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithHousehold(r.Context(), h)))
		})
	}
}

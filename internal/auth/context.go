package auth

import (
	"context"

	"github.com/dukerupert/chorely/internal/identity"
	"github.com/dukerupert/chorely/internal/model"
)

type contextKey struct{}

// AuthContext is the verified caller plus, on guarded routes, the
// household the caller was admitted to.
type AuthContext struct {
	UserID    string
	Claims    *identity.Claims
	Household *model.Household
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}

// WithHousehold attaches h to an existing AuthContext.
func WithHousehold(ctx context.Context, h *model.Household) context.Context {
	ac, _ := FromContext(ctx)
	ac.Household = h
	return WithAuth(ctx, ac)
}

func Household(ctx context.Context) *model.Household {
	ac, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return ac.Household
}

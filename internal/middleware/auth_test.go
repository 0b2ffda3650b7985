package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/identity"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

// stubResolver accepts tokens of the form "token-<uid>".
type stubResolver struct{}

func (stubResolver) Verify(_ context.Context, token string) (*identity.Claims, error) {
	const prefix = "token-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return nil, apperr.Unauthorized("Invalid token")
	}
	return &identity.Claims{UID: token[len(prefix):]}, nil
}

func (stubResolver) Lookup(_ context.Context, uid string) (*identity.Record, error) {
	return nil, apperr.NotFound("User not found")
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) apperr.Body {
	t.Helper()
	var body apperr.Body
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestRequireAuthNoToken(t *testing.T) {
	handler := RequireAuth(stubResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/households", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if body := decodeBody(t, rec); body.Message != "No token provided" || body.Path != "/households" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	handler := RequireAuth(stubResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	for _, header := range []string{"Bearer nope", "Basic token-u1", "token-u1"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%q: status = %d, want %d", header, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	var gotUID string
	handler := RequireAuth(stubResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUID = auth.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer token-u1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUID != "u1" {
		t.Errorf("UserID = %q, want u1", gotUID)
	}
}

func TestRequireAuthQueryTokenOnlyForUpgrade(t *testing.T) {
	handler := RequireAuth(stubResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/households/h1/ws?access_token=token-u1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("plain request: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest("GET", "/households/h1/ws?access_token=token-u1", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("upgrade request: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func setupGuard(t *testing.T) (http.Handler, *model.Household) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	households := store.NewHouseholdStore(db)
	h, err := households.Create(context.Background(), "Home", "owner")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /households/{householdId}", RequireHouseholdMember(households)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hh := auth.Household(r.Context())
		if hh == nil {
			t.Error("expected household in context")
			return
		}
		w.Write([]byte(hh.Name))
	})))
	mux.Handle("GET /orphan", RequireHouseholdMember(households)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("should not reach handler")
	})))

	return RequireAuth(stubResolver{})(mux), h
}

func guardRequest(handler http.Handler, path, uid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer token-"+uid)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGuardMember(t *testing.T) {
	handler, h := setupGuard(t)

	rec := guardRequest(handler, "/households/"+h.ID, "owner")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "Home" {
		t.Errorf("body = %q, want Home", rec.Body.String())
	}
}

func TestGuardNonMember(t *testing.T) {
	handler, h := setupGuard(t)

	rec := guardRequest(handler, "/households/"+h.ID, "stranger")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if body := decodeBody(t, rec); body.Message != "You do not have access to this household" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestGuardUnknownHousehold(t *testing.T) {
	handler, _ := setupGuard(t)

	rec := guardRequest(handler, "/households/missing", "owner")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if body := decodeBody(t, rec); body.Message != "Household with ID missing not found" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestGuardMissingHouseholdID(t *testing.T) {
	handler, _ := setupGuard(t)

	rec := guardRequest(handler, "/orphan", "owner")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if body := decodeBody(t, rec); body.Message != "Household ID is required" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestGuardWithoutIdentity(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	handler := RequireHouseholdMember(store.NewHouseholdStore(db))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("should not reach handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if body := decodeBody(t, rec); body.Message != "User must be authenticated" {
		t.Errorf("message = %q", body.Message)
	}
}

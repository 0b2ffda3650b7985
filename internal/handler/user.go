package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

type UserHandler struct {
	userStore *store.UserStore
	logger    *slog.Logger
}

func NewUserHandler(us *store.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{userStore: us, logger: logger}
}

type userRequest struct {
	UID         string `json:"uid" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	DisplayName string `json:"displayName" validate:"omitempty,max=200"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.userStore.Get(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Upsert creates or updates the caller's own profile.
func (h *UserHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if req.UID != auth.UserID(r.Context()) {
		writeError(w, r, h.logger, apperr.Forbidden("You can only create/update your own profile"))
		return
	}

	u, err := h.userStore.Upsert(r.Context(), model.UserProfile{
		UID:         req.UID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

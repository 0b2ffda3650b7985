package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/store"
	"github.com/dukerupert/chorely/internal/websocket"
)

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{householdStore: hs, hub: hub, logger: logger}
}

func (h *HouseholdHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type householdRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type addMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
}

func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.householdStore.ListForUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, households)
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	household, err := h.householdStore.Create(r.Context(), req.Name, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("household created", "household_id", household.ID, "created_by", household.CreatedBy)
	writeJSON(w, http.StatusCreated, household)
}

// Get returns the household the access guard already loaded.
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.Household(r.Context()))
}

func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id := auth.Household(r.Context()).ID
	household, err := h.householdStore.Rename(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(id, "household", "updated", id))
	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id := auth.Household(r.Context()).ID
	household, err := h.householdStore.AddMember(r.Context(), id, req.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(id, "member", "added", req.UserID))
	writeJSON(w, http.StatusCreated, household)
}

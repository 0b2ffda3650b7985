package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
	"github.com/dukerupert/chorely/internal/websocket"
)

type ChoreHandler struct {
	choreStore *store.ChoreStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{choreStore: cs, hub: hub, logger: logger}
}

func (h *ChoreHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type createChoreRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Points      *int     `json:"points" validate:"required,gte=0"`
	Description string   `json:"description" validate:"max=1000"`
	CategoryID  string   `json:"categoryId"`
	AssignedTo  []string `json:"assignedTo" validate:"omitempty,dive,required"`
}

// updateChoreRequest fields are all optional. An empty categoryId clears
// the category and a present assignedTo replaces every assignment.
type updateChoreRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Points      *int      `json:"points" validate:"omitempty,gte=0"`
	Description *string   `json:"description" validate:"omitempty,max=1000"`
	CategoryID  *string   `json:"categoryId"`
	AssignedTo  *[]string `json:"assignedTo" validate:"omitempty,dive,required"`
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.choreStore.List(r.Context(), auth.Household(r.Context()).ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	chore, err := h.choreStore.Get(r.Context(), auth.Household(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createChoreRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	householdID := auth.Household(r.Context()).ID
	chore, err := h.choreStore.Create(r.Context(), householdID, model.ChoreInput{
		Name:        req.Name,
		Points:      *req.Points,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(householdID, "chore", "created", chore.ID))
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateChoreRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	householdID := auth.Household(r.Context()).ID
	chore, err := h.choreStore.Update(r.Context(), householdID, r.PathValue("id"), model.ChorePatch{
		Name:        req.Name,
		Points:      req.Points,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(householdID, "chore", "updated", chore.ID))
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	householdID := auth.Household(r.Context()).ID
	id := r.PathValue("id")
	if err := h.choreStore.Delete(r.Context(), householdID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(householdID, "chore", "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

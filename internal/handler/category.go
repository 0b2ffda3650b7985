package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/store"
	"github.com/dukerupert/chorely/internal/websocket"
)

type CategoryHandler struct {
	categoryStore *store.CategoryStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewCategoryHandler(cs *store.CategoryStore, hub *websocket.Hub, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categoryStore: cs, hub: hub, logger: logger}
}

func (h *CategoryHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryStore.List(r.Context(), auth.Household(r.Context()).ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := h.categoryStore.Get(r.Context(), auth.Household(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	householdID := auth.Household(r.Context()).ID
	category, err := h.categoryStore.Create(r.Context(), householdID, req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(householdID, "category", "created", category.ID))
	writeJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	householdID := auth.Household(r.Context()).ID
	category, err := h.categoryStore.Rename(r.Context(), householdID, r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(householdID, "category", "updated", category.ID))
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	householdID := auth.Household(r.Context()).ID
	id := r.PathValue("id")
	if err := h.categoryStore.Delete(r.Context(), householdID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(householdID, "category", "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

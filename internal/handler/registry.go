package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/registry"
	"github.com/dukerupert/chorely/internal/store"
	"github.com/dukerupert/chorely/internal/websocket"
)

const defaultRegistryLimit = 50

type RegistryHandler struct {
	registryStore *store.RegistryStore
	hub           *websocket.Hub
	loc           *time.Location
	now           func() time.Time
	logger        *slog.Logger
}

// NewRegistryHandler computes completion windows in loc.
func NewRegistryHandler(rs *store.RegistryStore, hub *websocket.Hub, loc *time.Location, logger *slog.Logger) *RegistryHandler {
	return &RegistryHandler{registryStore: rs, hub: hub, loc: loc, now: time.Now, logger: logger}
}

func (h *RegistryHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type registryRequest struct {
	ChoreID string `json:"choreId" validate:"required"`
	UserID  string `json:"userId" validate:"required"`
	Times   *int   `json:"times" validate:"omitempty,gte=1"`
}

func (req registryRequest) entry() model.NewRegistryEntry {
	e := model.NewRegistryEntry{ChoreID: req.ChoreID, UserID: req.UserID, Times: 1}
	if req.Times != nil {
		e.Times = *req.Times
	}
	return e
}

type batchRegistryRequest struct {
	Chores []registryRequest `json:"chores" validate:"required,dive"`
}

// parseRegistryQuery reads filter, userId and limit from the query string.
func (h *RegistryHandler) parseRegistryQuery(r *http.Request) (model.RegistryQuery, error) {
	q := r.URL.Query()

	filter, err := registry.ParseFilter(q.Get("filter"))
	if err != nil {
		return model.RegistryQuery{}, apperr.Validation("Validation failed", map[string]string{
			"filter": "must be one of: today, yesterday, thisWeek, lastWeek, thisMonth, all",
		})
	}

	limit := defaultRegistryLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return model.RegistryQuery{}, apperr.Validation("Validation failed", map[string]string{
				"limit": "must be an integer of at least 1",
			})
		}
		limit = n
	}

	start, end := registry.Window(filter, h.now().In(h.loc))
	return model.RegistryQuery{
		Start:  start.UTC(),
		End:    end.UTC(),
		UserID: q.Get("userId"),
		Limit:  limit,
	}, nil
}

func (h *RegistryHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseRegistryQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entries, err := h.registryStore.List(r.Context(), auth.Household(r.Context()).ID, query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *RegistryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req registryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	householdID := auth.Household(r.Context()).ID
	entry, err := h.registryStore.Create(r.Context(), householdID, req.entry())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(householdID, "registry", "created", entry.ID))
	writeJSON(w, http.StatusCreated, entry)
}

// CreateBatch records completions in order. Entries written before a
// failing one stay committed.
func (h *RegistryHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRegistryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	in := make([]model.NewRegistryEntry, len(req.Chores))
	for i, c := range req.Chores {
		in[i] = c.entry()
	}

	householdID := auth.Household(r.Context()).ID
	entries, err := h.registryStore.CreateBatch(r.Context(), householdID, in)
	for _, e := range entries {
		h.broadcast(websocket.NewMessage(householdID, "registry", "created", e.ID))
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entries)
}

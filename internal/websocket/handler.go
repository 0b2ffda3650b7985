package websocket

import (
	"log/slog"
	"net/http"
	"slices"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/chorely/internal/auth"
)

// HandleWebSocket upgrades guarded requests and subscribes the connection
// to the household admitted by the access guard. An origins list containing
// "*" accepts any origin.
func HandleWebSocket(hub *Hub, origins []string, logger *slog.Logger) http.HandlerFunc {
	opts := &ws.AcceptOptions{}
	if slices.Contains(origins, "*") {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = origins
	}

	return func(w http.ResponseWriter, r *http.Request) {
		household := auth.Household(r.Context())
		if household == nil {
			http.Error(w, "Household ID is required", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			logger.Warn("websocket accept", "error", err, "household_id", household.ID)
			return
		}

		client := NewClient(hub, conn, household.ID)
		client.Run(r.Context())
	}
}

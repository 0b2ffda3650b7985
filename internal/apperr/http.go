package apperr

import (
	"encoding/json"
	"net/http"
	"time"
)

// Body is the JSON shape of every error response.
type Body struct {
	StatusCode int               `json:"statusCode"`
	Timestamp  string            `json:"timestamp"`
	Path       string            `json:"path"`
	Error      string            `json:"error"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
}

func NewBody(r *http.Request, err error) Body {
	kind := KindOf(err)
	return Body{
		StatusCode: Status(kind),
		Timestamp:  timestamp(),
		Path:       r.URL.Path,
		Error:      kind.String(),
		Message:    Message(err),
		Details:    DetailsOf(err),
	}
}

// Write sends err as a JSON error body and returns the status used.
func Write(w http.ResponseWriter, r *http.Request, err error) int {
	body := NewBody(r, err)
	writeBody(w, body)
	return body.StatusCode
}

// WriteStatus sends an error body for a status outside the Kind table.
func WriteStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeBody(w, Body{
		StatusCode: status,
		Timestamp:  timestamp(),
		Path:       r.URL.Path,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

func writeBody(w http.ResponseWriter, body Body) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.StatusCode)
	json.NewEncoder(w).Encode(body)
}

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
)

// EventResponse is an event log entry in API responses.
type EventResponse struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	UserID    *int64    `json:"user_id,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func storeEventToResponse(e store.Event) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		IPAddress: e.IpAddress,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
	if e.UserID.Valid {
		id := e.UserID.Int64
		resp.UserID = &id
	}
	return resp
}

// ListEvents handles GET /admin/events. Supports ?category=, ?limit=,
// and ?offset= query parameters.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	events, total, err := h.events.List(r.Context(), category, int64(limit), int64(offset))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, storeEventToResponse(e))
	}
	WriteSuccess(w, resp, &Meta{Total: total, Limit: len(resp), Offset: offset})
}

package api

import (
	"log"
	"net/http"
	"strconv"

	"magazyn-plikow/internal/database"
)

type EventsResponse struct {
	Success bool             `json:"success" example:"true"`
	Events  []database.Event `json:"events"`
}

// @Summary      Poll file-change events
// @Description  Returns the caller's journal entries newer than the given id, oldest first, at most 100 at a time.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        since  query     int  false  "Last seen event id"
// @Success      200    {object}  EventsResponse
// @Router       /events [get]
func (s *Server) GetEventsHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var sinceID int64
	if since := r.URL.Query().Get("since"); since != "" {
		parsed, err := strconv.ParseInt(since, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid since parameter")
			return
		}
		sinceID = parsed
	}

	events, err := s.store.GetEventsSince(r.Context(), user.ID, sinceID)
	if err != nil {
		log.Printf("ERROR: event query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}

	respondJSON(w, http.StatusOK, EventsResponse{Success: true, Events: events})
}

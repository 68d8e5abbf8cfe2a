package api

import (
	"errors"
	"net/http"

	"github.com/student-ally/ally-core/internal/events"
)

var eventMessages = messages{
	"date.datetime":                  "date must be in YYYY-MM-DD format",
	"registration_deadline.datetime": "registration_deadline must be in YYYY-MM-DD format",
	"capacity.gt":                    "Capacity must be a positive number",
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := s.events.List(r.Context())
	if err != nil {
		s.logger.Error("list events failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgEventNotFound)
		return
	}

	ev, err := s.events.Get(r.Context(), id)
	if err != nil {
		s.eventError(w, err, "get event failed")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in events.Input
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}
	if msg, ok := firstError(in, msgAllButImage, eventMessages); !ok {
		writeBadRequest(w, msg)
		return
	}

	ev, err := s.events.Create(r.Context(), in)
	if err != nil {
		s.logger.Error("create event failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Event created successfully",
		"event":   ev,
	})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgEventNotFound)
		return
	}

	var in events.Input
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}
	if msg, ok := firstError(in, msgAllButImage, eventMessages); !ok {
		writeBadRequest(w, msg)
		return
	}

	ev, err := s.events.Update(r.Context(), id, in)
	if err != nil {
		s.eventError(w, err, "update event failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Event updated successfully",
		"event":   ev,
	})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgEventNotFound)
		return
	}

	if err := s.events.Delete(r.Context(), id); err != nil {
		s.eventError(w, err, "delete event failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}

func (s *Server) eventError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, events.ErrEventNotFound) {
		writeNotFound(w, msgEventNotFound)
		return
	}
	s.logger.Error(logMsg, "error", err)
	writeInternalError(w)
}

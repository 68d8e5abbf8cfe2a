package api

import (
	"errors"
	"net/http"

	"github.com/student-ally/ally-core/internal/alumni"
)

var storyMessages = messages{
	"graduation_year": msgGraduationYear,
}

func (s *Server) handleListStories(w http.ResponseWriter, r *http.Request) {
	list, err := s.stories.List(r.Context())
	if err != nil {
		s.logger.Error("list success stories failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgStoryNotFound)
		return
	}

	story, err := s.stories.Get(r.Context(), id)
	if err != nil {
		s.storyError(w, err, "get success story failed")
		return
	}
	writeJSON(w, http.StatusOK, story)
}

// handleCreateStory stores a story. achievements may be a list or a single
// string.
func (s *Server) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	var in alumni.StoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}
	if msg, ok := firstError(in, "Name, title and summary are required", storyMessages); !ok {
		writeBadRequest(w, msg)
		return
	}

	story, err := s.stories.Create(r.Context(), in)
	if err != nil {
		s.logger.Error("create success story failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, story)
}

func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgStoryNotFound)
		return
	}

	if err := s.stories.Delete(r.Context(), id); err != nil {
		s.storyError(w, err, "delete success story failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Success story deleted successfully"})
}

func (s *Server) storyError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, alumni.ErrStoryNotFound) {
		writeNotFound(w, msgStoryNotFound)
		return
	}
	s.logger.Error(logMsg, "error", err)
	writeInternalError(w)
}

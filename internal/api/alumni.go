package api

import (
	"errors"
	"net/http"

	"github.com/student-ally/ally-core/internal/alumni"
)

var alumniMessages = messages{
	"email":           msgValidEmail,
	"graduation_year": msgGraduationYear,
}

func (s *Server) handleListAlumni(w http.ResponseWriter, r *http.Request) {
	list, err := s.alumni.List(r.Context())
	if err != nil {
		s.logger.Error("list alumni failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetAlumni(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgProfileNotFound)
		return
	}

	p, err := s.alumni.Get(r.Context(), id)
	if err != nil {
		s.alumniError(w, err, "get alumni failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateAlumni(w http.ResponseWriter, r *http.Request) {
	var in alumni.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}
	if msg, ok := firstError(in, "Name is required", alumniMessages); !ok {
		writeBadRequest(w, msg)
		return
	}

	p, err := s.alumni.Create(r.Context(), in)
	if err != nil {
		s.logger.Error("create alumni failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateAlumni(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgProfileNotFound)
		return
	}

	var in alumni.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}
	if msg, ok := firstError(in, "Name is required", alumniMessages); !ok {
		writeBadRequest(w, msg)
		return
	}

	p, err := s.alumni.Update(r.Context(), id, in)
	if err != nil {
		s.alumniError(w, err, "update alumni failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteAlumni(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgProfileNotFound)
		return
	}

	if err := s.alumni.Delete(r.Context(), id); err != nil {
		s.alumniError(w, err, "delete alumni failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile deleted successfully"})
}

func (s *Server) alumniError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, alumni.ErrProfileNotFound) {
		writeNotFound(w, msgProfileNotFound)
		return
	}
	s.logger.Error(logMsg, "error", err)
	writeInternalError(w)
}

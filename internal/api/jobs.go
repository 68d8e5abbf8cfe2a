package api

import (
	"errors"
	"net/http"

	"github.com/student-ally/ally-core/internal/jobs"
)

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	list, err := s.jobs.List(r.Context())
	if err != nil {
		s.logger.Error("list jobs failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgJobNotFound)
		return
	}

	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			writeNotFound(w, msgJobNotFound)
			return
		}
		s.logger.Error("get job failed", "job_id", id, "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var in jobs.Input
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}
	if msg, ok := firstError(in, msgAllRequired, nil); !ok {
		writeBadRequest(w, msg)
		return
	}

	job, err := s.jobs.Create(r.Context(), in)
	if err != nil {
		s.logger.Error("create job failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgJobNotFound)
		return
	}

	if err := s.jobs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			writeNotFound(w, msgJobNotFound)
			return
		}
		s.logger.Error("delete job failed", "job_id", id, "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Job deleted successfully"})
}

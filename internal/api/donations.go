package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/student-ally/ally-core/internal/audit"
	"github.com/student-ally/ally-core/internal/donations"
	"github.com/student-ally/ally-core/internal/infrastructure/mqtt"
)

var donationMessages = messages{
	"goal.gt": "Goal must be a valid positive number",
}

func (s *Server) handleListDonations(w http.ResponseWriter, r *http.Request) {
	list, err := s.donations.List(r.Context())
	if err != nil {
		s.logger.Error("list donations failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgDonationNotFound)
		return
	}

	d, err := s.donations.Get(r.Context(), id)
	if err != nil {
		s.donationError(w, err, "get donation failed")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	var in donations.Input
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}
	if msg, ok := firstError(in, msgAllButImage, donationMessages); !ok {
		writeBadRequest(w, msg)
		return
	}

	d, err := s.donations.Create(r.Context(), in)
	if err != nil {
		s.logger.Error("create donation failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Donation initiative added successfully",
		"donation": d,
	})
}

// handleAddRaised adds a contribution to an initiative's raised total.
func (s *Server) handleAddRaised(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgDonationNotFound)
		return
	}

	var in donations.Contribution
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, msgInvalidRaisedAmnt)
		return
	}

	d, err := s.donations.AddRaised(r.Context(), id, in.Raised)
	if err != nil {
		if errors.Is(err, donations.ErrInvalidAmount) {
			writeBadRequest(w, msgInvalidRaisedAmnt)
			return
		}
		s.donationError(w, err, "update donation failed")
		return
	}

	amount := float64(in.Raised)
	actor := claimsFromContext(r.Context())
	s.auditLog(audit.ActionUpdate, "donation", strconv.FormatInt(id, 10), actor.Email, map[string]any{
		"amount": amount,
		"raised": d.Raised,
	})
	s.publish(mqtt.EventDonationRaised, map[string]any{
		"id":     d.ID,
		"amount": amount,
		"raised": d.Raised,
		"goal":   d.Goal,
	})
	if s.metrics != nil {
		s.metrics.contributions.Inc()
	}
	if s.engagement != nil {
		s.engagement.WriteDonation(d.ID, amount, d.Raised)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Raised amount updated successfully",
		"donation": d,
	})
}

func (s *Server) handleDeleteDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, msgDonationNotFound)
		return
	}

	if err := s.donations.Delete(r.Context(), id); err != nil {
		s.donationError(w, err, "delete donation failed")
		return
	}

	actor := claimsFromContext(r.Context())
	s.auditLog(audit.ActionDelete, "donation", strconv.FormatInt(id, 10), actor.Email, nil)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Donation initiative deleted successfully"})
}

func (s *Server) handleCreateMentorship(w http.ResponseWriter, r *http.Request) {
	var in donations.MentorshipInput
	if err := decodeJSON(r, &in); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}
	if msg, ok := firstError(in, msgAllRequired, nil); !ok {
		writeBadRequest(w, msg)
		return
	}

	m, err := s.donations.CreateMentorship(r.Context(), in)
	if err != nil {
		s.logger.Error("create mentorship failed", "error", err)
		writeInternalError(w)
		return
	}

	s.publish(mqtt.EventMentorshipRequested, map[string]any{
		"id":            m.ID,
		"expertise":     m.Expertise,
		"session_date":  m.SessionDate,
		"session_topic": m.SessionTopic,
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Mentorship registration successful",
		"mentorship": m,
	})
}

func (s *Server) handleListMentorships(w http.ResponseWriter, r *http.Request) {
	list, err := s.donations.ListMentorships(r.Context())
	if err != nil {
		s.logger.Error("list mentorships failed", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) donationError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, donations.ErrDonationNotFound) {
		writeNotFound(w, msgDonationNotFound)
		return
	}
	s.logger.Error(logMsg, "error", err)
	writeInternalError(w)
}

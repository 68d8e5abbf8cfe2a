package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Shared messages for the resource handlers.
const (
	msgAllRequired       = "All fields are required"
	msgAllButImage       = "All fields except 'image' are required"
	msgValidEmail        = "Valid email is required"
	msgGraduationYear    = "Graduation year must be between 1900 and 2100"
	msgProfileNotFound   = "Profile not found"
	msgJobNotFound       = "Job not found"
	msgEventNotFound     = "Event not found"
	msgDonationNotFound  = "Donation initiative not found"
	msgStoryNotFound     = "Success story not found"
	msgInvalidRaisedAmnt = "Raised amount must be a valid positive number"
)

// urlID parses the {id} path parameter. Non-numeric and non-positive IDs
// cannot match a row, so callers answer them with their not-found message.
func urlID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

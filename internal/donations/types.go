package donations

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors.
var (
	ErrDonationNotFound = errors.New("donation initiative not found")
	ErrInvalidAmount    = errors.New("amount must be a valid positive number")
)

// Donation is a fundraising initiative.
type Donation struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Goal        float64   `db:"goal" json:"goal"`
	Raised      float64   `db:"raised" json:"raised"`
	Image       *string   `db:"image" json:"image"`
	Mobile      string    `db:"mobile" json:"mobile"`
	Category    string    `db:"category" json:"category"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Input is the request body for creating an initiative.
type Input struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Goal        Amount  `json:"goal" validate:"required,gt=0"`
	Image       *string `json:"image"`
	Mobile      string  `json:"mobile" validate:"required"`
	Category    string  `json:"category" validate:"required"`
}

// Contribution is the request body for adding to the raised total.
type Contribution struct {
	Raised Amount `json:"raised"`
}

// Mentorship is a mentoring session request.
type Mentorship struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Expertise    string    `db:"expertise" json:"expertise"`
	SessionDate  string    `db:"session_date" json:"session_date"`
	SessionTopic string    `db:"session_topic" json:"session_topic"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// MentorshipInput is the public sign-up form.
type MentorshipInput struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required"`
	Expertise    string `json:"expertise" validate:"required"`
	SessionDate  string `json:"sessionDate" validate:"required"`
	SessionTopic string `json:"sessionTopic" validate:"required"`
}

// Amount is a monetary value that decodes from a JSON number or a numeric
// string. Anything else decodes as zero, which positive-amount checks reject.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = Amount(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*a = Amount(v)
			return nil
		}
	}

	*a = 0
	return nil
}

// Positive returns the amount as a float64, or ErrInvalidAmount if it is not
// a finite number above zero.
func (a Amount) Positive() (float64, error) {
	v := float64(a)
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	return v, nil
}

package alumni

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Profile is an alumni directory entry. Optional fields are nil when unset.
type Profile struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          *string   `db:"email" json:"email"`
	GraduationYear *int      `db:"graduation_year" json:"graduation_year"`
	ProfilePic     *string   `db:"profile_pic" json:"profile_pic"`
	Bio            *string   `db:"bio" json:"bio"`
	JobTitle       *string   `db:"job_title" json:"job_title"`
	Company        *string   `db:"company" json:"company"`
	LinkedIn       *string   `db:"linkedin" json:"linkedin"`
	GitHub         *string   `db:"github" json:"github"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ProfileInput is the writable part of a profile, used by create and update.
type ProfileInput struct {
	Name           string  `json:"name" validate:"required"`
	Email          *string `json:"email" validate:"omitempty,email"`
	GraduationYear *int    `json:"graduation_year" validate:"omitempty,gte=1900,lte=2100"`
	ProfilePic     *string `json:"profile_pic"`
	Bio            *string `json:"bio"`
	JobTitle       *string `json:"job_title"`
	Company        *string `json:"company"`
	LinkedIn       *string `json:"linkedin"`
	GitHub         *string `json:"github"`
}

// Story is a published alumni success story.
type Story struct {
	ID             int64        `db:"id" json:"id"`
	Name           string       `db:"name" json:"name"`
	GraduationYear *int         `db:"graduation_year" json:"graduation_year"`
	Title          string       `db:"title" json:"title"`
	Image          *string      `db:"image" json:"image"`
	Summary        string       `db:"summary" json:"summary"`
	Achievements   Achievements `db:"achievements" json:"achievements"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

// StoryInput is the request body for creating a story.
type StoryInput struct {
	Name           string       `json:"name" validate:"required"`
	GraduationYear *int         `json:"graduation_year" validate:"omitempty,gte=1900,lte=2100"`
	Title          string       `json:"title" validate:"required"`
	Image          *string      `json:"image"`
	Summary        string       `json:"summary" validate:"required"`
	Achievements   Achievements `json:"achievements"`
}

// Achievements is a list stored as a JSON array. It decodes from either a
// JSON array of strings or a single string, which becomes a one-element list.
type Achievements []string

// UnmarshalJSON accepts an array, a single string, or null.
func (a *Achievements) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		*a = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("achievements must be a string or an array of strings")
	}
	*a = Achievements{single}
	return nil
}

// MarshalJSON always emits an array.
func (a Achievements) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(a))
}

// Value implements driver.Valuer.
func (a Achievements) Value() (driver.Value, error) {
	b, err := a.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for TEXT and JSONB columns.
func (a *Achievements) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = Achievements{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("scanning achievements: unsupported type %T", src)
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("scanning achievements: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	*a = list
	return nil
}

// Sentinel errors.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrStoryNotFound   = errors.New("success story not found")
)

package influxdb

import (
	"strconv"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementAuthAttempts  = "auth_attempts"
	MeasurementRegistrations = "registrations"
	MeasurementDonations     = "donations"
)

// Outcome tags for auth_attempts.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Kinds of auth attempt.
const (
	AttemptLogin   = "login"
	AttemptRefresh = "refresh"
)

// WriteAuthAttempt records one login or refresh attempt.
func (c *Client) WriteAuthAttempt(partition, kind, outcome string) {
	c.writePoint(MeasurementAuthAttempts,
		map[string]string{"partition": partition, "kind": kind, "outcome": outcome},
		map[string]any{"count": 1})
}

// WriteRegistration records a new identity and its role.
func (c *Client) WriteRegistration(partition, role string) {
	c.writePoint(MeasurementRegistrations,
		map[string]string{"partition": partition, "role": role},
		map[string]any{"count": 1})
}

// WriteDonation records a contribution to a donation initiative.
func (c *Client) WriteDonation(donationID int64, amount, raised float64) {
	c.writePoint(MeasurementDonations,
		map[string]string{"donation_id": strconv.FormatInt(donationID, 10)},
		map[string]any{"amount": amount, "raised": raised})
}

func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, c.now()))
}

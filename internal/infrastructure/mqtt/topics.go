package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configuration leaves topic_prefix empty.
const DefaultTopicPrefix = "ally"

// Event names published by the API.
const (
	EventUserRegistered      = "user.registered"
	EventAdminRegistered     = "admin.registered"
	EventAdminDeleted        = "admin.deleted"
	EventDonationRaised      = "donation.raised"
	EventMentorshipRequested = "mentorship.requested"
)

// Topics builds topic names under a configurable prefix.
//
//	topics := mqtt.Topics{Prefix: "ally"}
//	topics.Event("user.registered") // "ally/events/user/registered"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

// Event returns the topic for a dotted event name. Dots become levels so
// subscribers can use wildcards such as ally/events/donation/#.
//
// Example: ally/events/donation/raised
func (t Topics) Event(name string) string {
	return fmt.Sprintf("%s/events/%s", t.prefix(), strings.ReplaceAll(name, ".", "/"))
}

// AllEvents returns the wildcard subscription for every event.
//
// Example: ally/events/#
func (t Topics) AllEvents() string {
	return t.prefix() + "/events/#"
}

// SystemStatus returns the retained status topic used for online/offline
// and the LWT.
//
// Example: ally/system/status
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

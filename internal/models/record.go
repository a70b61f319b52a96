// Package models defines the domain types for herald.
package models

import (
	"strings"
	"time"

	"github.com/starford/herald/internal/leadtime"
)

// Record kinds assigned during discovery.
const (
	KindGroup   = "group"
	KindPerson  = "person"
	KindUnknown = "unknown"
)

// RecordHandle is a lightweight listing entry for a vault note.
type RecordHandle struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is a parsed vault note: its path, display title, tags, and
// frontmatter metadata.
type Record struct {
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Tags     []string  `json:"tags,omitempty"`
	Metadata Metadata  `json:"metadata,omitempty"`
	Checksum string    `json:"checksum"`
	ReadAt   time.Time `json:"read_at"`
}

// Kind classifies the record by its "type" field.
func (r *Record) Kind() string {
	t, _ := r.Metadata.GetString("type")
	switch strings.ToLower(t) {
	case "group", "team":
		return KindGroup
	case "person":
		return KindPerson
	default:
		return KindUnknown
	}
}

// GroupRecord is a discovered group and its direct, unresolved members.
type GroupRecord struct {
	Path         string    `json:"path"`
	DisplayName  string    `json:"display_name"`
	MemberPaths  []string  `json:"member_paths"`
	LastResolved time.Time `json:"last_resolved"`
}

// PersonPreferences is the fully defaulted notification configuration of one
// person.
type PersonPreferences struct {
	AvailableFrom           string              `json:"available_from"`
	AvailableUntil          string              `json:"available_until"`
	ReminderLeadTimes       []leadtime.LeadTime `json:"reminder_lead_times"`
	NotificationEnabled     bool                `json:"notification_enabled"`
	OverrideGlobalReminders bool                `json:"override_global_reminders"`
}

// DefaultPersonPreferences returns the preferences of a person with nothing
// configured.
func DefaultPersonPreferences() PersonPreferences {
	return PersonPreferences{
		AvailableFrom:           "09:00",
		AvailableUntil:          "17:00",
		ReminderLeadTimes:       leadtime.Defaults(),
		NotificationEnabled:     true,
		OverrideGlobalReminders: true,
	}
}

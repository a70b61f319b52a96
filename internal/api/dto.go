package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/herald/internal/assignment"
	"github.com/starford/herald/internal/device"
	"github.com/starford/herald/internal/models"
)

// GroupListResponse wraps the discovered groups.
type GroupListResponse struct {
	Groups []models.GroupRecord `json:"groups" validate:"required"`
	Total  int                  `json:"total" example:"3" validate:"required"`
}

// MembersResponse lists the direct members of a group.
type MembersResponse struct {
	Ref     string   `json:"ref" example:"[[Team Alpha]]" validate:"required"`
	Members []string `json:"members" validate:"required"`
}

// ResolveResponse lists the persons a reference expands to.
type ResolveResponse struct {
	Ref     string   `json:"ref" example:"[[Team Alpha]]" validate:"required"`
	Persons []string `json:"persons" validate:"required"`
	Groups  []string `json:"groups,omitempty"`
}

// PreferencesResponse carries a person's resolved preferences.
type PreferencesResponse struct {
	Ref         string                   `json:"ref" example:"[[people/Alice]]" validate:"required"`
	Preferences models.PersonPreferences `json:"preferences" validate:"required"`
}

// RemindersResponse lists the fire times for one anchor.
type RemindersResponse struct {
	Ref       string      `json:"ref" validate:"required"`
	Anchor    time.Time   `json:"anchor" validate:"required"`
	Reminders []time.Time `json:"reminders" validate:"required"`
}

// EligibilityRequest is the body of POST /eligibility.
type EligibilityRequest struct {
	Assignees []string `json:"assignees" example:"[[Team Alpha]]"`
}

// Validate rejects blank assignee entries.
func (r EligibilityRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Assignees, validation.Each(validation.Required)),
	)
}

// Decision is the eligibility response (aliased from the domain layer).
type Decision = assignment.Decision

// EffectiveDevicePreferences are the resolved device settings.
type EffectiveDevicePreferences struct {
	LocalIdentity          string                  `json:"local_identity,omitempty"`
	NotificationType       device.NotificationType `json:"notification_type" example:"in-app"`
	EnableNotifications    bool                    `json:"enable_notifications"`
	CheckInterval          int                     `json:"check_interval" example:"5"`
	FilterByAssignment     bool                    `json:"filter_by_assignment"`
	IncludeUnassignedTasks bool                    `json:"include_unassigned_tasks"`
	CalendarPeriod         string                  `json:"calendar_period" example:"week"`
	DisplayMode            string                  `json:"display_mode" example:"list"`
	ClickBehavior          string                  `json:"click_behavior" example:"open-note"`
}

// DevicePreferencesResponse shows the raw overrides next to the effective
// values.
type DevicePreferencesResponse struct {
	DeviceID  string                     `json:"device_id" validate:"required"`
	Overrides device.Preferences         `json:"overrides" validate:"required"`
	Effective EffectiveDevicePreferences `json:"effective" validate:"required"`
}

func devicePreferences(s *device.Store) DevicePreferencesResponse {
	identity, _ := s.LocalIdentity()
	overrides := s.Overrides()
	overrides.DeviceID = ""
	return DevicePreferencesResponse{
		DeviceID:  s.DeviceID(),
		Overrides: overrides,
		Effective: EffectiveDevicePreferences{
			LocalIdentity:          identity,
			NotificationType:       s.NotificationType(),
			EnableNotifications:    s.NotificationsEnabled(),
			CheckInterval:          s.CheckInterval(),
			FilterByAssignment:     s.FilterByAssignment(),
			IncludeUnassignedTasks: s.IncludeUnassignedTasks(),
			CalendarPeriod:         s.CalendarPeriod(),
			DisplayMode:            s.DisplayMode(),
			ClickBehavior:          s.ClickBehavior(),
		},
	}
}

// Package device stores preferences that belong to this device only and
// resolves every effective setting through device override, shared team
// default, and hardcoded fallback, in that order.
package device

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NotificationType selects the delivery channel.
type NotificationType string

// Delivery channels.
const (
	NotifyInApp  NotificationType = "in-app"
	NotifySystem NotificationType = "system"
	NotifyBoth   NotificationType = "both"
)

// Field names a single override, matching its JSON key.
type Field string

// Overridable fields.
const (
	FieldLocalIdentity          Field = "localIdentity"
	FieldNotificationType       Field = "notificationType"
	FieldEnableNotifications    Field = "enableNotifications"
	FieldCheckInterval          Field = "checkInterval"
	FieldNotificationScope      Field = "notificationScope"
	FieldFilterByAssignment     Field = "notificationScope.filterByAssignment"
	FieldIncludeUnassignedTasks Field = "notificationScope.includeUnassignedTasks"
	FieldCalendarPeriod         Field = "calendarPeriod"
	FieldDisplayMode            Field = "displayMode"
	FieldClickBehavior          Field = "clickBehavior"
)

// Fields lists every overridable field.
var Fields = []Field{
	FieldLocalIdentity,
	FieldNotificationType,
	FieldEnableNotifications,
	FieldCheckInterval,
	FieldNotificationScope,
	FieldFilterByAssignment,
	FieldIncludeUnassignedTasks,
	FieldCalendarPeriod,
	FieldDisplayMode,
	FieldClickBehavior,
}

// Hardcoded fallbacks, used when neither the device nor the team sets a value.
const (
	DefaultNotificationType       = NotifyInApp
	DefaultEnableNotifications    = true
	DefaultCheckInterval          = 5
	DefaultFilterByAssignment     = true
	DefaultIncludeUnassignedTasks = true
	DefaultCalendarPeriod         = "week"
	DefaultDisplayMode            = "list"
	DefaultClickBehavior          = "open-note"
)

// Scope decides which tasks are considered for notification.
type Scope struct {
	FilterByAssignment     *bool `json:"filterByAssignment,omitempty" yaml:"filter_by_assignment"`
	IncludeUnassignedTasks *bool `json:"includeUnassignedTasks,omitempty" yaml:"include_unassigned_tasks"`
}

func (s *Scope) empty() bool {
	return s == nil || (s.FilterByAssignment == nil && s.IncludeUnassignedTasks == nil)
}

func (s *Scope) clone() *Scope {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Preferences is the device-local override blob. Every field is optional and
// a nil field defers to the next tier.
type Preferences struct {
	DeviceID            string            `json:"deviceId,omitempty"`
	LocalIdentity       *string           `json:"localIdentity,omitempty"`
	NotificationType    *NotificationType `json:"notificationType,omitempty"`
	EnableNotifications *bool             `json:"enableNotifications,omitempty"`
	CheckInterval       *int              `json:"checkInterval,omitempty"`
	NotificationScope   *Scope            `json:"notificationScope,omitempty"`
	CalendarPeriod      *string           `json:"calendarPeriod,omitempty"`
	DisplayMode         *string           `json:"displayMode,omitempty"`
	ClickBehavior       *string           `json:"clickBehavior,omitempty"`
}

// Validate checks the values of the fields that are set.
func (p *Preferences) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.LocalIdentity, validation.NilOrNotEmpty),
		validation.Field(&p.NotificationType, validation.NilOrNotEmpty, validation.In(NotifyInApp, NotifySystem, NotifyBoth)),
		validation.Field(&p.CheckInterval, validation.NilOrNotEmpty, validation.Min(1), validation.Max(24*60)),
		validation.Field(&p.CalendarPeriod, validation.NilOrNotEmpty, validation.In("day", "week", "month")),
		validation.Field(&p.DisplayMode, validation.NilOrNotEmpty, validation.In("list", "board")),
		validation.Field(&p.ClickBehavior, validation.NilOrNotEmpty, validation.In("open-note", "open-modal")),
	)
}

func (p Preferences) clone() Preferences {
	c := p
	c.LocalIdentity = clonePtr(p.LocalIdentity)
	c.NotificationType = clonePtr(p.NotificationType)
	c.EnableNotifications = clonePtr(p.EnableNotifications)
	c.CheckInterval = clonePtr(p.CheckInterval)
	c.NotificationScope = p.NotificationScope.clone()
	c.CalendarPeriod = clonePtr(p.CalendarPeriod)
	c.DisplayMode = clonePtr(p.DisplayMode)
	c.ClickBehavior = clonePtr(p.ClickBehavior)
	return c
}

// TeamDefaults are the shared, vault-wide settings that sit between device
// overrides and the hardcoded fallbacks.
type TeamDefaults struct {
	NotificationType    *NotificationType `yaml:"notification_type"`
	EnableNotifications *bool             `yaml:"enable_notifications"`
	CheckInterval       *int              `yaml:"check_interval"`
	NotificationScope   Scope             `yaml:"notification_scope"`
	CalendarPeriod      *string           `yaml:"calendar_period"`
	DisplayMode         *string           `yaml:"display_mode"`
	ClickBehavior       *string           `yaml:"click_behavior"`
}

// Validate checks the values of the team defaults that are set.
func (t *TeamDefaults) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.NotificationType, validation.NilOrNotEmpty, validation.In(NotifyInApp, NotifySystem, NotifyBoth)),
		validation.Field(&t.CheckInterval, validation.NilOrNotEmpty, validation.Min(1), validation.Max(24*60)),
		validation.Field(&t.CalendarPeriod, validation.NilOrNotEmpty, validation.In("day", "week", "month")),
		validation.Field(&t.DisplayMode, validation.NilOrNotEmpty, validation.In("list", "board")),
		validation.Field(&t.ClickBehavior, validation.NilOrNotEmpty, validation.In("open-note", "open-modal")),
	)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

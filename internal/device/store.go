package device

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/herald/internal/apperr"
	"github.com/starford/herald/internal/localstore"
)

// StorageKey is the local store key holding the JSON override blob.
const StorageKey = "herald.device.preferences"

// Store holds this device's overrides and resolves effective settings.
// Writes persist synchronously; reads never touch the local store.
type Store struct {
	kv       localstore.KV
	team     TeamDefaults
	identity string
	logger   *slog.Logger

	mu    sync.RWMutex
	prefs Preferences
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithIdentity sets the local identity used when the device has no
// identity override.
func WithIdentity(ref string) Option {
	return func(s *Store) {
		s.identity = ref
	}
}

// NewStore loads the override blob from kv. A missing, unreadable, or
// corrupt blob starts the device with no overrides. A device id is minted on
// first use.
func NewStore(kv localstore.KV, team TeamDefaults, opts ...Option) *Store {
	s := &Store{kv: kv, team: team, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.prefs = s.load()

	if s.prefs.DeviceID == "" {
		next := s.prefs.clone()
		next.DeviceID = uuid.NewString()
		if err := s.persist(next); err != nil {
			s.logger.Warn("device: persist device id failed", slog.String("error", err.Error()))
		}
		s.prefs = next
	}
	return s
}

func (s *Store) load() Preferences {
	raw, ok, err := s.kv.Load(StorageKey)
	if err != nil {
		s.logger.Warn("device: load overrides failed, starting empty", slog.String("error", err.Error()))
		return Preferences{}
	}
	if !ok {
		return Preferences{}
	}
	var p Preferences
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("device: corrupt overrides, starting empty", slog.String("error", err.Error()))
		return Preferences{}
	}
	if err := p.Validate(); err != nil {
		s.logger.Warn("device: invalid overrides, starting empty", slog.String("error", err.Error()))
		return Preferences{DeviceID: p.DeviceID}
	}
	return p
}

func (s *Store) persist(p Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("device: encode overrides: %w", err)
	}
	if err := s.kv.Save(StorageKey, string(data)); err != nil {
		return fmt.Errorf("device: save overrides: %w", err)
	}
	return nil
}

// mutate applies fn to a copy of the overrides, persists it, and publishes
// it only when the write succeeded.
func (s *Store) mutate(fn func(p *Preferences)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.prefs.clone()
	fn(&next)
	if next.NotificationScope.empty() {
		next.NotificationScope = nil
	}
	if err := s.persist(next); err != nil {
		return err
	}
	s.prefs = next
	return nil
}

// DeviceID returns the id minted for this device.
func (s *Store) DeviceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.DeviceID
}

// Overrides returns a copy of the raw override blob.
func (s *Store) Overrides() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.clone()
}

// LocalIdentity returns the person this device is registered as. ok is
// false for an unregistered device.
func (s *Store) LocalIdentity() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := Resolve(s.prefs.LocalIdentity, nil, s.identity)
	return id, id != ""
}

// NotificationType returns the effective delivery channel.
func (s *Store) NotificationType() NotificationType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Resolve(s.prefs.NotificationType, s.team.NotificationType, DefaultNotificationType)
}

// NotificationsEnabled returns the effective master switch.
func (s *Store) NotificationsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Resolve(s.prefs.EnableNotifications, s.team.EnableNotifications, DefaultEnableNotifications)
}

// CheckInterval returns the effective check interval in minutes.
func (s *Store) CheckInterval() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Resolve(s.prefs.CheckInterval, s.team.CheckInterval, DefaultCheckInterval)
}

// CheckEvery is CheckInterval as a duration.
func (s *Store) CheckEvery() time.Duration {
	return time.Duration(s.CheckInterval()) * time.Minute
}

// FilterByAssignment reports whether only tasks assigned to the local
// identity should notify.
func (s *Store) FilterByAssignment() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var override *bool
	if s.prefs.NotificationScope != nil {
		override = s.prefs.NotificationScope.FilterByAssignment
	}
	return Resolve(override, s.team.NotificationScope.FilterByAssignment, DefaultFilterByAssignment)
}

// IncludeUnassignedTasks reports whether tasks without assignees notify
// when filtering by assignment.
func (s *Store) IncludeUnassignedTasks() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var override *bool
	if s.prefs.NotificationScope != nil {
		override = s.prefs.NotificationScope.IncludeUnassignedTasks
	}
	return Resolve(override, s.team.NotificationScope.IncludeUnassignedTasks, DefaultIncludeUnassignedTasks)
}

// CalendarPeriod returns the effective calendar period.
func (s *Store) CalendarPeriod() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Resolve(s.prefs.CalendarPeriod, s.team.CalendarPeriod, DefaultCalendarPeriod)
}

// DisplayMode returns the effective task display mode.
func (s *Store) DisplayMode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Resolve(s.prefs.DisplayMode, s.team.DisplayMode, DefaultDisplayMode)
}

// ClickBehavior returns what clicking a task does.
func (s *Store) ClickBehavior() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Resolve(s.prefs.ClickBehavior, s.team.ClickBehavior, DefaultClickBehavior)
}

// HasOverride reports whether the device sets field itself.
func (s *Store) HasOverride(field Field) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.prefs
	switch field {
	case FieldLocalIdentity:
		return p.LocalIdentity != nil
	case FieldNotificationType:
		return p.NotificationType != nil
	case FieldEnableNotifications:
		return p.EnableNotifications != nil
	case FieldCheckInterval:
		return p.CheckInterval != nil
	case FieldNotificationScope:
		return !p.NotificationScope.empty()
	case FieldFilterByAssignment:
		return p.NotificationScope != nil && p.NotificationScope.FilterByAssignment != nil
	case FieldIncludeUnassignedTasks:
		return p.NotificationScope != nil && p.NotificationScope.IncludeUnassignedTasks != nil
	case FieldCalendarPeriod:
		return p.CalendarPeriod != nil
	case FieldDisplayMode:
		return p.DisplayMode != nil
	case FieldClickBehavior:
		return p.ClickBehavior != nil
	default:
		return false
	}
}

// Update sets every non-nil field of partial as an override. Scope fields
// are merged individually. The device id cannot be changed.
func (s *Store) Update(partial Preferences) error {
	if err := partial.Validate(); err != nil {
		return fmt.Errorf("device: %w: %v", apperr.ErrInvalidArgument, err)
	}
	return s.mutate(func(p *Preferences) {
		if partial.LocalIdentity != nil {
			p.LocalIdentity = clonePtr(partial.LocalIdentity)
		}
		if partial.NotificationType != nil {
			p.NotificationType = clonePtr(partial.NotificationType)
		}
		if partial.EnableNotifications != nil {
			p.EnableNotifications = clonePtr(partial.EnableNotifications)
		}
		if partial.CheckInterval != nil {
			p.CheckInterval = clonePtr(partial.CheckInterval)
		}
		if partial.NotificationScope != nil {
			mergeScope(p, *partial.NotificationScope)
		}
		if partial.CalendarPeriod != nil {
			p.CalendarPeriod = clonePtr(partial.CalendarPeriod)
		}
		if partial.DisplayMode != nil {
			p.DisplayMode = clonePtr(partial.DisplayMode)
		}
		if partial.ClickBehavior != nil {
			p.ClickBehavior = clonePtr(partial.ClickBehavior)
		}
	})
}

// UpdateScope merges the non-nil scope fields into the overrides.
func (s *Store) UpdateScope(partial Scope) error {
	return s.mutate(func(p *Preferences) {
		mergeScope(p, partial)
	})
}

// ClearOverride removes one override so the field falls back to the team
// default.
func (s *Store) ClearOverride(field Field) error {
	var reset func(p *Preferences)
	switch field {
	case FieldLocalIdentity:
		reset = func(p *Preferences) { p.LocalIdentity = nil }
	case FieldNotificationType:
		reset = func(p *Preferences) { p.NotificationType = nil }
	case FieldEnableNotifications:
		reset = func(p *Preferences) { p.EnableNotifications = nil }
	case FieldCheckInterval:
		reset = func(p *Preferences) { p.CheckInterval = nil }
	case FieldNotificationScope:
		reset = func(p *Preferences) { p.NotificationScope = nil }
	case FieldFilterByAssignment:
		reset = func(p *Preferences) {
			if p.NotificationScope != nil {
				p.NotificationScope.FilterByAssignment = nil
			}
		}
	case FieldIncludeUnassignedTasks:
		reset = func(p *Preferences) {
			if p.NotificationScope != nil {
				p.NotificationScope.IncludeUnassignedTasks = nil
			}
		}
	case FieldCalendarPeriod:
		reset = func(p *Preferences) { p.CalendarPeriod = nil }
	case FieldDisplayMode:
		reset = func(p *Preferences) { p.DisplayMode = nil }
	case FieldClickBehavior:
		reset = func(p *Preferences) { p.ClickBehavior = nil }
	default:
		return fmt.Errorf("device: unknown field %q: %w", field, apperr.ErrInvalidArgument)
	}
	return s.mutate(reset)
}

// ClearAll removes every override. The device id is kept.
func (s *Store) ClearAll() error {
	return s.mutate(func(p *Preferences) {
		*p = Preferences{DeviceID: p.DeviceID}
	})
}

func mergeScope(p *Preferences, partial Scope) {
	if p.NotificationScope == nil {
		p.NotificationScope = &Scope{}
	}
	if partial.FilterByAssignment != nil {
		p.NotificationScope.FilterByAssignment = clonePtr(partial.FilterByAssignment)
	}
	if partial.IncludeUnassignedTasks != nil {
		p.NotificationScope.IncludeUnassignedTasks = clonePtr(partial.IncludeUnassignedTasks)
	}
}

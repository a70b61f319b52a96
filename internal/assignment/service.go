// Package assignment ties the group registry, person preferences, device
// preferences and the eligibility predicate together for the outer surfaces.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/herald/internal/apperr"
	"github.com/starford/herald/internal/device"
	"github.com/starford/herald/internal/eligibility"
	"github.com/starford/herald/internal/groups"
	"github.com/starford/herald/internal/leadtime"
	"github.com/starford/herald/internal/models"
	"github.com/starford/herald/internal/parser"
	"github.com/starford/herald/internal/people"
	"github.com/starford/herald/internal/records"
)

// Decision reasons.
const (
	ReasonDisabled    = "notifications-disabled"
	ReasonUnfiltered  = "not-filtered"
	ReasonNoIdentity  = "no-identity"
	ReasonUnassigned  = "unassigned"
	ReasonAssigned    = "assigned"
	ReasonNotAssigned = "not-assigned"
)

// Records is a record source whose cached entries can be dropped.
type Records interface {
	records.Source
	Invalidate(path string)
}

// Decision is the outcome of an eligibility check.
type Decision struct {
	Path      string      `json:"path,omitempty"`
	Assignees []string    `json:"assignees"`
	Identity  string      `json:"identity,omitempty"`
	Eligible  bool        `json:"eligible"`
	Reason    string      `json:"reason"`
	Due       *time.Time  `json:"due,omitempty"`
	Reminders []time.Time `json:"reminders,omitempty"`
}

// Service is the entry point used by the HTTP API, the MCP tools and the
// watcher.
type Service struct {
	src    Records
	groups *groups.Registry
	people *people.Resolver
	device *device.Store
	global []leadtime.LeadTime
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithGlobalLeadTimes sets the vault-wide lead times merged into persons
// that do not override them.
func WithGlobalLeadTimes(lts []leadtime.LeadTime) Option {
	return func(s *Service) {
		s.global = append([]leadtime.LeadTime(nil), lts...)
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a new assignment service.
func NewService(src Records, reg *groups.Registry, prefs *people.Resolver, dev *device.Store, opts ...Option) *Service {
	s := &Service{
		src:    src,
		groups: reg,
		people: prefs,
		device: dev,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Device returns the device preference store.
func (s *Service) Device() *device.Store { return s.device }

// Groups returns the last discovery snapshot.
func (s *Service) Groups() []models.GroupRecord { return s.groups.Groups() }

// GroupMembers returns the direct members of a group.
func (s *Service) GroupMembers(ref string) ([]string, error) {
	if !s.groups.IsGroup(ref) {
		return nil, fmt.Errorf("assignment: group %q: %w", ref, apperr.ErrNotFound)
	}
	return s.groups.GroupMembers(ref), nil
}

// ResolveAssignee expands ref into person keys.
func (s *Service) ResolveAssignee(ref string) []string { return s.groups.ResolveAssignee(ref) }

// GroupsContaining returns the groups a person belongs to.
func (s *Service) GroupsContaining(ref string) []models.GroupRecord {
	return s.groups.GroupsContaining(ref)
}

// Preferences returns the resolved preferences of a person.
func (s *Service) Preferences(ref string) models.PersonPreferences { return s.people.Preferences(ref) }

// Reminders returns the moments a person should be reminded of anchor.
func (s *Service) Reminders(_ context.Context, personRef string, anchor time.Time) []time.Time {
	return people.ReminderTimes(s.people.Preferences(personRef), anchor, s.global)
}

// Notify evaluates the device settings and the eligibility predicate for a
// list of assignee references.
func (s *Service) Notify(_ context.Context, assignees []string) Decision {
	d := Decision{Assignees: nonNil(assignees)}
	d.Identity, _ = s.device.LocalIdentity()

	switch {
	case !s.device.NotificationsEnabled():
		d.Reason = ReasonDisabled
		return d
	case !s.device.FilterByAssignment():
		d.Eligible, d.Reason = true, ReasonUnfiltered
		return d
	}

	d.Eligible = eligibility.ShouldNotify(assignees, d.Identity, s.device.IncludeUnassignedTasks(), s.groups)
	switch {
	case parser.Normalize(d.Identity) == "":
		d.Reason = ReasonNoIdentity
	case len(assignees) == 0:
		d.Reason = ReasonUnassigned
	case d.Eligible:
		d.Reason = ReasonAssigned
	default:
		d.Reason = ReasonNotAssigned
	}
	return d
}

// TaskDecision reads a task note and evaluates it. When the task is
// eligible, has a due date and the device has an identity, the identity's
// reminder times for the due date are included.
func (s *Service) TaskDecision(ctx context.Context, taskPath string) (Decision, error) {
	rec, err := s.src.Read(taskPath)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Decision{}, err
		}
		return Decision{}, fmt.Errorf("assignment: read task: %w", err)
	}

	d := s.Notify(ctx, eligibility.FromMetadata(rec.Metadata))
	d.Path = rec.Path
	if due, ok := parseDue(rec.Metadata); ok {
		d.Due = &due
		if d.Eligible && d.Identity != "" {
			d.Reminders = s.Reminders(ctx, d.Identity, due)
		}
	}
	return d, nil
}

// Refresh re-runs group discovery and drops cached person preferences.
func (s *Service) Refresh(ctx context.Context) ([]models.GroupRecord, error) {
	s.people.ClearCache()
	gs, err := s.groups.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("assignment: refresh: %w", err)
	}
	return gs, nil
}

// RecordChanged drops every cache entry derived from the note at path.
func (s *Service) RecordChanged(notePath string) {
	s.src.Invalidate(notePath)
	s.people.Invalidate(notePath)
	s.logger.Debug("assignment: record changed", slog.String("path", notePath))
}

func parseDue(md models.Metadata) (time.Time, bool) {
	raw, ok := md.Raw("due")
	if !ok {
		return time.Time{}, false
	}
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		v = strings.TrimSpace(v)
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
		if t, err := time.ParseInLocation(time.DateOnly, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

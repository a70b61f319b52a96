// Package groups discovers group records in the vault and expands an
// assignee reference into the set of concrete persons it names.
package groups

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/starford/herald/internal/models"
	"github.com/starford/herald/internal/parser"
	"github.com/starford/herald/internal/records"
)

// MaxDepth bounds group nesting. Members deeper than this are not expanded.
const MaxDepth = 10

// snapshot is the result of one discovery pass. It is never mutated after
// being published.
type snapshot struct {
	groups  map[string]models.GroupRecord // normalized key -> group
	people  map[string]string             // normalized key -> note path
	ordered []models.GroupRecord
}

// Registry resolves person and group references against a record source.
// It is safe for concurrent use: discovery publishes a new snapshot with a
// single pointer swap.
type Registry struct {
	src    records.Source
	filter records.Filter
	logger *slog.Logger
	snap   atomic.Pointer[snapshot]
}

// Option configures a Registry.
type Option func(*Registry)

// WithFilter limits discovery to a folder and/or tag.
func WithFilter(f records.Filter) Option {
	return func(r *Registry) {
		r.filter = f
	}
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates a registry over src. Call Discover to populate the cache;
// resolution works without it by reading records on demand.
func New(src records.Source, opts ...Option) *Registry {
	r := &Registry{src: src, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.snap.Store(&snapshot{groups: map[string]models.GroupRecord{}, people: map[string]string{}})
	return r
}

// Discover scans the configured collection, rebuilds the membership cache
// wholesale, and returns the discovered groups ordered by display name.
// Records that fail to read are skipped.
func (r *Registry) Discover(ctx context.Context) ([]models.GroupRecord, error) {
	handles, err := r.src.List(r.filter)
	if err != nil {
		return nil, fmt.Errorf("groups: discover: %w", err)
	}

	now := time.Now()
	next := &snapshot{
		groups: make(map[string]models.GroupRecord),
		people: make(map[string]string),
	}
	for _, h := range handles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.src.Read(h.Path)
		if err != nil {
			r.logger.Debug("groups: skip unreadable record", slog.String("path", h.Path), slog.String("error", err.Error()))
			continue
		}
		key := parser.Normalize(h.Path)
		switch rec.Kind() {
		case models.KindGroup:
			if _, dup := next.groups[key]; dup {
				r.logger.Warn("groups: duplicate group name", slog.String("path", h.Path))
				continue
			}
			next.groups[key] = models.GroupRecord{
				Path:         h.Path,
				DisplayName:  rec.Title,
				MemberPaths:  memberRefs(rec),
				LastResolved: now,
			}
		case models.KindPerson:
			if _, dup := next.people[key]; !dup {
				next.people[key] = h.Path
			}
		}
	}

	next.ordered = make([]models.GroupRecord, 0, len(next.groups))
	for _, g := range next.groups {
		next.ordered = append(next.ordered, g)
	}
	sort.Slice(next.ordered, func(i, j int) bool {
		a, b := next.ordered[i], next.ordered[j]
		if !strings.EqualFold(a.DisplayName, b.DisplayName) {
			return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
		}
		return a.Path < b.Path
	})

	r.snap.Store(next)
	r.logger.Info("groups: discovered",
		slog.Int("groups", len(next.groups)),
		slog.Int("people", len(next.people)))
	return r.Groups(), nil
}

// Groups returns the groups found by the last discovery pass.
func (r *Registry) Groups() []models.GroupRecord {
	s := r.snap.Load()
	out := make([]models.GroupRecord, len(s.ordered))
	for i, g := range s.ordered {
		g.MemberPaths = append([]string(nil), g.MemberPaths...)
		out[i] = g
	}
	return out
}

// People returns the paths of person records classified by the last
// discovery pass, sorted.
func (r *Registry) People() []string {
	s := r.snap.Load()
	out := make([]string, 0, len(s.people))
	for _, p := range s.people {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// IsGroup reports whether ref points at a record of type group or team.
func (r *Registry) IsGroup(ref string) bool {
	if _, ok := r.snap.Load().groups[parser.Normalize(ref)]; ok {
		return true
	}
	rec := r.lookup(ref)
	return rec != nil && rec.Kind() == models.KindGroup
}

// IsPerson reports whether ref points at a record of type person.
func (r *Registry) IsPerson(ref string) bool {
	if _, ok := r.snap.Load().people[parser.Normalize(ref)]; ok {
		return true
	}
	rec := r.lookup(ref)
	return rec != nil && rec.Kind() == models.KindPerson
}

// ResolveAssignee expands ref into the normalized keys of the persons it
// names. A group is expanded recursively; anything else, including unknown
// references, resolves to itself. The result is sorted and duplicate-free.
func (r *Registry) ResolveAssignee(ref string) []string {
	key := parser.Normalize(ref)
	if key == "" {
		return nil
	}
	if !r.IsGroup(ref) {
		return []string{key}
	}
	persons := r.resolveGroupToPersons(ref, make(map[string]struct{}), 0)
	sort.Strings(persons)
	return persons
}

// GroupMembers returns the direct, unexpanded members of a group for display.
func (r *Registry) GroupMembers(ref string) []string {
	return append([]string(nil), r.directMembers(ref)...)
}

// GroupsContaining returns the discovered groups whose expanded membership
// includes the person ref.
func (r *Registry) GroupsContaining(ref string) []models.GroupRecord {
	key := parser.Normalize(ref)
	var out []models.GroupRecord
	for _, g := range r.Groups() {
		for _, p := range r.ResolveAssignee(g.Path) {
			if p == key {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// resolveGroupToPersons walks a group depth-first. visited is shared by the
// whole call so cycles terminate and diamonds are walked once.
func (r *Registry) resolveGroupToPersons(groupRef string, visited map[string]struct{}, depth int) []string {
	key := parser.Normalize(groupRef)
	if _, seen := visited[key]; seen {
		r.logger.Debug("groups: cycle truncated", slog.String("group", key))
		return nil
	}
	if depth >= MaxDepth {
		r.logger.Debug("groups: depth limit reached", slog.String("group", key), slog.Int("depth", depth))
		return nil
	}
	visited[key] = struct{}{}

	var out []string
	for _, m := range r.directMembers(groupRef) {
		mk := parser.Normalize(m)
		if mk == "" {
			continue
		}
		if r.IsGroup(m) {
			out = append(out, r.resolveGroupToPersons(m, visited, depth+1)...)
			continue
		}
		out = append(out, mk)
	}
	return dedupe(out)
}

// directMembers prefers the discovery cache and falls back to reading the
// record. Unreadable or non-group records have no members.
func (r *Registry) directMembers(ref string) []string {
	if g, ok := r.snap.Load().groups[parser.Normalize(ref)]; ok {
		return g.MemberPaths
	}
	rec := r.lookup(ref)
	if rec == nil || rec.Kind() != models.KindGroup {
		return nil
	}
	return memberRefs(rec)
}

func (r *Registry) lookup(ref string) *models.Record {
	p, ok := r.src.Locate(ref)
	if !ok {
		return nil
	}
	rec, err := r.src.Read(p)
	if err != nil {
		r.logger.Debug("groups: read failed", slog.String("path", p), slog.String("error", err.Error()))
		return nil
	}
	return rec
}

// memberRefs extracts link targets from the members field. Non-string
// entries are dropped.
func memberRefs(rec *models.Record) []string {
	raw, _ := rec.Metadata.GetStringList("members")
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		if t := parser.LinkTarget(m); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

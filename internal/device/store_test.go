package device

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/herald/internal/apperr"
	"github.com/starford/herald/internal/testutil"
)

// memKV is an in-memory localstore.KV.
type memKV struct {
	data    map[string]string
	loadErr error
	saveErr error
	saves   int
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Load(key string) (string, bool, error) {
	if m.loadErr != nil {
		return "", false, m.loadErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Save(key, value string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data[key] = value
	return nil
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolve(t *testing.T) {
	if got := Resolve(nil, nil, 5); got != 5 {
		t.Errorf("fallback = %d", got)
	}
	if got := Resolve(nil, Ptr(10), 5); got != 10 {
		t.Errorf("shared = %d", got)
	}
	if got := Resolve(Ptr(3), Ptr(10), 5); got != 3 {
		t.Errorf("override = %d", got)
	}
	if got := Resolve(Ptr(false), Ptr(true), true); got {
		t.Error("false override should win")
	}
}

func TestCheckInterval_OverrideChain(t *testing.T) {
	kv := newMemKV()
	team := TeamDefaults{CheckInterval: Ptr(10)}
	s := NewStore(kv, team, quiet())

	if got := s.CheckInterval(); got != 10 {
		t.Fatalf("CheckInterval = %d, want team default 10", got)
	}
	if s.HasOverride(FieldCheckInterval) {
		t.Error("no override expected yet")
	}

	if err := s.Update(Preferences{CheckInterval: Ptr(3)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := s.CheckInterval(); got != 3 {
		t.Errorf("CheckInterval = %d, want 3", got)
	}
	if !s.HasOverride(FieldCheckInterval) {
		t.Error("override expected")
	}
	if *team.CheckInterval != 10 {
		t.Error("team default must not change")
	}

	if err := s.ClearOverride(FieldCheckInterval); err != nil {
		t.Fatalf("ClearOverride: %v", err)
	}
	if got := s.CheckInterval(); got != 10 {
		t.Errorf("after clear = %d, want 10", got)
	}

	bare := NewStore(newMemKV(), TeamDefaults{}, quiet())
	if got := bare.CheckInterval(); got != DefaultCheckInterval {
		t.Errorf("fallback = %d, want %d", got, DefaultCheckInterval)
	}
}

func TestFallbacks(t *testing.T) {
	s := NewStore(newMemKV(), TeamDefaults{}, quiet())
	if s.NotificationType() != NotifyInApp || !s.NotificationsEnabled() {
		t.Error("notification fallbacks wrong")
	}
	if !s.FilterByAssignment() || !s.IncludeUnassignedTasks() {
		t.Error("scope fallbacks wrong")
	}
	if s.CalendarPeriod() != "week" || s.DisplayMode() != "list" || s.ClickBehavior() != "open-note" {
		t.Error("feature fallbacks wrong")
	}
	if _, ok := s.LocalIdentity(); ok {
		t.Error("unregistered device should have no identity")
	}
	if s.CheckEvery().Minutes() != 5 {
		t.Errorf("CheckEvery = %v", s.CheckEvery())
	}
}

func TestScopeOverrides(t *testing.T) {
	team := TeamDefaults{NotificationScope: Scope{IncludeUnassignedTasks: Ptr(false)}}
	s := NewStore(newMemKV(), team, quiet())
	if s.IncludeUnassignedTasks() {
		t.Fatal("team default false expected")
	}

	if err := s.UpdateScope(Scope{FilterByAssignment: Ptr(false)}); err != nil {
		t.Fatal(err)
	}
	if s.FilterByAssignment() || s.IncludeUnassignedTasks() {
		t.Error("filter override false, include still team false")
	}
	if err := s.Update(Preferences{NotificationScope: &Scope{IncludeUnassignedTasks: Ptr(true)}}); err != nil {
		t.Fatal(err)
	}
	if s.FilterByAssignment() || !s.IncludeUnassignedTasks() {
		t.Error("scope fields should merge, not replace")
	}

	_ = s.ClearOverride(FieldFilterByAssignment)
	if !s.FilterByAssignment() || !s.HasOverride(FieldNotificationScope) {
		t.Error("clearing one scope field should keep the other")
	}
	_ = s.ClearOverride(FieldIncludeUnassignedTasks)
	if s.HasOverride(FieldNotificationScope) {
		t.Error("empty scope should not count as an override")
	}
}

func TestIdentityTiers(t *testing.T) {
	s := NewStore(newMemKV(), TeamDefaults{}, quiet(), WithIdentity("[[people/Alice]]"))
	if id, ok := s.LocalIdentity(); !ok || id != "[[people/Alice]]" {
		t.Errorf("identity = %q, %v", id, ok)
	}
	_ = s.Update(Preferences{LocalIdentity: Ptr("Bob")})
	if id, _ := s.LocalIdentity(); id != "Bob" {
		t.Errorf("identity = %q, want Bob", id)
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	db := testutil.TestDB(t)
	s := NewStore(db, TeamDefaults{}, quiet())
	id := s.DeviceID()
	if id == "" {
		t.Fatal("device id not minted")
	}
	if err := s.Update(Preferences{NotificationType: Ptr(NotifySystem), DisplayMode: Ptr("board")}); err != nil {
		t.Fatal(err)
	}

	again := NewStore(db, TeamDefaults{}, quiet())
	if again.DeviceID() != id {
		t.Errorf("device id = %q, want %q", again.DeviceID(), id)
	}
	if again.NotificationType() != NotifySystem || again.DisplayMode() != "board" {
		t.Error("overrides not reloaded")
	}
}

func TestCorruptBlobResets(t *testing.T) {
	kv := newMemKV()
	kv.data[StorageKey] = "{not json"
	s := NewStore(kv, TeamDefaults{CheckInterval: Ptr(7)}, quiet())
	if s.CheckInterval() != 7 {
		t.Errorf("CheckInterval = %d, want team 7", s.CheckInterval())
	}
	if s.HasOverride(FieldCheckInterval) {
		t.Error("corrupt blob should yield no overrides")
	}

	invalid := newMemKV()
	invalid.data[StorageKey] = `{"deviceId":"d1","checkInterval":-4}`
	s = NewStore(invalid, TeamDefaults{}, quiet())
	if s.HasOverride(FieldCheckInterval) || s.DeviceID() != "d1" {
		t.Error("invalid values should reset overrides but keep device id")
	}
}

func TestUnreadableStoreResets(t *testing.T) {
	kv := newMemKV()
	kv.loadErr = errors.New("disk on fire")
	s := NewStore(kv, TeamDefaults{}, quiet())
	if s.CheckInterval() != DefaultCheckInterval {
		t.Error("unreadable store should start empty")
	}
}

func TestUpdate_Validation(t *testing.T) {
	s := NewStore(newMemKV(), TeamDefaults{}, quiet())
	bad := []Preferences{
		{NotificationType: Ptr(NotificationType("carrier-pigeon"))},
		{CheckInterval: Ptr(0)},
		{CalendarPeriod: Ptr("decade")},
		{LocalIdentity: Ptr("")},
	}
	for _, p := range bad {
		if err := s.Update(p); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("Update(%+v) err = %v, want ErrInvalidArgument", p, err)
		}
	}
}

func TestUpdate_SaveFailureKeepsState(t *testing.T) {
	kv := newMemKV()
	s := NewStore(kv, TeamDefaults{}, quiet())
	kv.saveErr = errors.New("read-only")
	if err := s.Update(Preferences{CheckInterval: Ptr(9)}); err == nil {
		t.Fatal("expected save error")
	}
	if s.HasOverride(FieldCheckInterval) {
		t.Error("failed write should not be applied")
	}
}

func TestClearAll(t *testing.T) {
	kv := newMemKV()
	s := NewStore(kv, TeamDefaults{}, quiet())
	id := s.DeviceID()
	_ = s.Update(Preferences{CheckInterval: Ptr(2), EnableNotifications: Ptr(false)})
	if err := s.ClearAll(); err != nil {
		t.Fatal(err)
	}
	for _, f := range Fields {
		if s.HasOverride(f) {
			t.Errorf("%s still overridden", f)
		}
	}
	if s.DeviceID() != id {
		t.Error("ClearAll should keep the device id")
	}
	if strings.Contains(kv.data[StorageKey], "checkInterval") {
		t.Errorf("blob = %s", kv.data[StorageKey])
	}
}

func TestClearOverride_UnknownField(t *testing.T) {
	s := NewStore(newMemKV(), TeamDefaults{}, quiet())
	if err := s.ClearOverride("bogus"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("err = %v", err)
	}
}

func TestOverridesReturnsCopy(t *testing.T) {
	s := NewStore(newMemKV(), TeamDefaults{}, quiet())
	_ = s.Update(Preferences{CheckInterval: Ptr(4)})
	o := s.Overrides()
	*o.CheckInterval = 99
	if s.CheckInterval() != 4 {
		t.Error("mutating Overrides() leaked into the store")
	}
}

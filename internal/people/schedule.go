package people

import (
	"sort"
	"time"

	"github.com/starford/herald/internal/leadtime"
	"github.com/starford/herald/internal/models"
)

// EffectiveLeadTimes combines a person's lead times with the vault-wide
// rule set. With OverrideGlobalReminders the person's list replaces global;
// otherwise both are merged, deduplicated by length, longest first.
func EffectiveLeadTimes(p models.PersonPreferences, global []leadtime.LeadTime) []leadtime.LeadTime {
	if p.OverrideGlobalReminders || len(global) == 0 {
		return append([]leadtime.LeadTime(nil), p.ReminderLeadTimes...)
	}

	seen := make(map[int64]struct{})
	var out []leadtime.LeadTime
	for _, lt := range append(append([]leadtime.LeadTime(nil), global...), p.ReminderLeadTimes...) {
		if !lt.Valid() {
			continue
		}
		ms := lt.Milliseconds()
		if _, dup := seen[ms]; dup {
			continue
		}
		seen[ms] = struct{}{}
		out = append(out, lt)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Milliseconds() > out[j].Milliseconds()
	})
	return out
}

// ReminderTimes returns when a person should be reminded of anchor.
// Minute and hour lead times count back from the anchor exactly. Day and
// week lead times count back in calendar days and fire at AvailableFrom on
// that date, in the anchor's location. Results are ascending and unique.
func ReminderTimes(p models.PersonPreferences, anchor time.Time, global []leadtime.LeadTime) []time.Time {
	if !p.NotificationEnabled {
		return nil
	}
	from := clockMinutes(p.AvailableFrom)

	var out []time.Time
	for _, lt := range EffectiveLeadTimes(p, global) {
		var t time.Time
		switch lt.Unit {
		case leadtime.Days:
			t = pin(anchor.AddDate(0, 0, -lt.Value), from)
		case leadtime.Weeks:
			t = pin(anchor.AddDate(0, 0, -7*lt.Value), from)
		default:
			t = anchor.Add(-lt.Duration())
		}
		if !containsTime(out, t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// WithinWindow reports whether t's wall-clock time falls inside the
// person's availability window. A window whose end precedes its start wraps
// past midnight; equal bounds mean always available.
func WithinWindow(p models.PersonPreferences, t time.Time) bool {
	from, until := clockMinutes(p.AvailableFrom), clockMinutes(p.AvailableUntil)
	m := t.Hour()*60 + t.Minute()
	switch {
	case from == until:
		return true
	case from < until:
		return m >= from && m < until
	default:
		return m >= from || m < until
	}
}

func pin(day time.Time, minutes int) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, minutes/60, minutes%60, 0, 0, day.Location())
}

func containsTime(ts []time.Time, t time.Time) bool {
	for _, x := range ts {
		if x.Equal(t) {
			return true
		}
	}
	return false
}

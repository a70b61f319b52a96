// Package people resolves per-person notification preferences from person
// records and turns lead times into concrete reminder moments.
package people

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/herald/internal/leadtime"
	"github.com/starford/herald/internal/models"
)

// Frontmatter keys read from person records.
const (
	KeyAvailableFrom           = "availableFrom"
	KeyAvailableUntil          = "availableUntil"
	KeyLegacyReminderTime      = "reminderTime"
	KeyReminderLeadTimes       = "reminderLeadTimes"
	KeyNotificationEnabled     = "notificationEnabled"
	KeyOverrideGlobalReminders = "overrideGlobalReminders"
)

const minutesPerDay = 24 * 60

// ParsePreferences builds fully defaulted preferences from a person's
// metadata. A nil map yields the defaults.
func ParsePreferences(md models.Metadata) models.PersonPreferences {
	p := models.DefaultPersonPreferences()

	if v, ok := parseClock(md[KeyAvailableFrom]); ok {
		p.AvailableFrom = v
	}
	if v, ok := parseClock(md[KeyAvailableUntil]); ok {
		p.AvailableUntil = v
	}
	if !md.Has(KeyAvailableFrom) && !md.Has(KeyAvailableUntil) {
		if v, ok := parseClock(md[KeyLegacyReminderTime]); ok {
			p.AvailableFrom = v
		}
	}

	if lts, ok := parseLeadTimes(md[KeyReminderLeadTimes]); ok {
		p.ReminderLeadTimes = lts
	}
	if v, ok := md.GetBool(KeyNotificationEnabled); ok {
		p.NotificationEnabled = v
	}
	if v, ok := md.GetBool(KeyOverrideGlobalReminders); ok {
		p.OverrideGlobalReminders = v
	}
	return p
}

// parseClock accepts "HH:MM" (or "H:MM") and minutes since midnight in
// [0, 1439]. Some YAML encoders turn a bare 08:30 into 510, so both forms
// must land on the same canonical "08:30".
func parseClock(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return parseHHMM(s)
	}
	n, ok := models.Int(v)
	if !ok || n < 0 || n >= minutesPerDay {
		return "", false
	}
	return formatClock(n), true
}

func parseHHMM(s string) (string, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return "", false
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return "", false
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return "", false
	}
	return formatClock(hh*60 + mm), true
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// clockMinutes converts a canonical "HH:MM" to minutes since midnight.
func clockMinutes(s string) int {
	v, ok := parseHHMM(s)
	if !ok {
		return 0
	}
	h, _ := strconv.Atoi(v[:2])
	m, _ := strconv.Atoi(v[3:])
	return h*60 + m
}

// parseLeadTimes accepts only a non-empty list where every entry is a map
// with a positive integral value and a known unit. One bad entry rejects the
// whole list; valid siblings are not salvaged.
func parseLeadTimes(v any) ([]leadtime.LeadTime, bool) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	out := make([]leadtime.LeadTime, 0, len(items))
	for _, item := range items {
		entry, ok := asMap(item)
		if !ok {
			return nil, false
		}
		value, ok := models.Int(entry["value"])
		if !ok || value <= 0 {
			return nil, false
		}
		unitStr, ok := entry["unit"].(string)
		if !ok {
			return nil, false
		}
		unit, ok := leadtime.ParseUnit(unitStr)
		if !ok {
			return nil, false
		}
		out = append(out, leadtime.LeadTime{Value: value, Unit: unit})
	}
	return out, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case models.Metadata:
		return m, true
	default:
		return nil, false
	}
}

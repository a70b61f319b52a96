package people

import (
	"reflect"
	"testing"
	"time"

	"github.com/starford/herald/internal/leadtime"
	"github.com/starford/herald/internal/models"
)

func TestEffectiveLeadTimes_Override(t *testing.T) {
	p := models.DefaultPersonPreferences()
	global := []leadtime.LeadTime{{Value: 2, Unit: leadtime.Hours}}
	if got := EffectiveLeadTimes(p, global); !reflect.DeepEqual(got, leadtime.Defaults()) {
		t.Errorf("override = %v, want person's list", got)
	}
}

func TestEffectiveLeadTimes_Union(t *testing.T) {
	p := models.DefaultPersonPreferences()
	p.OverrideGlobalReminders = false
	global := []leadtime.LeadTime{
		{Value: 2, Unit: leadtime.Hours},
		{Value: 24, Unit: leadtime.Hours}, // same length as 1 day
	}
	got := EffectiveLeadTimes(p, global)
	want := []leadtime.LeadTime{
		{Value: 24, Unit: leadtime.Hours},
		{Value: 2, Unit: leadtime.Hours},
		{Value: 15, Unit: leadtime.Minutes},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("union = %v, want %v", got, want)
	}
}

func TestReminderTimes(t *testing.T) {
	loc := time.FixedZone("test", 2*3600)
	anchor := time.Date(2026, 3, 10, 14, 0, 0, 0, loc)
	p := models.DefaultPersonPreferences()
	p.AvailableFrom = "08:30"
	p.ReminderLeadTimes = []leadtime.LeadTime{
		{Value: 15, Unit: leadtime.Minutes},
		{Value: 1, Unit: leadtime.Days},
		{Value: 1, Unit: leadtime.Weeks},
	}

	got := ReminderTimes(p, anchor, nil)
	want := []time.Time{
		time.Date(2026, 3, 3, 8, 30, 0, 0, loc),
		time.Date(2026, 3, 9, 8, 30, 0, 0, loc),
		time.Date(2026, 3, 10, 13, 45, 0, 0, loc),
	}
	if len(got) != len(want) {
		t.Fatalf("times = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("times[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReminderTimes_Disabled(t *testing.T) {
	p := models.DefaultPersonPreferences()
	p.NotificationEnabled = false
	if got := ReminderTimes(p, time.Now(), nil); got != nil {
		t.Errorf("disabled person got %v", got)
	}
}

func TestWithinWindow(t *testing.T) {
	day := func(h, m int) time.Time { return time.Date(2026, 1, 1, h, m, 0, 0, time.UTC) }
	p := models.DefaultPersonPreferences()
	if !WithinWindow(p, day(9, 0)) || WithinWindow(p, day(17, 0)) || WithinWindow(p, day(8, 59)) {
		t.Error("09:00-17:00 window boundaries wrong")
	}

	night := p
	night.AvailableFrom, night.AvailableUntil = "22:00", "06:00"
	if !WithinWindow(night, day(23, 30)) || !WithinWindow(night, day(5, 0)) || WithinWindow(night, day(12, 0)) {
		t.Error("overnight window wrong")
	}
}

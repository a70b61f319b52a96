// Package leadtime converts reminder lead times into milliseconds and
// negative ISO-8601 duration tokens.
package leadtime

import (
	"fmt"
	"strings"
	"time"
)

// Unit is the granularity of a lead time.
type Unit string

// Supported units.
const (
	Minutes Unit = "minutes"
	Hours   Unit = "hours"
	Days    Unit = "days"
	Weeks   Unit = "weeks"
)

var unitMillis = map[Unit]int64{
	Minutes: 60_000,
	Hours:   3_600_000,
	Days:    86_400_000,
	Weeks:   604_800_000,
}

// LeadTime is how long before an anchor moment a reminder should fire.
type LeadTime struct {
	Value int  `json:"value" yaml:"value"`
	Unit  Unit `json:"unit" yaml:"unit"`
}

// ParseUnit reports whether s names one of the four supported units.
func ParseUnit(s string) (Unit, bool) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	_, ok := unitMillis[u]
	return u, ok
}

// Defaults returns the lead times applied when a person has none configured:
// one day and fifteen minutes before the anchor.
func Defaults() []LeadTime {
	return []LeadTime{
		{Value: 1, Unit: Days},
		{Value: 15, Unit: Minutes},
	}
}

// Valid reports whether the lead time has a positive value and a known unit.
func (lt LeadTime) Valid() bool {
	_, ok := unitMillis[lt.Unit]
	return ok && lt.Value > 0
}

// Milliseconds returns value × unit length.
func (lt LeadTime) Milliseconds() int64 {
	return int64(lt.Value) * unitMillis[lt.Unit]
}

// Duration is Milliseconds as a time.Duration.
func (lt LeadTime) Duration() time.Duration {
	return time.Duration(lt.Milliseconds()) * time.Millisecond
}

// SubDay reports whether the unit is finer than a day.
func (lt LeadTime) SubDay() bool {
	return lt.Unit == Minutes || lt.Unit == Hours
}

// ISODuration returns the signed duration token, e.g. -P1D or -PT15M.
// The T designator appears only for sub-day units.
func (lt LeadTime) ISODuration() string {
	switch lt.Unit {
	case Weeks:
		return fmt.Sprintf("-P%dW", lt.Value)
	case Days:
		return fmt.Sprintf("-P%dD", lt.Value)
	case Hours:
		return fmt.Sprintf("-PT%dH", lt.Value)
	default:
		return fmt.Sprintf("-PT%dM", lt.Value)
	}
}

// String formats the lead time for logs, e.g. "15 minutes".
func (lt LeadTime) String() string {
	return fmt.Sprintf("%d %s", lt.Value, lt.Unit)
}

package leadtime

import (
	"testing"
	"time"
)

func TestMilliseconds(t *testing.T) {
	cases := []struct {
		lt   LeadTime
		want int64
	}{
		{LeadTime{Value: 15, Unit: Minutes}, 900_000},
		{LeadTime{Value: 2, Unit: Hours}, 7_200_000},
		{LeadTime{Value: 1, Unit: Days}, 86_400_000},
		{LeadTime{Value: 3, Unit: Weeks}, 1_814_400_000},
	}
	for _, c := range cases {
		if got := c.lt.Milliseconds(); got != c.want {
			t.Errorf("%s: ms = %d, want %d", c.lt, got, c.want)
		}
	}
}

func TestISODuration(t *testing.T) {
	cases := map[LeadTime]string{
		{Value: 15, Unit: Minutes}: "-PT15M",
		{Value: 2, Unit: Hours}:    "-PT2H",
		{Value: 1, Unit: Days}:     "-P1D",
		{Value: 4, Unit: Weeks}:    "-P4W",
	}
	for lt, want := range cases {
		if got := lt.ISODuration(); got != want {
			t.Errorf("%s: iso = %q, want %q", lt, got, want)
		}
	}
}

func TestDuration(t *testing.T) {
	lt := LeadTime{Value: 90, Unit: Minutes}
	if lt.Duration() != 90*time.Minute {
		t.Errorf("duration = %v", lt.Duration())
	}
}

func TestParseUnit(t *testing.T) {
	if u, ok := ParseUnit(" Days "); !ok || u != Days {
		t.Errorf("ParseUnit(Days) = %q, %v", u, ok)
	}
	if _, ok := ParseUnit("fortnights"); ok {
		t.Error("unknown unit accepted")
	}
}

func TestValid(t *testing.T) {
	if (LeadTime{Value: 0, Unit: Days}).Valid() {
		t.Error("zero value should be invalid")
	}
	if (LeadTime{Value: 1, Unit: "years"}).Valid() {
		t.Error("unknown unit should be invalid")
	}
	if !(LeadTime{Value: 1, Unit: Hours}).Valid() {
		t.Error("1 hour should be valid")
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if len(d) != 2 || d[0] != (LeadTime{1, Days}) || d[1] != (LeadTime{15, Minutes}) {
		t.Errorf("defaults = %v", d)
	}
}

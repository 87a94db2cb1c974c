package timegreeting

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// LocalZone names the host's own time zone in params.
const LocalZone = "local"

const fallbackLabel = "local (fallback)"

type Format string

const (
	Format12h Format = "12h"
	Format24h Format = "24h"
)

// Instant is the current time as seen from a requested zone.
type Instant struct {
	Time    time.Time
	Label   string
	Warning string
}

func (i Instant) Period() Period { return ClassifyHour(i.Time.Hour()) }

// Fallback reports whether the requested zone was rejected.
func (i Instant) Fallback() bool { return i.Label == fallbackLabel }

// Clock supplies the time of day. The zero Clock reads the host clock in
// the host zone.
type Clock struct {
	Now   func() time.Time
	Local *time.Location
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Clock) local() *time.Location {
	if c.Local == nil {
		return time.Local
	}
	return c.Local
}

// Resolve reads the clock in zone. An unknown zone falls back to the local
// time with a warning rather than failing.
func (c Clock) Resolve(zone string) Instant {
	now := c.now()
	if zone == LocalZone {
		return Instant{Time: now.In(c.local()), Label: LocalZone}
	}
	// LoadLocation treats "" as UTC and "Local" as the host zone; neither is
	// an IANA name.
	if zone != "" && zone != "Local" {
		if loc, err := time.LoadLocation(zone); err == nil {
			return Instant{Time: now.In(loc), Label: zone}
		}
	}
	return Instant{
		Time:    now.In(c.local()),
		Label:   fallbackLabel,
		Warning: fmt.Sprintf("Invalid timezone '%s', using local time", zone),
	}
}

// FormatTime renders t as "3:04 PM", or "15:04" for the 24h format.
func FormatTime(t time.Time, f Format) string {
	if f == Format24h {
		return t.Format("15:04")
	}
	return t.Format("3:04 PM")
}

func suffix(in Instant, f Format) string {
	formatted := FormatTime(in.Time, f)
	if in.Label == LocalZone {
		return fmt.Sprintf(" It's currently %s.", formatted)
	}
	place := in.Label[strings.LastIndex(in.Label, "/")+1:]
	return fmt.Sprintf(" It's currently %s in %s.", formatted, place)
}

// Package sla measures how long a complaint has been open, both in business
// time (weekday working window only) and in raw wall-clock time.
package sla

import (
	"fmt"
	"time"
)

// Default working window.
const (
	DefaultDayStartHour = 10
	DefaultDayEndHour   = 17
	DefaultTimezone     = "Asia/Kolkata"
)

// Calculator counts business minutes: minutes on Monday to Friday whose
// local time falls in [DayStart:00, DayEnd:00). The zero value is not
// usable; build one with New or Default.
type Calculator struct {
	loc      *time.Location
	dayStart int
	dayEnd   int
}

// New validates the window and returns a calculator for loc.
func New(loc *time.Location, dayStartHour, dayEndHour int) (*Calculator, error) {
	if loc == nil {
		return nil, fmt.Errorf("sla: location is required")
	}
	if dayStartHour < 0 || dayEndHour > 24 || dayStartHour >= dayEndHour {
		return nil, fmt.Errorf("sla: invalid working window %d-%d", dayStartHour, dayEndHour)
	}
	return &Calculator{loc: loc, dayStart: dayStartHour, dayEnd: dayEndHour}, nil
}

// NewForZone is New with the location resolved by IANA name.
func NewForZone(zone string, dayStartHour, dayEndHour int) (*Calculator, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("sla: failed to load timezone %q: %w", zone, err)
	}
	return New(loc, dayStartHour, dayEndHour)
}

// Location returns the calculator's timezone.
func (c *Calculator) Location() *time.Location { return c.loc }

// Business returns the business time between start and end, zero when
// start is not before end. It equals stepping from start in whole minutes
// while the step is before end and counting every step that lands in the
// working window, computed per day instead of per minute.
func (c *Calculator) Business(start, end time.Time) time.Duration {
	if !start.Before(end) {
		return 0
	}
	steps := (end.Sub(start) + time.Minute - 1) / time.Minute
	lo := start.Truncate(time.Minute)
	hi := lo.Add(steps * time.Minute)

	// Days are walked as civil dates so zones that skip midnight still advance.
	local := lo.In(c.loc)
	date := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, time.UTC)
	var total time.Duration
	for {
		y, m, d := date.Date()
		open := time.Date(y, m, d, c.dayStart, 0, 0, 0, c.loc)
		if !open.Before(hi) {
			break
		}
		if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
			closed := time.Date(y, m, d, c.dayEnd, 0, 0, 0, c.loc)
			from, to := later(open, lo), earlier(closed, hi)
			if from.Before(to) {
				total += to.Sub(from)
			}
		}
		date = date.AddDate(0, 0, 1)
	}
	return total
}

// BusinessDuration renders Business(start, end). The minute count is not
// rescaled to the working window: 1d is 1440 business minutes.
func (c *Calculator) BusinessDuration(start, end time.Time) string {
	return FormatMinutes(int64(c.Business(start, end) / time.Minute))
}

// PreciseDuration renders the wall-clock time between start and end.
func PreciseDuration(start, end time.Time) string {
	if !start.Before(end) {
		return FormatMinutes(0)
	}
	return FormatMinutes(int64(end.Sub(start) / time.Minute))
}

// FormatMinutes renders a minute count as "Nm", "Nh Nm" or "Nd Nh Nm"
// depending on magnitude. Non-positive counts render "0m".
func FormatMinutes(total int64) string {
	if total <= 0 {
		return "0m"
	}
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	if total < 24*60 {
		return fmt.Sprintf("%dh %dm", total/60, total%60)
	}
	days := total / (24 * 60)
	rest := total % (24 * 60)
	return fmt.Sprintf("%dd %dh %dm", days, rest/60, rest%60)
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

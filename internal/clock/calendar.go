// Copyright 2026 The ClubLedger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package clock maps instants to civil days in the club's configured zone.
// Every day-boundary computation in the system goes through a Calendar so
// attendance, sessions and rankings agree on what "today" means regardless
// of the host's local time.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultOffset is used when no calendar offset is configured.
const DefaultOffset = "+09:00"

// Calendar converts between instants and civil days at a fixed UTC offset.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// ParseOffset parses "+09:00", "-0530", "+9" or "UTC" into a fixed zone.
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "UTC") || s == "Z" {
		return time.UTC, nil
	}

	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return nil, fmt.Errorf("invalid utc offset %q: missing sign", s)
	}
	body := strings.ReplaceAll(s[1:], ":", "")

	var hours, minutes int
	var err error
	switch len(body) {
	case 1, 2:
		hours, err = strconv.Atoi(body)
	case 4:
		hours, err = strconv.Atoi(body[:2])
		if err == nil {
			minutes, err = strconv.Atoi(body[2:])
		}
	default:
		return nil, fmt.Errorf("invalid utc offset %q", s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid utc offset %q: %w", s, err)
	}
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("utc offset %q out of range", s)
	}

	seconds := sign * (hours*3600 + minutes*60)
	return time.FixedZone("UTC"+s, seconds), nil
}

// NewCalendar creates a calendar for the given zone using the system clock.
func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc, now: time.Now}
}

// WithNow returns a copy of the calendar reading time from now.
func (c *Calendar) WithNow(now func() time.Time) *Calendar {
	return &Calendar{loc: c.loc, now: now}
}

// Location returns the calendar's zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the calendar's zone.
func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

// DateOf returns the civil day containing t.
func (c *Calendar) DateOf(t time.Time) Date {
	return dateOf(t.In(c.loc))
}

// Today returns the current civil day.
func (c *Calendar) Today() Date {
	return c.DateOf(c.now())
}

// DayBounds returns [start, end) of d as UTC instants.
func (c *Calendar) DayBounds(d Date) (time.Time, time.Time) {
	start := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, c.loc)
	end := time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, c.loc)
	return start.UTC(), end.UTC()
}

// Anchor is the nominal instant for a day with no explicit time: local noon.
func (c *Calendar) Anchor(d Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, c.loc).UTC()
}

// MonthSpan returns the span of the given month. An open month is cut off
// after today; a future month yields an empty span.
func (c *Calendar) MonthSpan(year int, month time.Month) Span {
	from := Date{Year: year, Month: month, Day: 1}
	to := from.AddMonths(1)

	tomorrow := c.Today().AddDays(1)
	if tomorrow.Before(to) {
		to = tomorrow
	}
	if to.Before(from) {
		to = from
	}
	return Span{From: from, To: to}
}

// CurrentMonth returns the year and month of today.
func (c *Calendar) CurrentMonth() (int, time.Month) {
	today := c.Today()
	return today.Year, today.Month
}

package clock

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedCalendar(t *testing.T, offset string, now time.Time) *Calendar {
	t.Helper()
	loc, err := ParseOffset(offset)
	require.NoError(t, err)
	return NewCalendar(loc).WithNow(func() time.Time { return now })
}

// TestPurpose: Validates that civil days are computed in the configured zone, not the host zone.
// Scope: Unit Test
// Expected: 2025-12-11T16:00Z is already 2025-12-12 at +09:00.
// Test Case ID: CLK-01
func TestCalendar_DateOf_UsesConfiguredOffset(t *testing.T) {
	cal := fixedCalendar(t, "+09:00", time.Date(2025, 12, 11, 16, 0, 0, 0, time.UTC))

	assert.Equal(t, MustParseDate("2025-12-12"), cal.Today())
	assert.Equal(t, MustParseDate("2025-12-11"), cal.DateOf(time.Date(2025, 12, 11, 14, 59, 59, 0, time.UTC)))
	assert.Equal(t, MustParseDate("2025-12-12"), cal.DateOf(time.Date(2025, 12, 11, 15, 0, 0, 0, time.UTC)))
}

// TestPurpose: Validates day bounds and the noon anchor.
// Scope: Unit Test
// Expected: Bounds are 24h apart starting at local midnight; anchor is local noon.
// Test Case ID: CLK-02
func TestCalendar_DayBoundsAndAnchor(t *testing.T) {
	cal := fixedCalendar(t, "+09:00", time.Now())
	d := MustParseDate("2025-12-12")

	start, end := cal.DayBounds(d)
	assert.Equal(t, time.Date(2025, 12, 11, 15, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
	assert.Equal(t, time.Date(2025, 12, 12, 3, 0, 0, 0, time.UTC), cal.Anchor(d))
	assert.Equal(t, d, cal.DateOf(cal.Anchor(d)))
}

// TestPurpose: Validates that an open month is truncated at today and closed months are whole.
// Scope: Unit Test
// Expected: December 2025 viewed on Dec 12 ends Dec 13 exclusive; November is complete; January is empty.
// Test Case ID: CLK-03
func TestCalendar_MonthSpan(t *testing.T) {
	cal := fixedCalendar(t, "+09:00", time.Date(2025, 12, 12, 1, 0, 0, 0, time.UTC))

	open := cal.MonthSpan(2025, time.December)
	assert.Equal(t, MustParseDate("2025-12-01"), open.From)
	assert.Equal(t, MustParseDate("2025-12-13"), open.To)
	assert.True(t, open.Contains(MustParseDate("2025-12-12")))
	assert.False(t, open.Contains(MustParseDate("2025-12-13")))

	closed := cal.MonthSpan(2025, time.November)
	assert.Equal(t, MustParseDate("2025-12-01"), closed.To)

	future := cal.MonthSpan(2026, time.January)
	assert.True(t, future.IsEmpty())
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in      string
		seconds int
		wantErr bool
	}{
		{"+09:00", 9 * 3600, false},
		{"+0900", 9 * 3600, false},
		{"-05:30", -(5*3600 + 30*60), false},
		{"+9", 9 * 3600, false},
		{"UTC", 0, false},
		{"", 0, false},
		{"09:00", 0, true},
		{"+25:00", 0, true},
		{"+9:0:0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			loc, err := ParseOffset(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, off := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
			assert.Equal(t, tt.seconds, off)
		})
	}
}

func TestDate_JSONAndArithmetic(t *testing.T) {
	d := MustParseDate("2025-12-31")
	assert.Equal(t, MustParseDate("2026-01-01"), d.AddDays(1))
	assert.Equal(t, MustParseDate("2026-01-01"), d.AddMonths(1))
	assert.Equal(t, -1, d.Compare(d.AddDays(1)))

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-12-31"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d, back)

	assert.Error(t, json.Unmarshal([]byte(`"2025-13-01"`), &back))
}

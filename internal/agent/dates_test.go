package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendia-dental/frontdesk/internal/schedule"
)

// Monday, November 3rd 2025.
var anchor = time.Date(2025, time.November, 3, 9, 0, 0, 0, time.Local)

func TestResolveWhenRelativeDates(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"can we do it today", "2025-11-03"},
		{"how about tomorrow", "2025-11-04"},
		{"maybe the day after tomorrow", "2025-11-05"},
		{"sometime next week", "2025-11-10"},
		{"in 3 days works", "2025-11-06"},
		{"in two weeks", "2025-11-17"},
		{"friday would be great", "2025-11-07"},
		{"next friday would be great", "2025-11-14"},
		{"monday please", "2025-11-10"},
		{"December 1st", "2025-12-01"},
		{"March 4", "2026-03-04"},
		{"let's say 2025-11-20", "2025-11-20"},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			w := ResolveWhen(tc.text, anchor)
			require.True(t, w.HasDate)
			assert.Equal(t, tc.want, w.Date.String())
		})
	}
}

func TestResolveWhenAnchorsToGivenTime(t *testing.T) {
	// "next week" against a November 3rd appointment means November 10th,
	// regardless of the day the message arrives.
	apptStart := time.Date(2025, time.November, 3, 14, 0, 0, 0, time.Local)
	w := ResolveWhen("can you push it back to next week?", apptStart)
	require.True(t, w.HasDate)
	assert.Equal(t, "2025-11-10", w.Date.String())
	assert.False(t, w.HasTime)
}

func TestResolveWhenTimes(t *testing.T) {
	tests := []struct {
		text       string
		hour, mins int
	}{
		{"2pm works", 14, 0},
		{"2:30 pm works", 14, 30},
		{"at 9 AM", 9, 0},
		{"12pm sharp", 12, 0},
		{"12 a.m.", 0, 0},
		{"14:30 if you have it", 14, 30},
		{"around noon", 12, 0},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			w := ResolveWhen(tc.text, anchor)
			require.True(t, w.HasTime)
			assert.Equal(t, tc.hour, w.Hour)
			assert.Equal(t, tc.mins, w.Minute)
		})
	}
}

func TestResolveWhenDateAndTimeTogether(t *testing.T) {
	w := ResolveWhen("book me for tomorrow at 2:30pm", anchor)
	require.True(t, w.HasDate)
	require.True(t, w.HasTime)
	assert.Equal(t, "2025-11-04", w.Date.String())
	assert.Equal(t, 14, w.Hour)
	assert.Equal(t, 30, w.Minute)
}

func TestResolveWhenDayPartHints(t *testing.T) {
	w := ResolveWhen("do you have anything tomorrow morning?", anchor)
	require.True(t, w.HasDate)
	assert.False(t, w.HasTime)
	assert.True(t, w.Morning)

	w = ResolveWhen("sometime in the afternoon", anchor)
	assert.True(t, w.Afternoon)
	assert.False(t, w.Morning)

	// An explicit clock time beats the part-of-day word.
	w = ResolveWhen("tomorrow morning at 10:30 am", anchor)
	require.True(t, w.HasTime)
	assert.False(t, w.Morning)
}

func TestResolveWhenNothing(t *testing.T) {
	w := ResolveWhen("I'd like to come in sometime", anchor)
	assert.False(t, w.HasDate)
	assert.False(t, w.HasTime)
}

func TestWhenAtKeepsMissingParts(t *testing.T) {
	fallback := time.Date(2025, time.November, 3, 14, 0, 0, 0, time.Local)

	dateOnly := When{Date: schedule.NewDate(2025, time.November, 10), HasDate: true}
	assert.Equal(t, time.Date(2025, time.November, 10, 14, 0, 0, 0, time.Local), dateOnly.At(fallback),
		"date-only keeps the fallback's time of day")

	timeOnly := When{Hour: 9, Minute: 30, HasTime: true}
	assert.Equal(t, time.Date(2025, time.November, 3, 9, 30, 0, 0, time.Local), timeOnly.At(fallback),
		"time-only keeps the fallback's date")
}

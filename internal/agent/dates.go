package agent

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ascendia-dental/frontdesk/internal/schedule"
)

// When is a resolved date/time reference from caller phrasing. HasDate and
// HasTime are independent: "next week" has a date only, "at 2pm" a time only.
type When struct {
	Date    schedule.Date
	HasDate bool
	Hour    int
	Minute  int
	HasTime bool

	// Morning/Afternoon are soft hints used to bound slot offers when the
	// caller named a part of day but no clock time.
	Morning   bool
	Afternoon bool
}

// At combines the resolved pieces into a timestamp, borrowing missing parts
// from the fallback.
func (w When) At(fallback time.Time) time.Time {
	date := schedule.DateOf(fallback)
	if w.HasDate {
		date = w.Date
	}
	hour, minute := fallback.Hour(), fallback.Minute()
	if w.HasTime {
		hour, minute = w.Hour, w.Minute
	}
	return date.At(hour, minute)
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

var (
	isoDateRE  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDayRE = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	inUnitsRE  = regexp.MustCompile(`(?i)\bin\s+(\d+|a|two|three|four|five)\s+(day|week)s?\b`)
	weekdayRE  = regexp.MustCompile(`(?i)\b(next\s+)?(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	meridiemRE = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(a\.m\.|p\.m\.|am\b|pm\b)`)
	clock24RE  = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
)

var smallNumbers = map[string]int{"a": 1, "two": 2, "three": 3, "four": 4, "five": 5}

// ResolveWhen parses date and time references out of an utterance. Relative
// phrases resolve against anchor: for new bookings that is "now", for
// reschedules it is the existing appointment's start, so "next week" means a
// week after the appointment, not after today.
func ResolveWhen(text string, anchor time.Time) When {
	msg := strings.ToLower(strings.TrimSpace(text))
	w := When{}
	anchorDate := schedule.DateOf(anchor)

	switch {
	case isoDateRE.MatchString(msg):
		m := isoDateRE.FindStringSubmatch(msg)
		if d, err := schedule.ParseDate(m[0]); err == nil {
			w.Date, w.HasDate = d, true
		}
	case strings.Contains(msg, "day after tomorrow"):
		w.Date, w.HasDate = anchorDate.AddDays(2), true
	case strings.Contains(msg, "tomorrow"):
		w.Date, w.HasDate = anchorDate.AddDays(1), true
	case strings.Contains(msg, "today") || strings.Contains(msg, "this afternoon") || strings.Contains(msg, "this morning"):
		w.Date, w.HasDate = anchorDate, true
	case strings.Contains(msg, "next week"):
		w.Date, w.HasDate = anchorDate.AddDays(7), true
	case inUnitsRE.MatchString(msg):
		m := inUnitsRE.FindStringSubmatch(msg)
		n, ok := smallNumbers[strings.ToLower(m[1])]
		if !ok {
			n, _ = strconv.Atoi(m[1])
		}
		if n > 0 {
			days := n
			if strings.HasPrefix(strings.ToLower(m[2]), "week") {
				days = n * 7
			}
			w.Date, w.HasDate = anchorDate.AddDays(days), true
		}
	case weekdayRE.MatchString(msg):
		m := weekdayRE.FindStringSubmatch(msg)
		target := weekdays[strings.ToLower(m[2])]
		days := int(target-anchorDate.Weekday()+7) % 7
		if days == 0 {
			days = 7
		}
		if m[1] != "" {
			// "next monday" skips the upcoming one.
			days += 7
		}
		w.Date, w.HasDate = anchorDate.AddDays(days), true
	case monthDayRE.MatchString(msg):
		m := monthDayRE.FindStringSubmatch(msg)
		month := months[strings.ToLower(m[1])[:3]]
		day, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 {
			d := schedule.NewDate(anchor.Year(), month, day)
			if d.Before(anchorDate) {
				d = schedule.NewDate(anchor.Year()+1, month, day)
			}
			w.Date, w.HasDate = d, true
		}
	}

	if m := meridiemRE.FindStringSubmatch(msg); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		meridiem := strings.ReplaceAll(strings.ToLower(m[3]), ".", "")
		if meridiem == "pm" && hour != 12 {
			hour += 12
		} else if meridiem == "am" && hour == 12 {
			hour = 0
		}
		if hour >= 0 && hour <= 23 {
			w.Hour, w.Minute, w.HasTime = hour, minute, true
		}
	} else if strings.Contains(msg, "noon") {
		w.Hour, w.Minute, w.HasTime = 12, 0, true
	} else if m := clock24RE.FindStringSubmatch(msg); m != nil && !looksLikeDateFragment(msg, m[0]) {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		w.Hour, w.Minute, w.HasTime = hour, minute, true
	}

	if !w.HasTime {
		if strings.Contains(msg, "morning") {
			w.Morning = true
		} else if strings.Contains(msg, "afternoon") {
			w.Afternoon = true
		}
	}

	return w
}

// looksLikeDateFragment guards the 24h-clock match against eating the time
// portion of an ISO timestamp the caller pasted in.
func looksLikeDateFragment(msg, match string) bool {
	idx := strings.Index(msg, match)
	return idx > 0 && msg[idx-1] == '-'
}

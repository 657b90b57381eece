package schedule

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ascendia-dental/frontdesk/internal/opendental"

	"github.com/ascendia-dental/frontdesk/pkg/logging"
)

const (
	defaultSlotMinutes = 30
	defaultMaxOptions  = 3
	maxOptionsCap      = 5
	maxSlotsPerDay     = 2
)

// CandidateSlot is an open time the resolver proposes. Ephemeral; re-verified
// by the conflict detector at booking time because the schedule may have
// moved between resolution and commit.
type CandidateSlot struct {
	Start       time.Time
	ProviderID  string
	OperatoryID string
}

// Query bounds a slot search. Dates are calendar dates; provider and
// operatory narrow the occupied projection when set.
type Query struct {
	DateStart       Date
	DateEnd         Date
	ProviderID      string
	OperatoryID     string
	DurationMinutes int
	MaxOptions      int
	Hours           opendental.OfficeHours

	// EarliestHour/LatestHour narrow the day window inside business hours,
	// for "morning" or "afternoon" requests. Zero means unbounded.
	EarliestHour int
	LatestHour   int
}

// Resolver computes free windows by subtracting occupied intervals from
// business hours. The gateway has no trustworthy "free slots" endpoint, so
// availability is always simulated from the appointment book.
type Resolver struct {
	lister AppointmentLister
	logger *logging.Logger
	now    func() time.Time
}

// NewResolver creates a slot resolver over the given gateway.
func NewResolver(lister AppointmentLister, logger *logging.Logger) *Resolver {
	if lister == nil {
		panic("schedule: appointment lister required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{lister: lister, logger: logger, now: time.Now}
}

// FindAvailableSlots returns up to MaxOptions free hour-aligned slots within
// the range, spread across distinct days where possible, sorted ascending.
// An empty appointment book for the range means everything inside business
// hours is free — never "nothing available". An empty result is returned only
// when no day in range has capacity.
func (r *Resolver) FindAvailableSlots(ctx context.Context, q Query) ([]CandidateSlot, error) {
	if q.DateStart.IsZero() || q.DateEnd.IsZero() {
		return nil, fmt.Errorf("schedule: slot query requires both range dates")
	}
	if q.DateEnd.Before(q.DateStart) {
		return nil, fmt.Errorf("schedule: slot query range end %s before start %s", q.DateEnd, q.DateStart)
	}

	today := DateOf(r.now())
	if q.DateStart.Before(today) {
		r.logger.Debug("clamping past slot query start", "requested", q.DateStart.String(), "today", today.String())
		q.DateStart = today
		if q.DateEnd.Before(q.DateStart) {
			q.DateEnd = q.DateStart
		}
	}

	duration := q.DurationMinutes
	if duration <= 0 {
		duration = defaultSlotMinutes
	}
	maxOptions := q.MaxOptions
	if maxOptions <= 0 {
		maxOptions = defaultMaxOptions
	}
	if maxOptions > maxOptionsCap {
		maxOptions = maxOptionsCap
	}

	appts, err := r.lister.ListAppointments(ctx, opendental.AppointmentFilter{
		DateStart: q.DateStart.String(),
		DateEnd:   q.DateEnd.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("schedule: availability fetch: %w", err)
	}

	buckets := occupiedHourBuckets(appts, q.ProviderID, q.OperatoryID)

	var free []CandidateSlot
	for day := q.DateStart; !day.After(q.DateEnd); day = day.AddDays(1) {
		hours, ok := q.Hours[day.Weekday()]
		if !ok || hours.Closed {
			continue
		}
		openHour, closeHour, err := parseDayHours(hours)
		if err != nil {
			return nil, fmt.Errorf("schedule: office hours for %s: %w", day.Weekday(), err)
		}
		if q.EarliestHour > openHour {
			openHour = q.EarliestHour
		}
		if q.LatestHour > 0 && q.LatestHour < closeHour {
			closeHour = q.LatestHour
		}

		taken := buckets[day]
		span := (duration + 59) / 60
		for hour := openHour; hour+span <= closeHour; hour++ {
			if anyTaken(taken, hour, span) {
				continue
			}
			free = append(free, CandidateSlot{
				Start:       day.At(hour, 0),
				ProviderID:  q.ProviderID,
				OperatoryID: q.OperatoryID,
			})
		}
	}

	free = spreadAcrossDays(free, maxOptions, maxSlotsPerDay)
	sort.Slice(free, func(i, j int) bool { return free[i].Start.Before(free[j].Start) })
	return free, nil
}

// anyTaken reports whether any hour in [start, start+span) is occupied. A
// visit longer than an hour must clear every bucket it would sit in, not just
// its starting hour.
func anyTaken(taken map[int]bool, start, span int) bool {
	for h := start; h < start+span; h++ {
		if taken[h] {
			return true
		}
	}
	return false
}

// occupiedHourBuckets projects appointments into per-day occupied hour sets,
// filtered to the requested provider/operatory when given. Hour granularity
// is derived from the appointment's start time.
func occupiedHourBuckets(appts []opendental.Appointment, providerID, operatoryID string) map[Date]map[int]bool {
	buckets := make(map[Date]map[int]bool)
	for _, appt := range appts {
		if !occupiesSchedule(appt.Status) {
			continue
		}
		if providerID != "" && appt.ProviderID != providerID {
			continue
		}
		if operatoryID != "" && appt.OperatoryID != operatoryID {
			continue
		}
		day := DateOf(appt.Start)
		if buckets[day] == nil {
			buckets[day] = make(map[int]bool)
		}
		startHour := appt.Start.Hour()
		endHour := startHour
		if appt.DurationMinutes > 0 {
			end := appt.Start.Add(time.Duration(appt.DurationMinutes) * time.Minute)
			endHour = end.Hour()
			if end.Minute() == 0 && end.Second() == 0 {
				endHour--
			}
			if DateOf(end) != day {
				endHour = 23
			}
		}
		for h := startHour; h <= endHour; h++ {
			buckets[day][h] = true
		}
	}
	return buckets
}

// spreadAcrossDays picks at most maxPerDay slots from each day, round-robin,
// so the caller gets options on distinct days instead of one packed morning.
func spreadAcrossDays(slots []CandidateSlot, total, maxPerDay int) []CandidateSlot {
	if len(slots) <= total {
		return slots
	}

	type dayGroup struct {
		day   Date
		slots []CandidateSlot
	}
	var days []dayGroup
	dayIdx := map[Date]int{}
	for _, s := range slots {
		d := DateOf(s.Start)
		if idx, ok := dayIdx[d]; ok {
			days[idx].slots = append(days[idx].slots, s)
		} else {
			dayIdx[d] = len(days)
			days = append(days, dayGroup{day: d, slots: []CandidateSlot{s}})
		}
	}

	var result []CandidateSlot
	for round := 0; round < maxPerDay && len(result) < total; round++ {
		for i := range days {
			if round < len(days[i].slots) && len(result) < total {
				result = append(result, days[i].slots[round])
			}
		}
	}
	return result
}

// parseDayHours converts "HH:MM" open/close strings into whole hours. Minutes
// on the open time round up, minutes on the close time round down, so slots
// never leak outside business hours.
func parseDayHours(h opendental.DayHours) (openHour, closeHour int, err error) {
	openHour, openMin, err := parseClock(h.Open)
	if err != nil {
		return 0, 0, err
	}
	if openMin > 0 {
		openHour++
	}
	closeHour, _, err = parseClock(h.Close)
	if err != nil {
		return 0, 0, err
	}
	if closeHour <= openHour {
		return 0, 0, fmt.Errorf("close %q not after open %q", h.Close, h.Open)
	}
	return openHour, closeHour, nil
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad clock time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad clock time %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("bad clock time %q", s)
	}
	return hour, minute, nil
}

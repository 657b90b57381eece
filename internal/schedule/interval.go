package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/ascendia-dental/frontdesk/internal/opendental"
)

// AppointmentLister is the narrow slice of the gateway the scheduling logic
// reads from.
type AppointmentLister interface {
	ListAppointments(ctx context.Context, filter opendental.AppointmentFilter) ([]opendental.Appointment, error)
}

// Interval is a time span during which a patient, provider, and operatory are
// committed to an appointment.
type Interval struct {
	AppointmentID   string
	PatientID       string
	ProviderID      string
	OperatoryID     string
	Start           time.Time
	DurationMinutes int
	Status          opendental.AppointmentStatus
}

// End returns the exclusive end of the interval.
func (iv Interval) End() time.Time {
	return iv.Start.Add(time.Duration(iv.DurationMinutes) * time.Minute)
}

// Overlaps reports whether [start, start+duration) intersects the interval.
// Half-open semantics: a booking ending exactly when another starts does not
// overlap.
func (iv Interval) Overlaps(start time.Time, durationMinutes int) bool {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return start.Before(iv.End()) && end.After(iv.Start)
}

// FreshIntervals is an occupied-interval set fetched directly from the
// gateway. Conflict detection accepts only this type: cached office-context
// hints cannot be converted into it, which keeps stale data out of mutating
// decisions.
type FreshIntervals struct {
	intervals []Interval
}

// FetchFresh queries the gateway for the given inclusive date range and keeps
// only intervals that actually occupy the schedule. Broken and Complete
// appointments no longer block the book; UnschedList entries have no firm
// time.
func FetchFresh(ctx context.Context, lister AppointmentLister, dateStart, dateEnd Date) (FreshIntervals, error) {
	if dateStart.IsZero() || dateEnd.IsZero() {
		return FreshIntervals{}, fmt.Errorf("schedule: fresh fetch requires both range dates")
	}
	if dateEnd.Before(dateStart) {
		return FreshIntervals{}, fmt.Errorf("schedule: fresh fetch range end %s before start %s", dateEnd, dateStart)
	}

	appts, err := lister.ListAppointments(ctx, opendental.AppointmentFilter{
		DateStart: dateStart.String(),
		DateEnd:   dateEnd.String(),
	})
	if err != nil {
		return FreshIntervals{}, fmt.Errorf("schedule: fresh fetch: %w", err)
	}

	intervals := make([]Interval, 0, len(appts))
	for _, appt := range appts {
		if !occupiesSchedule(appt.Status) {
			continue
		}
		intervals = append(intervals, intervalFromAppointment(appt))
	}
	return FreshIntervals{intervals: intervals}, nil
}

// Intervals returns the occupied set.
func (f FreshIntervals) Intervals() []Interval {
	return f.intervals
}

func intervalFromAppointment(appt opendental.Appointment) Interval {
	duration := appt.DurationMinutes
	if duration <= 0 {
		duration = 30
	}
	return Interval{
		AppointmentID:   appt.ID,
		PatientID:       appt.PatientID,
		ProviderID:      appt.ProviderID,
		OperatoryID:     appt.OperatoryID,
		Start:           appt.Start,
		DurationMinutes: duration,
		Status:          appt.Status,
	}
}

// occupiesSchedule decides which statuses block the book. Excluding Broken
// and Complete is a product decision recorded in DESIGN.md.
func occupiesSchedule(status opendental.AppointmentStatus) bool {
	switch status {
	case opendental.StatusScheduled, opendental.StatusASAP, opendental.StatusPlanned:
		return true
	default:
		return false
	}
}

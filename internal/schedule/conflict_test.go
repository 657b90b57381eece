package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendia-dental/frontdesk/internal/opendental"
)

type fakeLister struct {
	appts []opendental.Appointment
	err   error
	calls []opendental.AppointmentFilter
}

func (f *fakeLister) ListAppointments(_ context.Context, filter opendental.AppointmentFilter) ([]opendental.Appointment, error) {
	f.calls = append(f.calls, filter)
	if f.err != nil {
		return nil, f.err
	}
	return f.appts, nil
}

func appt(id, patient, provider, operatory string, start time.Time, minutes int, status opendental.AppointmentStatus) opendental.Appointment {
	return opendental.Appointment{
		ID:              id,
		PatientID:       patient,
		ProviderID:      provider,
		OperatoryID:     operatory,
		Start:           start,
		DurationMinutes: minutes,
		Status:          status,
	}
}

func freshFrom(t *testing.T, appts []opendental.Appointment, from, to Date) FreshIntervals {
	t.Helper()
	fresh, err := FetchFresh(context.Background(), &fakeLister{appts: appts}, from, to)
	require.NoError(t, err)
	return fresh
}

func TestDetectConflictsProviderOverlap(t *testing.T) {
	day := NewDate(2025, time.November, 10)
	existing := appt("53", "42", "1", "3", day.At(14, 0), 30, opendental.StatusScheduled)
	fresh := freshFrom(t, []opendental.Appointment{existing}, day, day)

	report := DetectConflicts(fresh, BookingRequest{
		PatientID:       "99",
		ProviderID:      "1",
		OperatoryID:     "7",
		Start:           day.At(14, 0),
		DurationMinutes: 30,
	}, "")

	assert.True(t, report.ProviderConflict)
	assert.False(t, report.PatientConflict)
	assert.False(t, report.OperatoryConflict)
	require.Len(t, report.Conflicting, 1)
	assert.Equal(t, "53", report.Conflicting[0].AppointmentID)
}

func TestDetectConflictsBackToBackIsClean(t *testing.T) {
	day := NewDate(2025, time.November, 10)
	existing := appt("53", "42", "1", "3", day.At(14, 0), 30, opendental.StatusScheduled)
	fresh := freshFrom(t, []opendental.Appointment{existing}, day, day)

	// Starts exactly when the existing booking ends: half-open, no conflict.
	report := DetectConflicts(fresh, BookingRequest{
		PatientID:       "99",
		ProviderID:      "1",
		Start:           day.At(14, 30),
		DurationMinutes: 30,
	}, "")
	assert.False(t, report.Any())

	// Ends exactly when the existing booking starts: also clean.
	report = DetectConflicts(fresh, BookingRequest{
		ProviderID:      "1",
		Start:           day.At(13, 30),
		DurationMinutes: 30,
	}, "")
	assert.False(t, report.Any())
}

func TestDetectConflictsAllDimensions(t *testing.T) {
	day := NewDate(2025, time.November, 10)
	existing := appt("53", "42", "1", "3", day.At(10, 0), 60, opendental.StatusScheduled)
	fresh := freshFrom(t, []opendental.Appointment{existing}, day, day)

	report := DetectConflicts(fresh, BookingRequest{
		PatientID:       "42",
		ProviderID:      "1",
		OperatoryID:     "3",
		Start:           day.At(10, 30),
		DurationMinutes: 30,
	}, "")

	assert.True(t, report.PatientConflict)
	assert.True(t, report.ProviderConflict)
	assert.True(t, report.OperatoryConflict)
}

func TestDetectConflictsExcludesRescheduledAppointment(t *testing.T) {
	day := NewDate(2025, time.November, 10)
	moving := appt("53", "42", "1", "3", day.At(10, 0), 30, opendental.StatusScheduled)
	fresh := freshFrom(t, []opendental.Appointment{moving}, day, day)

	// Moving #53 within its own old window must not conflict with itself.
	report := DetectConflicts(fresh, BookingRequest{
		PatientID:       "42",
		ProviderID:      "1",
		OperatoryID:     "3",
		Start:           day.At(10, 0),
		DurationMinutes: 30,
	}, "53")
	assert.False(t, report.Any())
}

func TestDetectConflictsIsPure(t *testing.T) {
	day := NewDate(2025, time.November, 10)
	existing := appt("53", "42", "1", "3", day.At(14, 0), 30, opendental.StatusScheduled)
	fresh := freshFrom(t, []opendental.Appointment{existing}, day, day)
	req := BookingRequest{ProviderID: "1", Start: day.At(14, 15), DurationMinutes: 30}

	first := DetectConflicts(fresh, req, "")
	second := DetectConflicts(fresh, req, "")
	assert.Equal(t, first, second)
}

func TestFetchFreshFiltersNonOccupyingStatuses(t *testing.T) {
	day := NewDate(2025, time.November, 10)
	appts := []opendental.Appointment{
		appt("1", "10", "1", "3", day.At(9, 0), 30, opendental.StatusScheduled),
		appt("2", "11", "1", "3", day.At(10, 0), 30, opendental.StatusBroken),
		appt("3", "12", "1", "3", day.At(11, 0), 30, opendental.StatusComplete),
		appt("4", "13", "1", "3", day.At(12, 0), 30, opendental.StatusASAP),
		appt("5", "14", "1", "3", day.At(13, 0), 30, opendental.StatusPlanned),
		appt("6", "15", "1", "3", day.At(14, 0), 30, opendental.StatusUnschedList),
	}
	fresh := freshFrom(t, appts, day, day)

	ids := make([]string, 0, len(fresh.Intervals()))
	for _, iv := range fresh.Intervals() {
		ids = append(ids, iv.AppointmentID)
	}
	assert.ElementsMatch(t, []string{"1", "4", "5"}, ids,
		"Broken, Complete, and UnschedList must not count as occupied")
}

func TestFetchFreshRangeValidation(t *testing.T) {
	lister := &fakeLister{}
	start := NewDate(2025, time.November, 10)

	_, err := FetchFresh(context.Background(), lister, Date{}, start)
	assert.Error(t, err)

	_, err = FetchFresh(context.Background(), lister, start, start.AddDays(-1))
	assert.Error(t, err)
	assert.Empty(t, lister.calls, "invalid ranges never reach the gateway")
}

func TestIntervalOverlapBoundaries(t *testing.T) {
	day := NewDate(2025, time.November, 10)
	iv := Interval{Start: day.At(10, 0), DurationMinutes: 60}

	assert.False(t, iv.Overlaps(day.At(9, 0), 60), "ends at interval start")
	assert.True(t, iv.Overlaps(day.At(9, 30), 60), "crosses interval start")
	assert.True(t, iv.Overlaps(day.At(10, 30), 15), "fully inside")
	assert.True(t, iv.Overlaps(day.At(10, 45), 60), "crosses interval end")
	assert.False(t, iv.Overlaps(day.At(11, 0), 30), "starts at interval end")
}

package office

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendia-dental/frontdesk/internal/opendental"
)

type fakeGateway struct {
	providers    []opendental.Provider
	operatories  []opendental.Operatory
	hours        opendental.OfficeHours
	appts        []opendental.Appointment
	providersErr error
	operatoriesErr error
	hoursErr     error
	apptsErr     error
	apptCalls    []opendental.AppointmentFilter
}

func (f *fakeGateway) ListAppointments(_ context.Context, filter opendental.AppointmentFilter) ([]opendental.Appointment, error) {
	f.apptCalls = append(f.apptCalls, filter)
	return f.appts, f.apptsErr
}

func (f *fakeGateway) CreateAppointment(context.Context, opendental.CreateAppointmentRequest) (*opendental.Appointment, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) UpdateAppointment(context.Context, string, opendental.AppointmentPatch) (*opendental.Appointment, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) BreakAppointment(context.Context, string, opendental.BreakRequest) error {
	return errors.New("not implemented")
}

func (f *fakeGateway) ListProviders(context.Context) ([]opendental.Provider, error) {
	return f.providers, f.providersErr
}

func (f *fakeGateway) ListOperatories(context.Context) ([]opendental.Operatory, error) {
	return f.operatories, f.operatoriesErr
}

func (f *fakeGateway) GetOfficeHours(context.Context) (opendental.OfficeHours, error) {
	return f.hours, f.hoursErr
}

func (f *fakeGateway) FindOrCreatePatient(context.Context, opendental.PatientLookup) (*opendental.Patient, error) {
	return nil, errors.New("not implemented")
}

func staffedGateway() *fakeGateway {
	return &fakeGateway{
		providers: []opendental.Provider{
			{ID: "2", DisplayName: "Alex Kim", IsHygienist: true, IsActive: true},
			{ID: "1", DisplayName: "Dr. Smith", IsActive: true},
			{ID: "3", DisplayName: "Dr. Retired", IsActive: false},
		},
		operatories: []opendental.Operatory{
			{ID: "5", DisplayName: "Hygiene 1", IsHygieneRoom: true, IsActive: true},
			{ID: "4", DisplayName: "Op 1", IsActive: true},
		},
		hours: opendental.OfficeHours{
			time.Monday: {Open: "09:00", Close: "17:00"},
		},
	}
}

func TestBuildSnapshot(t *testing.T) {
	now := time.Date(2025, time.November, 10, 8, 0, 0, 0, time.Local)
	gw := staffedGateway()
	gw.appts = []opendental.Appointment{
		{ID: "1", PatientID: "42", ProviderID: "1", OperatoryID: "4", Start: now.Add(2 * time.Hour), DurationMinutes: 30, Status: opendental.StatusScheduled},
		{ID: "2", PatientID: "43", ProviderID: "1", OperatoryID: "4", Start: now.Add(3 * time.Hour), DurationMinutes: 30, Status: opendental.StatusBroken},
	}

	builder := NewBuilder(gw, nil, WithClock(func() time.Time { return now }))
	snap, err := builder.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, now, snap.FetchedAt)
	assert.Equal(t, now.Add(DefaultTTL), snap.ExpiresAt)
	assert.Len(t, snap.Providers, 3)

	require.Len(t, gw.apptCalls, 1)
	assert.Equal(t, "2025-11-10", gw.apptCalls[0].DateStart)
	assert.Equal(t, "2025-11-17", gw.apptCalls[0].DateEnd, "hints cover a seven day window")

	require.Len(t, snap.Hints, 1, "broken appointments are not hints")
	assert.Equal(t, "1", snap.Hints[0].AppointmentID)

	assert.Equal(t, "1", snap.Defaults.ProviderID, "default provider is the first active dentist")
	assert.Equal(t, "4", snap.Defaults.OperatoryID, "default operatory is the first active standard room")
	assert.Equal(t, 30, snap.Defaults.AppointmentMinutes)
}

func TestBuildFailsSoftOnCatalogErrors(t *testing.T) {
	gw := staffedGateway()
	gw.providersErr = errors.New("boom")
	gw.operatoriesErr = errors.New("boom")

	builder := NewBuilder(gw, nil)
	snap, err := builder.Build(context.Background())
	require.NoError(t, err, "partial failures degrade, not abort")
	assert.Empty(t, snap.Providers)
	assert.Empty(t, snap.Operatories)
	assert.NotNil(t, snap.Hours, "surviving sections still populated")
}

func TestBuildFailsHardWhenEverythingFails(t *testing.T) {
	gw := staffedGateway()
	boom := errors.New("gateway down")
	gw.providersErr = boom
	gw.operatoriesErr = boom
	gw.hoursErr = boom
	gw.apptsErr = boom

	builder := NewBuilder(gw, nil)
	_, err := builder.Build(context.Background())
	assert.Error(t, err)
}

func TestSnapshotExpiry(t *testing.T) {
	now := time.Date(2025, time.November, 10, 8, 0, 0, 0, time.Local)
	builder := NewBuilder(staffedGateway(), nil,
		WithTTL(2*time.Minute),
		WithClock(func() time.Time { return now }),
	)
	snap, err := builder.Build(context.Background())
	require.NoError(t, err)

	assert.False(t, snap.Expired(now))
	assert.False(t, snap.Expired(now.Add(2*time.Minute)), "not expired at exactly the TTL")
	assert.True(t, snap.Expired(now.Add(2*time.Minute+time.Second)))
}

func TestSnapshotLookups(t *testing.T) {
	builder := NewBuilder(staffedGateway(), nil)
	snap, err := builder.Build(context.Background())
	require.NoError(t, err)

	name, ok := snap.ProviderName("1")
	require.True(t, ok)
	assert.Equal(t, "Dr. Smith", name)

	_, ok = snap.ProviderName("999")
	assert.False(t, ok)

	hygienists := snap.Hygienists()
	require.Len(t, hygienists, 1)
	assert.Equal(t, "Alex Kim", hygienists[0].DisplayName)

	assert.Equal(t, "5", snap.HygieneOperatory())
}

func TestHygieneOperatoryFallsBackToDefault(t *testing.T) {
	gw := staffedGateway()
	gw.operatories = []opendental.Operatory{{ID: "4", DisplayName: "Op 1", IsActive: true}}

	builder := NewBuilder(gw, nil)
	snap, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4", snap.HygieneOperatory())
}

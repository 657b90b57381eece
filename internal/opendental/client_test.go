package opendental

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL:      server.URL,
		DeveloperKey: "dev-key",
		CustomerKey:  "cust-key",
	})
	require.NoError(t, err)
	return client
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{DeveloperKey: "d", CustomerKey: "c"})
	assert.Error(t, err, "missing base URL should fail")

	_, err = New(Config{BaseURL: "https://api.example", CustomerKey: "c"})
	assert.Error(t, err, "missing developer key should fail")

	client, err := New(Config{BaseURL: "https://api.example/", DeveloperKey: "d", CustomerKey: "c"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example", client.baseURL, "trailing slash trimmed")
}

func TestListAppointments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appointments", r.URL.Path)
		assert.Equal(t, "ODFHIR dev-key/cust-key", r.Header.Get("Authorization"))
		assert.Equal(t, "2025-11-10", r.URL.Query().Get("dateStart"))
		assert.Equal(t, "2025-11-12", r.URL.Query().Get("dateEnd"))
		assert.Equal(t, "42", r.URL.Query().Get("PatNum"))

		_ = json.NewEncoder(w).Encode([]appointmentDTO{
			{
				AptNum:        53,
				PatNum:        42,
				ProvNum:       1,
				Op:            3,
				AptDateTime:   "2025-11-10 14:00:00",
				LengthMinutes: 30,
				AptStatus:     "Scheduled",
			},
		})
	})

	appts, err := client.ListAppointments(context.Background(), AppointmentFilter{
		PatientID: "42",
		DateStart: "2025-11-10",
		DateEnd:   "2025-11-12",
	})
	require.NoError(t, err)
	require.Len(t, appts, 1)

	appt := appts[0]
	assert.Equal(t, "53", appt.ID)
	assert.Equal(t, "42", appt.PatientID)
	assert.Equal(t, "1", appt.ProviderID)
	assert.Equal(t, "3", appt.OperatoryID)
	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, 30, appt.DurationMinutes)
	assert.Equal(t, time.Date(2025, 11, 10, 14, 0, 0, 0, time.Local), appt.Start)
}

func TestListAppointmentsBadDateTime(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]appointmentDTO{
			{AptNum: 1, AptDateTime: "not-a-time"},
		})
	})

	_, err := client.ListAppointments(context.Background(), AppointmentFilter{DateStart: "2025-11-10", DateEnd: "2025-11-10"})
	assert.Error(t, err)
}

func TestCreateAppointment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/appointments", r.URL.Path)

		var dto appointmentDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&dto))
		assert.Equal(t, int64(42), dto.PatNum)
		assert.Equal(t, "2025-11-10 09:00:00", dto.AptDateTime)
		assert.Equal(t, "Scheduled", dto.AptStatus, "status defaults to Scheduled")

		dto.AptNum = 77
		_ = json.NewEncoder(w).Encode(dto)
	})

	appt, err := client.CreateAppointment(context.Background(), CreateAppointmentRequest{
		PatientID:       "42",
		ProviderID:      "1",
		OperatoryID:     "3",
		Start:           time.Date(2025, 11, 10, 9, 0, 0, 0, time.Local),
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "77", appt.ID)
}

func TestUpdateAppointmentPartialPatch(t *testing.T) {
	newStart := time.Date(2025, 11, 10, 10, 0, 0, 0, time.Local)
	status := StatusScheduled

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/appointments/53", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-11-10 10:00:00", body["AptDateTime"])
		assert.Equal(t, "Scheduled", body["AptStatus"])
		assert.NotContains(t, body, "ProvNum", "nil patch fields omitted")
		assert.NotContains(t, body, "Confirmed")

		_ = json.NewEncoder(w).Encode(appointmentDTO{
			AptNum: 53, PatNum: 42, ProvNum: 1, Op: 3,
			AptDateTime: "2025-11-10 10:00:00", LengthMinutes: 30, AptStatus: "Scheduled",
		})
	})

	appt, err := client.UpdateAppointment(context.Background(), "53", AppointmentPatch{
		Start:  &newStart,
		Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, newStart, appt.Start)
	assert.Equal(t, StatusScheduled, appt.Status)
}

func TestBreakAppointment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/appointments/53/break", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Cancelled", body["breakType"])
		assert.Equal(t, true, body["sendToUnscheduledList"])
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.BreakAppointment(context.Background(), "53", BreakRequest{
		PenaltyMarker:           "Cancelled",
		ReturnToUnscheduledList: true,
	})
	require.NoError(t, err)
}

func TestListProviders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]providerDTO{
			{ProvNum: 1, Abbr: "Dr. Smith", IsHygienist: false},
			{ProvNum: 2, FName: "Jordan", LName: "Lee", IsHygienist: true, IsHidden: true},
		})
	})

	providers, err := client.ListProviders(context.Background())
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "Dr. Smith", providers[0].DisplayName)
	assert.True(t, providers[0].IsActive)
	assert.Equal(t, "Jordan Lee", providers[1].DisplayName, "falls back to full name")
	assert.True(t, providers[1].IsHygienist)
	assert.False(t, providers[1].IsActive, "hidden provider is inactive")
}

func TestGetOfficeHours(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]dayHoursDTO{
			{Weekday: "Monday", Open: "09:00", Close: "17:00"},
			{Weekday: "sunday", Closed: true},
		})
	})

	hours, err := client.GetOfficeHours(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DayHours{Open: "09:00", Close: "17:00"}, hours[time.Monday])
	assert.True(t, hours[time.Sunday].Closed, "weekday names match case-insensitively")
}

func TestFindOrCreatePatientExisting(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "maria garcia", r.URL.Query().Get("name"), "name lowercased for matching")
		_ = json.NewEncoder(w).Encode([]patientDTO{
			{PatNum: 42, FName: "Maria", LName: "Garcia", WirelessPhone: "5550100", SecProv: 2},
		})
	})

	patient, err := client.FindOrCreatePatient(context.Background(), PatientLookup{Name: "Maria Garcia"})
	require.NoError(t, err)
	assert.Equal(t, "42", patient.ID)
	assert.Equal(t, "Maria Garcia", patient.DisplayName())
	assert.Equal(t, "2", patient.HygienistID)
}

func TestFindOrCreatePatientCreates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode([]patientDTO{})
		case http.MethodPost:
			var dto patientDTO
			require.NoError(t, json.NewDecoder(r.Body).Decode(&dto))
			assert.Equal(t, "Sam", dto.FName)
			assert.Equal(t, "Rivera", dto.LName)
			assert.Equal(t, "1990-04-01", dto.Birthdate)
			dto.PatNum = 99
			_ = json.NewEncoder(w).Encode(dto)
		}
	})

	patient, err := client.FindOrCreatePatient(context.Background(), PatientLookup{
		Name:      "Sam Rivera",
		Birthdate: "1990-04-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "99", patient.ID)
}

func TestFindOrCreatePatientNoMatchNoBirthdate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]patientDTO{})
	})

	_, err := client.FindOrCreatePatient(context.Background(), PatientLookup{Name: "Sam Rivera"})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestAPIErrorSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	_, err := client.ListProviders(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Body, "upstream unavailable")
}

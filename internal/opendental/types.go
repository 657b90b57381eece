package opendental

import (
	"context"
	"time"
)

// Wire formats used by the practice-management API. Query boundaries are
// calendar dates; appointment times carry no timezone designator and are
// interpreted in the office's local time.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// AppointmentStatus mirrors the scheduling states the practice-management
// system tracks.
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "Scheduled"
	StatusComplete    AppointmentStatus = "Complete"
	StatusUnschedList AppointmentStatus = "UnschedList"
	StatusASAP        AppointmentStatus = "ASAP"
	StatusBroken      AppointmentStatus = "Broken"
	StatusPlanned     AppointmentStatus = "Planned"
)

// PriorityASAP flags an appointment for the short-notice list.
const PriorityASAP = "ASAP"

// Gateway defines the practice-management operations the agent core consumes.
// Implementations are expected to be safe for sequential reuse within a
// conversation; the core never issues parallel calls.
type Gateway interface {
	// ListAppointments returns appointments matching the filter. Filter dates
	// are inclusive calendar dates.
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)

	// CreateAppointment books a new appointment.
	CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error)

	// UpdateAppointment applies a partial update to an existing appointment.
	UpdateAppointment(ctx context.Context, appointmentID string, patch AppointmentPatch) (*Appointment, error)

	// BreakAppointment cancels an appointment, optionally applying a penalty
	// marker and returning the patient to the unscheduled list.
	BreakAppointment(ctx context.Context, appointmentID string, req BreakRequest) error

	// ListProviders returns the provider catalog.
	ListProviders(ctx context.Context) ([]Provider, error)

	// ListOperatories returns the treatment-room catalog.
	ListOperatories(ctx context.Context) ([]Operatory, error)

	// GetOfficeHours returns the per-weekday business hours.
	GetOfficeHours(ctx context.Context) (OfficeHours, error)

	// FindOrCreatePatient resolves a patient by name and/or phone, creating
	// a record when no match exists and the lookup has enough detail.
	FindOrCreatePatient(ctx context.Context, lookup PatientLookup) (*Patient, error)
}

// Provider is a dentist or hygienist on the office schedule.
type Provider struct {
	ID            string
	DisplayName   string
	SpecialtyTags []string
	IsHygienist   bool
	IsActive      bool
}

// Operatory is a treatment room, schedulable independently of provider.
type Operatory struct {
	ID            string
	DisplayName   string
	IsHygieneRoom bool
	IsActive      bool
}

// DayHours describes open/close times for one weekday, "HH:MM" 24h clock.
type DayHours struct {
	Open   string
	Close  string
	Closed bool
}

// OfficeHours maps weekday to business hours.
type OfficeHours map[time.Weekday]DayHours

// Appointment is a scheduled (or historical) visit.
type Appointment struct {
	ID              string
	PatientID       string
	ProviderID      string
	OperatoryID     string
	Start           time.Time
	DurationMinutes int
	Status          AppointmentStatus
	Priority        string
	Confirmed       string
	Note            string
	TreatmentPlanID string
}

// AppointmentFilter narrows a ListAppointments query. DateStart/DateEnd are
// "YYYY-MM-DD" calendar dates, never timestamps.
type AppointmentFilter struct {
	PatientID string
	DateStart string
	DateEnd   string
}

// CreateAppointmentRequest books a new appointment.
type CreateAppointmentRequest struct {
	PatientID       string
	ProviderID      string
	OperatoryID     string
	Start           time.Time
	DurationMinutes int
	Status          AppointmentStatus
	Note            string
	TreatmentPlanID string
}

// AppointmentPatch is a partial update; nil fields are left untouched.
type AppointmentPatch struct {
	Start         *time.Time
	ProviderID    *string
	OperatoryID   *string
	Status        *AppointmentStatus
	Priority      *string
	Confirmed     *string
	Note          *string
	TimeArrived   *time.Time
	TimeSeated    *time.Time
	TimeDismissed *time.Time
}

// BreakRequest cancels an appointment. PenaltyMarker is "Cancelled" for
// short-notice cancellations, "Missed" for no-shows, empty otherwise.
type BreakRequest struct {
	PenaltyMarker           string
	ReturnToUnscheduledList bool
}

// Patient is the subset of the patient record the agent needs.
type Patient struct {
	ID            string
	FirstName     string
	LastName      string
	Phone         string
	Birthdate     string
	HygienistID   string
	RecallDueDate string
}

// DisplayName renders the patient's full name.
func (p Patient) DisplayName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// PatientLookup resolves a patient by name and/or phone. Name matching is
// case-insensitive on the server side. Birthdate ("YYYY-MM-DD") is required
// only when a new record must be created.
type PatientLookup struct {
	Name      string
	Phone     string
	Birthdate string
}

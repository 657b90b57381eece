package schedule

import "time"

// BookingRequest is a candidate mutation checked against the live schedule
// before any gateway write.
type BookingRequest struct {
	PatientID       string
	ProviderID      string
	OperatoryID     string
	Start           time.Time
	DurationMinutes int
	Note            string
}

// End returns the exclusive end of the requested booking.
func (r BookingRequest) End() time.Time {
	return r.Start.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// ConflictReport flags overlap per dimension. Any true flag means the booking
// must not proceed; the orchestrator offers alternatives instead.
type ConflictReport struct {
	PatientConflict   bool
	ProviderConflict  bool
	OperatoryConflict bool
	Conflicting       []Interval
}

// Any reports whether at least one dimension conflicts.
func (r ConflictReport) Any() bool {
	return r.PatientConflict || r.ProviderConflict || r.OperatoryConflict
}

// DetectConflicts tests the booking against a freshly fetched interval set on
// the patient, provider, and operatory dimensions. excludeAppointmentID drops
// the appointment being rescheduled so it never conflicts with itself. Pure:
// same inputs, same report.
func DetectConflicts(fresh FreshIntervals, req BookingRequest, excludeAppointmentID string) ConflictReport {
	var report ConflictReport
	for _, iv := range fresh.Intervals() {
		if excludeAppointmentID != "" && iv.AppointmentID == excludeAppointmentID {
			continue
		}
		if !iv.Overlaps(req.Start, req.DurationMinutes) {
			continue
		}

		hit := false
		if req.PatientID != "" && iv.PatientID == req.PatientID {
			report.PatientConflict = true
			hit = true
		}
		if req.ProviderID != "" && iv.ProviderID == req.ProviderID {
			report.ProviderConflict = true
			hit = true
		}
		if req.OperatoryID != "" && iv.OperatoryID == req.OperatoryID {
			report.OperatoryConflict = true
			hit = true
		}
		if hit {
			report.Conflicting = append(report.Conflicting, iv)
		}
	}
	return report
}

package agent

import (
	"context"

	"github.com/ascendia-dental/frontdesk/internal/opendental"
	"github.com/ascendia-dental/frontdesk/internal/schedule"
)

// plannedLookbackDays covers planned treatment parked well in the past.
const plannedLookbackDays = 365

// handlePlanned schedules treatment the office already planned for the
// patient. With a concrete date and time the planned appointment is promoted
// to Scheduled in place; otherwise openings are offered.
func (s *Service) handlePlanned(ctx context.Context, req Request) (string, string, error) {
	snap, err := s.officeContext(ctx)
	if err != nil {
		return "", "", err
	}
	patient, err := s.resolvePatient(ctx, req)
	if err != nil {
		return "", "", err
	}

	today := schedule.DateOf(s.now())
	appts, err := s.gw.ListAppointments(ctx, opendental.AppointmentFilter{
		PatientID: patient.ID,
		DateStart: today.AddDays(-plannedLookbackDays).String(),
		DateEnd:   today.AddDays(upcomingWindowDays).String(),
	})
	if err != nil {
		return "", "", asGatewayFailure(err)
	}

	var planned *opendental.Appointment
	for i := range appts {
		if appts[i].Status == opendental.StatusPlanned {
			planned = &appts[i]
			break
		}
	}
	if planned == nil {
		return "I don't see any planned treatment on your chart. Would you like to book a regular visit instead?", OutcomeAnswered, nil
	}

	duration := planned.DurationMinutes
	if duration <= 0 {
		duration = snap.Defaults.AppointmentMinutes
	}
	providerID := planned.ProviderID
	if providerID == "" {
		providerID = snap.Defaults.ProviderID
	}
	operatoryID := planned.OperatoryID
	if operatoryID == "" {
		operatoryID = snap.Defaults.OperatoryID
	}

	when := ResolveWhen(req.Text, s.now())
	if !when.HasDate || !when.HasTime {
		reply, err := s.offerSlots(ctx, snap, schedule.Query{
			DateStart:       today,
			DateEnd:         today.AddDays(slotSearchDays),
			ProviderID:      providerID,
			OperatoryID:     operatoryID,
			DurationMinutes: duration,
		}, "Let's get that treatment scheduled. Here are our next openings:")
		if err != nil {
			return "", "", err
		}
		return reply, OutcomeAnswered, nil
	}

	start := when.Date.At(when.Hour, when.Minute)
	if !start.After(s.now()) {
		return pastTimeReply, OutcomeAnswered, nil
	}
	booking := schedule.BookingRequest{
		PatientID:       patient.ID,
		ProviderID:      providerID,
		OperatoryID:     operatoryID,
		Start:           start,
		DurationMinutes: duration,
	}
	fresh, err := s.freshForDate(ctx, start)
	if err != nil {
		return "", "", err
	}
	if report := schedule.DetectConflicts(fresh, booking, planned.ID); report.Any() {
		alternatives, err := s.offerSlots(ctx, snap, schedule.Query{
			DateStart:       when.Date,
			DateEnd:         when.Date.AddDays(slotSearchDays),
			ProviderID:      providerID,
			OperatoryID:     operatoryID,
			DurationMinutes: duration,
		}, "Here's what we do have open:")
		if err != nil {
			return "", "", err
		}
		return "", "", &slotConflictError{reply: renderConflictReply(start, alternatives)}
	}

	status := opendental.StatusScheduled
	updated, err := s.gw.UpdateAppointment(ctx, planned.ID, opendental.AppointmentPatch{
		Start:       &start,
		ProviderID:  &providerID,
		OperatoryID: &operatoryID,
		Status:      &status,
	})
	if err != nil {
		return "", "", asGatewayFailure(err)
	}

	name := s.providerName(ctx, snap, updated.ProviderID)
	return renderBookingConfirmation(updated.Start, name), OutcomeBooked, nil
}

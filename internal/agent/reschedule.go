package agent

import (
	"context"

	"github.com/ascendia-dental/frontdesk/internal/opendental"
	"github.com/ascendia-dental/frontdesk/internal/schedule"
)

// handleReschedule moves the caller's next appointment. Relative dates anchor
// to the existing appointment, not today: "next week" on a November 3rd
// appointment means November 10th regardless of when the caller texts.
func (s *Service) handleReschedule(ctx context.Context, req Request) (string, string, error) {
	snap, err := s.officeContext(ctx)
	if err != nil {
		return "", "", err
	}
	patient, err := s.resolvePatient(ctx, req)
	if err != nil {
		return "", "", err
	}
	appt, err := s.upcomingAppointment(ctx, patient.ID)
	if err != nil {
		return "", "", err
	}
	if appt == nil {
		return renderNoUpcomingReply("reschedule"), OutcomeAnswered, nil
	}

	when := ResolveWhen(req.Text, appt.Start)
	if !when.HasDate && !when.HasTime {
		apptDate := schedule.DateOf(appt.Start)
		reply, err := s.offerSlots(ctx, snap, schedule.Query{
			DateStart:       apptDate,
			DateEnd:         apptDate.AddDays(slotSearchDays),
			ProviderID:      appt.ProviderID,
			OperatoryID:     appt.OperatoryID,
			DurationMinutes: appt.DurationMinutes,
		}, "Sure, here are some times we could move you to:")
		if err != nil {
			return "", "", err
		}
		return reply, OutcomeAnswered, nil
	}

	// A time-only utterance keeps the appointment's date; a date-only one
	// keeps its time of day.
	newStart := when.At(appt.Start)
	if !newStart.After(s.now()) {
		return pastTimeReply, OutcomeAnswered, nil
	}

	fresh, err := s.freshForDate(ctx, newStart)
	if err != nil {
		return "", "", err
	}
	booking := schedule.BookingRequest{
		PatientID:       patient.ID,
		ProviderID:      appt.ProviderID,
		OperatoryID:     appt.OperatoryID,
		Start:           newStart,
		DurationMinutes: appt.DurationMinutes,
	}
	if report := schedule.DetectConflicts(fresh, booking, appt.ID); report.Any() {
		newDate := schedule.DateOf(newStart)
		alternatives, err := s.offerSlots(ctx, snap, schedule.Query{
			DateStart:       newDate,
			DateEnd:         newDate.AddDays(slotSearchDays),
			ProviderID:      appt.ProviderID,
			OperatoryID:     appt.OperatoryID,
			DurationMinutes: appt.DurationMinutes,
		}, "Here's what is open instead:")
		if err != nil {
			return "", "", err
		}
		return "", "", &slotConflictError{reply: renderConflictReply(newStart, alternatives)}
	}

	patch := opendental.AppointmentPatch{Start: &newStart}
	if appt.Status == opendental.StatusBroken {
		// Rescheduling a broken appointment reactivates it in the same write.
		status := opendental.StatusScheduled
		patch.Status = &status
	}
	updated, err := s.gw.UpdateAppointment(ctx, appt.ID, patch)
	if err != nil {
		return "", "", asGatewayFailure(err)
	}

	name := s.providerName(ctx, snap, updated.ProviderID)
	return renderRescheduleConfirmation(updated.Start, name), OutcomeRescheduled, nil
}

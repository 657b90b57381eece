package agent

import (
	"context"

	"github.com/ascendia-dental/frontdesk/internal/opendental"
	"github.com/ascendia-dental/frontdesk/internal/schedule"
)

// handleBook books an appointment when the caller gave a full date and time,
// and offers slot options otherwise.
func (s *Service) handleBook(ctx context.Context, req Request) (string, string, error) {
	snap, err := s.officeContext(ctx)
	if err != nil {
		return "", "", err
	}

	when := ResolveWhen(req.Text, s.now())

	providerID := preferredProvider(req.Text, snap)
	if providerID == "" {
		providerID = snap.Defaults.ProviderID
	}
	operatoryID := snap.Defaults.OperatoryID
	duration := snap.Defaults.AppointmentMinutes
	if duration <= 0 {
		duration = s.defaultMinutes
	}

	if !when.HasDate || !when.HasTime {
		dateStart := schedule.DateOf(s.now())
		if when.HasDate {
			dateStart = when.Date
		}
		reply, err := s.offerSlots(ctx, snap, applyDayPartHints(schedule.Query{
			DateStart:       dateStart,
			DateEnd:         dateStart.AddDays(slotSearchDays),
			ProviderID:      providerID,
			OperatoryID:     operatoryID,
			DurationMinutes: duration,
		}, when), "Here are our next openings:")
		if err != nil {
			return "", "", err
		}
		return reply, OutcomeAnswered, nil
	}

	patient, err := s.resolvePatient(ctx, req)
	if err != nil {
		return "", "", err
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
	if report := schedule.DetectConflicts(fresh, booking, ""); report.Any() {
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

	created, err := s.gw.CreateAppointment(ctx, opendental.CreateAppointmentRequest{
		PatientID:       patient.ID,
		ProviderID:      providerID,
		OperatoryID:     operatoryID,
		Start:           start,
		DurationMinutes: duration,
		Status:          opendental.StatusScheduled,
	})
	if err != nil {
		return "", "", asGatewayFailure(err)
	}

	name := s.providerName(ctx, snap, created.ProviderID)
	return renderBookingConfirmation(created.Start, name), OutcomeBooked, nil
}

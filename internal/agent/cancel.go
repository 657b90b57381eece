package agent

import (
	"context"
	"strings"
	"time"

	"github.com/ascendia-dental/frontdesk/internal/opendental"
	"github.com/ascendia-dental/frontdesk/internal/schedule"
)

const shortNoticeWindow = 24 * time.Hour

// declinesRebooking catches phrasing that asks for a clean cancellation. The
// default keeps the visit on the unscheduled follow-up list so the front desk
// can chase a new time.
func declinesRebooking(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range []string{
		"don't rebook",
		"dont rebook",
		"don't reschedule",
		"dont reschedule",
		"no need to reschedule",
		"just cancel",
		"won't be rescheduling",
		"wont be rescheduling",
	} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// handleCancel breaks the caller's next appointment, tiering the penalty
// marker by notice given: a past start is a no-show, under a day's notice is a
// short-notice cancellation, anything earlier carries no marker. The visit
// goes back on the unscheduled follow-up list unless the caller declines
// rebooking outright.
func (s *Service) handleCancel(ctx context.Context, req Request) (string, string, error) {
	patient, err := s.resolvePatient(ctx, req)
	if err != nil {
		return "", "", err
	}
	appt, err := s.upcomingAppointment(ctx, patient.ID)
	if err != nil {
		return "", "", err
	}
	if appt == nil {
		return renderNoUpcomingReply("cancel"), OutcomeAnswered, nil
	}

	var penalty string
	switch notice := appt.Start.Sub(s.now()); {
	case notice < 0:
		penalty = "Missed"
	case notice < shortNoticeWindow:
		penalty = "Cancelled"
	}

	err = s.gw.BreakAppointment(ctx, appt.ID, opendental.BreakRequest{
		PenaltyMarker:           penalty,
		ReturnToUnscheduledList: !declinesRebooking(req.Text),
	})
	if err != nil {
		return "", "", asGatewayFailure(err)
	}

	s.logASAPCandidates(ctx, appt)
	return renderCancelConfirmation(appt.Start), OutcomeCancelled, nil
}

// logASAPCandidates surfaces short-notice-list patients who could take the
// freed slot. Best effort: outreach is the front desk's call, so candidates
// are logged, not messaged.
func (s *Service) logASAPCandidates(ctx context.Context, freed *opendental.Appointment) {
	day := schedule.DateOf(freed.Start)
	appts, err := s.gw.ListAppointments(ctx, opendental.AppointmentFilter{
		DateStart: day.String(),
		DateEnd:   day.AddDays(upcomingWindowDays).String(),
	})
	if err != nil {
		s.logger.Warn("short-notice candidate lookup failed", "error", err)
		return
	}

	var candidates []string
	for _, a := range appts {
		if a.Priority == opendental.PriorityASAP && a.Start.After(freed.Start) {
			candidates = append(candidates, a.ID)
		}
	}
	if len(candidates) > 0 {
		s.logger.Info("freed slot has short-notice candidates",
			"freed_appointment_id", freed.ID,
			"freed_start", freed.Start.Format(opendental.DateTimeLayout),
			"candidate_appointment_ids", candidates,
		)
	}
}

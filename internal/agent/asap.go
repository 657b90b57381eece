package agent

import (
	"context"
	"strings"

	"github.com/ascendia-dental/frontdesk/internal/opendental"
)

// wantsOffList reports whether the caller is asking to leave the short-notice
// list rather than join it.
func wantsOffList(text string) bool {
	msg := strings.ToLower(text)
	return strings.Contains(msg, "take me off") ||
		strings.Contains(msg, "remove me") ||
		strings.Contains(msg, "off the list")
}

// handleASAP puts the caller's next appointment on the short-notice list, or
// takes it off. The appointment keeps its slot; the priority flag is what the
// front desk queries when a cancellation opens a gap.
func (s *Service) handleASAP(ctx context.Context, req Request) (string, string, error) {
	patient, err := s.resolvePatient(ctx, req)
	if err != nil {
		return "", "", err
	}
	appt, err := s.upcomingAppointment(ctx, patient.ID)
	if err != nil {
		return "", "", err
	}
	if appt == nil {
		return "You don't have an appointment on the books yet. Let's get one scheduled first, then I can add you to our short-notice list.", OutcomeAnswered, nil
	}

	if wantsOffList(req.Text) {
		priority := ""
		if _, err := s.gw.UpdateAppointment(ctx, appt.ID, opendental.AppointmentPatch{Priority: &priority}); err != nil {
			return "", "", asGatewayFailure(err)
		}
		return "No problem, you're off the short-notice list. Your appointment stays right where it is.", OutcomeAnswered, nil
	}

	priority := opendental.PriorityASAP
	if _, err := s.gw.UpdateAppointment(ctx, appt.ID, opendental.AppointmentPatch{Priority: &priority}); err != nil {
		return "", "", asGatewayFailure(err)
	}
	return renderASAPReply(appt.Start), OutcomeAnswered, nil
}

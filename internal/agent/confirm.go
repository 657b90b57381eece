package agent

import (
	"context"
	"strings"

	"github.com/ascendia-dental/frontdesk/internal/opendental"
)

// announcesArrival reports whether the caller is saying they are on site, as
// opposed to confirming ahead of time.
func announcesArrival(text string) bool {
	msg := strings.ToLower(text)
	for _, phrase := range []string{"i'm here", "im here", "i am here", "arrived", "checking in"} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// handleConfirm marks the caller's next appointment confirmed. An on-site
// check-in also stamps the arrival time.
func (s *Service) handleConfirm(ctx context.Context, req Request) (string, string, error) {
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
		return renderNoUpcomingReply("confirm"), OutcomeAnswered, nil
	}

	confirmed := "Confirmed"
	patch := opendental.AppointmentPatch{Confirmed: &confirmed}
	if announcesArrival(req.Text) {
		arrived := s.now()
		patch.TimeArrived = &arrived
	}
	updated, err := s.gw.UpdateAppointment(ctx, appt.ID, patch)
	if err != nil {
		return "", "", asGatewayFailure(err)
	}

	name := s.providerName(ctx, snap, updated.ProviderID)
	return renderConfirmReply(updated.Start, name), OutcomeConfirmed, nil
}

package agent

import (
	"context"

	"github.com/ascendia-dental/frontdesk/internal/schedule"
)

// handleAvailability answers "what do you have open" without touching the
// patient record; no identification is needed to quote openings.
func (s *Service) handleAvailability(ctx context.Context, req Request) (string, string, error) {
	snap, err := s.officeContext(ctx)
	if err != nil {
		return "", "", err
	}

	when := ResolveWhen(req.Text, s.now())
	dateStart := schedule.DateOf(s.now())
	dateEnd := dateStart.AddDays(slotSearchDays)
	if when.HasDate {
		dateStart = when.Date
		dateEnd = when.Date
	}

	reply, err := s.offerSlots(ctx, snap, applyDayPartHints(schedule.Query{
		DateStart:   dateStart,
		DateEnd:     dateEnd,
		ProviderID:  preferredProvider(req.Text, snap),
		OperatoryID: snap.Defaults.OperatoryID,
	}, when), "Here's what we have open:")
	if err != nil {
		return "", "", err
	}
	return reply, OutcomeAnswered, nil
}

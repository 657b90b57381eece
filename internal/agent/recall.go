package agent

import (
	"context"

	"github.com/ascendia-dental/frontdesk/internal/schedule"
)

// handleRecall offers hygiene openings for a cleaning, preferring the
// patient's assigned hygienist and the hygiene operatory. A future recall due
// date anchors the search so the cleaning lands when it is actually due.
func (s *Service) handleRecall(ctx context.Context, req Request) (string, string, error) {
	snap, err := s.officeContext(ctx)
	if err != nil {
		return "", "", err
	}
	patient, err := s.resolvePatient(ctx, req)
	if err != nil {
		return "", "", err
	}

	providerID := patient.HygienistID
	if providerID == "" {
		if hygienists := snap.Hygienists(); len(hygienists) > 0 {
			providerID = hygienists[0].ID
		} else {
			providerID = snap.Defaults.ProviderID
		}
	}

	today := schedule.DateOf(s.now())
	dateStart := today
	if due, err := schedule.ParseDate(patient.RecallDueDate); err == nil && due.After(today) {
		dateStart = due
	}
	when := ResolveWhen(req.Text, s.now())
	if when.HasDate {
		dateStart = when.Date
	}

	reply, err := s.offerSlots(ctx, snap, applyDayPartHints(schedule.Query{
		DateStart:   dateStart,
		DateEnd:     dateStart.AddDays(slotSearchDays),
		ProviderID:  providerID,
		OperatoryID: snap.HygieneOperatory(),
	}, when), "Time for your cleaning! Here are our next hygiene openings:")
	if err != nil {
		return "", "", err
	}
	return reply, OutcomeAnswered, nil
}

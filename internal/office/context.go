package office

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ascendia-dental/frontdesk/internal/opendental"
	"github.com/ascendia-dental/frontdesk/internal/schedule"
	"github.com/ascendia-dental/frontdesk/pkg/logging"
)

const (
	// DefaultTTL bounds how long a snapshot may serve read-heavy defaults.
	DefaultTTL = 5 * time.Minute

	// DefaultWindowDays is the hint-interval horizon fetched at build time.
	DefaultWindowDays = 7

	defaultAppointmentMinutes = 30
)

// HintInterval is a best-effort occupied span captured at snapshot build
// time. It deliberately shares no type with schedule.FreshIntervals: hints
// may be stale relative to bookings made later in the same conversation, so
// conflict checks cannot consume them.
type HintInterval struct {
	AppointmentID   string
	PatientID       string
	ProviderID      string
	OperatoryID     string
	Start           time.Time
	DurationMinutes int
}

// Defaults are the office's fallback booking parameters.
type Defaults struct {
	ProviderID         string
	OperatoryID        string
	AppointmentMinutes int
}

// Snapshot is a time-boxed capture of low-churn office data. It is immutable
// after Build; refresh happens by building a replacement, never by mutating
// an existing snapshot.
type Snapshot struct {
	Providers   []opendental.Provider
	Operatories []opendental.Operatory
	Hours       opendental.OfficeHours
	Hints       []HintInterval
	Defaults    Defaults
	FetchedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the snapshot has outlived its TTL.
func (s *Snapshot) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Provider looks up a provider by ID.
func (s *Snapshot) Provider(id string) (opendental.Provider, bool) {
	for _, p := range s.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return opendental.Provider{}, false
}

// ProviderName returns the display name for a provider ID.
func (s *Snapshot) ProviderName(id string) (string, bool) {
	p, ok := s.Provider(id)
	if !ok {
		return "", false
	}
	return p.DisplayName, true
}

// Hygienists returns the active hygienists on staff.
func (s *Snapshot) Hygienists() []opendental.Provider {
	var out []opendental.Provider
	for _, p := range s.Providers {
		if p.IsHygienist && p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

// HygieneOperatory returns an active hygiene room, falling back to the
// default operatory when the office has none.
func (s *Snapshot) HygieneOperatory() string {
	for _, op := range s.Operatories {
		if op.IsHygieneRoom && op.IsActive {
			return op.ID
		}
	}
	return s.Defaults.OperatoryID
}

// Builder constructs snapshots from the gateway.
type Builder struct {
	gw         opendental.Gateway
	logger     *logging.Logger
	ttl        time.Duration
	windowDays int
	now        func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithTTL overrides the snapshot TTL.
func WithTTL(ttl time.Duration) BuilderOption {
	return func(b *Builder) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithWindowDays overrides the hint-interval horizon.
func WithWindowDays(days int) BuilderOption {
	return func(b *Builder) {
		if days > 0 {
			b.windowDays = days
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBuilder creates a snapshot builder.
func NewBuilder(gw opendental.Gateway, logger *logging.Logger, opts ...BuilderOption) *Builder {
	if gw == nil {
		panic("office: gateway required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	b := &Builder{
		gw:         gw,
		logger:     logger,
		ttl:        DefaultTTL,
		windowDays: DefaultWindowDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fetches providers, operatories, office hours, and near-term occupied
// hints in one pass. Individual catalog failures degrade to empty sections so
// the orchestrator can still fall back to direct gateway queries; Build
// returns an error only when every fetch failed.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	now := b.now()
	snap := &Snapshot{
		FetchedAt: now,
		ExpiresAt: now.Add(b.ttl),
	}

	var failures []error

	providers, err := b.gw.ListProviders(ctx)
	if err != nil {
		b.logger.Warn("office context: provider catalog fetch failed", "error", err)
		failures = append(failures, err)
	} else {
		snap.Providers = providers
	}

	operatories, err := b.gw.ListOperatories(ctx)
	if err != nil {
		b.logger.Warn("office context: operatory catalog fetch failed", "error", err)
		failures = append(failures, err)
	} else {
		snap.Operatories = operatories
	}

	hours, err := b.gw.GetOfficeHours(ctx)
	if err != nil {
		b.logger.Warn("office context: office hours fetch failed", "error", err)
		failures = append(failures, err)
	} else {
		snap.Hours = hours
	}

	today := schedule.DateOf(now)
	appts, err := b.gw.ListAppointments(ctx, opendental.AppointmentFilter{
		DateStart: today.String(),
		DateEnd:   today.AddDays(b.windowDays).String(),
	})
	if err != nil {
		b.logger.Warn("office context: occupied hint fetch failed", "error", err)
		failures = append(failures, err)
	} else {
		snap.Hints = hintsFromAppointments(appts)
	}

	if len(failures) == 4 {
		return nil, fmt.Errorf("office: context build failed entirely: %w", errors.Join(failures...))
	}

	snap.Defaults = deriveDefaults(snap.Providers, snap.Operatories)
	return snap, nil
}

func hintsFromAppointments(appts []opendental.Appointment) []HintInterval {
	hints := make([]HintInterval, 0, len(appts))
	for _, appt := range appts {
		if appt.Status == opendental.StatusBroken || appt.Status == opendental.StatusComplete {
			continue
		}
		duration := appt.DurationMinutes
		if duration <= 0 {
			duration = defaultAppointmentMinutes
		}
		hints = append(hints, HintInterval{
			AppointmentID:   appt.ID,
			PatientID:       appt.PatientID,
			ProviderID:      appt.ProviderID,
			OperatoryID:     appt.OperatoryID,
			Start:           appt.Start,
			DurationMinutes: duration,
		})
	}
	return hints
}

// deriveDefaults picks the first active dentist and first active standard
// room as office defaults, with hygienists and hygiene rooms as fallbacks.
func deriveDefaults(providers []opendental.Provider, operatories []opendental.Operatory) Defaults {
	d := Defaults{AppointmentMinutes: defaultAppointmentMinutes}

	for _, p := range providers {
		if p.IsActive && !p.IsHygienist {
			d.ProviderID = p.ID
			break
		}
	}
	if d.ProviderID == "" {
		for _, p := range providers {
			if p.IsActive {
				d.ProviderID = p.ID
				break
			}
		}
	}

	for _, op := range operatories {
		if op.IsActive && !op.IsHygieneRoom {
			d.OperatoryID = op.ID
			break
		}
	}
	if d.OperatoryID == "" {
		for _, op := range operatories {
			if op.IsActive {
				d.OperatoryID = op.ID
				break
			}
		}
	}
	return d
}

package agent

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ascendia-dental/frontdesk/internal/observability/metrics"
	"github.com/ascendia-dental/frontdesk/internal/office"
	"github.com/ascendia-dental/frontdesk/internal/opendental"
	"github.com/ascendia-dental/frontdesk/internal/schedule"
	"github.com/ascendia-dental/frontdesk/pkg/logging"
)

const (
	// upcomingWindowDays bounds the search for "my appointment" phrasing.
	upcomingWindowDays = 90

	// slotSearchDays is the default availability window when the caller gives
	// no date.
	slotSearchDays = 6
)

// Service orchestrates one caller turn end to end: classify, resolve, check,
// mutate, render. It holds a cached office snapshot; everything else is
// stateless per turn.
type Service struct {
	gw             opendental.Gateway
	resolver       *schedule.Resolver
	officeBuilder  *office.Builder
	logger         *logging.Logger
	metrics        *metrics.AgentMetrics
	tracer         trace.Tracer
	now            func() time.Time
	maxOptions     int
	defaultMinutes int

	mu   sync.Mutex
	snap *office.Snapshot
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches turn metrics.
func WithMetrics(m *metrics.AgentMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxOptions overrides how many slot options a reply offers.
func WithMaxOptions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxOptions = n
		}
	}
}

// WithDefaultMinutes overrides the fallback appointment length.
func WithDefaultMinutes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultMinutes = n
		}
	}
}

// NewService wires the agent orchestrator.
func NewService(gw opendental.Gateway, resolver *schedule.Resolver, builder *office.Builder, logger *logging.Logger, opts ...Option) *Service {
	if gw == nil {
		panic("agent: gateway required")
	}
	if resolver == nil {
		panic("agent: resolver required")
	}
	if builder == nil {
		panic("agent: office builder required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		gw:             gw,
		resolver:       resolver,
		officeBuilder:  builder,
		logger:         logger,
		tracer:         otel.Tracer("frontdesk/agent"),
		now:            time.Now,
		maxOptions:     3,
		defaultMinutes: 30,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleUtterance processes one caller turn and always produces a reply.
// Gateway failures render an apology; the error taxonomy never escapes to the
// transport.
func (s *Service) HandleUtterance(ctx context.Context, req Request) Response {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "agent.HandleUtterance")
	defer span.End()

	intent := ClassifyIntent(req.Text)
	span.SetAttributes(
		attribute.String("agent.intent", string(intent)),
		attribute.String("agent.conversation_id", req.ConversationID),
	)

	reply, outcome := s.dispatch(ctx, intent, req)

	elapsed := s.now().Sub(start).Seconds()
	s.metrics.ObserveTurn(string(intent), outcome, elapsed)
	s.logger.Info("caller turn handled",
		"conversation_id", req.ConversationID,
		"intent", string(intent),
		"outcome", outcome,
	)

	return Response{Text: reply, Intent: intent, Outcome: outcome}
}

func (s *Service) dispatch(ctx context.Context, intent Intent, req Request) (string, string) {
	var (
		reply   string
		outcome string
		err     error
	)
	switch intent {
	case IntentBook:
		reply, outcome, err = s.handleBook(ctx, req)
	case IntentReschedule:
		reply, outcome, err = s.handleReschedule(ctx, req)
	case IntentCancel:
		reply, outcome, err = s.handleCancel(ctx, req)
	case IntentConfirm:
		reply, outcome, err = s.handleConfirm(ctx, req)
	case IntentAvailability:
		reply, outcome, err = s.handleAvailability(ctx, req)
	case IntentRecall:
		reply, outcome, err = s.handleRecall(ctx, req)
	case IntentPlanned:
		reply, outcome, err = s.handlePlanned(ctx, req)
	case IntentASAP:
		reply, outcome, err = s.handleASAP(ctx, req)
	default:
		return unknownReply, OutcomeAnswered
	}
	if err == nil {
		return reply, outcome
	}
	return s.renderFailure(intent, req, err)
}

// renderFailure converts a workflow error into a caller-safe reply.
func (s *Service) renderFailure(intent Intent, req Request, err error) (string, string) {
	var conflict *slotConflictError
	switch {
	case errors.As(err, &conflict):
		return conflict.reply, OutcomeConflict
	case errors.Is(err, ErrPatientNotFound):
		return whoIsCallingReply, OutcomeAnswered
	case errors.Is(err, ErrValidation):
		return unknownReply, OutcomeAnswered
	default:
		s.metrics.ObserveGatewayFailure()
		s.logger.Error("gateway failure during caller turn",
			"conversation_id", req.ConversationID,
			"intent", string(intent),
			"error", err,
		)
		return apologyReply, OutcomeFailed
	}
}

// officeContext returns the cached snapshot, rebuilding past its TTL. A stale
// snapshot is replaced wholesale; when the rebuild fails the expired one is
// kept as a last resort for read-only lookups.
func (s *Service) officeContext(ctx context.Context) (*office.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap != nil && !s.snap.Expired(s.now()) {
		return s.snap, nil
	}

	snap, err := s.officeBuilder.Build(ctx)
	if err != nil {
		if s.snap != nil {
			s.logger.Warn("office context rebuild failed, serving expired snapshot", "error", err)
			return s.snap, nil
		}
		return nil, asGatewayFailure(err)
	}
	s.snap = snap
	return snap, nil
}

var (
	phoneRE     = regexp.MustCompile(`\+?1?[\s.-]?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)
	nameRE      = regexp.MustCompile(`(?i)\b(?:my name is|this is|i'?m)\s+([A-Za-z][A-Za-z'-]+(?:\s+[A-Za-z][A-Za-z'-]+)?)`)
	birthdateRE = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
)

// resolvePatient builds a lookup from the current utterance plus prior caller
// turns, then resolves or creates the record through the gateway.
func (s *Service) resolvePatient(ctx context.Context, req Request) (*opendental.Patient, error) {
	text := req.Text
	for _, turn := range req.History {
		if turn.Role == RoleCaller {
			text += "\n" + turn.Content
		}
	}

	lookup := opendental.PatientLookup{}
	if m := phoneRE.FindString(text); m != "" {
		lookup.Phone = m
	}
	if m := nameRE.FindStringSubmatch(text); m != nil {
		lookup.Name = strings.TrimSpace(m[1])
	}
	if m := birthdateRE.FindStringSubmatch(text); m != nil {
		// Only treat it as a birthdate when the year is in the past; otherwise
		// it is an appointment date.
		if y := m[1][:4]; y < "2020" {
			lookup.Birthdate = m[1]
		}
	}

	if lookup.Name == "" && lookup.Phone == "" {
		return nil, ErrPatientNotFound
	}

	patient, err := s.gw.FindOrCreatePatient(ctx, lookup)
	if err != nil {
		return nil, asGatewayFailure(err)
	}
	return patient, nil
}

// preferredProvider scans the utterance for a provider mentioned by name.
func preferredProvider(text string, snap *office.Snapshot) string {
	msg := strings.ToLower(text)
	for _, p := range snap.Providers {
		if !p.IsActive || p.DisplayName == "" {
			continue
		}
		if strings.Contains(msg, strings.ToLower(p.DisplayName)) {
			return p.ID
		}
		// Match on surname alone: "with Smith" for "Dr. Smith".
		parts := strings.Fields(p.DisplayName)
		last := strings.ToLower(parts[len(parts)-1])
		if len(last) > 2 && strings.Contains(msg, last) {
			return p.ID
		}
	}
	return ""
}

// providerName resolves a display name, falling back to a direct catalog fetch
// when the snapshot section failed to build. Confirmations must carry the
// name, so this is worth an extra call.
func (s *Service) providerName(ctx context.Context, snap *office.Snapshot, providerID string) string {
	if name, ok := snap.ProviderName(providerID); ok && name != "" {
		return name
	}
	providers, err := s.gw.ListProviders(ctx)
	if err == nil {
		for _, p := range providers {
			if p.ID == providerID && p.DisplayName != "" {
				return p.DisplayName
			}
		}
	}
	return "your provider"
}

// freshForDate fetches live occupied intervals for the day of the candidate
// start. Always a direct gateway read; the snapshot's hints are never used
// here.
func (s *Service) freshForDate(ctx context.Context, start time.Time) (schedule.FreshIntervals, error) {
	day := schedule.DateOf(start)
	fresh, err := schedule.FetchFresh(ctx, s.gw, day, day)
	if err != nil {
		return schedule.FreshIntervals{}, asGatewayFailure(err)
	}
	return fresh, nil
}

// upcomingAppointment finds the patient's next appointment that still occupies
// the schedule, soonest first.
func (s *Service) upcomingAppointment(ctx context.Context, patientID string) (*opendental.Appointment, error) {
	today := schedule.DateOf(s.now())
	appts, err := s.gw.ListAppointments(ctx, opendental.AppointmentFilter{
		PatientID: patientID,
		DateStart: today.String(),
		DateEnd:   today.AddDays(upcomingWindowDays).String(),
	})
	if err != nil {
		return nil, asGatewayFailure(err)
	}

	var next *opendental.Appointment
	for i := range appts {
		appt := &appts[i]
		switch appt.Status {
		case opendental.StatusScheduled, opendental.StatusASAP, opendental.StatusBroken:
		default:
			continue
		}
		if next == nil || appt.Start.Before(next.Start) {
			next = appt
		}
	}
	if next == nil {
		return nil, nil
	}
	return next, nil
}

// applyDayPartHints bounds a slot query to the caller's part of day.
func applyDayPartHints(q schedule.Query, w When) schedule.Query {
	if w.Morning {
		q.LatestHour = 12
	}
	if w.Afternoon {
		q.EarliestHour = 12
	}
	return q
}

// offerSlots runs the resolver for the range and renders the options.
func (s *Service) offerSlots(ctx context.Context, snap *office.Snapshot, q schedule.Query, lead string) (string, error) {
	q.MaxOptions = s.maxOptions
	if q.DurationMinutes <= 0 {
		q.DurationMinutes = s.defaultMinutes
	}
	q.Hours = snap.Hours
	slots, err := s.resolver.FindAvailableSlots(ctx, q)
	if err != nil {
		return "", asGatewayFailure(err)
	}
	return renderSlotOptions(slots, snap, lead), nil
}

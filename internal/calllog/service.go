package calllog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ascendia-dental/frontdesk/internal/agent"
	"github.com/ascendia-dental/frontdesk/pkg/logging"
)

// Service writes the turn audit log. A nil Service is valid and records
// nothing, so deployments without PostgreSQL still run.
type Service struct {
	repo   *Repository
	logger *logging.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewService wires the audit log service.
func NewService(repo *Repository, logger *logging.Logger) *Service {
	if repo == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
		tracer: otel.Tracer("frontdesk/calllog"),
		now:    time.Now,
	}
}

// Record logs one handled turn. Failures are logged and swallowed; the caller
// already has their reply and the audit trail must not break the conversation.
func (s *Service) Record(ctx context.Context, req agent.Request, resp agent.Response) {
	if s == nil {
		return
	}
	ctx, span := s.tracer.Start(ctx, "calllog.record")
	defer span.End()

	rec := TurnRecord{
		ID:             uuid.New(),
		OrgID:          req.OrgID,
		ConversationID: req.ConversationID,
		Intent:         string(resp.Intent),
		Utterance:      req.Text,
		Reply:          resp.Text,
		Outcome:        resp.Outcome,
		CreatedAt:      s.now(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		span.RecordError(err)
		s.logger.Error("call log write failed",
			"conversation_id", req.ConversationID,
			"error", err,
		)
	}
}

// History returns the stored transcript for a conversation.
func (s *Service) History(ctx context.Context, conversationID string, limit int) ([]TurnRecord, error) {
	if s == nil {
		return nil, nil
	}
	ctx, span := s.tracer.Start(ctx, "calllog.history")
	defer span.End()
	return s.repo.RecentForConversation(ctx, conversationID, limit)
}

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ascendia-dental/frontdesk/internal/agent"
)

const historyTTL = 24 * time.Hour

// Store keeps per-conversation turn history in Redis so the agent stays
// stateless across requests. Histories expire a day after the last turn.
type Store struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewStore creates a conversation history store.
func NewStore(client *redis.Client, tracer trace.Tracer) *Store {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("frontdesk/session")
	}
	return &Store{redis: client, tracer: tracer}
}

// Save persists the full history for a conversation, resetting its TTL.
func (s *Store) Save(ctx context.Context, conversationID string, history []agent.Turn) error {
	ctx, span := s.tracer.Start(ctx, "session.save_history")
	defer span.End()

	data, err := json.Marshal(history)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal history: %w", err)
	}
	if err := s.redis.Set(ctx, historyKey(conversationID), data, historyTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist history: %w", err)
	}
	return nil
}

// Load returns the history for a conversation. An unknown conversation is a
// new one; it loads as empty, not as an error.
func (s *Store) Load(ctx context.Context, conversationID string) ([]agent.Turn, error) {
	ctx, span := s.tracer.Start(ctx, "session.load_history")
	defer span.End()

	data, err := s.redis.Get(ctx, historyKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load history: %w", err)
	}

	var history []agent.Turn
	if err := json.Unmarshal(data, &history); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode history: %w", err)
	}
	return history, nil
}

// Append loads, extends, and saves in one call for the common handler path.
func (s *Store) Append(ctx context.Context, conversationID string, turns ...agent.Turn) error {
	history, err := s.Load(ctx, conversationID)
	if err != nil {
		return err
	}
	return s.Save(ctx, conversationID, append(history, turns...))
}

func historyKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

package calllog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TurnRecord is one handled caller turn in the audit log.
type TurnRecord struct {
	ID             uuid.UUID
	OrgID          string
	ConversationID string
	Intent         string
	Utterance      string
	Reply          string
	Outcome        string
	CreatedAt      time.Time
}

// querier is the pgx surface the repository needs; pgxpool.Pool satisfies it,
// as do mocks in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository persists the turn audit log to PostgreSQL.
type Repository struct {
	db querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("calllog: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(q querier) *Repository {
	return &Repository{db: q}
}

// Insert appends a turn to the log.
func (r *Repository) Insert(ctx context.Context, rec TurnRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO agent_turns (
			id, org_id, conversation_id, intent, utterance, reply, outcome, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID, rec.OrgID, rec.ConversationID, rec.Intent, rec.Utterance, rec.Reply, rec.Outcome, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("calllog: insert turn: %w", err)
	}
	return nil
}

// RecentForOrg returns the newest turns across an office, for front-desk
// review.
func (r *Repository) RecentForOrg(ctx context.Context, orgID string, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, org_id, conversation_id, intent, utterance, reply, outcome, created_at
		FROM agent_turns
		WHERE org_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("calllog: list org turns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

// RecentForConversation returns the latest turns for a conversation, oldest
// first.
func (r *Repository) RecentForConversation(ctx context.Context, conversationID string, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, org_id, conversation_id, intent, utterance, reply, outcome, created_at
		FROM agent_turns
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("calllog: list turns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

func scanTurns(rows pgx.Rows) ([]TurnRecord, error) {
	var records []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		if err := rows.Scan(
			&rec.ID, &rec.OrgID, &rec.ConversationID, &rec.Intent,
			&rec.Utterance, &rec.Reply, &rec.Outcome, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("calllog: scan turn: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calllog: read turns: %w", err)
	}
	return records, nil
}

package calllog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertTurn(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rec := TurnRecord{
		ID:             uuid.New(),
		OrgID:          "org-1",
		ConversationID: "c1",
		Intent:         "book",
		Utterance:      "book me for tomorrow at 2pm",
		Reply:          "You're all set!",
		Outcome:        "booked",
		CreatedAt:      time.Date(2025, time.November, 3, 8, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO agent_turns").
		WithArgs(rec.ID, rec.OrgID, rec.ConversationID, rec.Intent, rec.Utterance, rec.Reply, rec.Outcome, rec.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewRepositoryWithQuerier(mock)
	require.NoError(t, repo.Insert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTurnWrapsError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO agent_turns").
		WillReturnError(errors.New("connection reset"))

	repo := NewRepositoryWithQuerier(mock)
	err = repo.Insert(context.Background(), TurnRecord{ID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calllog: insert turn")
}

func TestRecentForOrg(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{
		"id", "org_id", "conversation_id", "intent", "utterance", "reply", "outcome", "created_at",
	}).
		AddRow(uuid.New(), "org-1", "c2", "book", "book me in", "You're all set!", "booked", time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC)).
		AddRow(uuid.New(), "org-1", "c1", "confirm", "confirming", "See you then", "confirmed", time.Date(2025, time.November, 3, 8, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT (.+) FROM agent_turns").
		WithArgs("org-1", 10).
		WillReturnRows(rows)

	repo := NewRepositoryWithQuerier(mock)
	records, err := repo.RecentForOrg(context.Background(), "org-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c2", records[0].ConversationID, "newest first")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentForConversation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	created := time.Date(2025, time.November, 3, 8, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "org_id", "conversation_id", "intent", "utterance", "reply", "outcome", "created_at",
	}).AddRow(id, "org-1", "c1", "cancel", "I need to cancel", "Your appointment has been cancelled", "cancelled", created)

	mock.ExpectQuery("SELECT (.+) FROM agent_turns").
		WithArgs("c1", 50).
		WillReturnRows(rows)

	repo := NewRepositoryWithQuerier(mock)
	records, err := repo.RecentForConversation(context.Background(), "c1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, "cancel", records[0].Intent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ascendia-dental/frontdesk/internal/agent"
	"github.com/ascendia-dental/frontdesk/internal/calllog"
	"github.com/ascendia-dental/frontdesk/internal/session"
	"github.com/ascendia-dental/frontdesk/pkg/logging"
)

// UtteranceHandler is the slice of the agent the HTTP layer calls.
type UtteranceHandler interface {
	HandleUtterance(ctx context.Context, req agent.Request) agent.Response
}

// AgentHandler exposes the conversational agent over HTTP.
type AgentHandler struct {
	svc      UtteranceHandler
	sessions *session.Store
	calls    *calllog.Service
	logger   *logging.Logger
}

// NewAgentHandler wires the agent endpoint. sessions and calls may be nil;
// the turn still completes without history or audit logging.
func NewAgentHandler(svc UtteranceHandler, sessions *session.Store, calls *calllog.Service, logger *logging.Logger) *AgentHandler {
	if svc == nil {
		panic("handlers: agent service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AgentHandler{svc: svc, sessions: sessions, calls: calls, logger: logger}
}

type utteranceRequest struct {
	ConversationID string `json:"conversation_id"`
	OrgID          string `json:"org_id"`
	Text           string `json:"text"`
}

type utteranceResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
	Intent         string `json:"intent"`
	Outcome        string `json:"outcome"`
}

// HandleUtterance is POST /v1/agent/utterance.
func (h *AgentHandler) HandleUtterance(w http.ResponseWriter, r *http.Request) {
	var req utteranceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	ctx := r.Context()

	var history []agent.Turn
	if h.sessions != nil {
		loaded, err := h.sessions.Load(ctx, req.ConversationID)
		if err != nil {
			// A lost history degrades the turn, it does not fail it.
			h.logger.Warn("history load failed", "conversation_id", req.ConversationID, "error", err)
		} else {
			history = loaded
		}
	}

	agentReq := agent.Request{
		ConversationID: req.ConversationID,
		OrgID:          req.OrgID,
		Text:           req.Text,
		History:        history,
	}
	resp := h.svc.HandleUtterance(ctx, agentReq)

	if h.sessions != nil {
		err := h.sessions.Append(ctx, req.ConversationID,
			agent.Turn{Role: agent.RoleCaller, Content: req.Text},
			agent.Turn{Role: agent.RoleAssistant, Content: resp.Text},
		)
		if err != nil {
			h.logger.Warn("history save failed", "conversation_id", req.ConversationID, "error", err)
		}
	}
	h.calls.Record(ctx, agentReq, resp)

	writeJSON(w, http.StatusOK, utteranceResponse{
		ConversationID: req.ConversationID,
		Reply:          resp.Text,
		Intent:         string(resp.Intent),
		Outcome:        resp.Outcome,
	})
}

type logTurn struct {
	Intent    string `json:"intent"`
	Utterance string `json:"utterance"`
	Reply     string `json:"reply"`
	Outcome   string `json:"outcome"`
	CreatedAt string `json:"created_at"`
}

// ConversationLog is GET /v1/agent/conversations/{conversationID}/log.
func (h *AgentHandler) ConversationLog(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation id is required")
		return
	}

	records, err := h.calls.History(r.Context(), conversationID, 0)
	if err != nil {
		h.logger.Error("conversation log read failed", "conversation_id", conversationID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load conversation log")
		return
	}

	out := make([]logTurn, 0, len(records))
	for _, rec := range records {
		out = append(out, logTurn{
			Intent:    rec.Intent,
			Utterance: rec.Utterance,
			Reply:     rec.Reply,
			Outcome:   rec.Outcome,
			CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversation_id": conversationID, "turns": out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

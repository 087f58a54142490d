package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/funnel"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// chatHandler serves POST /v1/chat — the single conversational entry point.
//
// Request:  {"session_id": "...", "message": "I want running shoes"}
// Response: {"reply": "...", "session_id": "...", "stage": "AWAITING_SELECTION", ...}
//
// A missing session_id starts a new conversation under a generated id, which
// the client must echo back on subsequent turns.
func chatHandler(svc *funnel.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat")
		defer span.End()

		var req domain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			handleServiceError(w, &domain.ErrValidation{Field: "message", Message: "must not be empty"}, logger)
			return
		}
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}
		span.SetAttributes(attribute.String("chat.session_id", req.SessionID))

		resp, err := svc.Chat(ctx, req.SessionID, CustomerIDFromContext(ctx), req.Message)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// sessionHandler serves GET /v1/sessions/{sessionId} — a debugging window
// into the funnel state the store holds for a conversation.
func sessionHandler(sessions port.SessionStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/sessions/{sessionId}")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		sess, err := sessions.Load(ctx, sessionID)
		if err != nil {
			handleServiceError(w, &domain.ErrExternalService{Service: "session_store", Err: err}, logger)
			return
		}
		if sess == nil {
			handleServiceError(w, &domain.ErrNotFound{Resource: "session", ID: sessionID}, logger)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

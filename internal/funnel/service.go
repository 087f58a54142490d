package funnel

import (
	"context"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/port"

	"go.uber.org/zap"
)

// Service binds the orchestrator to a session store and an optional reply
// phraser. Chat is the only surface a transport layer (HTTP, CLI, chat UI)
// needs.
type Service struct {
	orchestrator *Orchestrator
	sessions     port.SessionStore
	phraser      port.ReplyPhraser // nil disables phrasing
	logger       *zap.Logger
}

// NewService creates the turn service. Pass a nil phraser to always use the
// orchestrator's canonical replies.
func NewService(orchestrator *Orchestrator, sessions port.SessionStore, phraser port.ReplyPhraser, logger *zap.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		sessions:     sessions,
		phraser:      phraser,
		logger:       logger,
	}
}

// Chat runs one conversation turn: load the session (a fresh one for unknown
// ids), advance the funnel, optionally rephrase the reply, persist, respond.
//
// A session-store load failure is the one fault that surfaces as an error:
// without the session there is no state to advance. Everything downstream of
// HandleTurn degrades instead — a phrasing failure falls back to the
// canonical reply, and a save failure is logged but the customer still gets
// their answer (the next turn simply replays from the last saved state).
func (s *Service) Chat(ctx context.Context, sessionID, customerID, message string) (*domain.ChatResponse, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "session_store", Err: err}
	}
	if sess == nil {
		sess = domain.NewSession(customerID)
	}
	if customerID != "" && customerID != domain.GuestCustomerID {
		sess.CustomerID = customerID
	}

	turn := s.orchestrator.HandleTurn(ctx, message, sess)
	reply := s.phrase(ctx, message, turn, sess)

	if err := s.sessions.Save(ctx, sessionID, sess); err != nil {
		s.logger.Error("session save failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}

	return &domain.ChatResponse{
		Reply:           reply,
		SessionID:       sessionID,
		Stage:           sess.Stage,
		Recommendations: sess.Recommendations,
		OrderID:         sess.OrderID,
	}, nil
}

func (s *Service) phrase(ctx context.Context, message string, turn *Turn, sess *domain.Session) string {
	if s.phraser == nil {
		return turn.Reply
	}
	phrased, err := s.phraser.Phrase(ctx, &domain.ReplyFacts{
		Message:        message,
		Rule:           turn.Rule,
		Stage:          sess.Stage,
		CanonicalReply: turn.Reply,
		Facts:          turn.Facts,
	})
	if err != nil || phrased == "" {
		s.logger.Warn("reply phrasing failed, using canonical reply", zap.Error(err))
		return turn.Reply
	}
	return phrased
}

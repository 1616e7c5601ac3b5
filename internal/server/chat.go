package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/koukiniwa/ai-kouki-backend/internal/ai"
	"github.com/koukiniwa/ai-kouki-backend/internal/persona"
	"github.com/koukiniwa/ai-kouki-backend/internal/session"
	"github.com/koukiniwa/ai-kouki-backend/internal/utils"
)

// ErrEmptyMessage is returned for a chat request without text.
var ErrEmptyMessage = errors.New("メッセージが空です")

// ContextBuilder renders the retrieval context for a query;
// *retrieval.Engine implements it.
type ContextBuilder interface {
	BuildContext(ctx context.Context, query string) string
}

// ChatService runs one chat turn: record the user turn, build context,
// call the model with the full transcript and record the reply.
type ChatService struct {
	Engine      ContextBuilder
	Sessions    *session.Store
	Runtime     ai.Runtime
	Persona     *persona.Persona
	Model       string
	MaxTokens   int
	Temperature float64
	Logger      *slog.Logger
}

func (s *ChatService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

// Reply answers message for clientID. On a model failure the user turn stays
// in the transcript and no assistant turn is added.
func (s *ChatService) Reply(ctx context.Context, clientID, message string) (string, error) {
	if message == "" {
		return "", ErrEmptyMessage
	}
	turns := s.Sessions.Append(clientID, session.RoleUser, message)

	p := s.Persona
	if p == nil {
		p = persona.Default()
	}
	contextBlock := s.Engine.BuildContext(ctx, message)
	msgs := make([]ai.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, ai.Message{Role: string(t.Role), Content: t.Content})
	}

	resp, err := s.Runtime.Generate(ctx, ai.GenerateRequest{
		Model:       s.Model,
		System:      p.SystemPrompt(contextBlock),
		Messages:    msgs,
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
	})
	if err != nil {
		metricChatFailures.Inc()
		return "", fmt.Errorf("generate reply: %w", err)
	}
	s.Sessions.Append(clientID, session.RoleAssistant, resp.Text)
	metricChatTokens.WithLabelValues("input").Add(float64(resp.Usage.InputTokens))
	metricChatTokens.WithLabelValues("output").Add(float64(resp.Usage.OutputTokens))
	s.logger().Debug("chat reply",
		"client", clientID,
		"turns", len(msgs)+1,
		"context_tokens", utils.CountTokens(contextBlock),
		"clients", s.Sessions.Len(),
		"model", resp.Model,
		"request_id", resp.RequestID,
	)
	return resp.Text, nil
}

// Reset forgets clientID's transcript and reports whether one existed.
func (s *ChatService) Reset(clientID string) bool {
	return s.Sessions.Evict(clientID)
}

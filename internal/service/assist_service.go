package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/config"
	"github.com/spec-kit/ticket-relay/internal/llm"
)

const (
	assistSystemPrompt   = "You are a helpful support assistant. Provide brief, helpful responses to user questions."
	AssistNotConfigured  = "AI assistance is not configured. Please contact a staff member for help."
	AssistUnavailable    = "I'm having trouble accessing AI assistance right now. Please contact a staff member for help."
	assistEmptyQuestion  = "Please add your question after the prefix, for example `%s How do I reset my password?`"
	defaultTriggerPrefix = "ai:"
)

// Completer is a single request/response text completion provider.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// AssistService answers ticket-less questions through an optional provider.
// Answer never returns an error; every failure becomes a fixed message.
type AssistService struct {
	completer Completer
	cfg       config.AssistConfig
	logger    *zap.Logger
}

// NewAssistService builds the adapter. A nil completer means AI assistance
// is not configured.
func NewAssistService(completer Completer, cfg config.AssistConfig, logger *zap.Logger) *AssistService {
	if cfg.TriggerPrefix == "" {
		cfg.TriggerPrefix = defaultTriggerPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistService{completer: completer, cfg: cfg, logger: logger}
}

// Prefix returns the trigger prefix as configured.
func (a *AssistService) Prefix() string {
	return a.cfg.TriggerPrefix
}

// ParseQuestion reports whether content starts with the trigger prefix,
// compared case-insensitively, and returns the trimmed remainder.
func (a *AssistService) ParseQuestion(content string) (string, bool) {
	prefix := a.cfg.TriggerPrefix
	if len(content) < len(prefix) || !strings.EqualFold(content[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(content[len(prefix):]), true
}

// Answer returns a displayable reply for question.
func (a *AssistService) Answer(ctx context.Context, question string) string {
	if a.completer == nil {
		return AssistNotConfigured
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Sprintf(assistEmptyQuestion, a.cfg.TriggerPrefix)
	}

	answer, err := a.completer.Complete(ctx, llm.Request{
		System:      assistSystemPrompt,
		Prompt:      question,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		a.logger.Error("ai provider error", zap.Error(err))
		return AssistUnavailable
	}
	return answer
}

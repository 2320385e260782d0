// Package pipeline orchestrates one chat turn: usage gate, retrieval, and
// answer composition. A chat turn always gets a composed answer; retrieval
// failure degrades to the no-results path instead of surfacing an error.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/answerly/knowledge/internal/composer"
	"github.com/answerly/knowledge/internal/retrieval"
	"github.com/answerly/knowledge/internal/storage"
)

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Answer        string
	LimitExceeded bool
	ResultCount   int
}

// UsageGate is consulted before retrieval runs at all.
type UsageGate interface {
	Allow(tenantID string) (bool, error)
}

// TenantGetter loads the tenant profile used for composition.
type TenantGetter interface {
	GetTenant(id string) (storage.Tenant, error)
}

// Service answers chat turns for tenants.
type Service struct {
	tenants   TenantGetter
	gate      UsageGate
	retriever *retrieval.Retriever
	limit     int
	logger    *slog.Logger
}

// NewService wires the chat pipeline. limit caps ranked results per turn
// (default 3 if <= 0).
func NewService(tenants TenantGetter, gate UsageGate, retriever *retrieval.Retriever, limit int) *Service {
	if limit <= 0 {
		limit = retrieval.DefaultLimit
	}
	return &Service{
		tenants:   tenants,
		gate:      gate,
		retriever: retriever,
		limit:     limit,
		logger:    slog.Default(),
	}
}

// Chat runs one turn for the tenant. The only errors it returns are caller
// bugs (unknown tenant); everything downstream degrades to a composed
// answer.
func (s *Service) Chat(ctx context.Context, tenantID, text string) (ChatResult, error) {
	tenant, err := s.tenants.GetTenant(tenantID)
	if err != nil {
		return ChatResult{}, fmt.Errorf("loading tenant %s: %w", tenantID, err)
	}

	allowed, err := s.gate.Allow(tenantID)
	if err != nil {
		// A broken gate should not silence the chatbot.
		s.logger.Warn("usage gate check failed, allowing message", "tenant_id", tenantID, "error", err)
		allowed = true
	}
	if !allowed {
		return ChatResult{
			Answer:        "This chatbot has reached its monthly message limit. Please try again later.",
			LimitExceeded: true,
		}, nil
	}

	results, err := s.retriever.Query(tenantID, text, s.limit)
	if err != nil {
		s.logger.Warn("retrieval failed, composing without results", "tenant_id", tenantID, "error", err)
		results = nil
	}

	answer := composer.Compose(text, tenant, results)
	return ChatResult{Answer: answer, ResultCount: len(results)}, nil
}

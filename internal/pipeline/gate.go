package pipeline

import (
	"fmt"
	"time"

	"github.com/answerly/knowledge/internal/storage"
)

// UsageStore is the storage capability the counter gate runs on.
type UsageStore interface {
	GetTenant(id string) (storage.Tenant, error)
	IncrementUsage(tenantID, period string, limit int) (bool, error)
}

// CounterGate is a per-tenant monthly message counter. Each Allow call
// increments the tenant's counter for the current month and compares it
// against the tenant's limit (or the default when the tenant has none).
type CounterGate struct {
	store        UsageStore
	defaultLimit int
	now          func() time.Time
}

func NewCounterGate(store UsageStore, defaultLimit int) *CounterGate {
	return &CounterGate{store: store, defaultLimit: defaultLimit, now: time.Now}
}

func (g *CounterGate) Allow(tenantID string) (bool, error) {
	tenant, err := g.store.GetTenant(tenantID)
	if err != nil {
		return false, fmt.Errorf("loading tenant: %w", err)
	}

	limit := tenant.MessageLimit
	if limit <= 0 {
		limit = g.defaultLimit
	}

	period := g.now().UTC().Format("2006-01")
	return g.store.IncrementUsage(tenantID, period, limit)
}

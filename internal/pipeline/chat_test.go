package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/answerly/knowledge/internal/retrieval"
	"github.com/answerly/knowledge/internal/storage"
)

type fakeTenants struct {
	tenants map[string]storage.Tenant
}

func (f *fakeTenants) GetTenant(id string) (storage.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return storage.Tenant{}, storage.ErrNotFound
	}
	return t, nil
}

type fakeGate struct {
	allowed bool
	err     error
}

func (f *fakeGate) Allow(tenantID string) (bool, error) { return f.allowed, f.err }

type fakeSearcher struct {
	records []storage.KnowledgeRecord
	err     error
}

func (f *fakeSearcher) SearchRecords(tenantID string, terms []string, limit int) ([]storage.KnowledgeRecord, error) {
	return f.records, f.err
}

var chatTenant = storage.Tenant{
	ID:           "t1",
	BusinessName: "Acme Plumbing",
	Email:        "info@acme.example",
}

func newChatService(gate UsageGate, searcher retrieval.RecordSearcher) *Service {
	tenants := &fakeTenants{tenants: map[string]storage.Tenant{"t1": chatTenant}}
	return NewService(tenants, gate, retrieval.NewRetriever(searcher), 0)
}

func TestChatAnswersFromRecords(t *testing.T) {
	searcher := &fakeSearcher{records: []storage.KnowledgeRecord{{
		Content:     "Do you fix boilers?\nYes, all brands.",
		ContentType: storage.TypeManualQA,
	}}}
	svc := newChatService(&fakeGate{allowed: true}, searcher)

	got, err := svc.Chat(context.Background(), "t1", "do you fix boilers")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.Answer != "Do you fix boilers?\nYes, all brands." {
		t.Errorf("answer = %q", got.Answer)
	}
	if got.ResultCount != 1 || got.LimitExceeded {
		t.Errorf("result = %+v", got)
	}
}

func TestChatUnknownTenant(t *testing.T) {
	svc := newChatService(&fakeGate{allowed: true}, &fakeSearcher{})
	if _, err := svc.Chat(context.Background(), "ghost", "hello"); err == nil {
		t.Fatal("expected error for unknown tenant")
	}
}

func TestChatLimitExceeded(t *testing.T) {
	svc := newChatService(&fakeGate{allowed: false}, &fakeSearcher{})

	got, err := svc.Chat(context.Background(), "t1", "do you fix boilers")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !got.LimitExceeded {
		t.Error("want LimitExceeded")
	}
	if !strings.Contains(got.Answer, "monthly message limit") {
		t.Errorf("answer = %q", got.Answer)
	}
}

func TestChatGateErrorStillAnswers(t *testing.T) {
	svc := newChatService(&fakeGate{err: fmt.Errorf("counter table locked")}, &fakeSearcher{})

	got, err := svc.Chat(context.Background(), "t1", "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.LimitExceeded || got.Answer == "" {
		t.Errorf("result = %+v, want a composed answer despite gate failure", got)
	}
}

func TestChatRetrievalErrorDegradesToFallback(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("database locked")}
	svc := newChatService(&fakeGate{allowed: true}, searcher)

	got, err := svc.Chat(context.Background(), "t1", "do you fix boilers")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.ResultCount != 0 {
		t.Errorf("result count = %d, want 0", got.ResultCount)
	}
	if !strings.Contains(got.Answer, "info@acme.example") {
		t.Errorf("answer = %q, want contact fallback", got.Answer)
	}
}

func TestChatGreetingWithNoRecords(t *testing.T) {
	svc := newChatService(&fakeGate{allowed: true}, &fakeSearcher{})

	got, err := svc.Chat(context.Background(), "t1", "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(got.Answer, "Welcome to Acme Plumbing") {
		t.Errorf("answer = %q, want the greeting", got.Answer)
	}
}

type fakeUsageStore struct {
	tenant    storage.Tenant
	gotPeriod string
	gotLimit  int
	allowed   bool
}

func (f *fakeUsageStore) GetTenant(id string) (storage.Tenant, error) { return f.tenant, nil }

func (f *fakeUsageStore) IncrementUsage(tenantID, period string, limit int) (bool, error) {
	f.gotPeriod = period
	f.gotLimit = limit
	return f.allowed, nil
}

func TestCounterGateUsesTenantLimit(t *testing.T) {
	store := &fakeUsageStore{tenant: storage.Tenant{ID: "t1", MessageLimit: 50}, allowed: true}
	gate := NewCounterGate(store, 1000)
	gate.now = func() time.Time { return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC) }

	ok, err := gate.Allow("t1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Error("want allowed")
	}
	if store.gotLimit != 50 {
		t.Errorf("limit = %d, want tenant override 50", store.gotLimit)
	}
	if store.gotPeriod != "2026-08" {
		t.Errorf("period = %q, want 2026-08", store.gotPeriod)
	}
}

func TestCounterGateDefaultLimit(t *testing.T) {
	store := &fakeUsageStore{tenant: storage.Tenant{ID: "t1"}, allowed: true}
	gate := NewCounterGate(store, 1000)

	if _, err := gate.Allow("t1"); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if store.gotLimit != 1000 {
		t.Errorf("limit = %d, want default 1000", store.gotLimit)
	}
}

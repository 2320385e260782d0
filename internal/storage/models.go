package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Content provenance types for knowledge records. The type determines
// scoring boosts and answer-composition shortcuts downstream.
const (
	TypeScraped        = "scraped"
	TypeScrapedSection = "scraped_section"
	TypeScrapedMeta    = "scraped_meta"
	TypeDescription    = "description"
	TypeContact        = "contact"
	TypeManualQA       = "manual_qa"
)

// KnowledgeRecord is one retrievable fact, scoped to a tenant.
// Records are append-only: re-training adds records, nothing is
// updated or replaced in place.
type KnowledgeRecord struct {
	ID          string
	TenantID    string
	Content     string
	ContentType string
	SourceURL   string // empty for non-scraped types
	CreatedAt   time.Time
}

// Tenant is one chatbot-owning business account. Only the fields the
// ingestion and answer pipeline needs live here; billing and auth are
// the product layer's problem.
type Tenant struct {
	ID           string
	BusinessName string
	Description  string
	Email        string
	Phone        string
	Address      string
	Website      string
	MessageLimit int
	CreatedAt    time.Time
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}

// Package ingest writes knowledge records: it chunks crawled pages and
// manual Q&A into discrete records tagged by provenance type and persists
// them for a tenant. Everything here is best-effort and append-only; one
// failing chunk never blocks the rest.
package ingest

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/answerly/knowledge/internal/extract"
	"github.com/answerly/knowledge/internal/storage"
)

// minChunkLength filters out nav fragments and link noise: paragraph
// chunks and section excerpts shorter than this are dropped.
const minChunkLength = 50

var blankLines = regexp.MustCompile(`\n\s*\n`)

// QAPair is one manually supplied question/answer unit.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RecordAppender is the storage capability the builder writes through.
type RecordAppender interface {
	AppendRecord(r storage.KnowledgeRecord) error
}

// Builder persists knowledge records for tenants.
type Builder struct {
	store  RecordAppender
	logger *slog.Logger
}

func NewBuilder(store RecordAppender) *Builder {
	return &Builder{store: store, logger: slog.Default()}
}

// BuildKnowledgeBase chunks the crawled pages into records and appends
// them, followed by one description record and one synthesized contact
// record from the tenant's profile. Write failures are logged per record
// and do not abort the build.
func (b *Builder) BuildKnowledgeBase(tenantID string, pages []extract.CrawlPage, tenant storage.Tenant) {
	for _, page := range pages {
		b.ingestPage(tenantID, page)
	}

	if tenant.Description != "" {
		b.append(storage.KnowledgeRecord{
			TenantID:    tenantID,
			Content:     tenant.Description,
			ContentType: storage.TypeDescription,
		})
	}

	b.append(storage.KnowledgeRecord{
		TenantID:    tenantID,
		Content:     contactBlock(tenant),
		ContentType: storage.TypeContact,
	})

	b.logger.Info("knowledge base built", "tenant_id", tenantID, "pages", len(pages))
}

func (b *Builder) ingestPage(tenantID string, page extract.CrawlPage) {
	for _, chunk := range chunkParagraphs(page.Content) {
		b.append(storage.KnowledgeRecord{
			TenantID:    tenantID,
			Content:     chunk,
			ContentType: storage.TypeScraped,
			SourceURL:   page.URL,
		})
	}

	for name, excerpt := range extract.ExtractSections(page.Content) {
		if len(excerpt) <= minChunkLength {
			continue
		}
		b.append(storage.KnowledgeRecord{
			TenantID:    tenantID,
			Content:     name + ": " + excerpt,
			ContentType: storage.TypeScrapedSection,
			SourceURL:   page.URL,
		})
	}

	// High-precision anchor for "what page is this" queries.
	b.append(storage.KnowledgeRecord{
		TenantID:    tenantID,
		Content:     fmt.Sprintf("Page: %s (%s)", page.Title, page.URL),
		ContentType: storage.TypeScrapedMeta,
		SourceURL:   page.URL,
	})
}

// Train appends one manual_qa record per pair. Question and answer stay a
// single unit; they are retrieved and returned together.
func (b *Builder) Train(tenantID string, pairs []QAPair) error {
	var failed int
	for _, pair := range pairs {
		q := strings.TrimSpace(pair.Question)
		a := strings.TrimSpace(pair.Answer)
		if q == "" || a == "" {
			continue
		}
		err := b.store.AppendRecord(storage.KnowledgeRecord{
			ID:          uuid.New().String(),
			TenantID:    tenantID,
			Content:     q + "\n" + a,
			ContentType: storage.TypeManualQA,
		})
		if err != nil {
			b.logger.Warn("appending manual_qa record", "tenant_id", tenantID, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d training pairs failed to persist", failed, len(pairs))
	}
	return nil
}

func (b *Builder) append(r storage.KnowledgeRecord) {
	r.ID = uuid.New().String()
	if err := b.store.AppendRecord(r); err != nil {
		b.logger.Warn("appending record", "tenant_id", r.TenantID, "type", r.ContentType, "error", err)
	}
}

// chunkParagraphs splits content on blank-line boundaries and keeps only
// chunks long enough to be worth retrieving.
func chunkParagraphs(content string) []string {
	var chunks []string
	for _, part := range blankLines.Split(content, -1) {
		chunk := strings.TrimSpace(part)
		if len(chunk) >= minChunkLength {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// contactBlock synthesizes one contact record from the profile fields.
func contactBlock(t storage.Tenant) string {
	var sb strings.Builder
	sb.WriteString("Business name: " + t.BusinessName)
	if t.Email != "" {
		sb.WriteString("\nEmail: " + t.Email)
	}
	if t.Phone != "" {
		sb.WriteString("\nPhone: " + t.Phone)
	}
	if t.Address != "" {
		sb.WriteString("\nAddress: " + t.Address)
	}
	if t.Website != "" {
		sb.WriteString("\nWebsite: " + t.Website)
	}
	return sb.String()
}

package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/answerly/knowledge/internal/storage"
)

// IngestDocument extracts text from an uploaded training document (PDF or
// plain text), chunks it with the same paragraph rules as crawled pages,
// and appends the chunks as scraped records with a file:// source URL.
// Returns how many records were written.
func (b *Builder) IngestDocument(tenantID, filename string, data []byte) (int, error) {
	var text string
	var err error
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		text, err = extractPDFText(data)
		if err != nil {
			return 0, fmt.Errorf("extracting pdf text: %w", err)
		}
	} else {
		if !utf8.Valid(data) {
			return 0, fmt.Errorf("document %q is not valid UTF-8 text", filename)
		}
		text = string(data)
	}

	// Unlike extracted page content, documents keep their blank-line
	// structure, so paragraph chunking applies to the raw text.
	chunks := chunkParagraphs(text)
	written := 0
	for _, chunk := range chunks {
		err := b.store.AppendRecord(storage.KnowledgeRecord{
			ID:          uuid.New().String(),
			TenantID:    tenantID,
			Content:     chunk,
			ContentType: storage.TypeScraped,
			SourceURL:   "file://" + filename,
		})
		if err != nil {
			b.logger.Warn("appending document chunk", "tenant_id", tenantID, "file", filename, "error", err)
			continue
		}
		written++
	}
	return written, nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	r, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, r); err != nil {
		return "", err
	}
	return sb.String(), nil
}

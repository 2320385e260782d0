// Package api is the HTTP surface the product layer (dashboard, widget)
// calls into. It owns no business logic: handlers validate, enqueue, and
// delegate to the pipeline.
package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/answerly/knowledge/internal/ingest"
	"github.com/answerly/knowledge/internal/pipeline"
	"github.com/answerly/knowledge/internal/storage"
)

const maxBodySize = 10 << 20 // 10MB, covers document uploads

// TenantStore is the storage surface the handlers use directly.
type TenantStore interface {
	CreateTenant(t storage.Tenant) error
	GetTenant(id string) (storage.Tenant, error)
	EnqueueJob(job storage.Job) error
	ListRecords(tenantID string, limit int) ([]storage.KnowledgeRecord, error)
	CountRecords(tenantID string) (int, error)
}

// AppDeps holds dependencies for the HTTP handlers.
type AppDeps struct {
	Store   TenantStore
	Chat    *pipeline.Service
	Builder *ingest.Builder
	Token   string
}

func NewHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/tenants", handleCreateTenant(deps))
		r.Get("/tenants/{id}", handleGetTenant(deps))
		r.Post("/tenants/{id}/train", handleTrain(deps))
		r.Post("/tenants/{id}/documents", handleIngestDocument(deps))
		r.Post("/tenants/{id}/chat", handleChat(deps))
		r.Get("/tenants/{id}/records", handleListRecords(deps))
	})

	return r
}

type createTenantRequest struct {
	BusinessName string `json:"business_name"`
	Description  string `json:"description"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Website      string `json:"website"`
	RootURL      string `json:"root_url"`
	MaxPages     int    `json:"max_pages,omitempty"`
	MessageLimit int    `json:"message_limit,omitempty"`
}

// handleCreateTenant registers the tenant and enqueues the crawl job. The
// response returns immediately; the knowledge base converges as the
// detached crawl completes. A failed enqueue never fails tenant creation.
func handleCreateTenant(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTenantRequest
		if err := decodeBody(w, r, &req); err != nil {
			return
		}
		if req.BusinessName == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "business_name is required")
			return
		}

		tenant := storage.Tenant{
			ID:           uuid.New().String(),
			BusinessName: req.BusinessName,
			Description:  req.Description,
			Email:        req.Email,
			Phone:        req.Phone,
			Address:      req.Address,
			Website:      req.Website,
			MessageLimit: req.MessageLimit,
			CreatedAt:    time.Now().UTC(),
		}
		if err := deps.Store.CreateTenant(tenant); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "creating tenant: %v", err)
			return
		}

		crawlQueued := false
		if req.RootURL != "" {
			payload, err := json.Marshal(ingest.CrawlPayload{
				TenantID: tenant.ID,
				RootURL:  req.RootURL,
				MaxPages: req.MaxPages,
			})
			if err == nil {
				err = deps.Store.EnqueueJob(storage.Job{
					ID:          uuid.New().String(),
					Type:        ingest.JobCrawlIngest,
					PayloadJSON: string(payload),
				})
			}
			if err != nil {
				// Tenant creation still succeeds; it just starts empty.
				httpError(w, http.StatusAccepted, "api_error", "tenant created but crawl not queued: %v", err)
				return
			}
			crawlQueued = true
		}

		writeJSON(w, http.StatusAccepted, map[string]any{
			"tenant_id":    tenant.ID,
			"crawl_queued": crawlQueued,
		})
	}
}

func handleGetTenant(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		tenant, err := deps.Store.GetTenant(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "tenant %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading tenant: %v", err)
			return
		}

		count, err := deps.Store.CountRecords(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "counting records: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"id":            tenant.ID,
			"business_name": tenant.BusinessName,
			"description":   tenant.Description,
			"email":         tenant.Email,
			"phone":         tenant.Phone,
			"address":       tenant.Address,
			"website":       tenant.Website,
			"record_count":  count,
			"created_at":    tenant.CreatedAt.Format(time.RFC3339),
		})
	}
}

type trainRequest struct {
	Pairs []ingest.QAPair `json:"pairs"`
}

func handleTrain(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !tenantExists(w, deps, id) {
			return
		}

		var req trainRequest
		if err := decodeBody(w, r, &req); err != nil {
			return
		}
		if len(req.Pairs) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "pairs is required")
			return
		}

		if err := deps.Builder.Train(id, req.Pairs); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "training: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"trained": len(req.Pairs)})
	}
}

type documentRequest struct {
	Filename string `json:"filename"`
	Data     string `json:"data"` // base64
}

func handleIngestDocument(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !tenantExists(w, deps, id) {
			return
		}

		var req documentRequest
		if err := decodeBody(w, r, &req); err != nil {
			return
		}
		if req.Filename == "" || req.Data == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "filename and data are required")
			return
		}

		data, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "data must be base64: %v", err)
			return
		}

		written, err := deps.Builder.IngestDocument(id, req.Filename, data)
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "ingesting document: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"records": written})
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

func handleChat(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req chatRequest
		if err := decodeBody(w, r, &req); err != nil {
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		result, err := deps.Chat.Chat(r.Context(), id, req.Message)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "tenant %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "chat turn: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"answer":         result.Answer,
			"limit_exceeded": result.LimitExceeded,
		})
	}
}

func handleListRecords(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !tenantExists(w, deps, id) {
			return
		}

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}

		records, err := deps.Store.ListRecords(id, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing records: %v", err)
			return
		}

		type recordResponse struct {
			ID          string `json:"id"`
			Content     string `json:"content"`
			ContentType string `json:"content_type"`
			SourceURL   string `json:"source_url,omitempty"`
			CreatedAt   string `json:"created_at"`
		}
		out := make([]recordResponse, len(records))
		for i, rec := range records {
			out[i] = recordResponse{
				ID:          rec.ID,
				Content:     rec.Content,
				ContentType: rec.ContentType,
				SourceURL:   rec.SourceURL,
				CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": out})
	}
}

func tenantExists(w http.ResponseWriter, deps AppDeps, id string) bool {
	_, err := deps.Store.GetTenant(id)
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusNotFound, "not_found_error", "tenant %s not found", id)
		return false
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "loading tenant: %v", err)
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/answerly/knowledge/internal/extract"
	"github.com/answerly/knowledge/internal/storage"
)

// Job types processed by the worker.
const (
	JobCrawlIngest = "crawl_ingest"
	JobTrain       = "train"
)

// JobStore abstracts the job queue and tenant lookups.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
	GetTenant(id string) (storage.Tenant, error)
}

// SiteCrawler walks a tenant's website and returns the extracted pages.
type SiteCrawler interface {
	Crawl(ctx context.Context, rootURL string, maxPages int, perPageTimeout time.Duration) ([]extract.CrawlPage, error)
}

// Worker processes ingestion jobs from the SQLite job queue. The crawl runs
// detached from whatever request enqueued it: the tenant is usable with
// zero records immediately and converges as the job completes.
type Worker struct {
	store         JobStore
	crawler       SiteCrawler
	builder       *Builder
	poll          time.Duration
	pageTimeout   time.Duration
	crawlDeadline time.Duration
	maxPages      int
	logger        *slog.Logger
}

// WorkerConfig bundles the crawl bounds the worker applies per job.
type WorkerConfig struct {
	PollInterval  time.Duration // defaults to 500ms
	PageTimeout   time.Duration // defaults to 15s
	CrawlDeadline time.Duration // defaults to 5m, safety margin for a whole crawl
	MaxPages      int           // defaults to 10
}

// NewWorker creates a Worker with the given dependencies.
func NewWorker(store JobStore, crawler SiteCrawler, builder *Builder, cfg WorkerConfig) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 15 * time.Second
	}
	if cfg.CrawlDeadline <= 0 {
		cfg.CrawlDeadline = 5 * time.Minute
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &Worker{
		store:         store,
		crawler:       crawler,
		builder:       builder,
		poll:          cfg.PollInterval,
		pageTimeout:   cfg.PageTimeout,
		crawlDeadline: cfg.CrawlDeadline,
		maxPages:      cfg.MaxPages,
		logger:        slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled. Cancelling also stops an
// in-flight crawl.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobCrawlIngest, JobTrain})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "type", job.Type, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

// CrawlPayload is the JSON body of a crawl_ingest job.
type CrawlPayload struct {
	TenantID string `json:"tenant_id"`
	RootURL  string `json:"root_url"`
	MaxPages int    `json:"max_pages,omitempty"`
}

// TrainPayload is the JSON body of a train job.
type TrainPayload struct {
	TenantID string   `json:"tenant_id"`
	Pairs    []QAPair `json:"pairs"`
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	switch job.Type {
	case JobCrawlIngest:
		return w.processCrawl(ctx, job)
	case JobTrain:
		return w.processTrain(job)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

func (w *Worker) processCrawl(ctx context.Context, job *storage.Job) error {
	var payload CrawlPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	tenant, err := w.store.GetTenant(payload.TenantID)
	if err != nil {
		return fmt.Errorf("loading tenant %s: %w", payload.TenantID, err)
	}

	maxPages := payload.MaxPages
	if maxPages <= 0 {
		maxPages = w.maxPages
	}

	crawlCtx, cancel := context.WithTimeout(ctx, w.crawlDeadline)
	defer cancel()

	pages, err := w.crawler.Crawl(crawlCtx, payload.RootURL, maxPages, w.pageTimeout)
	if err != nil {
		return fmt.Errorf("crawling %s: %w", payload.RootURL, err)
	}

	w.builder.BuildKnowledgeBase(payload.TenantID, pages, tenant)
	return nil
}

func (w *Worker) processTrain(job *storage.Job) error {
	var payload TrainPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	return w.builder.Train(payload.TenantID, payload.Pairs)
}

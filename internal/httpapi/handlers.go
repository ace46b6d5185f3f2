// Package httpapi is the optional admin HTTP surface: a small labstack/echo/v4 server mirroring
// the reference ingestion service's admin-triggered-job pattern, for operators who'd rather
// POST a job than run the CLI.
package httpapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yussieik/polyextract/internal/bars"
	"github.com/yussieik/polyextract/internal/export"
	"github.com/yussieik/polyextract/internal/storage"
	"github.com/yussieik/polyextract/internal/ticker"
)

// ExtractResponse is the JSON response for the extraction endpoints.
type ExtractResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
	Elapsed string `json:"elapsed,omitempty"`
}

// jobStatus tracks the single in-flight (or most recently finished) extraction job. The admin
// surface runs at most one job at a time; a second POST while one is running is rejected.
type jobStatus struct {
	mu        sync.Mutex
	running   bool
	startedAt time.Time
	lastErr   error
	lastRows  int64
}

// Handler serves the admin HTTP surface.
type Handler struct {
	pipeline *ticker.Pipeline
	repo     *storage.Repository
	outDir   string
	status   jobStatus
}

// NewHandler constructs a Handler. repo may be nil, in which case extracted frames are only
// written to outDir as CSV.
func NewHandler(pipeline *ticker.Pipeline, repo *storage.Repository, outDir string) *Handler {
	return &Handler{pipeline: pipeline, repo: repo, outDir: outDir}
}

// Health handles GET /health.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Extract handles POST /admin/extract: ticker, start, end, resolution, multiplier query params.
// Runs the pool in the background and returns immediately; progress is polled via
// /admin/extract/status.
func (h *Handler) Extract(c echo.Context) error {
	h.status.mu.Lock()
	if h.status.running {
		h.status.mu.Unlock()
		return c.JSON(http.StatusConflict, ExtractResponse{
			Success: false,
			Message: "an extraction job is already running",
		})
	}
	h.status.running = true
	h.status.startedAt = time.Now()
	h.status.lastErr = nil
	h.status.mu.Unlock()

	jobs, err := parseJobs(c)
	if err != nil {
		h.finishJob(0, err)
		return c.JSON(http.StatusBadRequest, ExtractResponse{Success: false, Message: err.Error()})
	}

	go h.runExtraction(jobs)

	return c.JSON(http.StatusAccepted, ExtractResponse{
		Success: true,
		Message: fmt.Sprintf("extraction started for %d ticker(s)", len(jobs)),
	})
}

func (h *Handler) runExtraction(jobs []bars.Job) {
	ctx := context.Background()
	start := time.Now()

	results := h.pipeline.ProcessAll(ctx, jobs)

	var totalRows int64
	var firstErr error
	for _, r := range results {
		if r.Err != nil {
			log.Printf("httpapi: extraction failed for %s: %v", r.Ticker, r.Err)
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		totalRows += int64(len(r.Frame.Rows))

		if h.outDir != "" {
			if err := export.WriteCSV(&r.Frame, r.Ticker, h.outDir); err != nil {
				log.Printf("httpapi: writing CSV for %s: %v", r.Ticker, err)
			}
		}
		if h.repo != nil {
			if _, err := h.repo.UpsertFrame(ctx, &r.Frame); err != nil {
				log.Printf("httpapi: persisting %s: %v", r.Ticker, err)
			}
		}
	}

	log.Printf("httpapi: extraction complete: %d row(s) in %v", totalRows, time.Since(start))
	h.finishJob(totalRows, firstErr)
}

func (h *Handler) finishJob(rows int64, err error) {
	h.status.mu.Lock()
	defer h.status.mu.Unlock()
	h.status.running = false
	h.status.lastErr = err
	h.status.lastRows = rows
}

// ExtractStatus handles GET /admin/extract/status.
func (h *Handler) ExtractStatus(c echo.Context) error {
	h.status.mu.Lock()
	defer h.status.mu.Unlock()

	resp := map[string]interface{}{
		"running": h.status.running,
		"rows":    h.status.lastRows,
	}
	if !h.status.startedAt.IsZero() {
		resp["started_at"] = h.status.startedAt.Format(time.RFC3339)
	}
	if h.status.lastErr != nil {
		resp["last_error"] = h.status.lastErr.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func parseJobs(c echo.Context) ([]bars.Job, error) {
	tickerParam := strings.TrimSpace(c.QueryParam("ticker"))
	if tickerParam == "" {
		return nil, fmt.Errorf("ticker query param is required")
	}
	tickers := strings.Split(tickerParam, ",")

	start, err := time.Parse("2006-01-02", c.QueryParam("start"))
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.QueryParam("end"))
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}

	resolution := bars.Minute
	if r := c.QueryParam("resolution"); r != "" {
		resolution = bars.Resolution(r)
	}

	multiplier := 1
	if m := c.QueryParam("multiplier"); m != "" {
		multiplier, err = strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("invalid multiplier: %w", err)
		}
	}

	jobs := make([]bars.Job, 0, len(tickers))
	for _, t := range tickers {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		job, err := bars.NewJob(t, start, end, resolution, multiplier)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

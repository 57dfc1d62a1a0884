// Package api exposes the scan trigger/cancel/list boundary over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/errors"
	"github.com/hoofbeat/hoofbeat-go/internal/logging"
	"github.com/hoofbeat/hoofbeat-go/internal/scanner"
)

const defaultScanListLimit = 20

// Controller wires the HTTP routes to the orchestrator and store.
type Controller struct {
	Echo         *echo.Echo
	settings     *conf.Settings
	store        datastore.Interface
	orchestrator *scanner.Orchestrator
	logger       *slog.Logger
}

// New creates the controller and registers its routes.
func New(settings *conf.Settings, store datastore.Interface, orchestrator *scanner.Orchestrator) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	c := &Controller{
		Echo:         e,
		settings:     settings,
		store:        store,
		orchestrator: orchestrator,
		logger:       logging.ForService("api"),
	}

	v1 := e.Group("/api/v1")
	v1.POST("/scans", c.StartScans)
	v1.POST("/scans/:id/cancel", c.CancelScan)
	v1.GET("/scans", c.ListScans)

	return c
}

// Start serves HTTP on the configured port, blocking until shutdown.
func (c *Controller) Start() error {
	return c.Echo.Start(fmt.Sprintf(":%d", c.settings.Server.Port))
}

// Shutdown stops the HTTP server gracefully.
func (c *Controller) Shutdown(ctx context.Context) error {
	return c.Echo.Shutdown(ctx)
}

type startScansRequest struct {
	SourceID uint `json:"source_id"`
}

type startScansResponse struct {
	ScanIDs []uint `json:"scan_ids"`
}

// StartScans triggers a scan of one source, or of all enabled sources when
// no source id is given. Returns the created scan ids without waiting.
func (c *Controller) StartScans(ctx echo.Context) error {
	var req startScansRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	var scanIDs []uint
	var err error
	if req.SourceID != 0 {
		var scanID uint
		scanID, err = c.orchestrator.StartSource(req.SourceID)
		// Zero means the source was busy and the trigger was skipped
		if scanID != 0 {
			scanIDs = []uint{scanID}
		}
	} else {
		scanIDs, err = c.orchestrator.StartAll()
	}
	if err != nil {
		c.logger.Warn("scan trigger rejected", "source_id", req.SourceID, "error", err)
		return ctx.JSON(statusFor(err), map[string]string{"error": err.Error()})
	}

	if scanIDs == nil {
		scanIDs = []uint{}
	}
	return ctx.JSON(http.StatusAccepted, startScansResponse{ScanIDs: scanIDs})
}

// CancelScan cancels a live scan. Scans that are unknown or already
// finished report not-found.
func (c *Controller) CancelScan(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid scan id"})
	}
	if err := c.orchestrator.Cancel(uint(id)); err != nil {
		return ctx.JSON(statusFor(err), map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "cancellation requested"})
}

type scanSummary struct {
	ID                uint           `json:"id"`
	SourceID          *uint          `json:"source_id"`
	Status            string         `json:"status"`
	StartedAt         *time.Time     `json:"started_at,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	CompetitionsFound int            `json:"competitions_found"`
	CompetitionCount  int            `json:"competition_count"`
	TrainingCount     int            `json:"training_count"`
	MatchCounts       map[string]int `json:"match_counts,omitempty"`
	Error             string         `json:"error,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ListScans returns recent scans, most recent first.
func (c *Controller) ListScans(ctx echo.Context) error {
	limit := defaultScanListLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
		limit = parsed
	}

	scans, err := c.store.GetRecentScans(limit)
	if err != nil {
		c.logger.Error("failed to list scans", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list scans"})
	}

	summaries := make([]scanSummary, 0, len(scans))
	for i := range scans {
		summaries = append(summaries, summarize(&scans[i]))
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func summarize(scan *datastore.Scan) scanSummary {
	summary := scanSummary{
		ID:                scan.ID,
		SourceID:          scan.SourceID,
		Status:            scan.Status,
		StartedAt:         scan.StartedAt,
		CompletedAt:       scan.CompletedAt,
		CompetitionsFound: scan.CompetitionsFound,
		CompetitionCount:  scan.CompetitionCount,
		TrainingCount:     scan.TrainingCount,
		Error:             scan.Error,
		CreatedAt:         scan.CreatedAt,
	}
	if scan.MatchCounts != "" {
		_ = json.Unmarshal([]byte(scan.MatchCounts), &summary.MatchCounts)
	}
	return summary
}

// statusFor maps error categories onto HTTP status codes.
func statusFor(err error) int {
	var enhanced *errors.EnhancedError
	if !errors.As(err, &enhanced) {
		return http.StatusInternalServerError
	}
	switch enhanced.Category {
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

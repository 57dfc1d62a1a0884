// Package scanner orchestrates scan executions: one per source, capped by
// a process-wide admission semaphore, each tracked by a cancellable job
// handle.
package scanner

import (
	"context"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/errors"
	"github.com/hoofbeat/hoofbeat-go/internal/geocoding"
	"github.com/hoofbeat/hoofbeat-go/internal/logging"
)

// Package-level logger specific to scan orchestration
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	logger, _, err = logging.NewFileLogger("logs/scanner.log", "scanner", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize scanner file logger: %v, logging disabled for service", err)
		logger = logging.NewDiscardLogger("scanner", serviceLevelVar)
	}
}

// maxConcurrentScans caps concurrent scan executions process-wide.
const maxConcurrentScans = 8

// interruptedMessage is written onto scans found open after a crash.
const interruptedMessage = "scan interrupted by shutdown"

// cancelledMessage is written onto scans stopped by an operator.
const cancelledMessage = "scan cancelled"

// errorMessageLimit truncates stored scan error text.
const errorMessageLimit = 500

// job tracks one launched scan execution so it can be cancelled.
type job struct {
	traceID string
	cancel  context.CancelFunc
}

// Orchestrator launches, tracks and cancels scan executions. Scan tasks
// run under the orchestrator's own root context, not the caller's, so a
// scan triggered over HTTP outlives its request.
type Orchestrator struct {
	settings *conf.Settings
	store    datastore.Interface
	geocoder *geocoding.Service
	sem      *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[uint]*job // scan ID -> live job

	wg sync.WaitGroup
}

// New creates an orchestrator over the shared store and geocoder.
func New(settings *conf.Settings, store datastore.Interface, geocoder *geocoding.Service) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		settings: settings,
		store:    store,
		geocoder: geocoder,
		sem:      semaphore.NewWeighted(maxConcurrentScans),
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(map[uint]*job),
	}
}

// RecoverInterrupted fails any scan left open by a prior crash. Called once
// at startup before new scans launch.
func (o *Orchestrator) RecoverInterrupted() error {
	count, err := o.store.FailInterruptedScans(interruptedMessage)
	if err != nil {
		return errors.New(err).
			Component("scanner").
			Category(errors.CategoryDatabase).
			Build()
	}
	if count > 0 {
		logger.Warn("failed scans left open by previous run", "count", count)
	}
	return nil
}

// StartSource launches a scan for one source and returns the created scan
// id immediately. A source with an active scan is skipped silently and the
// returned id is zero.
func (o *Orchestrator) StartSource(sourceID uint) (uint, error) {
	source, err := o.store.GetSource(sourceID)
	if err != nil {
		return 0, errors.New(err).
			Component("scanner").
			Category(errors.CategoryNotFound).
			Context("source_id", sourceID).
			Build()
	}
	if !source.Enabled {
		return 0, errors.Newf("source %q is disabled", source.Name).
			Component("scanner").
			Category(errors.CategoryValidation).
			Build()
	}

	busy, err := o.store.GetActiveScanSourceIDs()
	if err != nil {
		return 0, errors.New(err).
			Component("scanner").
			Category(errors.CategoryDatabase).
			Build()
	}
	if busy[source.ID] {
		logger.Info("skipping busy source", "source", source.Name)
		return 0, nil
	}

	return o.launch(source)
}

// StartAll launches scans for every enabled source, silently skipping the
// ones that already have an active scan. Returns the created scan ids.
func (o *Orchestrator) StartAll() ([]uint, error) {
	sources, err := o.store.GetEnabledSources()
	if err != nil {
		return nil, errors.New(err).
			Component("scanner").
			Category(errors.CategoryDatabase).
			Build()
	}
	busy, err := o.store.GetActiveScanSourceIDs()
	if err != nil {
		return nil, errors.New(err).
			Component("scanner").
			Category(errors.CategoryDatabase).
			Build()
	}

	scanIDs := make([]uint, 0, len(sources))
	for _, source := range sources {
		if busy[source.ID] {
			logger.Info("skipping busy source", "source", source.Name)
			continue
		}
		scanID, err := o.launch(source)
		if err != nil {
			return scanIDs, err
		}
		scanIDs = append(scanIDs, scanID)
	}
	return scanIDs, nil
}

// Cancel stops a live scan. Reports not-found when no job is tracked for
// the id, including scans that already finished.
func (o *Orchestrator) Cancel(scanID uint) error {
	o.mu.Lock()
	j, ok := o.jobs[scanID]
	o.mu.Unlock()
	if !ok {
		return errors.Newf("no active scan with id %d", scanID).
			Component("scanner").
			Category(errors.CategoryNotFound).
			Context("scan_id", scanID).
			Build()
	}
	logger.Info("cancelling scan", "scan_id", scanID, "trace_id", j.traceID)
	j.cancel()
	return nil
}

// Wait blocks until every launched scan has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Shutdown cancels every live scan and waits for their terminal states to
// be recorded.
func (o *Orchestrator) Shutdown() {
	o.cancel()
	o.wg.Wait()
}

// launch creates the pending scan row and starts its execution task.
func (o *Orchestrator) launch(source datastore.Source) (uint, error) {
	sourceID := source.ID
	scan := &datastore.Scan{
		SourceID: &sourceID,
		Status:   datastore.ScanStatusPending,
	}
	if err := o.store.CreateScan(scan); err != nil {
		return 0, errors.New(err).
			Component("scanner").
			Category(errors.CategoryDatabase).
			Context("source", source.Name).
			Build()
	}

	scanCtx, cancel := context.WithCancel(o.ctx)
	j := &job{traceID: uuid.New().String(), cancel: cancel}
	o.mu.Lock()
	o.jobs[scan.ID] = j
	o.mu.Unlock()

	o.wg.Add(1)
	go o.run(scanCtx, scan, source, j)

	return scan.ID, nil
}

// run executes one scan under an admission slot and drives the scan row
// through its state machine. Terminal transitions go through the base
// store session, never the scan's transaction.
func (o *Orchestrator) run(ctx context.Context, scan *datastore.Scan, source datastore.Source, j *job) {
	defer o.wg.Done()
	defer func() {
		o.mu.Lock()
		delete(o.jobs, scan.ID)
		o.mu.Unlock()
		j.cancel()
	}()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.finish(scan, datastore.ScanStatusCancelled, cancelledMessage)
		return
	}
	defer o.sem.Release(1)

	now := time.Now()
	scan.Status = datastore.ScanStatusRunning
	scan.StartedAt = &now
	if err := o.store.SaveScan(scan); err != nil {
		logger.Error("failed to mark scan running", "scan_id", scan.ID, "error", err)
		o.finish(scan, datastore.ScanStatusFailed, truncateError(err))
		return
	}
	logger.Info("scan started", "scan_id", scan.ID, "source", source.Name, "trace_id", j.traceID)

	err := o.runSource(ctx, scan, source)
	switch {
	case err == nil:
		o.finish(scan, datastore.ScanStatusCompleted, "")
		o.checkRegression(scan, source)
	case ctx.Err() != nil:
		o.finish(scan, datastore.ScanStatusCancelled, cancelledMessage)
	default:
		logger.Error("scan failed", "scan_id", scan.ID, "source", source.Name, "error", err)
		o.finish(scan, datastore.ScanStatusFailed, truncateError(err))
	}
}

// finish writes the terminal state exactly once, on the base session.
func (o *Orchestrator) finish(scan *datastore.Scan, status, message string) {
	now := time.Now()
	scan.Status = status
	scan.CompletedAt = &now
	scan.Error = message
	if err := o.store.SaveScan(scan); err != nil {
		logger.Error("failed to record scan terminal state",
			"scan_id", scan.ID, "status", status, "error", err)
	}
	logger.Info("scan finished", "scan_id", scan.ID, "status", status,
		"competitions_found", scan.CompetitionsFound)
}

// checkRegression compares the completed scan against the previous
// completed scan for the same source and logs a data-quality warning when
// the count more than halved. Never fails the scan.
func (o *Orchestrator) checkRegression(scan *datastore.Scan, source datastore.Source) {
	previous, err := o.store.GetPreviousCompletedScan(source.ID, scan.ID)
	if err != nil || previous == nil {
		return
	}
	if scan.CompetitionsFound*2 < previous.CompetitionsFound {
		logger.Warn("competition count dropped by more than half since last scan",
			"source", source.Name,
			"previous", previous.CompetitionsFound,
			"current", scan.CompetitionsFound)
	}
}

func truncateError(err error) string {
	message := err.Error()
	if len(message) > errorMessageLimit {
		message = message[:errorMessageLimit]
	}
	return message
}

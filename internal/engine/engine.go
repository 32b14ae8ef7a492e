// Package engine owns the curation job lifecycle and the in-memory
// dataset snapshot.
//
// # Single flight
//
// At most one pipeline run is in flight at any moment. Trigger while a
// run is active attaches the caller to that run instead of starting a
// second one, so any number of schedulers and dashboards can poke the
// engine concurrently without duplicated work.
//
// # Dataset swap
//
// A run builds its result off to the side and swaps the dataset
// pointer only after the store accepted it. Readers always see either
// the previous complete dataset or the new complete dataset, never a
// partial one. A failed run leaves the dataset untouched.
//
// # Reset to idle
//
// A terminal state (done or error) is held until at least one Status
// call has observed it, so a scheduler polling after the run finishes
// still sees the outcome. Once observed, or after the configured grace
// period for outcomes nobody asked about, the next Trigger starts a
// fresh run; an observed outcome older than the grace period also
// reads as idle again.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/internal/model"
)

// Pipeline produces a fresh batch of curated items.
type Pipeline interface {
	Run(ctx context.Context) ([]model.CuratedItem, error)
}

// Store persists a dataset snapshot.
type Store interface {
	SaveDataset(ctx context.Context, ds *model.CuratedDataset) error
}

// Engine serializes curation runs and holds the current dataset.
type Engine struct {
	pipeline Pipeline
	store    Store
	logger   *slog.Logger

	resetGrace time.Duration
	runTimeout time.Duration

	mu         sync.Mutex
	state      model.JobState
	observed   bool
	dataset    *model.CuratedDataset
	generation int64

	wg  sync.WaitGroup
	now func() time.Time
}

// New creates an engine in the idle state with an empty dataset.
func New(pipeline Pipeline, store Store, resetGrace, runTimeout time.Duration, logger *slog.Logger) *Engine {
	return &Engine{
		pipeline:   pipeline,
		store:      store,
		logger:     logger,
		resetGrace: resetGrace,
		runTimeout: runTimeout,
		state:      model.JobState{Status: model.JobIdle},
		dataset:    &model.CuratedDataset{Items: []model.CuratedItem{}},
		now:        time.Now,
	}
}

// Restore seeds the engine with a previously persisted dataset. Called
// once at startup, before the engine is shared.
func (e *Engine) Restore(ds *model.CuratedDataset) {
	if ds == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dataset = ds
	e.generation = ds.Generation
}

// Trigger requests a curation run. If a run is already in flight, or a
// fresh unobserved outcome is still on display, the caller is attached
// to it; otherwise a new run starts. Trigger never rejects.
func (e *Engine) Trigger() model.TriggerResponse {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Status == model.JobRunning {
		return model.TriggerResponse{
			Accepted: true,
			Attached: true,
			Status:   e.state.Status,
			Detail:   e.state.Detail,
		}
	}

	// A terminal outcome nobody has read yet stays attachable until the
	// grace period passes, so a caller that triggered and crashed can
	// still collect the result on its next attempt.
	if e.state.Status.Terminal() && !e.observed && e.sinceFinishLocked() < e.resetGrace {
		return model.TriggerResponse{
			Accepted: true,
			Attached: true,
			Status:   e.state.Status,
			Detail:   e.state.Detail,
		}
	}

	started := e.now()
	e.state = model.JobState{Status: model.JobRunning, StartedAt: &started}
	e.observed = false

	e.wg.Add(1)
	go e.run()

	return model.TriggerResponse{
		Accepted: true,
		Status:   model.JobRunning,
	}
}

// Status returns the current job snapshot. Reading a terminal state
// marks it observed; once an observed outcome has outlived the grace
// period the state collapses back to idle, so the wire reflects the
// reset instead of showing the last outcome forever.
func (e *Engine) Status() model.JobState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Status.Terminal() {
		if e.observed && e.sinceFinishLocked() >= e.resetGrace {
			e.state = model.JobState{Status: model.JobIdle}
		} else {
			e.observed = true
		}
	}
	return e.state
}

// Dataset returns the current dataset snapshot and whether a run is in
// flight. The returned dataset must not be mutated.
func (e *Engine) Dataset() (*model.CuratedDataset, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dataset, e.state.Status == model.JobRunning
}

// Wait blocks until any in-flight run finishes or the context expires.
// Used for graceful shutdown.
func (e *Engine) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) run() {
	defer e.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), e.runTimeout)
	defer cancel()

	e.logger.Info("curation run started")

	items, err := e.pipeline.Run(ctx)
	if err != nil {
		e.logger.Error("curation run failed", "error", err)
		e.finish(model.JobError, err.Error(), nil)
		return
	}

	e.mu.Lock()
	nextGen := e.generation + 1
	e.mu.Unlock()

	ds := &model.CuratedDataset{
		Items:      items,
		UpdatedAt:  e.now().UTC(),
		Generation: nextGen,
	}

	if err := e.store.SaveDataset(ctx, ds); err != nil {
		// The run produced items but they could not be persisted. The
		// previous dataset stays in place.
		e.logger.Error("dataset save failed", "error", err, "items", len(items))
		e.finish(model.JobError, fmt.Sprintf("failed to persist dataset: %v", err), nil)
		return
	}

	e.logger.Info("curation run finished", "items", len(items), "generation", nextGen)
	e.finish(model.JobDone, fmt.Sprintf("%d items curated", len(items)), ds)
}

// finish records the run outcome and, on success, swaps in the new
// dataset atomically with the state change.
func (e *Engine) finish(status model.JobStatus, detail string, ds *model.CuratedDataset) {
	finished := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Status = status
	e.state.Detail = detail
	e.state.FinishedAt = &finished
	e.observed = false

	if ds != nil {
		e.dataset = ds
		e.generation = ds.Generation
	}
}

func (e *Engine) sinceFinishLocked() time.Duration {
	if e.state.FinishedAt == nil {
		return 0
	}
	return e.now().Sub(*e.state.FinishedAt)
}

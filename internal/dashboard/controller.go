// Package dashboard implements the interactive front-end controller.
// It renders whatever dataset the service has immediately, attaches to
// runs already in flight, and keeps the previous items on screen while
// a refresh is working; the view is only ever told to replace content,
// never to clear it.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/pkg/client"
	"github.com/RaphaelInbix/agente-cassiano/pkg/poll"
)

// View receives render calls from the controller. Implementations must
// tolerate calls from the polling goroutine.
type View interface {
	// RenderDataset replaces the displayed items wholesale.
	RenderDataset(ds client.Dataset)
	// RenderStatus updates the job status line.
	RenderStatus(state client.JobState)
	// RenderError shows a non-fatal error message. Displayed items
	// stay on screen.
	RenderError(msg string)
}

// API is the subset of the service client the controller needs.
type API interface {
	Trigger(ctx context.Context) (client.TriggerResult, error)
	Status(ctx context.Context) (client.JobState, error)
	Dataset(ctx context.Context) (client.Dataset, error)
}

// Options configures the controller.
type Options struct {
	// PollInterval between status checks while a run is in flight.
	PollInterval time.Duration
	// ConnectTimeout bounds the initial trigger request. The poll that
	// follows is unbounded; only getting the run started is subject to
	// a timeout.
	ConnectTimeout time.Duration
}

// DefaultOptions returns the interactive settings.
func DefaultOptions() Options {
	return Options{
		PollInterval:   2 * time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}

// Controller mediates between the service API and a view.
type Controller struct {
	api    API
	view   View
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewController creates a controller for the given view.
func NewController(api API, view View, opts Options, logger *slog.Logger) *Controller {
	return &Controller{api: api, view: view, opts: opts, logger: logger}
}

// Load performs the initial render: the stored dataset first, then the
// job status. When a run is already in flight the controller attaches
// to it, so a dashboard opened mid-run shows live progress without the
// user triggering anything.
func (c *Controller) Load(ctx context.Context) {
	ds, err := c.api.Dataset(ctx)
	if err != nil {
		c.view.RenderError("could not load dataset: " + err.Error())
	} else {
		c.view.RenderDataset(ds)
	}

	state, err := c.api.Status(ctx)
	if err != nil {
		c.logger.Debug("initial status fetch failed", "error", err)
		return
	}
	c.view.RenderStatus(state)

	if state.Status == client.JobRunning {
		c.startPolling()
	}
}

// Refresh triggers a new curation run. Only the trigger itself is
// bounded by the connect timeout; once the run is accepted the
// controller polls without a deadline, interactive users watch for as
// long as they please.
func (c *Controller) Refresh(ctx context.Context) {
	triggerCtx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	res, err := c.api.Trigger(triggerCtx)
	cancel()
	if err != nil {
		c.view.RenderError("could not reach the service, try again: " + err.Error())
		return
	}

	c.view.RenderStatus(client.JobState{Status: res.Status, Detail: res.Detail})

	if res.Status.Terminal() {
		// Attached to a run that already finished; fetch its result.
		c.finishRun(context.Background(), client.JobState{Status: res.Status, Detail: res.Detail})
		return
	}
	c.startPolling()
}

// Close stops any in-flight polling and waits for it to wind down.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// startPolling replaces any active poll loop with a fresh one.
func (c *Controller) startPolling() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result := poll.Wait(ctx, c.api.Status, poll.Config{
			Interval: c.opts.PollInterval,
			Logger:   c.logger,
			OnTick:   c.view.RenderStatus,
		})

		switch result.Outcome {
		case poll.OutcomeDone, poll.OutcomeFailed:
			c.finishRun(ctx, result.State)
		case poll.OutcomeCancelled:
			// Teardown or a newer poll superseded this one.
		}
	}()
}

// finishRun renders a terminal outcome. On success the fresh dataset
// replaces the displayed one in a single call; on failure the old
// items stay put next to the error message.
func (c *Controller) finishRun(ctx context.Context, state client.JobState) {
	if state.Status == client.JobError {
		c.view.RenderError(state.Detail)
		return
	}

	ds, err := c.api.Dataset(ctx)
	if err != nil {
		c.view.RenderError("run finished but the dataset could not be loaded: " + err.Error())
		return
	}
	c.view.RenderDataset(ds)
}

// Package poll implements the status polling loop shared by the
// scheduler and the dashboard.
//
// The loop asks for the job state once per interval and classifies
// each tick:
//
//   - transport failures are swallowed and the loop keeps going; a
//     transient network blip must not abort a run that is still
//     progressing on the server
//   - a "done" state stops the loop with OutcomeDone
//   - an "error" state stops the loop with OutcomeFailed; only the
//     engine's own verdict fails a run
//   - an optional deadline stops the loop with OutcomeTimedOut, which
//     is ambiguous: the run may still finish on the server afterward
//   - context cancellation stops the loop with OutcomeCancelled
package poll

import (
	"context"
	"log/slog"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/pkg/client"
)

// StatusFunc fetches the current job state.
type StatusFunc func(ctx context.Context) (client.JobState, error)

// Outcome classifies how a polling loop ended.
type Outcome int

const (
	// OutcomeDone means the job reported successful completion.
	OutcomeDone Outcome = iota
	// OutcomeFailed means the job itself reported an error.
	OutcomeFailed
	// OutcomeTimedOut means the deadline passed without a terminal
	// state. The run's true outcome is unknown.
	OutcomeTimedOut
	// OutcomeCancelled means the caller's context was cancelled.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the final state of a polling loop.
type Result struct {
	Outcome Outcome
	// State is the last job state observed. For OutcomeTimedOut and
	// OutcomeCancelled it is whatever the last successful tick saw.
	State client.JobState
	// Err is set for OutcomeTimedOut and OutcomeCancelled.
	Err error
}

// Config controls a polling loop.
type Config struct {
	// Interval between status requests.
	Interval time.Duration
	// Deadline bounds the whole loop. Zero means poll forever.
	Deadline time.Duration
	// OnTick, when set, receives every successfully fetched state,
	// terminal ones included.
	OnTick func(client.JobState)
	// OnTransportError, when set, receives swallowed transport errors.
	OnTransportError func(error)

	Logger *slog.Logger
}

// Wait polls fn until the job reaches a terminal state, the deadline
// passes, or ctx is cancelled. The first poll happens immediately.
func Wait(ctx context.Context, fn StatusFunc, cfg Config) Result {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Deadline)
		defer cancel()
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var last client.JobState
	for {
		state, err := fn(ctx)
		switch {
		case err == nil:
			last = state
			if cfg.OnTick != nil {
				cfg.OnTick(state)
			}
			switch state.Status {
			case client.JobDone:
				return Result{Outcome: OutcomeDone, State: state}
			case client.JobError:
				return Result{Outcome: OutcomeFailed, State: state}
			}
		case ctx.Err() != nil:
			// The request died because the loop is over; classified
			// below.
		case client.IsTransport(err):
			logger.Debug("status poll failed, retrying", "error", err)
			if cfg.OnTransportError != nil {
				cfg.OnTransportError(err)
			}
		default:
			// Unexpected API responses get the same treatment as
			// transport errors: keep polling, the job may still be
			// running.
			logger.Debug("unexpected status response, retrying", "error", err)
			if cfg.OnTransportError != nil {
				cfg.OnTransportError(err)
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if cfg.Deadline > 0 && ctx.Err() == context.DeadlineExceeded {
				return Result{Outcome: OutcomeTimedOut, State: last, Err: ctx.Err()}
			}
			return Result{Outcome: OutcomeCancelled, State: last, Err: ctx.Err()}
		}
	}
}

// Package scheduler implements the unattended run driver used by cron
// jobs and CI. It triggers exactly one curation run and waits a bounded
// amount of time for its outcome, mapping every possible ending to a
// distinct exit code so the calling automation can tell a failed run
// from one whose outcome is unknown.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/pkg/client"
	"github.com/RaphaelInbix/agente-cassiano/pkg/poll"
)

// Exit codes. Automation keys on them, so they are part of the
// contract: 2 specifically means "the run may still have succeeded".
const (
	ExitOK          = 0
	ExitRunFailed   = 1
	ExitTimeout     = 2
	ExitUnreachable = 3
)

// Options configures a scheduler run.
type Options struct {
	// PollInterval between status checks.
	PollInterval time.Duration
	// MaxWait bounds the whole wait after triggering.
	MaxWait time.Duration
	// SettleDelay between the health probe and the trigger, gives a
	// just-started service time to finish wiring.
	SettleDelay time.Duration
	// HealthTimeout bounds the best-effort health probe.
	HealthTimeout time.Duration
}

// DefaultOptions returns the production settings: a 10 second poll
// with a 5 minute ceiling.
func DefaultOptions() Options {
	return Options{
		PollInterval:  10 * time.Second,
		MaxWait:       300 * time.Second,
		SettleDelay:   2 * time.Second,
		HealthTimeout: 15 * time.Second,
	}
}

// API is the subset of the service client the runner needs.
type API interface {
	Health(ctx context.Context) error
	Trigger(ctx context.Context) (client.TriggerResult, error)
	Status(ctx context.Context) (client.JobState, error)
}

// Runner drives one unattended curation run.
type Runner struct {
	api    API
	opts   Options
	logger *slog.Logger

	steps io.Writer
	now   func() time.Time
	sleep func(context.Context, time.Duration)
}

// NewRunner creates a runner that appends step lines to steps.
func NewRunner(api API, opts Options, steps io.Writer, logger *slog.Logger) *Runner {
	return &Runner{
		api:    api,
		opts:   opts,
		logger: logger,
		steps:  steps,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Run executes the scheduled sequence and returns the exit code.
func (r *Runner) Run(ctx context.Context) int {
	r.step("scheduler run starting")

	// The health probe is best effort. A cold service that answers the
	// probe slowly, or not at all, can still accept the trigger below;
	// failing here would turn every cold start into a false alarm.
	healthCtx, cancel := context.WithTimeout(ctx, r.opts.HealthTimeout)
	err := r.api.Health(healthCtx)
	cancel()
	if err != nil {
		r.step("health probe failed (continuing): %v", err)
	} else {
		r.step("service healthy")
	}

	r.sleep(ctx, r.opts.SettleDelay)
	if ctx.Err() != nil {
		r.step("aborted before trigger: %v", ctx.Err())
		return ExitUnreachable
	}

	// Exactly one trigger. If it cannot be delivered there is nothing
	// to wait for and retrying could start a run we then abandon.
	res, err := r.api.Trigger(ctx)
	if err != nil {
		r.step("trigger failed: %v", err)
		return ExitUnreachable
	}
	if !res.Accepted {
		r.step("trigger rejected: %s", res.Detail)
		return ExitUnreachable
	}
	if res.Attached {
		r.step("attached to run already in flight (%s)", res.Status)
	} else {
		r.step("run triggered")
	}

	// An attached trigger can hand us a run that already finished.
	if res.Status.Terminal() {
		return r.classify(poll.Result{
			Outcome: outcomeFor(res.Status),
			State:   client.JobState{Status: res.Status, Detail: res.Detail},
		})
	}

	result := poll.Wait(ctx, r.api.Status, poll.Config{
		Interval: r.opts.PollInterval,
		Deadline: r.opts.MaxWait,
		Logger:   r.logger,
		OnTick: func(s client.JobState) {
			r.step("status: %s %s", s.Status, s.Detail)
		},
		OnTransportError: func(err error) {
			r.step("status check failed (will retry): %v", err)
		},
	})
	return r.classify(result)
}

func (r *Runner) classify(result poll.Result) int {
	switch result.Outcome {
	case poll.OutcomeDone:
		r.step("run finished: %s", result.State.Detail)
		return ExitOK
	case poll.OutcomeFailed:
		r.step("run failed: %s", result.State.Detail)
		return ExitRunFailed
	case poll.OutcomeTimedOut:
		r.step("gave up after %s; run may still finish on the server", r.opts.MaxWait)
		return ExitTimeout
	default:
		r.step("cancelled: %v", result.Err)
		return ExitUnreachable
	}
}

// step writes one timestamped line to the step log.
func (r *Runner) step(format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] %s\n", r.now().UTC().Format(time.RFC3339), fmt.Sprintf(format, args...))
	if r.steps != nil {
		_, _ = io.WriteString(r.steps, line)
	}
}

func outcomeFor(status client.JobStatus) poll.Outcome {
	if status == client.JobDone {
		return poll.OutcomeDone
	}
	return poll.OutcomeFailed
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

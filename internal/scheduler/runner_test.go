package scheduler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/pkg/client"
)

// fakeAPI scripts the service behavior
type fakeAPI struct {
	healthErr  error
	triggerRes client.TriggerResult
	triggerErr error

	statusIdx int
	statuses  []client.JobState
	statusErr []error
}

func (f *fakeAPI) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeAPI) Trigger(ctx context.Context) (client.TriggerResult, error) {
	return f.triggerRes, f.triggerErr
}

func (f *fakeAPI) Status(ctx context.Context) (client.JobState, error) {
	i := f.statusIdx
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	} else {
		f.statusIdx++
	}
	var err error
	if i < len(f.statusErr) {
		err = f.statusErr[i]
	}
	return f.statuses[i], err
}

func testRunner(api API, opts Options, steps io.Writer) *Runner {
	r := NewRunner(api, opts, steps, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.sleep = func(context.Context, time.Duration) {}
	return r
}

func fastOptions() Options {
	return Options{
		PollInterval:  time.Millisecond,
		MaxWait:       time.Second,
		SettleDelay:   0,
		HealthTimeout: time.Second,
	}
}

func accepted() client.TriggerResult {
	return client.TriggerResult{Accepted: true, Status: client.JobRunning}
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		triggerRes: accepted(),
		statuses: []client.JobState{
			{Status: client.JobRunning},
			{Status: client.JobDone, Detail: "25 items curated"},
		},
	}

	var steps bytes.Buffer
	code := testRunner(api, fastOptions(), &steps).Run(context.Background())
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d\nsteps:\n%s", code, ExitOK, steps.String())
	}

	log := steps.String()
	for _, want := range []string{"service healthy", "run triggered", "run finished: 25 items curated"} {
		if !strings.Contains(log, want) {
			t.Errorf("step log missing %q:\n%s", want, log)
		}
	}
	// Every step line carries a timestamp.
	for _, line := range strings.Split(strings.TrimSpace(log), "\n") {
		if !strings.HasPrefix(line, "[20") {
			t.Errorf("step line missing timestamp: %q", line)
		}
	}
}

func TestRun_ColdStartHealthFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		healthErr:  &client.TransportError{Op: "GET /api/health", Err: errors.New("connection refused")},
		triggerRes: accepted(),
		statuses: []client.JobState{
			{Status: client.JobDone, Detail: "10 items curated"},
		},
	}

	var steps bytes.Buffer
	code := testRunner(api, fastOptions(), &steps).Run(context.Background())
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d", code, ExitOK)
	}
	if !strings.Contains(steps.String(), "health probe failed (continuing)") {
		t.Errorf("step log missing probe failure:\n%s", steps.String())
	}
}

func TestRun_EngineError(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		triggerRes: accepted(),
		statuses: []client.JobState{
			{Status: client.JobRunning},
			{Status: client.JobError, Detail: "no items collected from any source"},
		},
	}

	var steps bytes.Buffer
	code := testRunner(api, fastOptions(), &steps).Run(context.Background())
	if code != ExitRunFailed {
		t.Fatalf("exit code = %d, want %d", code, ExitRunFailed)
	}
	if !strings.Contains(steps.String(), "run failed: no items collected from any source") {
		t.Errorf("step log missing verbatim engine error:\n%s", steps.String())
	}
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		triggerRes: accepted(),
		statuses:   []client.JobState{{Status: client.JobRunning}},
	}

	opts := fastOptions()
	opts.MaxWait = 20 * time.Millisecond

	var steps bytes.Buffer
	code := testRunner(api, opts, &steps).Run(context.Background())
	if code != ExitTimeout {
		t.Fatalf("exit code = %d, want %d", code, ExitTimeout)
	}
	if !strings.Contains(steps.String(), "may still finish") {
		t.Errorf("timeout step must flag the ambiguity:\n%s", steps.String())
	}
}

func TestRun_TriggerTransportFailureIsFatal(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		triggerErr: &client.TransportError{Op: "POST /api/trigger", Err: errors.New("connection refused")},
	}

	code := testRunner(api, fastOptions(), io.Discard).Run(context.Background())
	if code != ExitUnreachable {
		t.Fatalf("exit code = %d, want %d", code, ExitUnreachable)
	}
}

func TestRun_AttachedToFinishedRun(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		triggerRes: client.TriggerResult{
			Accepted: true,
			Attached: true,
			Status:   client.JobDone,
			Detail:   "18 items curated",
		},
		statuses: []client.JobState{{Status: client.JobDone}},
	}

	var steps bytes.Buffer
	code := testRunner(api, fastOptions(), &steps).Run(context.Background())
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d", code, ExitOK)
	}
	if !strings.Contains(steps.String(), "attached") {
		t.Errorf("step log missing attach note:\n%s", steps.String())
	}
}

func TestRun_TransportBlipsDoNotAbortPolling(t *testing.T) {
	t.Parallel()

	blip := &client.TransportError{Op: "GET /api/status", Err: errors.New("timeout")}
	api := &fakeAPI{
		triggerRes: accepted(),
		statuses: []client.JobState{
			{Status: client.JobRunning},
			{},
			{Status: client.JobDone, Detail: "9 items curated"},
		},
		statusErr: []error{nil, blip, nil},
	}

	var steps bytes.Buffer
	code := testRunner(api, fastOptions(), &steps).Run(context.Background())
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d\nsteps:\n%s", code, ExitOK, steps.String())
	}
	if !strings.Contains(steps.String(), "will retry") {
		t.Errorf("step log missing retry note:\n%s", steps.String())
	}
}

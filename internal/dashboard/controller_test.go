package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/pkg/client"
)

// recordingView captures render calls
type recordingView struct {
	mu       sync.Mutex
	datasets []client.Dataset
	statuses []client.JobState
	errors   []string
	cleared  bool
}

func (v *recordingView) RenderDataset(ds client.Dataset) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(ds.Items) == 0 && len(v.datasets) > 0 && len(v.datasets[len(v.datasets)-1].Items) > 0 {
		v.cleared = true
	}
	v.datasets = append(v.datasets, ds)
}

func (v *recordingView) RenderStatus(state client.JobState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, state)
}

func (v *recordingView) RenderError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, msg)
}

func (v *recordingView) lastStatus() client.JobStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.statuses) == 0 {
		return ""
	}
	return v.statuses[len(v.statuses)-1].Status
}

func (v *recordingView) datasetCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.datasets)
}

// fakeAPI scripts the service
type fakeAPI struct {
	mu         sync.Mutex
	dataset    client.Dataset
	datasetErr error
	triggerRes client.TriggerResult
	triggerErr error
	statuses   []client.JobState
	statusIdx  int
	statusCnt  int
}

func (f *fakeAPI) Trigger(ctx context.Context) (client.TriggerResult, error) {
	return f.triggerRes, f.triggerErr
}

func (f *fakeAPI) Status(ctx context.Context) (client.JobState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCnt++
	if len(f.statuses) == 0 {
		return client.JobState{Status: client.JobIdle}, nil
	}
	i := f.statusIdx
	if i < len(f.statuses)-1 {
		f.statusIdx++
	}
	return f.statuses[i], nil
}

func (f *fakeAPI) Dataset(ctx context.Context) (client.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dataset, f.datasetErr
}

func (f *fakeAPI) statusCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCnt
}

func fastOptions() Options {
	return Options{PollInterval: time.Millisecond, ConnectTimeout: time.Second}
}

func newTestController(api API, view View) *Controller {
	return NewController(api, view, fastOptions(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleDataset(n int, gen int64) client.Dataset {
	items := make([]client.Item, n)
	for i := range items {
		items[i] = client.Item{Title: "Item", Source: "Reddit"}
	}
	now := time.Now()
	return client.Dataset{UpdatedAt: &now, Total: n, Generation: gen, Items: items}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestLoad_RendersStoredDataset(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		dataset:  sampleDataset(3, 2),
		statuses: []client.JobState{{Status: client.JobIdle}},
	}
	view := &recordingView{}

	c := newTestController(api, view)
	defer c.Close()
	c.Load(context.Background())

	if view.datasetCount() != 1 {
		t.Fatalf("datasets rendered = %d, want 1", view.datasetCount())
	}
	if view.lastStatus() != client.JobIdle {
		t.Errorf("status = %s, want idle", view.lastStatus())
	}
	// Idle service: no polling started.
	before := api.statusCalls()
	time.Sleep(20 * time.Millisecond)
	if api.statusCalls() != before {
		t.Error("controller polled an idle service")
	}
}

func TestLoad_AutoAttachesToRunningJob(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		dataset: sampleDataset(3, 2),
		statuses: []client.JobState{
			{Status: client.JobRunning},
			{Status: client.JobRunning},
			{Status: client.JobDone, Detail: "5 items curated"},
		},
	}
	view := &recordingView{}

	c := newTestController(api, view)
	defer c.Close()
	c.Load(context.Background())

	// The stale dataset shows right away, then the controller attaches
	// to the running job and re-renders once it finishes.
	if view.datasetCount() != 1 {
		t.Fatalf("datasets rendered at load = %d, want 1", view.datasetCount())
	}
	waitFor(t, func() bool { return view.datasetCount() == 2 })
	waitFor(t, func() bool { return view.lastStatus() == client.JobDone })
}

func TestRefresh_TriggersAndRendersResult(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		dataset:    sampleDataset(5, 3),
		triggerRes: client.TriggerResult{Accepted: true, Status: client.JobRunning},
		statuses: []client.JobState{
			{Status: client.JobRunning},
			{Status: client.JobDone, Detail: "5 items curated"},
		},
	}
	view := &recordingView{}

	c := newTestController(api, view)
	defer c.Close()
	c.Refresh(context.Background())

	waitFor(t, func() bool { return view.datasetCount() == 1 })
	if view.cleared {
		t.Error("view was cleared during refresh")
	}
}

func TestRefresh_TransportFailureShowsRetryHint(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		triggerErr: &client.TransportError{Op: "POST /api/trigger", Err: errors.New("connection refused")},
	}
	view := &recordingView{}

	c := newTestController(api, view)
	defer c.Close()
	c.Refresh(context.Background())

	view.mu.Lock()
	defer view.mu.Unlock()
	if len(view.errors) != 1 || !strings.Contains(view.errors[0], "try again") {
		t.Fatalf("errors = %v, want a retry hint", view.errors)
	}
	if len(view.datasets) != 0 {
		t.Error("failed trigger must not touch the dataset view")
	}
}

func TestRefresh_EngineErrorKeepsItemsOnScreen(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		dataset:    sampleDataset(4, 1),
		triggerRes: client.TriggerResult{Accepted: true, Status: client.JobRunning},
		statuses: []client.JobState{
			{Status: client.JobRunning},
			{Status: client.JobError, Detail: "all sources failed"},
		},
	}
	view := &recordingView{}

	c := newTestController(api, view)
	defer c.Close()
	c.Load(context.Background())
	c.Refresh(context.Background())

	waitFor(t, func() bool {
		view.mu.Lock()
		defer view.mu.Unlock()
		return len(view.errors) > 0
	})

	view.mu.Lock()
	defer view.mu.Unlock()
	if view.errors[len(view.errors)-1] != "all sources failed" {
		t.Errorf("errors = %v, want verbatim engine detail", view.errors)
	}
	// Only the initial load rendered a dataset; nothing replaced it.
	if len(view.datasets) != 1 {
		t.Errorf("datasets rendered = %d, want 1", len(view.datasets))
	}
	if view.cleared {
		t.Error("view was cleared after a failed run")
	}
}

func TestRefresh_AttachedToFinishedRun(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		dataset: sampleDataset(2, 6),
		triggerRes: client.TriggerResult{
			Accepted: true,
			Attached: true,
			Status:   client.JobDone,
			Detail:   "2 items curated",
		},
	}
	view := &recordingView{}

	c := newTestController(api, view)
	defer c.Close()
	c.Refresh(context.Background())

	if view.datasetCount() != 1 {
		t.Fatalf("datasets rendered = %d, want 1 (finished run fetched immediately)", view.datasetCount())
	}
	if view.lastStatus() != client.JobDone {
		t.Errorf("status = %s, want done", view.lastStatus())
	}
}

func TestClose_StopsPolling(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		dataset:    sampleDataset(1, 1),
		triggerRes: client.TriggerResult{Accepted: true, Status: client.JobRunning},
		statuses:   []client.JobState{{Status: client.JobRunning}},
	}
	view := &recordingView{}

	c := newTestController(api, view)
	c.Refresh(context.Background())

	waitFor(t, func() bool { return api.statusCalls() > 2 })
	c.Close()

	calls := api.statusCalls()
	time.Sleep(20 * time.Millisecond)
	if api.statusCalls() != calls {
		t.Error("polling survived Close")
	}
}

// Package client is the HTTP client for the curation service API,
// shared by the scheduler and the dashboard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// JobStatus mirrors the job lifecycle values reported by the service.
type JobStatus string

const (
	JobIdle    JobStatus = "idle"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobError   JobStatus = "error"
)

// Terminal returns true for states that end a run.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobError
}

// JobState is the response of GET /api/status.
type JobState struct {
	Status     JobStatus  `json:"status"`
	Detail     string     `json:"detail"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// TriggerResult is the response of POST /api/trigger.
type TriggerResult struct {
	Accepted bool      `json:"accepted"`
	Attached bool      `json:"attached"`
	Status   JobStatus `json:"status"`
	Detail   string    `json:"detail,omitempty"`
}

// Item is one curated entry in the dataset.
type Item struct {
	Title          string   `json:"title"`
	Source         string   `json:"source"`
	Channel        string   `json:"channel"`
	Description    string   `json:"description"`
	Author         string   `json:"author"`
	URL            string   `json:"url"`
	RelevanceScore float64  `json:"relevanceScore"`
	Tags           []string `json:"tags,omitempty"`
	PublishedDate  string   `json:"publishedDate,omitempty"`
	CommentCount   int      `json:"commentCount,omitempty"`
}

// Dataset is the response of GET /api/dataset.
type Dataset struct {
	UpdatedAt    *time.Time `json:"updatedAt"`
	Total        int        `json:"total"`
	Generation   int64      `json:"generation"`
	Items        []Item     `json:"items"`
	AutoUpdating bool       `json:"autoUpdating,omitempty"`
}

// Client talks to one curation service instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks GET /api/health. A nil error means the service is up
// and answering.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("service unhealthy: status %q", out.Status)
	}
	return nil
}

// Trigger requests a curation run via POST /api/trigger.
func (c *Client) Trigger(ctx context.Context) (TriggerResult, error) {
	var out TriggerResult
	err := c.do(ctx, http.MethodPost, "/api/trigger", struct{}{}, &out)
	return out, err
}

// Status fetches the current job state via GET /api/status.
func (c *Client) Status(ctx context.Context) (JobState, error) {
	var out JobState
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &out)
	return out, err
}

// Dataset fetches the current dataset via GET /api/dataset.
func (c *Client) Dataset(ctx context.Context) (Dataset, error) {
	var out Dataset
	err := c.do(ctx, http.MethodGet, "/api/dataset", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Op: method + " " + path, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method+" "+path, resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &TransportError{Op: method + " " + path, Err: fmt.Errorf("decoding response: %w", err)}
		}
	}
	return nil
}

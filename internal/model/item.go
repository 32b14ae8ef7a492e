package model

import "time"

// Source names used by the scrapers and the curator's per-source slots.
const (
	SourceNewsletter = "Newsletter"
	SourceReddit     = "Reddit"
	SourceYouTube    = "YouTube"
)

// CuratedItem is a single scraped and scored piece of content.
// Tags, PublishedDate and CommentCount were added after the first
// deployments; older stored payloads omit them and consumers must
// treat absence as empty, not as an error.
type CuratedItem struct {
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

// CuratedDataset is the full output of one successful pipeline run.
// The engine replaces it wholesale; a dataset is never mutated after
// it has been swapped in. Generation strictly increases with every
// successful replacement and distinguishes successive snapshots.
type CuratedDataset struct {
	Items      []CuratedItem `json:"items"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	Generation int64         `json:"generation"`
}

// Total returns the number of items in the dataset.
func (d *CuratedDataset) Total() int {
	if d == nil {
		return 0
	}
	return len(d.Items)
}

// DatasetResponse is the wire shape for GET /dataset. UpdatedAt is
// null until the first successful run. AutoUpdating tells the
// dashboard a refresh is in flight so it keeps the current items on
// screen instead of flashing to empty.
type DatasetResponse struct {
	UpdatedAt    *time.Time    `json:"updatedAt"`
	Total        int           `json:"total"`
	Generation   int64         `json:"generation"`
	Items        []CuratedItem `json:"items"`
	AutoUpdating bool          `json:"autoUpdating,omitempty"`
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/internal/database"
	"github.com/RaphaelInbix/agente-cassiano/internal/model"
)

// DatasetRepository persists the curated dataset in the document store.
// Only the last successful dataset is kept: every save replaces the
// item collection and the metadata record inside one transaction, so a
// crash or query failure mid-write never leaves a partially visible
// dataset behind.
type DatasetRepository struct {
	db database.Database
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db database.Database) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// storedItem is the document-store shape of a curated item.
type storedItem struct {
	Title          string   `json:"title"`
	Source         string   `json:"source"`
	Channel        string   `json:"channel"`
	Description    string   `json:"description"`
	Author         string   `json:"author"`
	URL            string   `json:"url"`
	RelevanceScore float64  `json:"relevance_score"`
	Tags           []string `json:"tags,omitempty"`
	PublishedDate  string   `json:"published_date,omitempty"`
	CommentCount   int      `json:"comment_count,omitempty"`
}

type storedMeta struct {
	UpdatedAt  string `json:"updated_at"`
	Generation int64  `json:"generation"`
	Total      int    `json:"total"`
}

// SaveDataset replaces the stored dataset wholesale.
func (r *DatasetRepository) SaveDataset(ctx context.Context, ds *model.CuratedDataset) error {
	batch := database.NewAtomicBatch()
	batch.Add("DELETE curated_item", nil)

	itemQuery := `
		CREATE curated_item CONTENT {
			title: $title,
			source: $source,
			channel: $channel,
			description: $description,
			author: $author,
			url: $url,
			relevance_score: $relevance_score,
			tags: $tags,
			published_date: $published_date,
			comment_count: $comment_count,
			position: $position
		}
	`
	for i, item := range ds.Items {
		batch.Add(itemQuery, map[string]interface{}{
			"title":           item.Title,
			"source":          item.Source,
			"channel":         item.Channel,
			"description":     item.Description,
			"author":          item.Author,
			"url":             item.URL,
			"relevance_score": item.RelevanceScore,
			"tags":            item.Tags,
			"published_date":  item.PublishedDate,
			"comment_count":   item.CommentCount,
			"position":        i,
		})
	}

	batch.Add(`
		UPSERT dataset_meta:current CONTENT {
			updated_at: $updated_at,
			generation: $generation,
			total: $total
		}
	`, map[string]interface{}{
		"updated_at": ds.UpdatedAt.UTC().Format(time.RFC3339),
		"generation": ds.Generation,
		"total":      len(ds.Items),
	})

	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("saving dataset: %w", err)
	}
	return nil
}

// LoadDataset reads the last successful dataset, or an empty one when
// the store has never been written.
func (r *DatasetRepository) LoadDataset(ctx context.Context) (*model.CuratedDataset, error) {
	metaRaw, err := r.db.QueryOne(ctx, "SELECT * FROM dataset_meta:current", nil)
	if errors.Is(err, database.ErrNotFound) {
		return &model.CuratedDataset{Items: []model.CuratedItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading dataset metadata: %w", err)
	}

	var meta storedMeta
	if err := decodeInto(metaRaw, &meta); err != nil {
		return nil, fmt.Errorf("decoding dataset metadata: %w", err)
	}

	rows, err := r.db.Query(ctx, "SELECT * FROM curated_item ORDER BY position ASC", nil)
	if err != nil {
		return nil, fmt.Errorf("loading dataset items: %w", err)
	}

	items := make([]model.CuratedItem, 0, meta.Total)
	for _, raw := range extractQueryResults(rows) {
		var si storedItem
		if err := decodeInto(raw, &si); err != nil {
			return nil, fmt.Errorf("decoding stored item: %w", err)
		}
		items = append(items, model.CuratedItem{
			Title:          si.Title,
			Source:         si.Source,
			Channel:        si.Channel,
			Description:    si.Description,
			Author:         si.Author,
			URL:            si.URL,
			RelevanceScore: si.RelevanceScore,
			Tags:           si.Tags,
			PublishedDate:  si.PublishedDate,
			CommentCount:   si.CommentCount,
		})
	}

	updatedAt, _ := time.Parse(time.RFC3339, meta.UpdatedAt)
	return &model.CuratedDataset{
		Items:      items,
		UpdatedAt:  updatedAt,
		Generation: meta.Generation,
	}, nil
}

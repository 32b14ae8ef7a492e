// Package pipeline runs one complete collection cycle: scrape every
// source concurrently, pre-select and curate the results.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/RaphaelInbix/agente-cassiano/internal/curator"
	"github.com/RaphaelInbix/agente-cassiano/internal/model"
)

// ErrNoItems indicates that no source produced any content. A run that
// collects nothing is treated as a failure rather than publishing an
// empty dataset over a good one.
var ErrNoItems = errors.New("no items collected from any source")

// Scraper is a single content source.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context) ([]model.CuratedItem, error)
}

// Pipeline orchestrates the scrapers and the curator.
type Pipeline struct {
	scrapers   []Scraper
	curator    *curator.Curator
	maxItems   int
	redditTopN int
	logger     *slog.Logger
}

// New creates a pipeline over the given scrapers
func New(scrapers []Scraper, cur *curator.Curator, maxItems, redditTopN int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		scrapers:   scrapers,
		curator:    cur,
		maxItems:   maxItems,
		redditTopN: redditTopN,
		logger:     logger,
	}
}

// Run executes one collection cycle. Scrapers run concurrently; a
// failing scraper is logged and its source contributes nothing. The
// run fails only when every source comes back empty.
func (p *Pipeline) Run(ctx context.Context) ([]model.CuratedItem, error) {
	results := make([][]model.CuratedItem, len(p.scrapers))

	var wg sync.WaitGroup
	for i, scraper := range p.scrapers {
		wg.Add(1)
		go func(i int, s Scraper) {
			defer wg.Done()
			items, err := s.Scrape(ctx)
			if err != nil {
				p.logger.Error("scraper failed", "scraper", s.Name(), "error", err)
				return
			}
			p.logger.Info("scraper finished", "scraper", s.Name(), "items", len(items))
			results[i] = items
		}(i, scraper)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var collected []model.CuratedItem
	for _, items := range results {
		collected = append(collected, items...)
	}
	if len(collected) == 0 {
		return nil, ErrNoItems
	}
	collected = p.preSelectReddit(collected)

	curated := p.curator.Curate(collected, p.maxItems)

	stats := curator.Summarize(curated)
	p.logger.Info("pipeline run complete",
		"collected", len(collected),
		"selected", stats.TotalItems,
		"avg_score", stats.AvgScore,
		"top", stats.TopItem,
	)
	return curated, nil
}

// preSelect trims Reddit results to the most engaging posts before
// curation, so one busy subreddit cannot crowd out the rest.
func (p *Pipeline) preSelectReddit(items []model.CuratedItem) []model.CuratedItem {
	reddit := 0
	for _, item := range items {
		if item.Source == model.SourceReddit {
			reddit++
		}
	}
	if reddit <= p.redditTopN {
		return items
	}

	var redditItems, rest []model.CuratedItem
	for _, item := range items {
		if item.Source == model.SourceReddit {
			redditItems = append(redditItems, item)
		} else {
			rest = append(rest, item)
		}
	}
	sort.SliceStable(redditItems, func(i, j int) bool {
		return redditItems[i].RelevanceScore > redditItems[j].RelevanceScore
	})
	return append(rest, redditItems[:p.redditTopN]...)
}

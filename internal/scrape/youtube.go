package scrape

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/internal/config"
	"github.com/RaphaelInbix/agente-cassiano/internal/model"
)

const maxVideosPerChannel = 3

var channelIDPattern = regexp.MustCompile(`"channelId":"(UC[\w-]{22})"|channel_id=(UC[\w-]{22})`)

// YouTubeScraper collects recent videos from the configured channels
// through their public RSS feeds, so no API key is needed. Channel
// handles are resolved to channel IDs by scanning the channel page once.
type YouTubeScraper struct {
	fetcher    *Fetcher
	channels   []config.YouTubeChannel
	keywords   []string
	maxResults int
	logger     *slog.Logger
	now        func() time.Time

	// Overridable in tests.
	baseURL string
}

// NewYouTubeScraper creates a YouTube scraper for the given channels
func NewYouTubeScraper(fetcher *Fetcher, cfg config.ScrapeConfig, channels []config.YouTubeChannel, keywords []string, logger *slog.Logger) *YouTubeScraper {
	return &YouTubeScraper{
		fetcher:    fetcher,
		channels:   channels,
		keywords:   keywords,
		maxResults: cfg.YouTubeMaxResults,
		logger:     logger,
		now:        time.Now,
		baseURL:    "https://www.youtube.com",
	}
}

// Name identifies the scraper in logs and pipeline summaries.
func (s *YouTubeScraper) Name() string { return "youtube" }

// Scrape fetches recent videos from every configured channel, keeping
// only keyword-relevant uploads from the last 30 days.
func (s *YouTubeScraper) Scrape(ctx context.Context) ([]model.CuratedItem, error) {
	var items []model.CuratedItem
	var failed int

	for _, ch := range s.channels {
		videos, err := s.scrapeChannel(ctx, ch)
		if err != nil {
			failed++
			s.logger.Warn("youtube channel failed", "channel", ch.Name, "error", err)
			continue
		}
		items = append(items, videos...)
		s.fetcher.Pause(ctx)
	}

	if failed == len(s.channels) && len(s.channels) > 0 {
		return nil, fmt.Errorf("all %d youtube channels failed", failed)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RelevanceScore > items[j].RelevanceScore
	})
	if len(items) > s.maxResults {
		items = items[:s.maxResults]
	}
	return items, nil
}

// feed mirrors the Atom structure of YouTube channel RSS feeds.
type feed struct {
	Entries []feedEntry `xml:"entry"`
}

type feedEntry struct {
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Author    struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Link struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Media struct {
		Description string `xml:"description"`
	} `xml:"group"`
}

func (s *YouTubeScraper) scrapeChannel(ctx context.Context, ch config.YouTubeChannel) ([]model.CuratedItem, error) {
	channelID, err := s.resolveChannelID(ctx, ch.Handle)
	if err != nil {
		return nil, err
	}

	feedURL := s.baseURL + "/feeds/videos.xml?channel_id=" + channelID
	body, err := s.fetcher.Get(ctx, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	var f feed
	if err := xml.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	var items []model.CuratedItem
	for _, entry := range f.Entries {
		if len(items) >= maxVideosPerChannel {
			break
		}
		item, ok := s.toItem(ch, entry)
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// resolveChannelID scans the channel page for its UC identifier.
func (s *YouTubeScraper) resolveChannelID(ctx context.Context, handle string) (string, error) {
	pageURL := s.baseURL + "/" + strings.TrimPrefix(handle, "/")
	body, err := s.fetcher.Get(ctx, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetching channel page: %w", err)
	}

	m := channelIDPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("channel id not found for %s", handle)
	}
	if len(m[1]) > 0 {
		return string(m[1]), nil
	}
	return string(m[2]), nil
}

// toItem scores a video by keyword matches and recency. Videos with no
// keyword match or older than 30 days are dropped.
func (s *YouTubeScraper) toItem(ch config.YouTubeChannel, entry feedEntry) (model.CuratedItem, bool) {
	published, err := time.Parse(time.RFC3339, entry.Published)
	if err != nil {
		return model.CuratedItem{}, false
	}

	age := s.now().Sub(published)
	if age > 30*24*time.Hour {
		return model.CuratedItem{}, false
	}

	text := strings.ToLower(entry.Title + " " + entry.Media.Description)
	matches := 0
	for _, kw := range s.keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			matches++
		}
	}
	if matches == 0 {
		return model.CuratedItem{}, false
	}

	score := float64(matches * 15)
	switch {
	case age <= 3*24*time.Hour:
		score += 20
	case age <= 7*24*time.Hour:
		score += 15
	case age <= 14*24*time.Hour:
		score += 10
	default:
		score += 5
	}

	description := truncate(entry.Media.Description, 500)

	author := entry.Author.Name
	if author == "" {
		author = ch.Name
	}

	return model.CuratedItem{
		Title:          entry.Title,
		Source:         model.SourceYouTube,
		Channel:        ch.Name,
		Description:    description,
		Author:         author,
		URL:            entry.Link.Href,
		RelevanceScore: score,
		PublishedDate:  published.UTC().Format("2006-01-02"),
	}, true
}

package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/RaphaelInbix/agente-cassiano/internal/config"
	"github.com/RaphaelInbix/agente-cassiano/internal/model"
)

// NewsletterScraper collects recent articles from beehiiv newsletters.
//
// beehiiv sites are remix applications, so the landing page data is
// available as JSON by appending the _data query parameter. When that
// format changes, the scraper falls back to the sitemap and reads the
// JSON-LD block embedded in each article page.
type NewsletterScraper struct {
	fetcher *Fetcher
	sources []config.NewsletterSource
	logger  *slog.Logger
}

// NewNewsletterScraper creates a newsletter scraper for the given sources
func NewNewsletterScraper(fetcher *Fetcher, sources []config.NewsletterSource, logger *slog.Logger) *NewsletterScraper {
	return &NewsletterScraper{fetcher: fetcher, sources: sources, logger: logger}
}

// Name identifies the scraper in logs and pipeline summaries.
func (s *NewsletterScraper) Name() string { return "newsletters" }

// Scrape fetches recent articles from every configured newsletter.
// Sources that fail are logged and skipped.
func (s *NewsletterScraper) Scrape(ctx context.Context) ([]model.CuratedItem, error) {
	var items []model.CuratedItem
	var failed int

	for _, src := range s.sources {
		articles, err := s.scrapeSource(ctx, src)
		if err != nil {
			failed++
			s.logger.Warn("newsletter source failed", "source", src.Name, "error", err)
			continue
		}
		items = append(items, articles...)
		s.fetcher.Pause(ctx)
	}

	if failed == len(s.sources) && len(s.sources) > 0 {
		return nil, fmt.Errorf("all %d newsletter sources failed", failed)
	}
	return items, nil
}

func (s *NewsletterScraper) scrapeSource(ctx context.Context, src config.NewsletterSource) ([]model.CuratedItem, error) {
	items, err := s.scrapeRemixData(ctx, src)
	if err == nil && len(items) > 0 {
		return items, nil
	}
	if err != nil {
		s.logger.Debug("remix data unavailable, trying sitemap", "source", src.Name, "error", err)
	}
	return s.scrapeSitemap(ctx, src)
}

// remixIndex mirrors the subset of the beehiiv landing page payload we
// care about.
type remixIndex struct {
	Posts []remixPost `json:"posts"`
	Data  struct {
		Posts []remixPost `json:"posts"`
	} `json:"data"`
}

type remixPost struct {
	Title       string `json:"web_title"`
	Subtitle    string `json:"web_subtitle"`
	Slug        string `json:"slug"`
	PublishedAt int64  `json:"override_scheduled_at"`
	CreatedAt   int64  `json:"created"`
}

func (s *NewsletterScraper) scrapeRemixData(ctx context.Context, src config.NewsletterSource) ([]model.CuratedItem, error) {
	dataURL := strings.TrimSuffix(src.URL, "/") + "/?_data=routes%2Findex"

	var payload remixIndex
	if err := s.fetcher.GetJSON(ctx, dataURL, nil, &payload); err != nil {
		return nil, err
	}

	posts := payload.Posts
	if len(posts) == 0 {
		posts = payload.Data.Posts
	}

	items := make([]model.CuratedItem, 0, src.MaxArticles)
	for _, post := range posts {
		if len(items) >= src.MaxArticles {
			break
		}
		if post.Title == "" || post.Slug == "" {
			continue
		}
		items = append(items, model.CuratedItem{
			Title:         post.Title,
			Source:        model.SourceNewsletter,
			Channel:       src.Name,
			Description:   post.Subtitle,
			Author:        src.Name,
			URL:           strings.TrimSuffix(src.URL, "/") + "/p/" + post.Slug,
			PublishedDate: unixDate(post.CreatedAt),
		})
	}
	return items, nil
}

type sitemapURLSet struct {
	URLs []struct {
		Loc     string `xml:"loc"`
		LastMod string `xml:"lastmod"`
	} `xml:"url"`
}

func (s *NewsletterScraper) scrapeSitemap(ctx context.Context, src config.NewsletterSource) ([]model.CuratedItem, error) {
	sitemapURL := strings.TrimSuffix(src.URL, "/") + "/sitemap.xml"
	body, err := s.fetcher.Get(ctx, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching sitemap: %w", err)
	}

	var urlset sitemapURLSet
	if err := xml.Unmarshal(body, &urlset); err != nil {
		return nil, fmt.Errorf("parsing sitemap: %w", err)
	}

	// Article pages live under /p/. The sitemap lists newest first.
	var articleURLs []string
	for _, u := range urlset.URLs {
		if strings.Contains(u.Loc, "/p/") {
			articleURLs = append(articleURLs, u.Loc)
		}
		if len(articleURLs) >= src.MaxArticles {
			break
		}
	}

	items := make([]model.CuratedItem, 0, len(articleURLs))
	for _, articleURL := range articleURLs {
		item, err := s.scrapeArticle(ctx, src, articleURL)
		if err != nil {
			s.logger.Debug("skipping article", "url", articleURL, "error", err)
			continue
		}
		items = append(items, item)
		s.fetcher.Pause(ctx)
	}
	return items, nil
}

// jsonLD captures the Article schema fields embedded on beehiiv pages.
type jsonLD struct {
	Type          string `json:"@type"`
	Headline      string `json:"headline"`
	Description   string `json:"description"`
	DatePublished string `json:"datePublished"`
	Author        struct {
		Name string `json:"name"`
	} `json:"author"`
}

func (s *NewsletterScraper) scrapeArticle(ctx context.Context, src config.NewsletterSource, articleURL string) (model.CuratedItem, error) {
	body, err := s.fetcher.Get(ctx, articleURL, nil)
	if err != nil {
		return model.CuratedItem{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.CuratedItem{}, fmt.Errorf("parsing article page: %w", err)
	}

	item := model.CuratedItem{
		Source:  model.SourceNewsletter,
		Channel: src.Name,
		Author:  src.Name,
		URL:     articleURL,
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var ld jsonLD
		if err := json.Unmarshal([]byte(sel.Text()), &ld); err != nil {
			return true
		}
		if ld.Type != "Article" && ld.Type != "NewsArticle" {
			return true
		}
		item.Title = ld.Headline
		item.Description = ld.Description
		item.PublishedDate = shortDate(ld.DatePublished)
		if ld.Author.Name != "" {
			item.Author = ld.Author.Name
		}
		return false
	})

	if item.Title == "" {
		item.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if item.Description == "" {
		item.Description, _ = doc.Find(`meta[name="description"]`).Attr("content")
	}
	if item.Title == "" {
		return model.CuratedItem{}, fmt.Errorf("no title found at %s", articleURL)
	}
	return item, nil
}

func unixDate(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

// truncate caps s at n runes. Byte slicing could cut a multi-byte
// character in half; descriptions here are Portuguese text.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// shortDate trims an ISO timestamp down to its date part.
func shortDate(iso string) string {
	if t, err := time.Parse(time.RFC3339, iso); err == nil {
		return t.UTC().Format("2006-01-02")
	}
	if len(iso) >= 10 {
		return iso[:10]
	}
	return iso
}

package scrape

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/internal/config"
	"github.com/RaphaelInbix/agente-cassiano/internal/model"
)

const (
	redditTokenURL  = "https://www.reddit.com/api/v1/access_token"
	redditOAuthBase = "https://oauth.reddit.com"
	redditPublic    = "https://www.reddit.com"
)

// RedditScraper collects hot posts from the configured subreddits.
//
// When API credentials are configured it authenticates with the
// client_credentials OAuth flow; without credentials, or when the token
// request fails, it falls back to the public .json listings which are
// rate limited but need no auth.
type RedditScraper struct {
	fetcher      *Fetcher
	sources      []config.SubredditSource
	clientID     string
	clientSecret string
	logger       *slog.Logger

	// Overridable in tests.
	publicBase string
	oauthBase  string
	tokenURL   string

	token       string
	tokenExpiry time.Time
}

// NewRedditScraper creates a Reddit scraper for the given subreddits
func NewRedditScraper(fetcher *Fetcher, cfg config.ScrapeConfig, sources []config.SubredditSource, logger *slog.Logger) *RedditScraper {
	return &RedditScraper{
		fetcher:      fetcher,
		sources:      sources,
		clientID:     cfg.RedditClientID,
		clientSecret: cfg.RedditClientSecret,
		logger:       logger,
		publicBase:   redditPublic,
		oauthBase:    redditOAuthBase,
		tokenURL:     redditTokenURL,
	}
}

// Name identifies the scraper in logs and pipeline summaries.
func (s *RedditScraper) Name() string { return "reddit" }

// Scrape fetches posts from every configured subreddit, scoring each
// post by engagement (score plus twice the comment count).
func (s *RedditScraper) Scrape(ctx context.Context) ([]model.CuratedItem, error) {
	base := s.publicBase
	headers := map[string]string{}

	if token, err := s.accessToken(ctx); err == nil && token != "" {
		base = s.oauthBase
		headers["Authorization"] = "Bearer " + token
	} else if err != nil {
		s.logger.Warn("reddit auth failed, using public listings", "error", err)
	}

	var items []model.CuratedItem
	var failed int

	for _, src := range s.sources {
		posts, err := s.scrapeSubreddit(ctx, base, headers, src)
		if err != nil {
			failed++
			s.logger.Warn("subreddit failed", "subreddit", src.Name, "error", err)
			continue
		}
		items = append(items, posts...)
		s.fetcher.Pause(ctx)
	}

	if failed == len(s.sources) && len(s.sources) > 0 {
		return nil, fmt.Errorf("all %d subreddits failed", failed)
	}
	return items, nil
}

// accessToken requests an application-only OAuth token, caching it
// until shortly before expiry. Returns an empty token when no
// credentials are configured.
func (s *RedditScraper) accessToken(ctx context.Context) (string, error) {
	if s.clientID == "" || s.clientSecret == "" {
		return "", nil
	}
	if s.token != "" && time.Now().Before(s.tokenExpiry) {
		return s.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	auth := base64.StdEncoding.EncodeToString([]byte(s.clientID + ":" + s.clientSecret))

	body, err := s.fetcher.PostForm(ctx, s.tokenURL, form, map[string]string{
		"Authorization": "Basic " + auth,
	})
	if err != nil {
		return "", fmt.Errorf("requesting reddit token: %w", err)
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding reddit token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("reddit token response missing access_token")
	}

	s.token = resp.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - time.Minute)
	return s.token, nil
}

// redditListing mirrors the listing envelope returned by both the
// OAuth API and the public .json endpoints.
type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	CreatedUTC  float64 `json:"created_utc"`
	Stickied    bool    `json:"stickied"`
}

func (s *RedditScraper) scrapeSubreddit(ctx context.Context, base string, headers map[string]string, src config.SubredditSource) ([]model.CuratedItem, error) {
	listingURL := s.listingURL(base, src)

	var listing redditListing
	if err := s.fetcher.GetJSON(ctx, listingURL, headers, &listing); err != nil {
		return nil, err
	}

	items := make([]model.CuratedItem, 0, src.MaxPosts)
	for _, child := range listing.Data.Children {
		if len(items) >= src.MaxPosts {
			break
		}
		post := child.Data
		if post.Stickied || post.Title == "" {
			continue
		}
		items = append(items, s.toItem(src, post))
	}
	return items, nil
}

// listingURL builds the hot listing URL, or a subreddit-restricted
// search when the source defines search terms.
func (s *RedditScraper) listingURL(base string, src config.SubredditSource) string {
	unauth := base == s.publicBase
	sub := subredditName(src.Name)
	if len(src.SearchTerms) > 0 {
		q := url.Values{
			"q":           {strings.Join(src.SearchTerms, " OR ")},
			"restrict_sr": {"1"},
			"sort":        {"hot"},
			"limit":       {strconv.Itoa(src.MaxPosts * 2)},
		}
		path := fmt.Sprintf("%s/r/%s/search", base, sub)
		if unauth {
			path += ".json"
		}
		return path + "?" + q.Encode()
	}

	path := fmt.Sprintf("%s/r/%s/hot", base, sub)
	if unauth {
		path += ".json"
	}
	return path + "?limit=" + strconv.Itoa(src.MaxPosts*2)
}

// subredditName strips the display prefix; configured names may come
// either way ("r/ChatGPT" or "ChatGPT") but URLs and channels need the
// bare name.
func subredditName(name string) string {
	return strings.TrimPrefix(name, "r/")
}

func (s *RedditScraper) toItem(src config.SubredditSource, post redditPost) model.CuratedItem {
	description := truncate(post.Selftext, 500)
	if post.URL != "" && !strings.Contains(post.URL, "reddit.com") && !strings.HasPrefix(post.URL, "/r/") {
		if description != "" {
			description += " "
		}
		description += "[Link externo: " + post.URL + "]"
	}

	author := post.Author
	if author != "" {
		author = "u/" + author
	}

	return model.CuratedItem{
		Title:       post.Title,
		Source:      model.SourceReddit,
		Channel:     "r/" + subredditName(src.Name),
		Description: description,
		Author:      author,
		URL:         redditPublic + post.Permalink,
		// Engagement score: upvotes plus double weight on comments,
		// discussion is a stronger relevance signal than votes.
		RelevanceScore: float64(post.Score + 2*post.NumComments),
		PublishedDate:  unixDate(int64(post.CreatedUTC)),
		CommentCount:   post.NumComments,
	}
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sources lists the content sources the pipeline scrapes. The defaults
// below mirror the curated source list the team maintains; an optional
// YAML file (SCRAPE_SOURCES_FILE) replaces them wholesale so sources can
// be changed without a redeploy.
type Sources struct {
	Newsletters     []NewsletterSource `yaml:"newsletters"`
	Subreddits      []SubredditSource  `yaml:"subreddits"`
	YouTubeChannels []YouTubeChannel   `yaml:"youtube_channels"`
	YouTubeKeywords []string           `yaml:"youtube_keywords"`
}

// NewsletterSource is a beehiiv-hosted newsletter to scrape.
type NewsletterSource struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	MaxArticles int    `yaml:"max_articles"`
}

// SubredditSource is a subreddit to scrape, optionally constrained to
// search terms instead of the plain weekly top listing.
type SubredditSource struct {
	Name        string   `yaml:"name"`
	SearchTerms []string `yaml:"search_terms,omitempty"`
	MaxPosts    int      `yaml:"max_posts"`
}

// YouTubeChannel is a channel scraped via its public RSS feed.
type YouTubeChannel struct {
	Name   string `yaml:"name"`
	Handle string `yaml:"handle"`
}

// LoadSources returns the default source list, or the contents of the
// given YAML file when path is non-empty.
func LoadSources(path string) (*Sources, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var s Sources
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}
	return &s, nil
}

// DefaultSources returns the built-in source list.
func DefaultSources() *Sources {
	return &Sources{
		Newsletters: []NewsletterSource{
			{Name: "TechDrop News", URL: "https://www.techdrop.news/", MaxArticles: 5},
			{Name: "The Rundown AI", URL: "https://www.therundown.ai/", MaxArticles: 5},
		},
		Subreddits: []SubredditSource{
			{Name: "r/AIToolMadeEasy", MaxPosts: 5},
			{Name: "r/ChatGPT", SearchTerms: []string{"Marketing", "Manager", "HR", "Sales", "future", "trending"}, MaxPosts: 5},
			{Name: "r/NextGenAITool", MaxPosts: 5},
			{Name: "r/singularity", MaxPosts: 5},
			{Name: "r/ChatGPTpro", SearchTerms: []string{"how to"}, MaxPosts: 5},
			{Name: "r/AIforSmallBusiness", MaxPosts: 5},
			{Name: "r/ClaudeAI", MaxPosts: 5},
			{Name: "r/ArtificialInteligence", MaxPosts: 5},
			{Name: "r/AI_Agents", MaxPosts: 5},
		},
		YouTubeChannels: []YouTubeChannel{
			{Name: "Deborah Folloni", Handle: "deborahfolloni"},
			{Name: "Jovens de Negócios", Handle: "jovensdenegocios"},
			{Name: "No Code Startup", Handle: "nocodestartup"},
			{Name: "Código Fonte TV", Handle: "codigofontetv"},
			{Name: "Matheus Battisti", Handle: "MatheusBattisti"},
			{Name: "Hora de Negócios", Handle: "horadenegocios"},
			{Name: "Andre Prado", Handle: "AndrePrado"},
			{Name: "MrEflow", Handle: "mreflow"},
			{Name: "AI Explained", Handle: "aiexplained-official"},
		},
		YouTubeKeywords: []string{
			"DeepSeek", "NVIDIA", "Sora", "Anthropic", "Opus", "Claude code", "Claude",
			"Cursor", "antigravity", "gemini", "IA", "AI", "TOOLS", "NANO BANANA",
			"Chatgpt", "GPT", "LLM", "OpenClaw", "OpenAI", "n8n", "N8N", "Supabase",
		},
	}
}

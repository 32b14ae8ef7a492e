// Package curator filters, scores and selects the collected items for
// the target audience: real-economy professionals without a technical
// AI background. Hands-on business content scores up, research-heavy
// content scores down.
package curator

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/RaphaelInbix/agente-cassiano/internal/model"
)

// positiveKeywords raise an item's relevance for the target audience.
var positiveKeywords = []string{
	// Business
	"business", "empresa", "negócio", "negocio", "company", "startup",
	"empreendedor", "entrepreneur", "revenue", "receita", "profit",
	"marketing", "sales", "vendas", "roi", "produtividade", "productivity",
	"eficiência", "efficiency", "automação", "automation", "workflow",
	// Economic sectors
	"indústria", "industry", "manufatura", "manufacturing", "agro",
	"agronegócio", "agribusiness", "comércio", "commerce", "retail",
	"varejo", "serviços", "services", "logística", "logistics",
	"supply chain", "cadeia de suprimentos",
	// Applied AI
	"ai tool", "ferramenta de ia", "chatgpt", "copilot", "assistente",
	"assistant", "no-code", "low-code", "ai agent", "agente de ia",
	"prompt", "generative ai", "ia generativa",
	// Practical impact
	"how to", "como usar", "tutorial", "guia", "guide", "dica", "tip",
	"case study", "caso de uso", "use case", "example", "exemplo",
	"free", "grátis", "gratuito", "launch", "lançamento", "new tool",
	"nova ferramenta", "trending", "future", "futuro",
	// HR and management
	"hr", "recursos humanos", "human resources", "manager", "gestor",
	"gestão", "management", "team", "equipe", "hiring", "contratação",
	"career", "carreira",
}

// negativeKeywords mark content as too technical for the audience.
var negativeKeywords = []string{
	"arxiv", "paper", "benchmark", "fine-tune", "fine-tuning",
	"transformer", "attention mechanism", "gradient", "backpropagation",
	"pytorch", "tensorflow", "cuda", "gpu cluster", "training loss",
	"epoch", "hyperparameter", "rlhf", "token limit", "context window",
	"embedding", "vector database", "rag pipeline", "langchain",
	"llama weights", "model weights", "checkpoint", "quantization",
	"inference speed", "vram", "kernel", "compiler", "assembly",
	"leetcode", "algorithm", "data structure",
}

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)onlyfans`),
	regexp.MustCompile(`(?i)crypto.*pump`),
	regexp.MustCompile(`(?i)free money`),
	regexp.MustCompile(`(?i)click here to win`),
	regexp.MustCompile(`(?i)subscribe.*free`),
	regexp.MustCompile(`(?i)\$\d+.*per day`),
	regexp.MustCompile(`(?i)get rich`),
}

var nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Curator filters and scores content for the target audience.
type Curator struct {
	logger *slog.Logger
}

// New creates a curator
func New(logger *slog.Logger) *Curator {
	return &Curator{logger: logger}
}

// Curate runs the full curation pipeline: deduplicate, drop spam,
// score relevance per source group and select up to maxItems. YouTube
// and Reddit content is placed first since those sources already carry
// engagement signals.
func (c *Curator) Curate(items []model.CuratedItem, maxItems int) []model.CuratedItem {
	c.logger.Info("starting curation", "items", len(items))

	items = c.deduplicate(items)
	items = c.filterSpam(items)

	var newsletters, reddit, youtube, others []model.CuratedItem
	for _, item := range items {
		switch item.Source {
		case model.SourceNewsletter:
			newsletters = append(newsletters, item)
		case model.SourceReddit:
			reddit = append(reddit, item)
		case model.SourceYouTube:
			youtube = append(youtube, item)
		default:
			others = append(others, item)
		}
	}

	c.scoreRelevance(newsletters)
	c.scoreRelevance(reddit)
	c.scoreRelevance(youtube)
	c.scoreRelevance(others)

	sortByScore(newsletters)
	sortByScore(reddit)
	sortByScore(youtube)
	sortByScore(others)

	selected := make([]model.CuratedItem, 0, len(items))
	selected = append(selected, youtube...)
	selected = append(selected, reddit...)
	selected = append(selected, newsletters...)
	selected = append(selected, others...)
	if len(selected) > maxItems {
		selected = selected[:maxItems]
	}

	c.logger.Info("curation finished",
		"selected", len(selected),
		"newsletters", len(newsletters),
		"reddit", len(reddit),
		"youtube", len(youtube),
	)
	return selected
}

// deduplicate drops items with a repeated URL or near-identical title.
func (c *Curator) deduplicate(items []model.CuratedItem) []model.CuratedItem {
	seenURLs := make(map[string]bool, len(items))
	seenTitles := make(map[string]bool, len(items))
	unique := make([]model.CuratedItem, 0, len(items))

	for _, item := range items {
		urlKey := strings.ToLower(strings.TrimRight(item.URL, "/"))
		if seenURLs[urlKey] {
			continue
		}
		titleKey := normalizeTitle(item.Title)
		if seenTitles[titleKey] {
			continue
		}
		seenURLs[urlKey] = true
		seenTitles[titleKey] = true
		unique = append(unique, item)
	}
	return unique
}

func (c *Curator) filterSpam(items []model.CuratedItem) []model.CuratedItem {
	filtered := make([]model.CuratedItem, 0, len(items))
	for _, item := range items {
		fullText := strings.ToLower(item.Title + " " + item.Description)

		spam := false
		for _, pattern := range spamPatterns {
			if pattern.MatchString(fullText) {
				spam = true
				c.logger.Debug("spam detected", "title", item.Title)
				break
			}
		}
		if !spam {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// scoreRelevance adjusts each item's score in place. The incoming score
// (upvotes, keyword matches) is preserved and keyword heuristics are
// layered on top; the result never goes below zero.
func (c *Curator) scoreRelevance(items []model.CuratedItem) {
	for i := range items {
		item := &items[i]
		score := item.RelevanceScore
		fullText := strings.ToLower(item.Title + " " + item.Description)

		for _, kw := range positiveKeywords {
			if strings.Contains(fullText, kw) {
				score += 10
			}
		}

		techCount := 0
		for _, kw := range negativeKeywords {
			if strings.Contains(fullText, kw) {
				techCount++
				score -= 5
			}
		}
		// Excessively technical content gets an extra penalty.
		if techCount > 3 {
			score -= 20
		}

		if len(item.Description) > 100 {
			score += 5
		}
		if l := len(item.Title); l > 20 && l < 100 {
			score += 3
		}

		if score < 0 {
			score = 0
		}
		item.RelevanceScore = score
	}
}

// normalizeTitle lowercases, strips punctuation and keeps the first
// eight words, enough to catch the same story posted twice.
func normalizeTitle(title string) string {
	text := strings.ToLower(strings.TrimSpace(title))
	text = nonWordPattern.ReplaceAllString(text, "")
	words := strings.Fields(text)
	if len(words) > 8 {
		words = words[:8]
	}
	return strings.Join(words, " ")
}

func sortByScore(items []model.CuratedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RelevanceScore > items[j].RelevanceScore
	})
}

// SummaryStats describes a curated batch for logging.
type SummaryStats struct {
	TotalItems int
	BySource   map[string]int
	AvgScore   float64
	TopItem    string
}

// Summarize computes logging statistics for a curated batch.
func Summarize(items []model.CuratedItem) SummaryStats {
	stats := SummaryStats{
		TotalItems: len(items),
		BySource:   make(map[string]int),
	}
	if len(items) == 0 {
		return stats
	}

	var total float64
	for _, item := range items {
		stats.BySource[item.Source]++
		total += item.RelevanceScore
	}
	stats.AvgScore = total / float64(len(items))
	stats.TopItem = items[0].Title
	return stats
}

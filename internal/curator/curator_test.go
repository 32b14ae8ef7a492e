package curator

import (
	"io"
	"log/slog"
	"testing"

	"github.com/RaphaelInbix/agente-cassiano/internal/model"
)

func newTestCurator() *Curator {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCurate_DeduplicatesByURL(t *testing.T) {
	t.Parallel()

	items := []model.CuratedItem{
		{Title: "Primeira noticia", Source: model.SourceReddit, URL: "https://example.com/post/"},
		{Title: "Outra manchete sobre o mesmo assunto", Source: model.SourceReddit, URL: "https://EXAMPLE.com/post"},
		{Title: "Conteudo distinto", Source: model.SourceReddit, URL: "https://example.com/other"},
	}

	got := newTestCurator().Curate(items, 30)
	if len(got) != 2 {
		t.Fatalf("items = %d, want 2 (trailing slash and case do not make URLs distinct)", len(got))
	}
}

func TestCurate_DeduplicatesBySimilarTitle(t *testing.T) {
	t.Parallel()

	items := []model.CuratedItem{
		{Title: "OpenAI lança novo modelo para empresas de varejo hoje mesmo", URL: "https://a.example.com/1"},
		{Title: "openai LANÇA novo modelo, para empresas de varejo hoje — detalhes extras", URL: "https://b.example.com/2"},
	}

	got := newTestCurator().Curate(items, 30)
	if len(got) != 1 {
		t.Fatalf("items = %d, want 1 (first eight words match)", len(got))
	}
}

func TestCurate_FiltersSpam(t *testing.T) {
	t.Parallel()

	items := []model.CuratedItem{
		{Title: "Ganhe $500 per day com este truque", URL: "https://spam.example.com/1"},
		{Title: "How to get rich with AI", URL: "https://spam.example.com/2"},
		{Title: "Automação de processos na indústria", URL: "https://ok.example.com/1"},
	}

	got := newTestCurator().Curate(items, 30)
	if len(got) != 1 {
		t.Fatalf("items = %d, want 1", len(got))
	}
	if got[0].URL != "https://ok.example.com/1" {
		t.Errorf("kept wrong item: %+v", got[0])
	}
}

func TestScoreRelevance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		item model.CuratedItem
		want float64
	}{
		{
			name: "positive keywords add ten each",
			item: model.CuratedItem{
				// "automation" (10) + clear title length bonus (3).
				Title: "New automation approach for offices",
			},
			want: 13,
		},
		{
			name: "technical content penalized",
			item: model.CuratedItem{
				// Base 50, four negative keywords at -5 plus the -20
				// excess penalty, title bonus +3.
				Title:          "Fine-tuning with pytorch and cuda epoch",
				RelevanceScore: 50,
			},
			want: 50 - 4*5 - 20 + 3,
		},
		{
			name: "score never negative",
			item: model.CuratedItem{
				Title: "arxiv paper benchmark gradient rlhf",
			},
			want: 0,
		},
		{
			name: "long description bonus",
			item: model.CuratedItem{
				Title: "Guia de produtividade com assistentes para o agro",
				// "guia" + "produtividade" + "agro" (30) + description
				// length (5) + title length (3). "assistente" also hits.
				Description: string(make([]byte, 101)),
			},
			want: 4*10 + 5 + 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			items := []model.CuratedItem{tt.item}
			newTestCurator().scoreRelevance(items)
			if items[0].RelevanceScore != tt.want {
				t.Errorf("score = %v, want %v", items[0].RelevanceScore, tt.want)
			}
		})
	}
}

func TestCurate_SourceOrderingAndCap(t *testing.T) {
	t.Parallel()

	var items []model.CuratedItem
	add := func(source, prefix string, n int) {
		for i := 0; i < n; i++ {
			items = append(items, model.CuratedItem{
				Title:  prefix + string(rune('a'+i)) + " distinct headline number " + string(rune('a'+i)),
				Source: source,
				URL:    "https://example.com/" + prefix + string(rune('a'+i)),
			})
		}
	}
	add(model.SourceNewsletter, "nl", 4)
	add(model.SourceReddit, "rd", 3)
	add(model.SourceYouTube, "yt", 2)

	got := newTestCurator().Curate(items, 5)
	if len(got) != 5 {
		t.Fatalf("items = %d, want 5", len(got))
	}
	// YouTube first, then Reddit, then newsletters fill the rest.
	wantSources := []string{
		model.SourceYouTube, model.SourceYouTube,
		model.SourceReddit, model.SourceReddit, model.SourceReddit,
	}
	for i, want := range wantSources {
		if got[i].Source != want {
			t.Errorf("item %d source = %s, want %s", i, got[i].Source, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	stats := Summarize([]model.CuratedItem{
		{Title: "Top", Source: model.SourceYouTube, RelevanceScore: 40},
		{Title: "Second", Source: model.SourceReddit, RelevanceScore: 20},
	})
	if stats.TotalItems != 2 || stats.AvgScore != 30 || stats.TopItem != "Top" {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.BySource[model.SourceYouTube] != 1 || stats.BySource[model.SourceReddit] != 1 {
		t.Errorf("unexpected per-source counts: %+v", stats.BySource)
	}
}

package ranking

import (
	"math"
	"testing"

	"github.com/ternarybob/quaestor/internal/models"
)

func TestScore(t *testing.T) {
	vocab := models.DefaultVocabulary()

	tests := []struct {
		name         string
		keywords     map[string]float64
		wantScore    float64
		wantKeywords string
	}{
		{
			name:         "empty map",
			keywords:     map[string]float64{},
			wantScore:    0,
			wantKeywords: "",
		},
		{
			name:         "single exact keyword",
			keywords:     map[string]float64{"budget": 1.0},
			wantScore:    1.0,
			wantKeywords: ";budget;",
		},
		{
			name:         "two full-weight keywords halve the second",
			keywords:     map[string]float64{"finance": 1.0, "budget": 1.0},
			wantScore:    1.5,
			wantKeywords: ";budget;finance;",
		},
		{
			name:         "vocabulary weight scales the raw score",
			keywords:     map[string]float64{"report": 1.0},
			wantScore:    0.7,
			wantKeywords: ";report;",
		},
		{
			name:         "descending order by weighted score",
			keywords:     map[string]float64{"department": 1.0, "minutes": 0.9},
			wantScore:    0.9 + 0.7/2,
			wantKeywords: ";minutes;department;",
		},
		{
			name:         "out of vocabulary keyword is down-weighted",
			keywords:     map[string]float64{"taxes": 1.0},
			wantScore:    0.25,
			wantKeywords: ";taxes;",
		},
		{
			name:         "zero raw score contributes nothing",
			keywords:     map[string]float64{"budget": 1.0, "grant": 0.0},
			wantScore:    1.0,
			wantKeywords: ";budget;grant;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, keywords := Score(tt.keywords, vocab)
			if math.Abs(score-tt.wantScore) > 1e-9 {
				t.Errorf("Score() = %v, want %v", score, tt.wantScore)
			}
			if keywords != tt.wantKeywords {
				t.Errorf("keyword string = %q, want %q", keywords, tt.wantKeywords)
			}
		})
	}
}

func TestScoreBounded(t *testing.T) {
	vocab := models.DefaultVocabulary()

	// Every vocabulary keyword at a perfect raw score still converges
	// strictly below 2.0
	keywords := make(map[string]float64)
	for _, name := range vocab.Keywords() {
		keywords[name] = 1.0
	}

	score, _ := Score(keywords, vocab)
	if score >= 2.0 {
		t.Errorf("Score() = %v, want < 2.0", score)
	}
	if score <= 0 {
		t.Errorf("Score() = %v, want > 0", score)
	}
}

func TestScoreZeroWeightKeywordIsNoOp(t *testing.T) {
	vocab := models.Vocabulary{
		"budget": 1.0,
		"filler": 0.0,
	}

	withFiller, _ := Score(map[string]float64{"budget": 0.8, "filler": 1.0}, vocab)
	without, _ := Score(map[string]float64{"budget": 0.8}, vocab)

	if math.Abs(withFiller-without) > 1e-9 {
		t.Errorf("zero-weight keyword changed the total: %v != %v", withFiller, without)
	}
}

func TestRankLinks(t *testing.T) {
	vocab := models.DefaultVocabulary()

	links := []models.ClassifiedLink{
		{URL: "https://example.gov/budget", Text: "Budget", Keywords: map[string]float64{"budget": 1.0}},
		{URL: "https://example.gov/nothing", Text: "Nothing", Keywords: map[string]float64{}},
		{URL: "https://example.gov/zero", Text: "Zero", Keywords: map[string]float64{"budget": 0.0}},
		{URL: "https://example.gov/tax", Text: "Taxes", Keywords: map[string]float64{"taxes": 1.0}},
	}

	ranked := RankLinks(links, vocab)
	if len(ranked) != 2 {
		t.Fatalf("RankLinks() returned %d links, want 2", len(ranked))
	}

	if ranked[0].URL != "https://example.gov/budget" || ranked[0].Score != 1.0 {
		t.Errorf("ranked[0] = %+v, want budget at 1.0", ranked[0])
	}
	// Out-of-vocabulary survivors are kept at the down-weighted score
	if ranked[1].URL != "https://example.gov/tax" || ranked[1].Score != 0.25 {
		t.Errorf("ranked[1] = %+v, want taxes at 0.25", ranked[1])
	}
	if ranked[1].Keywords != ";taxes;" {
		t.Errorf("ranked[1].Keywords = %q, want ;taxes;", ranked[1].Keywords)
	}
}

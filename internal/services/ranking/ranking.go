// Package ranking aggregates classifier keyword scores into a single bounded
// link score and the serialized keyword string persisted with each link.
package ranking

import (
	"sort"
	"strings"

	"github.com/ternarybob/quaestor/internal/models"
)

type weightedKeyword struct {
	name   string
	weight float64
}

// Score computes the aggregate score and keyword string for one link's
// {keyword: raw score} map.
//
// Each keyword's weight is its raw classifier score multiplied by the
// vocabulary weight, or by the out-of-vocabulary penalty when the keyword is
// unknown. Weights are sorted descending and summed as weight_i / 2^i, so
// the top keyword counts in full, the second half, the third a quarter, and
// so on. The series stays strictly below 2.0 for raw scores in [0, 1].
//
// The keyword string is the names in the same descending order, joined and
// wrapped with ";" (";finance;budget;"), which makes single-keyword queries
// a substring match.
func Score(keywords map[string]float64, vocab models.Vocabulary) (float64, string) {
	if len(keywords) == 0 {
		return 0, ""
	}

	weighted := make([]weightedKeyword, 0, len(keywords))
	for name, raw := range keywords {
		weight, ok := vocab.Weight(name)
		if !ok {
			weight = models.OutOfVocabularyWeight
		}
		weighted = append(weighted, weightedKeyword{name: name, weight: raw * weight})
	}

	sort.Slice(weighted, func(i, j int) bool {
		if weighted[i].weight != weighted[j].weight {
			return weighted[i].weight > weighted[j].weight
		}
		return weighted[i].name < weighted[j].name
	})

	var total float64
	divisor := 1.0
	names := make([]string, 0, len(weighted))
	for _, kw := range weighted {
		total += kw.weight / divisor
		divisor *= 2
		names = append(names, kw.name)
	}

	return total, ";" + strings.Join(names, ";") + ";"
}

// RankLinks scores classified links and drops those whose aggregate is
// exactly zero. Order is preserved.
func RankLinks(links []models.ClassifiedLink, vocab models.Vocabulary) []models.RankedLink {
	ranked := make([]models.RankedLink, 0, len(links))
	for _, link := range links {
		score, keywords := Score(link.Keywords, vocab)
		if score == 0 {
			continue
		}
		ranked = append(ranked, models.RankedLink{
			URL:      link.URL,
			Text:     link.Text,
			Score:    score,
			Keywords: keywords,
		})
	}
	return ranked
}

package models

import "sort"

// OutOfVocabularyWeight is applied to keywords the classifier returns that
// are not part of the vocabulary and survive remediation.
const OutOfVocabularyWeight = 0.25

// Vocabulary is the closed keyword set links are classified against,
// mapping each keyword to its importance weight.
type Vocabulary map[string]float64

// DefaultVocabulary returns the canonical public-sector procurement
// vocabulary. Weights are fixed; the classifier prompt and the ranking
// function both derive from this map.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		"department":  0.7,
		"contact":     1.0,
		"ACFR":        1.0,
		"budget":      1.0,
		"planning":    1.0,
		"officer":     0.9,
		"director":    0.9,
		"finance":     1.0,
		"elected":     0.7,
		"minutes":     1.0,
		"bid":         0.8,
		"purchasing":  1.0,
		"proposal":    1.0,
		"RFP":         1.0,
		"contract":    1.0,
		"funding":     1.0,
		"report":      0.7,
		"grant":       0.7,
		"improvement": 0.8,
		"project":     0.8,
		"initiative":  0.8,
	}
}

// Weight returns the vocabulary weight for a keyword and whether the
// keyword is part of the vocabulary.
func (v Vocabulary) Weight(keyword string) (float64, bool) {
	w, ok := v[keyword]
	return w, ok
}

// Keywords returns the vocabulary keywords in sorted order, for stable
// prompt construction and error messages.
func (v Vocabulary) Keywords() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

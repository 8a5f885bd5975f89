// Package cards decides whether a group of cards forms a set.
//
// A card identifier in [0, DeckSize) encodes FeatureCount features, each taking
// one of FeatureSize values: feature i of card c is (c / FeatureSize^i) mod
// FeatureSize. A group of FeatureSize cards is a set when, for every feature,
// the cards either all share the value or all have different values.
package cards

import "slices"

// Oracle is the validity check the dealer consults. Implementations must be
// pure and safe for concurrent use.
type Oracle interface {
	// IsValidSet reports whether cards form a set.
	IsValidSet(cards []int) bool
	// FindSets returns up to limit sets found among cards, each sorted
	// ascending. A limit of zero or less means no limit.
	FindSets(cards []int, limit int) [][]int
}

// Features is the standard feature-based Oracle.
type Features struct {
	size     int
	count    int
	deckSize int
}

var _ Oracle = (*Features)(nil)

// NewFeatures creates an oracle for cards with featureCount features of
// featureSize values each. The classic game is NewFeatures(3, 4).
func NewFeatures(featureSize, featureCount int) *Features {
	deckSize := 1
	for i := 0; i < featureCount; i++ {
		deckSize *= featureSize
	}
	return &Features{size: featureSize, count: featureCount, deckSize: deckSize}
}

// DeckSize returns FeatureSize^FeatureCount.
func (f *Features) DeckSize() int {
	return f.deckSize
}

// FeatureSize returns the number of cards in a set.
func (f *Features) FeatureSize() int {
	return f.size
}

// Features decodes card into its feature values.
func (f *Features) Features(card int) []int {
	out := make([]int, f.count)
	for i := range out {
		out[i] = card % f.size
		card /= f.size
	}
	return out
}

func (f *Features) inDeck(card int) bool {
	return card >= 0 && card < f.deckSize
}

// IsValidSet implements Oracle.
func (f *Features) IsValidSet(cards []int) bool {
	if len(cards) != f.size {
		return false
	}
	seen := make(map[int]struct{}, len(cards))
	for _, c := range cards {
		if !f.inDeck(c) {
			return false
		}
		if _, dup := seen[c]; dup {
			return false
		}
		seen[c] = struct{}{}
	}

	values := make([]bool, f.size)
	div := 1
	for feature := 0; feature < f.count; feature++ {
		clear(values)
		distinct := 0
		for _, c := range cards {
			v := (c / div) % f.size
			if !values[v] {
				values[v] = true
				distinct++
			}
		}
		if distinct != 1 && distinct != f.size {
			return false
		}
		div *= f.size
	}
	return true
}

// FindSets implements Oracle. Sets are reported in the lexicographic order of
// the positions of their cards in the input.
func (f *Features) FindSets(cards []int, limit int) [][]int {
	var found [][]int
	if len(cards) < f.size {
		return found
	}

	idx := make([]int, f.size)
	for i := range idx {
		idx[i] = i
	}
	group := make([]int, f.size)
	n := len(cards)
	for {
		for i, j := range idx {
			group[i] = cards[j]
		}
		if f.IsValidSet(group) {
			set := make([]int, f.size)
			copy(set, group)
			slices.Sort(set)
			found = append(found, set)
			if limit > 0 && len(found) >= limit {
				return found
			}
		}

		// Advance to the next combination of indexes.
		i := f.size - 1
		for i >= 0 && idx[i] == n-f.size+i {
			i--
		}
		if i < 0 {
			return found
		}
		idx[i]++
		for j := i + 1; j < f.size; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

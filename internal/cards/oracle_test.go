package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeaturesDecode(t *testing.T) {
	f := NewFeatures(3, 4)
	require.Equal(t, 81, f.DeckSize())
	assert.Equal(t, []int{0, 0, 0, 0}, f.Features(0))
	assert.Equal(t, []int{1, 0, 0, 0}, f.Features(1))
	assert.Equal(t, []int{2, 1, 0, 0}, f.Features(5))
	assert.Equal(t, []int{2, 2, 2, 2}, f.Features(80))
}

func TestIsValidSet(t *testing.T) {
	f := NewFeatures(3, 4)

	tests := []struct {
		name  string
		cards []int
		want  bool
	}{
		{"one feature all different", []int{0, 1, 2}, true},
		{"every feature all different", []int{0, 40, 80}, true},
		{"two features differ", []int{0, 4, 8}, true},
		{"one feature two alike", []int{0, 1, 3}, false},
		{"wrong size", []int{0, 1}, false},
		{"duplicate card", []int{0, 0, 0}, false},
		{"card outside deck", []int{0, 1, 81}, false},
		{"negative card", []int{-1, 1, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsValidSet(tt.cards))
		})
	}
}

func TestIsValidSetIgnoresOrder(t *testing.T) {
	f := NewFeatures(3, 4)
	assert.True(t, f.IsValidSet([]int{80, 0, 40}))
	assert.True(t, f.IsValidSet([]int{2, 0, 1}))
}

func TestFindSetsFullDeck(t *testing.T) {
	f := NewFeatures(3, 4)
	deck := make([]int, f.DeckSize())
	for i := range deck {
		deck[i] = i
	}

	// 81 * 80 / 6: every pair of cards completes exactly one set.
	assert.Len(t, f.FindSets(deck, 0), 1080)
	assert.Len(t, f.FindSets(deck, 5), 5)

	first := f.FindSets(deck, 1)
	require.Len(t, first, 1)
	assert.Equal(t, []int{0, 1, 2}, first[0])
}

func TestFindSetsReturnsSortedGroups(t *testing.T) {
	f := NewFeatures(3, 4)
	sets := f.FindSets([]int{80, 7, 40, 0}, 0)
	require.Len(t, sets, 1)
	assert.Equal(t, []int{0, 40, 80}, sets[0])
}

func TestFindSetsNone(t *testing.T) {
	f := NewFeatures(3, 4)
	assert.Empty(t, f.FindSets([]int{0, 1, 3, 4}, 0))
	assert.Empty(t, f.FindSets([]int{0, 1}, 0))
	assert.Empty(t, f.FindSets(nil, 1))
}

func TestSmallerGame(t *testing.T) {
	f := NewFeatures(2, 3)
	require.Equal(t, 8, f.DeckSize())
	// With two values per feature, any pair of distinct cards is a set.
	assert.True(t, f.IsValidSet([]int{0, 7}))
	assert.True(t, f.IsValidSet([]int{3, 5}))
	assert.False(t, f.IsValidSet([]int{3, 3}))
}

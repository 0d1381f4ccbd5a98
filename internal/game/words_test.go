package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplyPick_ExcludesUsedAndTaken(t *testing.T) {
	s := NewSupply([]string{"cat", "dog", "fish"})

	used := map[string]bool{"cat": true}
	taken := map[string]bool{"dog": true}

	for i := 0; i < 20; i++ {
		assert.Equal(t, "fish", s.Pick(used, taken))
	}
}

func TestSupplyPick_RoundUniqueAcrossPlayers(t *testing.T) {
	corpus := []string{"a", "b", "c", "d", "e"}
	s := NewSupply(corpus)

	taken := map[string]bool{}
	seen := map[string]bool{}
	for i := 0; i < len(corpus); i++ {
		w := s.Pick(map[string]bool{}, taken)
		require.False(t, seen[w], "word %q assigned twice in one round", w)
		seen[w] = true
		taken[w] = true
	}
}

func TestSupplyPick_NoRepeatForPlayerUntilExhausted(t *testing.T) {
	corpus := []string{"a", "b", "c", "d", "e", "f"}
	s := NewSupply(corpus)

	used := map[string]bool{}
	for i := 0; i < len(corpus); i++ {
		w := s.Pick(used, map[string]bool{})
		require.False(t, used[w], "word %q repeated before corpus exhaustion", w)
		used[w] = true
	}
}

func TestSupplyPick_RelaxesToRoundUniqueWhenPlayerExhausted(t *testing.T) {
	corpus := []string{"a", "b", "c"}
	s := NewSupply(corpus)

	// Player has drawn everything already; "a" is taken this round.
	used := map[string]bool{"a": true, "b": true, "c": true}
	taken := map[string]bool{"a": true}

	for i := 0; i < 20; i++ {
		w := s.Pick(used, taken)
		assert.NotEqual(t, "a", w, "relaxed pick must still honor the round exclusion")
	}
}

func TestSupplyPick_ExhaustedCorpus(t *testing.T) {
	// With every exclusion tier triggered the pick falls back to the raw
	// corpus and may repeat a word for the player. Documented behavior.
	corpus := []string{"a", "b"}
	s := NewSupply(corpus)

	used := map[string]bool{"a": true, "b": true}
	taken := map[string]bool{"a": true, "b": true}

	w := s.Pick(used, taken)
	assert.Contains(t, corpus, w)
}

package words

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBank(t *testing.T, list []string) *Bank {
	t.Helper()
	b, err := FromList(list, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return b
}

func TestFromList_NormalizesAndValidates(t *testing.T) {
	b := testBank(t, []string{" hello ", "HELLO", "world", "toolong", "hi", "ab1de"})
	assert.Equal(t, []string{"HELLO", "WORLD"}, b.Vocabulary())
	assert.True(t, b.IsAllowed("hello"))
	assert.True(t, b.IsAllowed(" WORLD "))
	assert.False(t, b.IsAllowed("crane"))
}

func TestFromList_EmptyVocabulary(t *testing.T) {
	_, err := FromList([]string{"toolong", "1234"}, rand.New(rand.NewSource(1)))
	require.Error(t, err)
}

func TestEmbeddedDefaults(t *testing.T) {
	b, err := New("")
	require.NoError(t, err)
	total, tiers := b.Stats()
	assert.Greater(t, total, 100)
	for i, n := range tiers {
		assert.Greater(t, n, 0, "tier %d must not be empty", i)
	}
}

func TestTierForRoll_Boundaries(t *testing.T) {
	// Level 1 is easy no matter the roll.
	assert.Equal(t, TierEasy, tierForRoll(1, 0.0))
	assert.Equal(t, TierEasy, tierForRoll(1, 0.99))

	// Level 2: medium with probability 0.25.
	assert.Equal(t, TierMedium, tierForRoll(2, 0.10))
	assert.Equal(t, TierEasy, tierForRoll(2, 0.50))

	// Level 5: probability (5-1)/4 == 1, always medium.
	assert.Equal(t, TierMedium, tierForRoll(5, 0.999))

	// Level 6: hard with probability 0.2, else medium.
	assert.Equal(t, TierHard, tierForRoll(6, 0.10))
	assert.Equal(t, TierMedium, tierForRoll(6, 0.90))

	// Level 10: probability 1, always hard.
	assert.Equal(t, TierHard, tierForRoll(10, 0.999))

	// Level 11: expert with probability 0.1, else hard.
	assert.Equal(t, TierExpert, tierForRoll(11, 0.05))
	assert.Equal(t, TierHard, tierForRoll(11, 0.50))

	// Level 20: probability 1, always expert.
	assert.Equal(t, TierExpert, tierForRoll(20, 0.999))

	// Levels 21+ are expert deterministically.
	assert.Equal(t, TierExpert, tierForRoll(21, 0.0))
	assert.Equal(t, TierExpert, tierForRoll(100, 0.999))
}

func TestPick_ReturnsWordFromResolvedTier(t *testing.T) {
	b, err := New("")
	require.NoError(t, err)
	for level := 1; level <= 25; level++ {
		w, tier := b.Pick(level)
		require.Len(t, w, WordLen)
		require.True(t, b.IsAllowed(w))
		require.GreaterOrEqual(t, tier, TierEasy)
		require.LessOrEqual(t, tier, TierExpert)
	}
}

func TestDifficultyScore_Ordering(t *testing.T) {
	// Rare letters and few vowels score harder than common-letter words.
	assert.Greater(t, DifficultyScore("JAZZY"), DifficultyScore("ABOUT"))
	assert.Greater(t, DifficultyScore("QUIRK"), DifficultyScore("STONE"))
	// Duplicate letters add difficulty.
	assert.Greater(t, DifficultyScore("LEVEL"), DifficultyScore("LEARN"))
}

func TestIsBossLevel(t *testing.T) {
	assert.False(t, IsBossLevel(1))
	assert.False(t, IsBossLevel(9))
	assert.True(t, IsBossLevel(10))
	assert.False(t, IsBossLevel(11))
	assert.True(t, IsBossLevel(20))
	assert.False(t, IsBossLevel(0))
}

func TestDifficultyMultiplier(t *testing.T) {
	assert.Equal(t, 1, DifficultyMultiplier(1))
	assert.Equal(t, 2, DifficultyMultiplier(4))
	// Boss levels pay extra.
	assert.Equal(t, DifficultyMultiplier(9)+4+1, DifficultyMultiplier(10)) // tier bumps at 10 too
	assert.Greater(t, DifficultyMultiplier(10), DifficultyMultiplier(9))
	// Tier cap.
	assert.Equal(t, 6, DifficultyMultiplier(99))
}

func TestScoreForWin(t *testing.T) {
	// Level 1, solved on the first of six guesses.
	assert.Equal(t, 100+5*10, ScoreForWin(1, 1, 6))
	// No bonus when all guesses were used.
	assert.Equal(t, 100, ScoreForWin(1, 6, 6))
	// Rank mode (no cap) falls back to the letter-mode baseline.
	assert.Equal(t, 100+4*10, ScoreForWin(1, 2, 0))
	// Bonus never goes negative.
	assert.Equal(t, 100, ScoreForWin(1, 40, 0))
}

func TestTierStrings(t *testing.T) {
	assert.Equal(t, "easy", TierEasy.String())
	assert.Equal(t, "medium", TierMedium.String())
	assert.Equal(t, "hard", TierHard.String())
	assert.Equal(t, "expert", TierExpert.String())
}

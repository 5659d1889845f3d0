// internal/words/words.go
//
// Word bank and level/difficulty selection for the run engine.
//
// Responsibilities:
//   - Load the 5-letter vocabulary from an environment-provided file or
//     fall back to the embedded default list.
//   - Score every word for letter difficulty and partition the vocabulary
//     into four tiers (easy/medium/hard/expert) by score quartile.
//   - Resolve a tier for a level via the probabilistic difficulty ramp.
//   - Supply lookups: IsAllowed, Vocabulary, Stats, boss-level predicate,
//     and the score-for-win math.
//
// Constraints:
//   • Words must be 5 alphabetic letters (A–Z).
//   • Lists are normalized to uppercase.
//   • The bank is immutable after construction; only the internal RNG is
//     guarded by a mutex so concurrent runs can draw words in parallel.
package words

import (
	"bufio"
	_ "embed"
	"errors"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

//go:embed default_words.txt
var embeddedWords string

// WordLen is the fixed word length for letter-mode play.
const WordLen = 5

// bossModulus gates theme rotation: every Nth level is a boss level.
const bossModulus = 10

// Letter rarity classes used by difficulty scoring.
const (
	midLetters  = "CUMWFGYPB"
	rareLetters = "VKJXQZ"
	vowels      = "AEIOU"
)

// Tier is a difficulty band within the vocabulary.
type Tier int

const (
	TierEasy Tier = iota
	TierMedium
	TierHard
	TierExpert
)

var tierNames = [...]string{"easy", "medium", "hard", "expert"}

func (t Tier) String() string {
	if t < TierEasy || t > TierExpert {
		return "unknown"
	}
	return tierNames[t]
}

// Bank is the static word catalog: the full vocabulary for guess
// validation plus per-tier lists for secret-word selection.
type Bank struct {
	vocab []string
	set   map[string]struct{}
	tiers [4][]string

	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a Bank from the file at path, or from the embedded default
// list when path is empty.
func New(path string) (*Bank, error) {
	var list []string
	if path != "" {
		var err error
		list, err = readWordFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		list = strings.Split(embeddedWords, "\n")
	}
	return FromList(list, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// FromList builds a Bank from an explicit word list and RNG.
// The RNG is injectable so selection tests are deterministic.
func FromList(list []string, rng *rand.Rand) (*Bank, error) {
	seen := make(map[string]struct{}, len(list))
	var vocab []string
	for _, w := range list {
		w = strings.ToUpper(strings.TrimSpace(w))
		if len(w) != WordLen || !isAlpha(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		vocab = append(vocab, w)
	}
	if len(vocab) == 0 {
		return nil, errors.New("words: vocabulary is empty")
	}
	sort.Strings(vocab)

	b := &Bank{vocab: vocab, set: seen, rng: rng}
	b.partition()
	return b, nil
}

// partition sorts the vocabulary by difficulty score and splits it into
// four quartile tiers. Tiers for tiny vocabularies fall back to the full
// list so every tier can always produce a word.
func (b *Bank) partition() {
	scored := append([]string(nil), b.vocab...)
	sort.SliceStable(scored, func(i, j int) bool {
		si, sj := DifficultyScore(scored[i]), DifficultyScore(scored[j])
		if si != sj {
			return si < sj
		}
		return scored[i] < scored[j]
	})
	n := len(scored)
	bounds := [5]int{0, (n + 3) / 4, (n + 1) / 2, (3*n + 3) / 4, n}
	for t := 0; t < 4; t++ {
		lo, hi := bounds[t], bounds[t+1]
		if lo >= hi {
			b.tiers[t] = scored
			continue
		}
		b.tiers[t] = scored[lo:hi]
	}
}

// DifficultyScore rates a word by letter rarity, duplicate letters and
// vowel count. Higher means harder to guess.
func DifficultyScore(word string) int {
	score := 0
	vowelCount := 0
	seen := make(map[rune]bool, WordLen)
	for _, ch := range strings.ToUpper(word) {
		switch {
		case strings.ContainsRune(rareLetters, ch):
			score += 3
		case strings.ContainsRune(midLetters, ch):
			score += 2
		default:
			score++
		}
		if strings.ContainsRune(vowels, ch) {
			vowelCount++
		}
		if seen[ch] {
			score += 2
		}
		seen[ch] = true
	}
	if vowelCount <= 1 {
		score += 2
	} else if vowelCount >= 4 {
		score++
	}
	return score
}

// TierFor resolves the tier for a level using the probabilistic ramp:
// level 1 is always easy, levels 2–5 shade into medium, 6–10 into hard,
// 11–20 into expert, and 21+ is always expert.
func (b *Bank) TierFor(level int) Tier {
	b.mu.Lock()
	roll := b.rng.Float64()
	b.mu.Unlock()
	return tierForRoll(level, roll)
}

func tierForRoll(level int, roll float64) Tier {
	switch {
	case level <= 1:
		return TierEasy
	case level <= 5:
		if roll < float64(level-1)/4 {
			return TierMedium
		}
		return TierEasy
	case level <= 10:
		if roll < float64(level-5)/5 {
			return TierHard
		}
		return TierMedium
	case level <= 20:
		if roll < float64(level-10)/10 {
			return TierExpert
		}
		return TierHard
	default:
		return TierExpert
	}
}

// Pick draws a secret word for the level: resolve the tier, then select
// uniformly within it. Returns the word and the tier actually used.
func (b *Bank) Pick(level int) (string, Tier) {
	tier := b.TierFor(level)
	list := b.tiers[tier]
	b.mu.Lock()
	w := list[b.rng.Intn(len(list))]
	b.mu.Unlock()
	return w, tier
}

// PickAny draws uniformly from the whole vocabulary (random mode has no
// difficulty ladder).
func (b *Bank) PickAny() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.vocab[b.rng.Intn(len(b.vocab))]
}

// IsAllowed reports whether w is an acceptable guess word.
func (b *Bank) IsAllowed(w string) bool {
	_, ok := b.set[strings.ToUpper(strings.TrimSpace(w))]
	return ok
}

// Vocabulary returns the full word list (sorted, uppercase).
func (b *Bank) Vocabulary() []string { return b.vocab }

// Stats returns the vocabulary size and per-tier counts.
func (b *Bank) Stats() (total int, tiers [4]int) {
	for i := range b.tiers {
		tiers[i] = len(b.tiers[i])
	}
	return len(b.vocab), tiers
}

// IsBossLevel reports whether level gates a theme choice.
func IsBossLevel(level int) bool {
	return level > 0 && level%bossModulus == 0
}

// DifficultyMultiplier scales win scores with the level ladder; boss
// levels pay extra.
func DifficultyMultiplier(level int) int {
	tier := (level - 1) / 3
	if tier > 5 {
		tier = 5
	}
	base := 1 + tier
	if IsBossLevel(level) {
		return base + 4
	}
	return base
}

// ScoreForWin computes the score delta for winning a level in
// guessesUsed guesses. maxGuesses of 0 (rank mode) still rewards quick
// solves against the letter-mode baseline.
func ScoreForWin(level, guessesUsed, maxGuesses int) int {
	if maxGuesses <= 0 {
		maxGuesses = 6
	}
	mult := DifficultyMultiplier(level)
	bonus := maxGuesses - guessesUsed
	if bonus < 0 {
		bonus = 0
	}
	return 100*mult + bonus*10*mult
}

// readWordFile loads one word per line; FromList applies the per-word
// validation.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

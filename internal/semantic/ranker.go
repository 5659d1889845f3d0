// internal/semantic/ranker.go
//
// Similarity ranking for rank-mode guesses.
//
// Every vocabulary word gets a deterministic letter-feature vector
// (unigram counts plus hashed bigrams, unit-normalized). For a given
// secret the full vocabulary is ordered once by cosine similarity to the
// secret, memoized, and a guess's rank is its 1-based position in that
// ordering. Rank 1 is the secret itself. Guesses outside the vocabulary
// clamp to MaxRank so every guess gets feedback.
//
// The ranking is a pure function of (secret, guess): no randomness, ties
// broken lexicographically, stable for the lifetime of the process.
package semantic

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
)

// MaxRank is the rank reported for words absent from the vocabulary.
const MaxRank = 20000

const (
	dims       = 64
	bigramDims = dims - 26
)

type vector [dims]float64

// Ranker scores guesses against secrets over a fixed vocabulary.
type Ranker struct {
	vocab []string
	vecs  map[string]vector

	mu      sync.Mutex
	secrets map[string]*secretIndex
}

// secretIndex is the memoized ordering of the vocabulary around one secret.
type secretIndex struct {
	ranks map[string]int
	order []string // order[i] holds the word at rank i+1
}

// New builds a Ranker over vocab (words are normalized to uppercase).
func New(vocab []string) *Ranker {
	r := &Ranker{
		vecs:    make(map[string]vector, len(vocab)),
		secrets: make(map[string]*secretIndex),
	}
	for _, w := range vocab {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := r.vecs[w]; ok {
			continue
		}
		r.vocab = append(r.vocab, w)
		r.vecs[w] = embed(w)
	}
	sort.Strings(r.vocab)
	return r
}

// Rank returns the 1-based closeness rank of guess relative to secret and
// a similarity display score in [0,1]. Rank 1 means guess == secret.
func (r *Ranker) Rank(secret, guess string) (int, float64) {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	guess = strings.ToUpper(strings.TrimSpace(guess))
	if guess == secret {
		return 1, 1.0
	}
	sim := similarity01(cosine(r.vecOf(secret), r.vecOf(guess)))
	idx := r.indexFor(secret)
	rank, ok := idx.ranks[guess]
	if !ok {
		return MaxRank, sim
	}
	return rank, sim
}

// At returns the vocabulary word at the given rank around secret, or ""
// when rank is out of range. Rank 1 is the secret itself.
func (r *Ranker) At(secret string, rank int) string {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	idx := r.indexFor(secret)
	if rank < 1 || rank > len(idx.order) {
		return ""
	}
	return idx.order[rank-1]
}

// VocabSize reports how many words the ranker orders per secret.
func (r *Ranker) VocabSize() int { return len(r.vocab) }

// indexFor builds (or returns the memoized) ordering for secret.
func (r *Ranker) indexFor(secret string) *secretIndex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.secrets[secret]; ok {
		return idx
	}

	sv := r.vecOf(secret)
	type scored struct {
		word string
		sim  float64
	}
	order := make([]scored, 0, len(r.vocab))
	for _, w := range r.vocab {
		if w == secret {
			continue
		}
		order = append(order, scored{word: w, sim: cosine(sv, r.vecs[w])})
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].sim != order[j].sim {
			return order[i].sim > order[j].sim
		}
		return order[i].word < order[j].word
	})

	idx := &secretIndex{
		ranks: make(map[string]int, len(order)+1),
		order: make([]string, 0, len(order)+1),
	}
	idx.ranks[secret] = 1
	idx.order = append(idx.order, secret)
	for i, s := range order {
		rank := i + 2 // secret holds rank 1
		if rank > MaxRank {
			rank = MaxRank
		}
		idx.ranks[s.word] = rank
		idx.order = append(idx.order, s.word)
	}
	r.secrets[secret] = idx
	return idx
}

// vecOf returns the precomputed vector for vocabulary words, or embeds
// unknown words on the fly (unknown words are never cached: they do not
// participate in orderings).
func (r *Ranker) vecOf(word string) vector {
	if v, ok := r.vecs[word]; ok {
		return v
	}
	return embed(word)
}

// embed derives the unit feature vector for a word: letter counts in the
// first 26 dims, hashed bigrams (including boundary markers) in the rest.
func embed(word string) vector {
	var v vector
	letters := []rune(word)
	for _, ch := range letters {
		if ch >= 'A' && ch <= 'Z' {
			v[ch-'A'] += 1.0
		}
	}
	padded := "^" + word + "$"
	for i := 0; i+1 < len(padded); i++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(padded[i : i+2]))
		v[26+int(h.Sum32()%uint32(bigramDims))] += 0.5
	}
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}

// cosine of two unit vectors is their dot product.
func cosine(a, b vector) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// similarity01 maps cosine [-1,1] onto the display range [0,1].
func similarity01(cos float64) float64 {
	s := (cos + 1) / 2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

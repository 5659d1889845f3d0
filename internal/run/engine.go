// internal/run/engine.go
//
// The run engine: authoritative state machine for a game run.
// Responsibilities:
//   - Start runs and draw secrets through the word bank's level curve.
//   - Validate and apply guesses in letter mode (classic two-pass
//     feedback) and rank mode (semantic closeness rank).
//   - Drive level advancement, scoring, skip cooldown, powerup offers,
//     and boss-level theme rotation.
//   - React to the client's authoritative timeout signal (Fail), with
//     the clutch shield as the only mitigant.
//
// Every operation executes to completion under the store's per-run lock;
// invalid-state or invalid-input calls leave the run unchanged.
package run

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mossline/wordrush/internal/hint"
	"github.com/mossline/wordrush/internal/powerup"
	"github.com/mossline/wordrush/internal/semantic"
	"github.com/mossline/wordrush/internal/theme"
	"github.com/mossline/wordrush/internal/words"
)

const defaultHintTimeout = 4 * time.Second

// Engine composes the static catalogs and the run store.
type Engine struct {
	store    *Store
	bank     *words.Bank
	ranker   *semantic.Ranker
	powerups *powerup.Catalog
	themes   *theme.Catalog
	oracle   hint.Oracle

	hintTimeout time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithHintTimeout bounds the Hint Oracle call.
func WithHintTimeout(d time.Duration) Option {
	return func(e *Engine) { e.hintTimeout = d }
}

// WithRand injects the RNG used for offers and letter reveals.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// NewEngine wires the engine. oracle may be hint.Local{} when no
// upstream is configured.
func NewEngine(store *Store, bank *words.Bank, ranker *semantic.Ranker, powerups *powerup.Catalog, themes *theme.Catalog, oracle hint.Oracle, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		bank:        bank,
		ranker:      ranker,
		powerups:    powerups,
		themes:      themes,
		oracle:      oracle,
		hintTimeout: defaultHintTimeout,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartParams selects the run variant.
type StartParams struct {
	Mode    Mode
	Random  bool
	ThemeID string
}

// Start creates a run at level 1 and registers it with the store.
// Random mode always ranks guesses, so it implies rank mode.
func (e *Engine) Start(p StartParams) (*Run, error) {
	mode := p.Mode
	if mode == "" {
		mode = ModeLetter
	}
	if mode != ModeLetter && mode != ModeRank {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrValidation, p.Mode)
	}
	if p.Random {
		mode = ModeRank
	}

	r := &Run{
		ID:            uuid.NewString(),
		Mode:          mode,
		RandomMode:    p.Random,
		Level:         1,
		SkipAvailable: true,
	}
	if p.ThemeID != "" {
		t, ok := e.themes.Get(p.ThemeID)
		if !ok {
			return nil, fmt.Errorf("%w: unknown theme %q", ErrValidation, p.ThemeID)
		}
		r.ThemeID, r.ThemeName, r.ThemeDescription = t.ID, t.Name, t.Desc
	}
	e.newLevel(r)
	e.store.Put(r)
	log.Info().Str("runId", r.ID).Str("mode", string(mode)).Bool("random", p.Random).Msg("run started")
	return r.Clone(), nil
}

// GuessResult is the outcome of one guess.
type GuessResult struct {
	Run            *Run
	Entry          GuessEntry
	Won            bool
	SolvedWord     string // set on a win so the client can show the answer
	EffectMessages []string
}

// Guess validates and applies one guess. In the random-mode respawn
// window the fresh secret is drawn first and the guess scores against it.
func (e *Engine) Guess(runID, word string) (*GuessResult, error) {
	res := &GuessResult{}
	err := e.store.With(runID, func(r *Run) error {
		w := strings.ToUpper(strings.TrimSpace(word))
		if w == "" || !isUpperAlpha(w) {
			return fmt.Errorf("%w: guess must be a non-empty alphabetic word", ErrValidation)
		}

		switch r.State() {
		case StatePlaying:
		case StateRandomWin:
			r.RandomWin = false
			r.Level++
			e.newLevel(r)
		default:
			return fmt.Errorf("%w: cannot guess while %s", ErrInvalidState, r.State())
		}

		if r.Mode == ModeLetter {
			if len(w) != r.WordLen {
				return fmt.Errorf("%w: guess must be %d letters", ErrValidation, r.WordLen)
			}
			if !e.bank.IsAllowed(w) {
				return fmt.Errorf("%w: not in word list", ErrValidation)
			}
		}

		r.Won, r.Failed, r.LastScoreDelta = false, false, 0

		entry := GuessEntry{Word: w, Timestamp: time.Now().UTC()}
		var won bool
		if r.Mode == ModeLetter {
			entry.Feedback = scoreLetters(r.Secret, w)
			won = allCorrect(entry.Feedback)
		} else {
			rank, sim := e.ranker.Rank(r.Secret, w)
			entry.Rank, entry.Similarity = rank, sim
			if r.BestRank == 0 || rank < r.BestRank {
				r.BestRank = rank
			}
			won = rank == 1
		}
		r.Guesses = append(r.Guesses, entry)
		res.Entry = entry

		switch {
		case won:
			res.Won = true
			res.SolvedWord = r.Secret
			delta := words.ScoreForWin(r.Level, len(r.Guesses), r.MaxGuesses)
			if r.RandomMode {
				r.RandomWin = true
			} else {
				wasBoss := r.BossLevel
				currentTheme := r.ThemeID
				e.advanceAfterWin(r)
				r.PendingPowerups = e.rollOffer()
				if wasBoss && !e.themes.Empty() {
					r.PendingTheme = true
					r.ThemeOptions = e.themes.Offer(currentTheme)
				}
			}
			r.Won = true
			r.LastScoreDelta = delta
			r.Score += delta
		case r.Mode == ModeLetter && r.MaxGuesses > 0 && len(r.Guesses) >= r.MaxGuesses:
			// Out of guesses: the level resets with a fresh word.
			// Termination is timer-driven only, via Fail.
			missed := r.Secret
			e.newLevel(r)
			r.Failed = true
			res.EffectMessages = append(res.EffectMessages,
				fmt.Sprintf("Out of guesses — the word was %s. New word, same level.", missed))
		}

		res.Run = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SkipResult reports whether the skip happened. An unavailable skip is a
// diagnostic, not an error.
type SkipResult struct {
	Run     *Run
	Skipped bool
	Message string
}

// Skip discards the current secret and advances one level with no score
// or powerups, then starts the cooldown.
func (e *Engine) Skip(runID string) (*SkipResult, error) {
	res := &SkipResult{}
	err := e.store.With(runID, func(r *Run) error {
		if st := r.State(); st != StatePlaying {
			return fmt.Errorf("%w: cannot skip while %s", ErrInvalidState, st)
		}
		if !r.SkipAvailable {
			res.Message = fmt.Sprintf("Skip is on cooldown for %d more level(s).", r.SkipInLevels)
			res.Run = r.Clone()
			return nil
		}
		r.Won, r.Failed, r.LastScoreDelta = false, false, 0
		r.Level++
		r.SkipInLevels = SkipCooldownLevels
		r.SkipAvailable = false
		e.newLevel(r)
		res.Skipped = true
		res.Message = "Level skipped."
		res.Run = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ChooseResult is the outcome of resolving a powerup offer. Added is nil
// when the inventory was full; the accompanying error is ErrCapacity and
// the offer is forfeited so play resumes.
type ChooseResult struct {
	Run     *Run
	Added   *PowerupInstance
	Message string
}

// ChoosePowerup moves exactly one offered instance into the inventory
// and clears the offer.
func (e *Engine) ChoosePowerup(runID, powerupID string) (*ChooseResult, error) {
	res := &ChooseResult{}
	err := e.store.With(runID, func(r *Run) error {
		if st := r.State(); st != StateAwaitingPowerup {
			return fmt.Errorf("%w: no powerup choice pending (state %s)", ErrInvalidState, st)
		}
		idx := -1
		for i, p := range r.PendingPowerups {
			if p.InstanceID == powerupID || p.ID == powerupID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: powerup %q is not part of the current offer", ErrValidation, powerupID)
		}
		if len(r.Inventory) >= InventoryCapacity {
			r.PendingPowerups = nil
			res.Message = fmt.Sprintf("Inventory full (%d) — powerup not added.", InventoryCapacity)
			res.Run = r.Clone()
			return fmt.Errorf("%w: capacity %d reached", ErrCapacity, InventoryCapacity)
		}
		chosen := r.PendingPowerups[idx]
		r.Inventory = append(r.Inventory, chosen)
		r.PendingPowerups = nil
		res.Added = &chosen
		res.Message = fmt.Sprintf("%s added to inventory.", chosen.Name)
		res.Run = r.Clone()
		return nil
	})
	if err != nil && !errors.Is(err, ErrCapacity) {
		return nil, err
	}
	return res, err
}

// ChooseTheme resolves a boss-level theme offer. A powerup offer queued
// behind the theme gate surfaces through the derived state afterwards.
func (e *Engine) ChooseTheme(runID, themeID string) (*Run, error) {
	var out *Run
	err := e.store.With(runID, func(r *Run) error {
		if st := r.State(); st != StateAwaitingTheme {
			return fmt.Errorf("%w: no theme choice pending (state %s)", ErrInvalidState, st)
		}
		found := false
		for _, t := range r.ThemeOptions {
			if t.ID == themeID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: theme %q is not among the offered options", ErrValidation, themeID)
		}
		t, _ := e.themes.Get(themeID)
		r.ThemeID, r.ThemeName, r.ThemeDescription = t.ID, t.Name, t.Desc
		r.PendingTheme = false
		r.ThemeOptions = nil
		out = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FailResult reports whether a clutch shield averted the loss.
type FailResult struct {
	Run              *Run
	Saved            bool
	Messages         []string
	TimeBonusSeconds int
}

// Fail is the authoritative "time has run out" signal from the client.
// An unconsumed clutch shield is spent to extend time; otherwise the run
// is lost.
func (e *Engine) Fail(runID string) (*FailResult, error) {
	res := &FailResult{}
	err := e.store.With(runID, func(r *Run) error {
		if r.Lost {
			return fmt.Errorf("%w: run is already lost", ErrInvalidState)
		}
		idx := -1
		for i, p := range r.Inventory {
			if p.Kind == powerup.KindClutchShield {
				idx = i
				break
			}
		}
		if idx >= 0 {
			shield := r.Inventory[idx]
			r.Inventory = append(r.Inventory[:idx], r.Inventory[idx+1:]...)
			r.ClutchFired = true
			res.Saved = true
			res.TimeBonusSeconds = shield.Value
			res.Messages = append(res.Messages,
				fmt.Sprintf("Clutch Shield fired: timer set to %d seconds.", shield.Value))
			log.Info().Str("runId", r.ID).Msg("clutch shield consumed on timeout")
		} else {
			r.Lost = true
			r.PendingPowerups = nil
			r.PendingTheme = false
			r.ThemeOptions = nil
			r.RandomWin = false
			res.Messages = append(res.Messages,
				fmt.Sprintf("Time's up. Final score %d at level %d.", r.Score, r.Level))
			log.Info().Str("runId", r.ID).Int("level", r.Level).Int("score", r.Score).Msg("run lost")
		}
		res.Run = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ConsumeClutch acknowledges that a clutch shield fired; the client calls
// it after applying the extension locally.
func (e *Engine) ConsumeClutch(runID string) (*Run, error) {
	var out *Run
	err := e.store.With(runID, func(r *Run) error {
		r.ClutchFired = false
		out = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reveal returns the current secret word. Not permitted while a choice
// is pending; purely informational otherwise.
func (e *Engine) Reveal(runID string) (string, error) {
	var word string
	err := e.store.With(runID, func(r *Run) error {
		if st := r.State(); st == StateAwaitingPowerup || st == StateAwaitingTheme {
			return fmt.Errorf("%w: cannot reveal while %s", ErrInvalidState, st)
		}
		word = r.Secret
		log.Info().Str("runId", r.ID).Int("level", r.Level).Msg("secret revealed")
		return nil
	})
	if err != nil {
		return "", err
	}
	return word, nil
}

// ---------------------------- level flow -----------------------------

// newLevel draws the secret and resets per-level fields. The level
// number itself is managed by the callers.
func (e *Engine) newLevel(r *Run) {
	if r.RandomMode {
		r.Secret = e.bank.PickAny()
		r.Difficulty = ""
		r.BossLevel = false
	} else {
		secret, tier := e.bank.Pick(r.Level)
		r.Secret = secret
		r.Difficulty = tier.String()
		r.BossLevel = words.IsBossLevel(r.Level)
	}
	r.WordLen = len(r.Secret)
	if r.Mode == ModeLetter {
		r.MaxGuesses = DefaultMaxGuesses
	} else {
		r.MaxGuesses = 0
	}
	r.Guesses = nil
	r.BestRank = 0
	r.Won = false
	r.Failed = false
}

// advanceAfterWin moves to the next level and ticks the skip cooldown.
func (e *Engine) advanceAfterWin(r *Run) {
	r.Level++
	if r.SkipInLevels > 0 {
		r.SkipInLevels--
	}
	r.SkipAvailable = r.SkipInLevels == 0
	e.newLevel(r)
}

// rollOffer draws the post-win powerup offer: distinct catalog ids, each
// stamped with a fresh instance id.
func (e *Engine) rollOffer() []PowerupInstance {
	defs := e.powerups.Roll(PowerupOfferSize)
	out := make([]PowerupInstance, 0, len(defs))
	for _, d := range defs {
		out = append(out, PowerupInstance{Definition: d, InstanceID: uuid.NewString()})
	}
	return out
}

// fetchHint calls the oracle with a bounded timeout and falls back to the
// deterministic local hint on any failure. Never errors.
func (e *Engine) fetchHint(r *Run, style string) string {
	ctx, cancel := context.WithTimeout(context.Background(), e.hintTimeout)
	defer cancel()
	guessWords := make([]string, 0, len(r.Guesses))
	for _, g := range r.Guesses {
		guessWords = append(guessWords, g.Word)
	}
	text, err := e.oracle.GetHint(ctx, r.Secret, style, guessWords)
	if err != nil || strings.TrimSpace(text) == "" {
		log.Warn().Err(err).Str("runId", r.ID).Msg("hint oracle failed, using local fallback")
		return hint.Fallback(r.Secret)
	}
	return text
}

// intn is the engine's locked RNG draw.
func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// ------------------------- letter-mode scoring -----------------------

// scoreLetters implements the standard two-pass evaluation that handles
// duplicate letters correctly: first pass marks exact matches, second
// pass resolves present/absent against the remaining letter counts.
func scoreLetters(secret, guess string) []LetterMark {
	n := len(guess)
	res := make([]LetterMark, n)
	var counts [26]int

	for i := 0; i < n; i++ {
		if guess[i] == secret[i] {
			res[i] = MarkCorrect
		} else {
			counts[secret[i]-'A']++
		}
	}
	for i := 0; i < n; i++ {
		if res[i] == MarkCorrect {
			continue
		}
		j := int(guess[i] - 'A')
		if j >= 0 && j < 26 && counts[j] > 0 {
			res[i] = MarkPresent
			counts[j]--
		} else {
			res[i] = MarkAbsent
		}
	}
	return res
}

// allCorrect reports whether every mark is MarkCorrect.
func allCorrect(marks []LetterMark) bool {
	for _, m := range marks {
		if m != MarkCorrect {
			return false
		}
	}
	return true
}

// isUpperAlpha reports whether s is all uppercase ASCII letters.
func isUpperAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// internal/run/types.go
//
// Core types for a game run: the Run itself, guess entries, powerup
// instances, and the pending-choice sum that gates play after a win.
package run

import (
	"time"

	"github.com/mossline/wordrush/internal/powerup"
	"github.com/mossline/wordrush/internal/theme"
)

// Per-run constants.
const (
	InventoryCapacity  = 6
	SkipCooldownLevels = 3
	PowerupOfferSize   = 3
	DefaultMaxGuesses  = 6
)

// Mode selects how guesses are evaluated.
type Mode string

const (
	// ModeLetter is classic per-letter feedback with a fixed board.
	ModeLetter Mode = "letter"
	// ModeRank scores guesses by semantic closeness rank; no guess cap.
	ModeRank Mode = "rank"
)

// State is the coarse run state reported to clients.
type State string

const (
	StatePlaying         State = "playing"
	StateAwaitingPowerup State = "awaiting_powerup_choice"
	StateAwaitingTheme   State = "awaiting_theme_choice"
	StateRandomWin       State = "random_win"
	StateLost            State = "lost"
)

// LetterMark is the per-letter result of a letter-mode guess.
type LetterMark string

const (
	MarkCorrect LetterMark = "correct"
	MarkPresent LetterMark = "present"
	MarkAbsent  LetterMark = "absent"
)

// GuessEntry records one accepted guess. Rank/Similarity are set in rank
// mode, Feedback in letter mode. Entries are immutable once appended.
type GuessEntry struct {
	Word       string       `json:"word"`
	Rank       int          `json:"rank,omitempty"`
	Similarity float64      `json:"similarity,omitempty"`
	Feedback   []LetterMark `json:"feedback,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// PowerupInstance is a catalog definition plus an instance id so stacked
// duplicates stay distinguishable in the inventory.
type PowerupInstance struct {
	powerup.Definition
	InstanceID string `json:"instanceId"`
}

// PendingKind tags the PendingChoice sum.
type PendingKind string

const (
	PendingNone    PendingKind = "none"
	PendingPowerup PendingKind = "powerup"
	PendingTheme   PendingKind = "theme"
)

// PendingChoice is the single gate blocking play: none, a powerup offer,
// or a theme offer. Powerup choices take precedence when both are queued.
type PendingChoice struct {
	Kind     PendingKind       `json:"kind"`
	Powerups []PowerupInstance `json:"powerups,omitempty"`
	Themes   []theme.Theme     `json:"themes,omitempty"`
}

// Run is one play session from start to terminal loss. Owned exclusively
// by the engine through the store; all fields are mutated only under the
// store's per-run lock.
type Run struct {
	ID         string
	Mode       Mode
	RandomMode bool

	Level      int
	Difficulty string
	BossLevel  bool

	Secret     string // never serialized; exposed only via Reveal
	WordLen    int
	MaxGuesses int // 0 means unlimited (rank mode)

	Guesses  []GuessEntry
	BestRank int // 0 until the first ranked guess
	Won      bool
	Failed   bool

	Score          int
	LastScoreDelta int

	SkipAvailable bool
	SkipInLevels  int

	PendingPowerups []PowerupInstance
	Inventory       []PowerupInstance

	ThemeID          string
	ThemeName        string
	ThemeDescription string
	PendingTheme     bool
	ThemeOptions     []theme.Theme

	TimerFreezeSeconds int
	TimerSlowSeconds   int

	Lost        bool
	ClutchFired bool
	RandomWin   bool // random mode: won, awaiting respawn
}

// State derives the current state. The switch ordering encodes the
// required precedence: loss is terminal, then powerup choice gates ahead
// of theme choice, then the random-mode respawn window.
func (r *Run) State() State {
	switch {
	case r.Lost:
		return StateLost
	case len(r.PendingPowerups) > 0:
		return StateAwaitingPowerup
	case r.PendingTheme:
		return StateAwaitingTheme
	case r.RandomWin:
		return StateRandomWin
	default:
		return StatePlaying
	}
}

// Pending reports the active choice as a tagged sum.
func (r *Run) Pending() PendingChoice {
	switch r.State() {
	case StateAwaitingPowerup:
		return PendingChoice{Kind: PendingPowerup, Powerups: r.PendingPowerups}
	case StateAwaitingTheme:
		return PendingChoice{Kind: PendingTheme, Themes: r.ThemeOptions}
	default:
		return PendingChoice{Kind: PendingNone}
	}
}

// Clone returns a deep-enough copy for handing out past the store lock:
// slices are copied, element values are immutable.
func (r *Run) Clone() *Run {
	c := *r
	c.Guesses = append([]GuessEntry(nil), r.Guesses...)
	c.PendingPowerups = append([]PowerupInstance(nil), r.PendingPowerups...)
	c.Inventory = append([]PowerupInstance(nil), r.Inventory...)
	c.ThemeOptions = append([]theme.Theme(nil), r.ThemeOptions...)
	return &c
}

// internal/run/effects.go
//
// Powerup effect application. Each effect kind has exactly one handler;
// selection arity is validated before anything mutates, so a rejected use
// leaves the run (and the inventory) unchanged. Time bonuses and
// penalties are advisory deltas for the client's countdown; only
// freeze/slow counters persist on the Run.
package run

import (
	"fmt"
	"strings"

	"github.com/mossline/wordrush/internal/powerup"
	"github.com/mossline/wordrush/internal/semantic"
)

// relatedWindow bounds how close a related-word draw can be: ranks 2
// through relatedWindow+1 around the secret.
const relatedWindow = 50

// UseRequest carries the inputs for one powerup use.
type UseRequest struct {
	InstanceID string
	Choice     string   // effect-specific selector (streak_bank: "time"|"score")
	Choices    []string // selected past guess words (arity-checked per kind)
	Streak     int      // caller-supplied streak value for streak_bank
}

// UseResult is the structured effect outcome the caller applies to its
// own presentation.
type UseResult struct {
	Run                *Run
	Used               *PowerupInstance
	Messages           []string
	Hint               string
	RelatedWord        string
	TimeBonusSeconds   int
	TimePenaltySeconds int
	TimerFreezeSeconds int
	TimerSlowSeconds   int
}

// UsePowerup dispatches an inventory instance to its effect handler and
// removes the instance on successful use. Valid only while playing,
// except reroll_rewards, which by definition runs against a pending
// powerup offer.
func (e *Engine) UsePowerup(runID string, req UseRequest) (*UseResult, error) {
	var res *UseResult
	err := e.store.With(runID, func(r *Run) error {
		idx := -1
		for i, p := range r.Inventory {
			if p.InstanceID == req.InstanceID || p.ID == req.InstanceID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: powerup %q is not in the inventory", ErrValidation, req.InstanceID)
		}
		inst := r.Inventory[idx]

		st := r.State()
		allowed := st == StatePlaying ||
			(st == StateAwaitingPowerup && inst.Kind == powerup.KindRerollRewards)
		if !allowed {
			return fmt.Errorf("%w: cannot use a powerup while %s", ErrInvalidState, st)
		}
		if inst.Kind == powerup.KindClutchShield {
			return fmt.Errorf("%w: the clutch shield fires automatically on timeout", ErrValidation)
		}
		if need := inst.Kind.Arity(); len(req.Choices) != need {
			return fmt.Errorf("%w: %s requires %d selected guess(es), got %d",
				ErrValidation, inst.Kind, need, len(req.Choices))
		}
		selected, err := resolveSelections(r, req.Choices)
		if err != nil {
			return err
		}

		out, err := e.applyEffect(r, inst, req, selected)
		if err != nil {
			return err
		}
		r.Inventory = append(r.Inventory[:idx], r.Inventory[idx+1:]...)
		out.Used = &inst
		out.Run = r.Clone()
		res = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// resolveSelections maps selected words to their recorded guess entries.
func resolveSelections(r *Run, choices []string) ([]GuessEntry, error) {
	out := make([]GuessEntry, 0, len(choices))
	for _, c := range choices {
		w := strings.ToUpper(strings.TrimSpace(c))
		found := false
		for _, g := range r.Guesses {
			if g.Word == w {
				out = append(out, g)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q is not a past guess this level", ErrValidation, c)
		}
	}
	return out, nil
}

// applyEffect runs the handler for one effect kind. Handlers validate
// their remaining inputs before mutating the run.
func (e *Engine) applyEffect(r *Run, inst PowerupInstance, req UseRequest, selected []GuessEntry) (*UseResult, error) {
	res := &UseResult{}
	switch inst.Kind {
	case powerup.KindTimeBonus:
		res.TimeBonusSeconds = inst.Value
		res.Messages = append(res.Messages, fmt.Sprintf("+%d seconds.", inst.Value))

	case powerup.KindTimePenalty:
		bonus := inst.Value * 15
		res.TimePenaltySeconds = inst.Value
		r.Score += bonus
		r.LastScoreDelta = bonus
		res.Messages = append(res.Messages,
			fmt.Sprintf("-%d seconds, +%d score.", inst.Value, bonus))

	case powerup.KindTimerFreeze:
		r.TimerFreezeSeconds += inst.Value
		res.TimerFreezeSeconds = inst.Value
		res.Messages = append(res.Messages, fmt.Sprintf("Timer frozen for %d seconds.", inst.Value))

	case powerup.KindTimerSlow:
		r.TimerSlowSeconds += inst.Value
		res.TimerSlowSeconds = inst.Value
		res.Messages = append(res.Messages, fmt.Sprintf("Timer slowed for %d seconds.", inst.Value))

	case powerup.KindRevealLetter:
		res.Messages = append(res.Messages, e.revealLetter(r.Secret, inst.Param))

	case powerup.KindHint:
		res.Hint = e.fetchHint(r, inst.Param)
		res.Messages = append(res.Messages, "Hint: "+res.Hint)

	case powerup.KindRelatedWord:
		res.RelatedWord = e.relatedWord(r.Secret)
		res.Messages = append(res.Messages, fmt.Sprintf("A related word: %s.", res.RelatedWord))

	case powerup.KindAnchorGuess:
		bonus := anchorBonus(selected[0])
		r.Score += bonus
		r.LastScoreDelta = bonus
		res.Messages = append(res.Messages,
			fmt.Sprintf("%s re-scored for +%d points.", selected[0].Word, bonus))

	case powerup.KindComparator:
		res.Messages = append(res.Messages, compareGuesses(selected[0], selected[1]))

	case powerup.KindStreakBank:
		if req.Streak < 0 {
			return nil, fmt.Errorf("%w: streak must be non-negative", ErrValidation)
		}
		switch req.Choice {
		case "time":
			res.TimeBonusSeconds = req.Streak * 2
			res.Messages = append(res.Messages,
				fmt.Sprintf("Streak banked: +%d seconds.", res.TimeBonusSeconds))
		case "score":
			pts := req.Streak * 25
			r.Score += pts
			r.LastScoreDelta = pts
			res.Messages = append(res.Messages, fmt.Sprintf("Streak banked: +%d score.", pts))
		default:
			return nil, fmt.Errorf("%w: streak_bank choice must be %q or %q", ErrValidation, "time", "score")
		}

	case powerup.KindRerollRewards:
		if len(r.PendingPowerups) == 0 {
			return nil, fmt.Errorf("%w: no pending rewards to reroll", ErrValidation)
		}
		r.PendingPowerups = e.rollOffer()
		res.Messages = append(res.Messages, "Rewards rerolled.")

	default:
		// Catalog loading rejects unknown kinds; this is unreachable.
		return nil, fmt.Errorf("%w: unknown effect kind %q", ErrValidation, inst.Kind)
	}
	return res, nil
}

// revealLetter produces the reveal message for one variant. Unknown
// params degrade to a random letter.
func (e *Engine) revealLetter(secret, param string) string {
	switch param {
	case "first":
		return fmt.Sprintf("The first letter is %c.", secret[0])
	case "last":
		return fmt.Sprintf("The last letter is %c.", secret[len(secret)-1])
	case "vowel":
		for _, ch := range secret {
			if strings.ContainsRune("AEIOU", ch) {
				return fmt.Sprintf("The word contains the vowel %c.", ch)
			}
		}
		fallthrough
	case "random", "":
		i := e.intn(len(secret))
		return fmt.Sprintf("The word contains the letter %c.", secret[i])
	case "position":
		i := e.intn(len(secret))
		return fmt.Sprintf("Letter %d is %c.", i+1, secret[i])
	default:
		i := e.intn(len(secret))
		return fmt.Sprintf("The word contains the letter %c.", secret[i])
	}
}

// relatedWord draws a word ranked close to the secret.
func (e *Engine) relatedWord(secret string) string {
	window := relatedWindow
	if limit := e.ranker.VocabSize() - 1; window > limit {
		window = limit
	}
	if window < 1 {
		return secret
	}
	rank := 2 + e.intn(window)
	if w := e.ranker.At(secret, rank); w != "" {
		return w
	}
	return e.ranker.At(secret, 2)
}

// anchorBonus re-scores one past guess: in rank mode closeness pays, in
// letter mode hits and presents pay.
func anchorBonus(g GuessEntry) int {
	if g.Rank > 0 {
		bonus := (semantic.MaxRank - g.Rank) * 100 / semantic.MaxRank
		if bonus < 10 {
			bonus = 10
		}
		return bonus
	}
	bonus := 0
	for _, m := range g.Feedback {
		switch m {
		case MarkCorrect:
			bonus += 20
		case MarkPresent:
			bonus += 5
		}
	}
	if bonus < 10 {
		bonus = 10
	}
	return bonus
}

// compareGuesses reports which of two guesses sits closer to the secret.
func compareGuesses(a, b GuessEntry) string {
	if a.Rank > 0 && b.Rank > 0 {
		switch {
		case a.Rank < b.Rank:
			return fmt.Sprintf("%s (rank %d) is closer than %s (rank %d).", a.Word, a.Rank, b.Word, b.Rank)
		case b.Rank < a.Rank:
			return fmt.Sprintf("%s (rank %d) is closer than %s (rank %d).", b.Word, b.Rank, a.Word, a.Rank)
		default:
			return fmt.Sprintf("%s and %s are equally close (rank %d).", a.Word, b.Word, a.Rank)
		}
	}
	ca, cb := correctCount(a.Feedback), correctCount(b.Feedback)
	switch {
	case ca > cb:
		return fmt.Sprintf("%s (%d correct) beats %s (%d correct).", a.Word, ca, b.Word, cb)
	case cb > ca:
		return fmt.Sprintf("%s (%d correct) beats %s (%d correct).", b.Word, cb, a.Word, ca)
	default:
		return fmt.Sprintf("%s and %s are tied at %d correct letters.", a.Word, b.Word, ca)
	}
}

func correctCount(marks []LetterMark) int {
	n := 0
	for _, m := range marks {
		if m == MarkCorrect {
			n++
		}
	}
	return n
}

// internal/httpserver/server.go
//
// HTTP wiring for the run engine.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", catalog reads (/themes, /backgrounds).
//   - Run endpoints: start, guess, skip, choose_powerup, choose_theme,
//     use_powerup, fail, consume_clutch, reveal.
//   - Error taxonomy → status mapping (validation 400, invalid state 409,
//     capacity 409 with a distinct code, unknown run 404).
//
// Notes:
//   - The secret word never appears in a serialized run; only the reveal
//     endpoint returns it.
//   - CORS is origin-aware and credentials-enabled.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/mossline/wordrush/internal/run"
	"github.com/mossline/wordrush/internal/theme"
	"github.com/mossline/wordrush/internal/words"
)

// Server bundles the router with the engine and read-only catalogs.
type Server struct {
	r      *chi.Mux
	engine *run.Engine
	themes *theme.Catalog
	bank   *words.Bank
	origin string
}

// New constructs a Server, installs middleware, and registers routes.
func New(engine *run.Engine, themes *theme.Catalog, bank *words.Bank, clientOrigin string) *Server {
	s := &Server{r: chi.NewRouter(), engine: engine, themes: themes, bank: bank, origin: clientOrigin}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(15 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordrush","endpoints":["/health","POST /run/start","POST /run/{runId}/guess","GET /themes"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		total, tiers := s.bank.Stats()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": total,
			"tiers": map[string]int{
				"easy": tiers[0], "medium": tiers[1], "hard": tiers[2], "expert": tiers[3],
			},
		})
	})

	// --- catalogs ---
	s.r.Get("/themes", s.handleListThemes)
	s.r.Get("/backgrounds", s.handleListBackgrounds)

	// --- run operations ---
	s.r.Post("/run/start", s.handleStart)
	s.r.Route("/run/{runID}", func(r chi.Router) {
		r.Post("/guess", s.handleGuess)
		r.Post("/skip", s.handleSkip)
		r.Post("/choose_powerup", s.handleChoosePowerup)
		r.Post("/choose_theme", s.handleChooseTheme)
		r.Post("/use_powerup", s.handleUsePowerup)
		r.Post("/fail", s.handleFail)
		r.Post("/consume_clutch", s.handleConsumeClutch)
		r.Get("/reveal", s.handleReveal)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --------------------------- run serialization -----------------------------

// runView is the client-facing shape of a Run. The secret word is never
// included.
type runView struct {
	RunID              string                `json:"runId"`
	State              run.State             `json:"state"`
	Mode               run.Mode              `json:"mode"`
	RandomMode         bool                  `json:"randomMode"`
	Level              int                   `json:"level"`
	Difficulty         string                `json:"difficulty,omitempty"`
	BossLevel          bool                  `json:"bossLevel"`
	WordLen            int                   `json:"wordLen"`
	MaxGuesses         int                   `json:"maxGuesses"`
	Guesses            []run.GuessEntry      `json:"guesses"`
	BestRank           int                   `json:"bestRank,omitempty"`
	Won                bool                  `json:"won"`
	Failed             bool                  `json:"failed"`
	Score              int                   `json:"score"`
	LastScoreDelta     int                   `json:"lastScoreDelta"`
	SkipAvailable      bool                  `json:"skipAvailable"`
	SkipInLevels       int                   `json:"skipInLevels"`
	Pending            run.PendingChoice     `json:"pending"`
	Inventory          []run.PowerupInstance `json:"inventory"`
	ThemeID            string                `json:"themeId,omitempty"`
	ThemeName          string                `json:"themeName,omitempty"`
	ThemeDescription   string                `json:"themeDescription,omitempty"`
	TimerFreezeSeconds int                   `json:"timerFreezeSeconds"`
	TimerSlowSeconds   int                   `json:"timerSlowSeconds"`
	ClutchFired        bool                  `json:"clutchFired"`
}

func viewOf(r *run.Run) runView {
	guesses := r.Guesses
	if guesses == nil {
		guesses = []run.GuessEntry{}
	}
	inventory := r.Inventory
	if inventory == nil {
		inventory = []run.PowerupInstance{}
	}
	return runView{
		RunID:              r.ID,
		State:              r.State(),
		Mode:               r.Mode,
		RandomMode:         r.RandomMode,
		Level:              r.Level,
		Difficulty:         r.Difficulty,
		BossLevel:          r.BossLevel,
		WordLen:            r.WordLen,
		MaxGuesses:         r.MaxGuesses,
		Guesses:            guesses,
		BestRank:           r.BestRank,
		Won:                r.Won,
		Failed:             r.Failed,
		Score:              r.Score,
		LastScoreDelta:     r.LastScoreDelta,
		SkipAvailable:      r.SkipAvailable,
		SkipInLevels:       r.SkipInLevels,
		Pending:            r.Pending(),
		Inventory:          inventory,
		ThemeID:            r.ThemeID,
		ThemeName:          r.ThemeName,
		ThemeDescription:   r.ThemeDescription,
		TimerFreezeSeconds: r.TimerFreezeSeconds,
		TimerSlowSeconds:   r.TimerSlowSeconds,
		ClutchFired:        r.ClutchFired,
	}
}

// ------------------------------ handlers -----------------------------------

type startReq struct {
	Mode    string `json:"mode"`
	Random  bool   `json:"random"`
	ThemeID string `json:"themeId"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	rn, err := s.engine.Start(run.StartParams{
		Mode:    run.Mode(req.Mode),
		Random:  req.Random,
		ThemeID: req.ThemeID,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(rn))
}

type guessReq struct {
	Guess string `json:"guess"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	res, err := s.engine.Guess(chi.URLParam(r, "runID"), req.Guess)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"state":          viewOf(res.Run),
		"entry":          res.Entry,
		"won":            res.Won,
		"solvedWord":     res.SolvedWord,
		"effectMessages": res.EffectMessages,
	})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Skip(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"state":   viewOf(res.Run),
		"skipped": res.Skipped,
		"message": res.Message,
	})
}

type choosePowerupReq struct {
	PowerupID string `json:"powerupId"`
}

func (s *Server) handleChoosePowerup(w http.ResponseWriter, r *http.Request) {
	var req choosePowerupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	res, err := s.engine.ChoosePowerup(chi.URLParam(r, "runID"), req.PowerupID)
	if err != nil && !errors.Is(err, run.ErrCapacity) {
		s.writeErr(w, err)
		return
	}
	body := map[string]any{
		"state":   viewOf(res.Run),
		"added":   res.Added,
		"message": res.Message,
	}
	if errors.Is(err, run.ErrCapacity) {
		// Reported distinctly: the caller can explain *why* nothing was added.
		body["error"] = "inventory_full"
		w.WriteHeader(http.StatusConflict)
	}
	_ = json.NewEncoder(w).Encode(body)
}

type chooseThemeReq struct {
	ThemeID string `json:"themeId"`
}

func (s *Server) handleChooseTheme(w http.ResponseWriter, r *http.Request) {
	var req chooseThemeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	rn, err := s.engine.ChooseTheme(chi.URLParam(r, "runID"), req.ThemeID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(rn))
}

type usePowerupReq struct {
	InstanceID string   `json:"instanceId"`
	Choice     string   `json:"choice"`
	Choices    []string `json:"choices"`
	Streak     int      `json:"streak"`
}

func (s *Server) handleUsePowerup(w http.ResponseWriter, r *http.Request) {
	var req usePowerupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	res, err := s.engine.UsePowerup(chi.URLParam(r, "runID"), run.UseRequest{
		InstanceID: req.InstanceID,
		Choice:     req.Choice,
		Choices:    req.Choices,
		Streak:     req.Streak,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"state":              viewOf(res.Run),
		"used":               res.Used,
		"messages":           res.Messages,
		"hint":               res.Hint,
		"relatedWord":        res.RelatedWord,
		"timeBonusSeconds":   res.TimeBonusSeconds,
		"timePenaltySeconds": res.TimePenaltySeconds,
		"timerFreezeSeconds": res.TimerFreezeSeconds,
		"timerSlowSeconds":   res.TimerSlowSeconds,
	})
}

func (s *Server) handleFail(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Fail(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"state":            viewOf(res.Run),
		"saved":            res.Saved,
		"messages":         res.Messages,
		"timeBonusSeconds": res.TimeBonusSeconds,
	})
}

func (s *Server) handleConsumeClutch(w http.ResponseWriter, r *http.Request) {
	rn, err := s.engine.ConsumeClutch(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"state": viewOf(rn)})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	word, err := s.engine.Reveal(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"word": word})
}

func (s *Server) handleListThemes(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.themes.List())
}

func (s *Server) handleListBackgrounds(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.themes.Backgrounds())
}

// ----------------------------- error mapping -------------------------------

// writeErr maps engine errors onto HTTP statuses.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, run.ErrRunNotFound):
		status, code = http.StatusNotFound, "run_not_found"
	case errors.Is(err, run.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, run.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, run.ErrCapacity):
		status, code = http.StatusConflict, "inventory_full"
	default:
		status, code = http.StatusInternalServerError, "internal"
		log.Error().Err(err).Msg("unexpected engine error")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": err.Error()})
}

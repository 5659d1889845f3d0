package httpserver

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossline/wordrush/internal/hint"
	"github.com/mossline/wordrush/internal/powerup"
	"github.com/mossline/wordrush/internal/run"
	"github.com/mossline/wordrush/internal/semantic"
	"github.com/mossline/wordrush/internal/theme"
	"github.com/mossline/wordrush/internal/words"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	bank, err := words.New("")
	require.NoError(t, err)
	ranker := semantic.New(bank.Vocabulary())
	pups, err := powerup.NewCatalog(rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	themes, err := theme.NewCatalog(rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	engine := run.NewEngine(run.NewStore(), bank, ranker, pups, themes, hint.Local{},
		run.WithRand(rand.New(rand.NewSource(3))), run.WithHintTimeout(time.Second))
	return New(engine, themes, bank, "http://localhost:5173")
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), "body: %s", rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodOptions, "/run/start", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestListThemesAndBackgrounds(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/themes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var themes []theme.Theme
	decode(t, rec, &themes)
	assert.NotEmpty(t, themes)

	rec = do(t, s, http.MethodGet, "/backgrounds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bgs []string
	decode(t, rec, &bgs)
	assert.NotEmpty(t, bgs)
}

func TestStartGuessFlow(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/run/start", map[string]any{"mode": "letter"})
	require.Equal(t, http.StatusOK, rec.Code)
	var view runView
	decode(t, rec, &view)
	require.NotEmpty(t, view.RunID)
	assert.Equal(t, run.StatePlaying, view.State)
	assert.Equal(t, 1, view.Level)
	assert.NotNil(t, view.Guesses)
	assert.NotContains(t, rec.Body.String(), `"secret"`)

	// Learn the secret, then win with it.
	rec = do(t, s, http.MethodGet, "/run/"+view.RunID+"/reveal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reveal struct {
		Word string `json:"word"`
	}
	decode(t, rec, &reveal)
	require.Len(t, reveal.Word, words.WordLen)

	rec = do(t, s, http.MethodPost, "/run/"+view.RunID+"/guess", map[string]any{"guess": reveal.Word})
	require.Equal(t, http.StatusOK, rec.Code)
	var guessRes struct {
		State      runView `json:"state"`
		Won        bool    `json:"won"`
		SolvedWord string  `json:"solvedWord"`
	}
	decode(t, rec, &guessRes)
	assert.True(t, guessRes.Won)
	assert.Equal(t, reveal.Word, guessRes.SolvedWord)
	assert.Equal(t, run.StateAwaitingPowerup, guessRes.State.State)
	assert.Equal(t, 2, guessRes.State.Level)
	require.Len(t, guessRes.State.Pending.Powerups, run.PowerupOfferSize)

	// Resolve the offer through the pending view.
	pick := guessRes.State.Pending.Powerups[0]
	rec = do(t, s, http.MethodPost, "/run/"+view.RunID+"/choose_powerup",
		map[string]any{"powerupId": pick.InstanceID})
	require.Equal(t, http.StatusOK, rec.Code)
	var chooseRes struct {
		State runView `json:"state"`
	}
	decode(t, rec, &chooseRes)
	assert.Equal(t, run.StatePlaying, chooseRes.State.State)
	require.Len(t, chooseRes.State.Inventory, 1)
	assert.Equal(t, pick.InstanceID, chooseRes.State.Inventory[0].InstanceID)
}

func TestGuess_BadRequests(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/run/missing/guess", map[string]any{"guess": "CRANE"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var e struct {
		Error string `json:"error"`
	}
	decode(t, rec, &e)
	assert.Equal(t, "run_not_found", e.Error)

	var view runView
	rec = do(t, s, http.MethodPost, "/run/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)

	rec = do(t, s, http.MethodPost, "/run/"+view.RunID+"/guess", map[string]any{"guess": "xy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &e)
	assert.Equal(t, "validation", e.Error)
}

func TestStart_UnknownTheme(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/run/start", map[string]any{"themeId": "vaporwave"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSkipEndpoint(t *testing.T) {
	s := newTestServer(t)
	var view runView
	rec := do(t, s, http.MethodPost, "/run/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)

	rec = do(t, s, http.MethodPost, "/run/"+view.RunID+"/skip", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		State   runView `json:"state"`
		Skipped bool    `json:"skipped"`
		Message string  `json:"message"`
	}
	decode(t, rec, &res)
	assert.True(t, res.Skipped)
	assert.Equal(t, 2, res.State.Level)

	rec = do(t, s, http.MethodPost, "/run/"+view.RunID+"/skip", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &res)
	assert.False(t, res.Skipped)
	assert.NotEmpty(t, res.Message)
}

func TestFailEndpoint(t *testing.T) {
	s := newTestServer(t)
	var view runView
	rec := do(t, s, http.MethodPost, "/run/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)

	rec = do(t, s, http.MethodPost, "/run/"+view.RunID+"/fail", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		State runView `json:"state"`
		Saved bool    `json:"saved"`
	}
	decode(t, rec, &res)
	assert.False(t, res.Saved)
	assert.Equal(t, run.StateLost, res.State.State)

	// A second timeout on a lost run is an invalid state.
	rec = do(t, s, http.MethodPost, "/run/"+view.RunID+"/fail", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestNotFoundIsJSON(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"not_found"`)
}

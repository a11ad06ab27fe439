package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"globetrotter/internal/app"
	"globetrotter/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// API exposes the game as JSON over HTTP.
type API struct {
	service   *app.GameService
	logger    *zap.Logger
	shareBase string
}

func NewAPI(service *app.GameService, logger *zap.Logger, shareBase string) *API {
	return &API{service: service, logger: logger, shareBase: shareBase}
}

// Routes mounts the API under the returned router; callers mount it at /api.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/profiles", func(r chi.Router) {
		r.Post("/", a.register)
		r.Delete("/", a.reset)
		r.Get("/{username}", a.profile)
		r.Get("/{username}/challenge", a.challenge)
	})
	r.Get("/leaderboard", a.leaderboard)
	r.Post("/rounds", a.newRound)
	r.Post("/rounds/{id}/answer", a.answer)
	r.Get("/challenge", a.parseChallenge)
	return r
}

type registerRequest struct {
	Username string `json:"username"`
}

type roundRequest struct {
	Username string `json:"username"`
}

type answerRequest struct {
	Username string `json:"username"`
	Option   string `json:"option"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !a.decode(w, r, &req) {
		return
	}
	profile, created, err := a.service.Register(r.Context(), req.Username)
	if err != nil {
		a.writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, profileView{Profile: profile, Created: created})
}

func (a *API) profile(w http.ResponseWriter, r *http.Request) {
	profile, err := a.service.Profile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) challenge(w http.ResponseWriter, r *http.Request) {
	invite, err := a.service.Challenge(r.Context(), chi.URLParam(r, "username"), a.shareBase)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invite)
}

func (a *API) reset(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Reset(r.Context()); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorPayload{Message: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	lb, err := a.service.Leaderboard(r.Context(), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (a *API) newRound(w http.ResponseWriter, r *http.Request) {
	var req roundRequest
	if !a.decode(w, r, &req) {
		return
	}
	round, err := a.service.NewRound(r.Context(), req.Username)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newQuestionView(round))
}

func (a *API) answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !a.decode(w, r, &req) {
		return
	}
	result, err := a.service.Submit(r.Context(), chi.URLParam(r, "id"), req.Username, req.Option)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) parseChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, ok := app.ParseChallenge(r.URL.Query())
	if !ok {
		writeJSON(w, http.StatusNotFound, errorPayload{Message: "no challenge in link"})
		return
	}
	writeJSON(w, http.StatusOK, challenge)
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid request body"})
		return false
	}
	return true
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusServiceUnavailable {
		msg = roundErrorText(err)
	}
	if status >= http.StatusInternalServerError {
		a.logger.Warn("request failed", zap.Int("status", status), zap.Error(err))
		if status == http.StatusInternalServerError {
			msg = strings.ToLower(http.StatusText(status))
		}
	}
	writeJSON(w, status, errorPayload{Message: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUsernameRequired),
		errors.Is(err, domain.ErrSelectionRequired),
		errors.Is(err, domain.ErrOptionNotOffered):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRoundOwner),
		errors.Is(err, domain.ErrResetDisabled):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrRoundNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRoundAnswered),
		errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDestinationsUnavailable),
		errors.Is(err, domain.ErrEmptyPool):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

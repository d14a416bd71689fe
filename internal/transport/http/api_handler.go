package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/sebspolo/scrobble-guessr/internal/app"
	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

// APIHandler serves the leaderboard as plain JSON.
type APIHandler struct {
	leaderboards *app.LeaderboardService
}

func NewAPIHandler(leaderboards *app.LeaderboardService) *APIHandler {
	return &APIHandler{leaderboards: leaderboards}
}

// Register mounts the API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/leaderboard", h.ServeLeaderboard)
	mux.HandleFunc("/api/friends", h.ServeFriends)
}

// ServeLeaderboard handles
// GET /api/leaderboard?owner=&kind=&artist=&album=&track=&window=&from=&to=
func (h *APIHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	q := r.URL.Query()
	window, err := domain.ResolveWindow(q.Get("window"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	kind := domain.CategoryKind(strings.ToLower(strings.TrimSpace(q.Get("kind"))))
	if kind == "" {
		kind = domain.KindArtist
	}
	target := domain.Target{
		Kind:   kind,
		Artist: q.Get("artist"),
		Album:  q.Get("album"),
		Track:  q.Get("track"),
	}

	lb, err := h.leaderboards.Build(context.WithoutCancel(r.Context()), q.Get("owner"), target, window)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// ServeFriends handles GET /api/friends?user=
func (h *APIHandler) ServeFriends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	crowd, err := h.leaderboards.Crowd(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, crowd)
}

func statusFor(err error) int {
	var remote *domain.RemoteError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict
	case errors.As(err, &remote):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

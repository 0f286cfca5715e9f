package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/auth"
	"github.com/YongminGwon/omok-server/internal/model"
)

// MatchService is the part of service.MatchService the handler calls.
type MatchService interface {
	RecordMatch(ctx context.Context, winnerID, loserID int64) (*model.Match, error)
	GetHistory(ctx context.Context, requesterID, targetUserID int64) ([]model.Match, error)
}

// MatchHandler serves match recording and history.
type MatchHandler struct {
	matches MatchService
	logger  *slog.Logger
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(matches MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{matches: matches, logger: logger}
}

// HandleRecord stores a finished game.
//
// HTTP: POST /api/matches
// REQUEST BODY: {"winnerId": 1, "loserId": 2}
// Auth: Required. The caller must be one of the two players, so nobody can
// record results for games they did not play.
func (h *MatchHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.TokenInvalid(nil))
		return
	}

	var req model.RecordMatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if id.UserID != req.WinnerID && id.UserID != req.LoserID {
		writeError(w, apperror.Forbidden("you may only record matches you played in"))
		return
	}

	m, err := h.matches.RecordMatch(r.Context(), req.WinnerID, req.LoserID)
	if err != nil {
		if !isDomainError(err) {
			h.logger.Error("record match failed", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// HandleHistory lists a user's matches, newest first.
//
// HTTP: GET /api/users/{id}/matches
// Auth: Required. Only the user themself may read it (403 otherwise).
func (h *MatchHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.TokenInvalid(nil))
		return
	}

	// chi.URLParam extracts {id} from the matched route pattern.
	target, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || target <= 0 {
		writeError(w, apperror.ValidationFailed("id", "user id must be a positive integer"))
		return
	}

	matches, err := h.matches.GetHistory(r.Context(), id.UserID, target)
	if err != nil {
		if !isDomainError(err) {
			h.logger.Error("get history failed", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, matches)
}

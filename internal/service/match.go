// Match history business logic.
//
// MatchService records finished games and serves each player's history.
// Reads go through a HistoryPolicy before the store is touched.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/metrics"
	"github.com/YongminGwon/omok-server/internal/model"
	"github.com/YongminGwon/omok-server/internal/repository"
)

// MatchService handles match recording and history access.
type MatchService struct {
	matches repository.MatchRepository
	policy  HistoryPolicy
	opts    options
	logger  *slog.Logger
}

// NewMatchService creates a MatchService. A nil policy means SelfOnly.
func NewMatchService(matches repository.MatchRepository, policy HistoryPolicy, logger *slog.Logger, opts ...Option) *MatchService {
	if policy == nil {
		policy = SelfOnly{}
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MatchService{
		matches: matches,
		policy:  policy,
		opts:    o,
		logger:  logger,
	}
}

// RecordMatch stores the result of one finished game.
//
// Self-matches and non-positive ids are rejected before the store is
// called. A participant that does not exist is rejected by the store.
// Recording is not idempotent, so it is attempted exactly once.
func (s *MatchService) RecordMatch(ctx context.Context, winnerID, loserID int64) (*model.Match, error) {
	if winnerID <= 0 || loserID <= 0 {
		metrics.RecordMatch(metrics.OutcomeInvalid)
		return nil, apperror.InvalidMatch("winner and loser must be valid user ids")
	}
	if winnerID == loserID {
		metrics.RecordMatch(metrics.OutcomeInvalid)
		return nil, apperror.InvalidMatch("winner and loser must be different players")
	}

	m, err := s.matches.InsertMatch(ctx, winnerID, loserID)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidMatch) {
			metrics.RecordMatch(metrics.OutcomeInvalid)
			return nil, err
		}
		metrics.RecordMatch(metrics.OutcomeError)
		return nil, fmt.Errorf("service/match: recording match %d vs %d: %w", winnerID, loserID, err)
	}

	metrics.RecordMatch(metrics.OutcomeSuccess)
	s.logger.Info("match recorded",
		slog.Int64("matchID", m.ID),
		slog.Int64("winnerID", m.WinnerID),
		slog.Int64("loserID", m.LoserID),
	)
	return m, nil
}

// GetHistory returns targetUserID's matches, newest first, if requesterID
// is allowed to see them.
//
// Denied → (nil, apperror.ErrForbidden). Permitted → a non-nil slice,
// empty when the user has not played.
func (s *MatchService) GetHistory(ctx context.Context, requesterID, targetUserID int64) ([]model.Match, error) {
	if !s.policy.CanViewHistory(ctx, requesterID, targetUserID) {
		metrics.RecordHistoryRead(metrics.OutcomeDenied)
		s.logger.Warn("match history access denied",
			slog.Int64("requesterID", requesterID),
			slog.Int64("targetUserID", targetUserID),
		)
		return nil, apperror.Forbidden("you may only view your own match history")
	}

	matches, err := withReadRetry(ctx, s.opts.retry, func(ctx context.Context) ([]model.Match, error) {
		return s.matches.FindByUser(ctx, targetUserID)
	})
	if err != nil {
		metrics.RecordHistoryRead(metrics.OutcomeError)
		return nil, fmt.Errorf("service/match: listing matches for user %d: %w", targetUserID, err)
	}
	if matches == nil {
		matches = []model.Match{}
	}

	metrics.RecordHistoryRead(metrics.OutcomeSuccess)
	return matches, nil
}

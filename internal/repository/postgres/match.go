package postgres

import (
	"context"

	"github.com/samber/oops"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/model"
)

// InsertMatch lets the database assign id and played_at.
func (s *Store) InsertMatch(ctx context.Context, winnerID, loserID int64) (*model.Match, error) {
	m := &model.Match{WinnerID: winnerID, LoserID: loserID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO matches (winner_id, loser_id) VALUES ($1, $2) RETURNING id, played_at`,
		winnerID, loserID,
	).Scan(&m.ID, &m.PlayedAt)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return nil, oops.Code("MATCH_INVALID").
				With("winner_id", winnerID).
				With("loser_id", loserID).
				Wrap(apperror.InvalidMatch("match participant does not exist"))
		case isCheckViolation(err):
			return nil, oops.Code("MATCH_INVALID").
				With("winner_id", winnerID).
				Wrap(apperror.InvalidMatch("winner and loser must be different players"))
		}
		return nil, unavailable("insert match", err)
	}
	m.PlayedAt = m.PlayedAt.UTC()
	return m, nil
}

// FindByUser returns the user's matches newest first, id breaking ties.
func (s *Store) FindByUser(ctx context.Context, userID int64) ([]model.Match, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, winner_id, loser_id, played_at
		FROM matches
		WHERE winner_id = $1 OR loser_id = $1
		ORDER BY played_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, unavailable("list matches", err)
	}
	defer rows.Close()

	matches := make([]model.Match, 0)
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.WinnerID, &m.LoserID, &m.PlayedAt); err != nil {
			return nil, unavailable("scan match", err)
		}
		m.PlayedAt = m.PlayedAt.UTC()
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list matches", err)
	}
	return matches, nil
}

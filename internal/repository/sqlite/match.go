package sqlite

import (
	"context"
	"time"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/model"
	"github.com/YongminGwon/omok-server/internal/repository"
)

var _ repository.MatchRepository = (*DB)(nil)

// InsertMatch records a finished game. PlayedAt is taken from the store's
// clock. A participant that does not exist fails the foreign key and is
// reported as apperror.ErrInvalidMatch, as is winner == loser.
func (db *DB) InsertMatch(ctx context.Context, winnerID, loserID int64) (*model.Match, error) {
	m := &model.Match{
		WinnerID: winnerID,
		LoserID:  loserID,
		PlayedAt: db.now(),
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO matches (winner_id, loser_id, played_at) VALUES (?, ?, ?)`,
		m.WinnerID, m.LoserID, m.PlayedAt.UnixMilli(),
	)
	if err != nil {
		switch classify(err) {
		case constraintForeignKey:
			return nil, apperror.InvalidMatch("match participant does not exist")
		case constraintCheck:
			return nil, apperror.InvalidMatch("winner and loser must be different players")
		}
		return nil, storeError("insert match", err)
	}

	m.ID, err = res.LastInsertId()
	if err != nil {
		return nil, storeError("insert match", err)
	}
	return m, nil
}

// FindByUser returns all matches userID played, newest first.
//
// ROWS ITERATION PATTERN:
//  1. QueryContext → *sql.Rows
//  2. defer rows.Close()   ← ALWAYS, or the connection leaks
//  3. for rows.Next() { rows.Scan(...) }
//  4. rows.Err()           ← errors that ended the loop early
func (db *DB) FindByUser(ctx context.Context, userID int64) ([]model.Match, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, winner_id, loser_id, played_at
		 FROM matches
		 WHERE winner_id = ? OR loser_id = ?
		 ORDER BY played_at DESC, id DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, storeError("list matches", err)
	}
	defer rows.Close()

	// non-nil so an empty history encodes as [] rather than null
	matches := make([]model.Match, 0)
	for rows.Next() {
		var (
			m        model.Match
			playedAt int64
		)
		if err := rows.Scan(&m.ID, &m.WinnerID, &m.LoserID, &playedAt); err != nil {
			return nil, storeError("scan match", err)
		}
		m.PlayedAt = time.UnixMilli(playedAt).UTC()
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list matches", err)
	}

	return matches, nil
}

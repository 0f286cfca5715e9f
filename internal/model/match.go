package model

import "time"

// Match is the immutable record of one completed game.
//
// The store assigns ID and PlayedAt on insert. A match always has two
// distinct participants, and both must reference existing users.
type Match struct {
	ID       int64     `json:"id"       db:"id"`
	WinnerID int64     `json:"winnerId" db:"winner_id"`
	LoserID  int64     `json:"loserId"  db:"loser_id"`
	PlayedAt time.Time `json:"playedAt" db:"played_at"`
}

// Involves reports whether userID took part in the match.
func (m *Match) Involves(userID int64) bool {
	return m.WinnerID == userID || m.LoserID == userID
}

// RecordMatchRequest is the JSON body of POST /api/matches.
type RecordMatchRequest struct {
	WinnerID int64 `json:"winnerId"`
	LoserID  int64 `json:"loserId"`
}

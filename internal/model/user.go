// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered player account.
//
// ID is assigned by the store on insert and never changes. Username is
// unique and compared case-sensitively: "Bob" and "bob" are two accounts.
//
// PasswordHash is tagged json:"-" so a User can be handed to writeJSON
// without leaking the hash. Handlers still prefer the narrower UserView.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// UserView is the public projection of a User returned by the API.
type UserView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// View returns the public projection of u.
func (u *User) View() UserView {
	return UserView{ID: u.ID, Username: u.Username}
}

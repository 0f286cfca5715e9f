package model

// Credentials is the transient username/password pair submitted to
// register and login. It is never persisted and never logged.
//
// The validate tags are checked by the auth service before any store
// access. Whitespace-only values are rejected separately since "required"
// only rejects the empty string.
type Credentials struct {
	Username string `json:"username" validate:"required,max=32"`
	Password string `json:"password" validate:"required,max=72"`
}

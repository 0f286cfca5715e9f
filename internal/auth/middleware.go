package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. Using a package-private type
// prevents collisions: only THIS package can create a key of type contextKey,
// so only this package can read or write the Identity in the context.
type contextKey string

const identityKey contextKey = "identity"

// TokenValidator is the part of TokenService the middleware needs.
type TokenValidator interface {
	Validate(token string) (Identity, error)
}

// ValidatorFunc adapts a function to TokenValidator, the way
// http.HandlerFunc adapts a function to http.Handler.
type ValidatorFunc func(token string) (Identity, error)

func (f ValidatorFunc) Validate(token string) (Identity, error) {
	return f(token)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the token from the Authorization header (falling back to the
// "token" cookie), validates it, and stores the Identity in the request
// context. If the token is missing or invalid, it returns 401 Unauthorized
// and stops the request chain. The 401 body is the same for every reason.
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	    })
//	}
func RequireAuth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identify(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="omok"`)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id. Handlers tests use it to
// skip the middleware.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated caller.
//
// Returns (Identity{}, false) if the request did not pass RequireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID > 0
}

// BearerToken extracts the raw token from a request: the Authorization
// header first, then the "token" cookie. Returns "" when neither is present.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

func identify(r *http.Request, tokens TokenValidator) (Identity, error) {
	return tokens.Validate(BearerToken(r))
}

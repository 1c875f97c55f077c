// Package session resolves the authenticated user of a request.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"finwise/internal/ports"
)

// ErrUnauthenticated is returned when a request carries no valid token.
var ErrUnauthenticated = errors.New("unauthenticated")

// Session identifies the caller of one request.
type Session struct {
	UserID string
	Token  string
}

type contextKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session, or ErrUnauthenticated.
func FromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(contextKey{}).(Session)
	if !ok || s.UserID == "" {
		return Session{}, ErrUnauthenticated
	}
	return s, nil
}

// TokenFromHeader extracts the key from "Token <key>" or "Bearer <key>".
func TokenFromHeader(h string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
	default:
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Resolve looks up the session for an Authorization header value.
func Resolve(ctx context.Context, tokens ports.TokenStore, header string) (Session, error) {
	token, ok := TokenFromHeader(header)
	if !ok {
		return Session{}, ErrUnauthenticated
	}
	userID, err := tokens.UserForToken(ctx, token)
	if errors.Is(err, ports.ErrNotFound) {
		return Session{}, ErrUnauthenticated
	}
	if err != nil {
		return Session{}, fmt.Errorf("resolve token: %w", err)
	}
	return Session{UserID: userID, Token: token}, nil
}

// Middleware attaches the session to the request context. onError writes
// the response for requests that cannot be authenticated.
func Middleware(tokens ports.TokenStore, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := Resolve(r.Context(), tokens, r.Header.Get("Authorization"))
			if err != nil {
				if onError != nil {
					onError(w, r, err)
				} else {
					http.Error(w, err.Error(), http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
		})
	}
}

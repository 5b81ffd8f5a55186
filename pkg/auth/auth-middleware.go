package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey struct{}

var userKey contextKey

type sessionVerifier interface {
	GetSessionUser(token string) (User, error)
}

// Auth ensures that requests carry a bearer token matching an active session, storing the
// resolved principal in the request's context for handlers down the chain.
func Auth(sv sessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {

			token, err := parseBearer(request)
			if err != nil {
				reportUnauthorised(w)
				return
			}

			user, err := sv.GetSessionUser(token)
			if err != nil {
				reportUnauthorised(w)
				return
			}

			next.ServeHTTP(w, request.WithContext(context.WithValue(request.Context(), userKey, user)))
		})
	}
}

// Allow resolves the principal when a valid bearer token is present, but doesn't reject
// anonymous requests; suited to routes whose responses merely gain detail for signed in users.
func Allow(sv sessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {

			if token, err := parseBearer(request); err == nil {
				if user, err := sv.GetSessionUser(token); err == nil {
					request = request.WithContext(context.WithValue(request.Context(), userKey, user))
				}
			}

			next.ServeHTTP(w, request)
		})
	}
}

// parseBearer extracts the session token from the authorization header.
func parseBearer(request *http.Request) (string, error) {
	var header = request.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		var token = header[7:]
		if len(token) == 36 {
			return token, nil
		}
	}
	return "", errors.New("bad authorization header")
}

// GetUser returns the authenticated principal, when one was resolved by the middleware.
func GetUser(request *http.Request) (User, bool) {
	user, ok := request.Context().Value(userKey).(User)
	return user, ok
}

// MustGetUser returns the authenticated principal and panics when absent, which signals a
// route mistakenly registered without the Auth middleware.
func MustGetUser(request *http.Request) User {
	user, ok := GetUser(request)
	if !ok {
		panic("missing authenticated user; is the route using the auth middleware?")
	}
	return user
}

func reportUnauthorised(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
}

package auth

import (
	"errors"
	"net/http"

	JSON "github.com/hazemadel/vitrine/pkg/json-utilities"
	"github.com/hazemadel/vitrine/pkg/rest"
)

func RegisterHandlers(engine rest.Engine, ar SessionRepository) {
	engine.Post("/sessions", signIn(ar))
	engine.Delete("/sessions", signOut(ar), Auth(ar))
}

// signIn handles the POST "/sessions" route.
func signIn(ar SessionRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		data, err := JSON.DecodeValidate[SignInData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		token, user, err := ar.SignIn(data)
		switch {
		case err == nil:
			JSON.Created(writer, struct {
				Token string
				User  User
			}{token, user})
		case errors.Is(err, ErrBadCredentials):
			JSON.Unauthorised(writer)
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// signOut handles the DELETE "/sessions" route, tearing down the presented session.
func signOut(ar SessionRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		// the middleware already vetted the header's shape
		token, err := parseBearer(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		if err = ar.SignOut(token); err != nil && !errors.Is(err, ErrNoSession) {
			JSON.InternalServerError(writer, err)
			return
		}

		JSON.NoContent(writer)
	}
}

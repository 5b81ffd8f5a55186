package users

import (
	"errors"
	"net/http"

	"github.com/hazemadel/vitrine/pkg/auth"
	JSON "github.com/hazemadel/vitrine/pkg/json-utilities"
	"github.com/hazemadel/vitrine/pkg/rest"
)

func RegisterHandlers(engine rest.Engine, ur UserRepository, ar auth.SessionRepository) {
	engine.Post("/users", signUp(ur))

	engine.Get("/profile", getProfile(ur), auth.Auth(ar))
	engine.Put("/profile", updateProfile(ur), auth.Auth(ar))
}

// signUp handles the POST "/users" route, restricted to institutional email addresses.
func signUp(ur UserRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		data, err := JSON.DecodeValidate[SignUpData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		newUser, err := ur.Register(data)
		if errors.Is(err, ErrEmailTaken) {
			JSON.BadRequestWithMessage(writer, "An account with this email already exists")
			return
		}
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}

		JSON.Created(writer, newUser)
	}
}

// getProfile handles the GET "/profile" route; users lacking a saved profile receive an
// empty one rather than an error.
func getProfile(ur UserRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)

		profile, err := ur.GetProfile(user.Id)
		switch {
		case err == nil:
			JSON.Ok(writer, profile)
		case errors.Is(err, ErrNoProfile):
			JSON.Ok(writer, Profile{UserId: user.Id})
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// updateProfile handles the PUT "/profile" route, creating the profile on its first save.
func updateProfile(ur UserRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)

		data, err := JSON.DecodeValidate[ProfileData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		if err = ur.UpsertProfile(user.Id, data); err != nil {
			JSON.InternalServerError(writer, err)
			return
		}

		JSON.NoContent(writer)
	}
}

package engagement

import (
	"errors"
	"net/http"

	"github.com/hazemadel/vitrine/pkg/auth"
	JSON "github.com/hazemadel/vitrine/pkg/json-utilities"
	"github.com/hazemadel/vitrine/pkg/rest"
)

func RegisterHandlers(engine rest.Engine, es Storer, ar auth.SessionRepository) {
	engine.Get("/projects/:id/engagement", getAggregate(es), auth.Allow(ar))
	engine.Get("/projects/:id/reviews", getReviews(es))

	engine.Put("/projects/:id/rating", setRating(es), auth.Auth(ar))
	engine.Post("/projects/:id/like", toggleLike(es), auth.Auth(ar))
	engine.Delete("/projects/:id/like", removeLike(es), auth.Auth(ar))
	engine.Put("/projects/:id/review", upsertReview(es), auth.Auth(ar))
	engine.Delete("/projects/:id/review", removeReview(es), auth.Auth(ar))
}

// getAggregate handles the GET "/projects/:id/engagement" route. Signed in callers also
// receive their own rating, like and review, resolved through the optional auth middleware.
func getAggregate(es Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var userId string
		if user, ok := auth.GetUser(request); ok {
			userId = user.Id
		}

		aggregate, err := es.GetAggregate(rest.GetParam(request, "id"), userId)
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Ok(writer, aggregate)
	}
}

// getReviews handles the GET "/projects/:id/reviews" route.
func getReviews(es Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		reviews, err := es.GetReviews(rest.GetParam(request, "id"))
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Ok(writer, reviews)
	}
}

// setRating handles the PUT "/projects/:id/rating" route; resubmissions replace the
// previous value thanks to upsert semantics on the (project, user) pair.
func setRating(es Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		data, err := JSON.DecodeValidate[RatingData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		var user = auth.MustGetUser(request)
		switch err = es.SetRating(rest.GetParam(request, "id"), user.Id, data.Rating); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrSelfInteraction):
			JSON.BadRequestWithMessage(writer, "You cannot rate your own project")
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "Project not found")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// toggleLike handles the POST "/projects/:id/like" route, reporting the resulting state.
func toggleLike(es Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)
		liked, err := es.ToggleLike(rest.GetParam(request, "id"), user.Id)
		switch {
		case err == nil:
			JSON.Ok(writer, struct{ Liked bool }{liked})
		case errors.Is(err, ErrSelfInteraction):
			JSON.BadRequestWithMessage(writer, "You cannot like your own project")
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "Project not found")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// removeLike handles the DELETE "/projects/:id/like" route; a missing like is no failure.
func removeLike(es Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)
		if err := es.RemoveLike(rest.GetParam(request, "id"), user.Id); err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.NoContent(writer)
	}
}

// upsertReview handles the PUT "/projects/:id/review" route.
func upsertReview(es Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		data, err := JSON.DecodeValidate[ReviewData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		var user = auth.MustGetUser(request)
		review, err := es.UpsertReview(rest.GetParam(request, "id"), user.Id, data.Comment)
		switch {
		case err == nil:
			JSON.Ok(writer, review)
		case errors.Is(err, ErrSelfInteraction):
			JSON.BadRequestWithMessage(writer, "You cannot review your own project")
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "Project not found")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// removeReview handles the DELETE "/projects/:id/review" route.
func removeReview(es Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)
		if err := es.RemoveReview(rest.GetParam(request, "id"), user.Id); err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.NoContent(writer)
	}
}

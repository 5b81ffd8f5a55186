package collaborations

import (
	"errors"
	"net/http"

	"github.com/hazemadel/vitrine/pkg/auth"
	JSON "github.com/hazemadel/vitrine/pkg/json-utilities"
	"github.com/hazemadel/vitrine/pkg/rest"
)

func RegisterHandlers(engine rest.Engine, cs Storer, ar auth.SessionRepository) {
	engine.Get("/projects/:id/collaborators", getCollaborators(cs))
	engine.Delete("/projects/:id/collaborators/:userId", removeCollaborator(cs), auth.Auth(ar))

	engine.Post("/projects/:id/invites", addInvite(cs), auth.Auth(ar))
	engine.Get("/projects/:id/invites", getProjectInvites(cs), auth.Auth(ar))

	engine.Get("/invites", getOwnInvites(cs), auth.Auth(ar))
	engine.Post("/invites/:id/accept", acceptInvite(cs), auth.Auth(ar))
	engine.Post("/invites/:id/decline", declineInvite(cs), auth.Auth(ar))
	engine.Delete("/invites/:id", cancelInvite(cs), auth.Auth(ar))
}

// getCollaborators handles the GET "/projects/:id/collaborators" route.
func getCollaborators(cs Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		collaborators, err := cs.GetCollaborators(rest.GetParam(request, "id"))
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Ok(writer, collaborators)
	}
}

// addInvite handles the POST "/projects/:id/invites" route, restricted to project owners.
func addInvite(cs Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)
		var projectId = rest.GetParam(request, "id")

		if !cs.IsProjectOwner(projectId, user.Id) {
			JSON.Forbidden(writer)
			return
		}

		data, err := JSON.DecodeValidate[InviteData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		invite, err := cs.AddInvite(projectId, user.Id, data.InviteeEmail)
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Created(writer, invite)
	}
}

// getProjectInvites handles the GET "/projects/:id/invites" route, restricted to owners.
func getProjectInvites(cs Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)
		var projectId = rest.GetParam(request, "id")

		if !cs.IsProjectOwner(projectId, user.Id) {
			JSON.Forbidden(writer)
			return
		}

		invites, err := cs.GetProjectInvites(projectId)
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Ok(writer, invites)
	}
}

// getOwnInvites handles the GET "/invites" route, matching the caller's email against
// pending invites.
func getOwnInvites(cs Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		invites, err := cs.GetUserInvites(auth.MustGetUser(request).Email)
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Ok(writer, invites)
	}
}

// acceptInvite handles the POST "/invites/:id/accept" route; the status update and the
// collaborator row come into being atomically, or not at all.
func acceptInvite(cs Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)
		switch err := cs.AcceptInvite(rest.GetParam(request, "id"), user.Email, user.Id); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "Invite not found")
		case errors.Is(err, ErrNotPending):
			JSON.BadRequestWithMessage(writer, "The invite is no longer pending")
		case errors.Is(err, ErrAlreadyCollaborating):
			JSON.BadRequestWithMessage(writer, "You already collaborate on this project")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// declineInvite handles the POST "/invites/:id/decline" route.
func declineInvite(cs Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)
		switch err := cs.DeclineInvite(rest.GetParam(request, "id"), user.Email); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "Invite not found")
		case errors.Is(err, ErrNotPending):
			JSON.BadRequestWithMessage(writer, "The invite is no longer pending")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// cancelInvite handles the DELETE "/invites/:id" route, the owner's withdrawal of a
// pending invite.
func cancelInvite(cs Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)
		switch err := cs.CancelInvite(rest.GetParam(request, "id"), user.Id); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotPending):
			JSON.BadRequestWithMessage(writer, "The invite is no longer pending")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// removeCollaborator handles the DELETE "/projects/:id/collaborators/:userId" route.
func removeCollaborator(cs Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)
		var projectId = rest.GetParam(request, "id")
		var targetId = rest.GetParam(request, "userId")

		switch err := cs.RemoveCollaborator(projectId, targetId, user.Id); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "Collaborator not found")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

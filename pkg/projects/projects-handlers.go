package projects

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/hazemadel/vitrine/pkg/auth"
	JSON "github.com/hazemadel/vitrine/pkg/json-utilities"
	"github.com/hazemadel/vitrine/pkg/rest"
	"github.com/hazemadel/vitrine/pkg/storage/assets"
)

// multipart forms are parsed with a memory ceiling; larger files spill to temporary storage
const maxFormMemory = 16 << 20

func RegisterHandlers(engine rest.Engine, ps Storer, store *assets.Storage, ar auth.SessionRepository) {
	engine.Get("/projects", listProjects(ps))
	engine.Get("/projects/:id", getProject(ps))
	engine.Post("/projects", addProject(ps, store), auth.Auth(ar))
	engine.Put("/projects/:id", updateProject(ps), auth.Auth(ar))
	engine.Post("/projects/:id/image", setProjectImage(ps, store), auth.Auth(ar))
	engine.Delete("/projects/:id", deleteProject(ps, store), auth.Auth(ar))

	engine.Get("/profile/projects", getOwnProjects(ps), auth.Auth(ar))
}

// listProjects handles the GET "/projects" route, serving the filtered and sorted catalogue.
func listProjects(ps Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		filter, err := ParseFilter(request.URL.Query())
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		summaries, err := ps.ListProjects(filter)
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Ok(writer, summaries)
	}
}

// getProject handles the GET "/projects/:id" route.
func getProject(ps Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		project, err := ps.GetProject(rest.GetParam(request, "id"))
		switch {
		case err == nil:
			JSON.Ok(writer, project)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "Project not found")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// getOwnProjects handles the GET "/profile/projects" route, listing the principal's work.
func getOwnProjects(ps Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		summaries, err := ps.GetUserProjects(auth.MustGetUser(request).Id)
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Ok(writer, summaries)
	}
}

// addProject handles the multipart POST "/projects" route. All field and file validations
// run before a single byte reaches storage, so rejected submissions leave nothing behind.
func addProject(ps Storer, store *assets.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)

		if err := request.ParseMultipartForm(maxFormMemory); err != nil {
			JSON.BadRequestWithMessage(writer, "Expected a multipart form")
			return
		}

		data, err := parseSubmission(request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}
		data.AuthorId = user.Id
		data.CreatorName = user.Name

		// vet the primary image and every additional file before any write
		images := request.MultipartForm.File["image"]
		if len(images) != 1 {
			JSON.BadRequestWithMessage(writer, "Exactly one primary image is required")
			return
		}
		imageExtension, err := ValidateImageUpload(images[0])
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		var documents = request.MultipartForm.File["files"]
		var documentExtensions = make([]string, 0, len(documents))
		for _, document := range documents {
			extension, err := ValidateDocumentUpload(document)
			if err != nil {
				JSON.ValidationError(writer, err)
				return
			}
			documentExtensions = append(documentExtensions, extension)
		}

		// store the primary image, then each document; a failure midway triggers
		// compensating deletes so no orphaned object outlives the submission
		var saved = make([]string, 0, len(documents)+1)

		imageURL, err := saveUpload(store, assets.ImagesBucket, user.Id, imageExtension, images[0])
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		saved = append(saved, imageURL)

		for position, document := range documents {
			url, err := saveUpload(store, assets.FilesBucket, user.Id, documentExtensions[position], document)
			if err != nil {
				store.RemoveAll(saved)
				JSON.InternalServerError(writer, err)
				return
			}
			saved = append(saved, url)
		}

		data.FileURL = imageURL
		data.FilesURLs = saved

		project, err := ps.AddProject(data)
		if err != nil {
			store.RemoveAll(saved)
			JSON.InternalServerError(writer, err)
			return
		}

		JSON.Created(writer, project)
	}
}

// updateProject handles the PUT "/projects/:id" route, editing metadata only.
func updateProject(ps Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)

		data, err := JSON.DecodeValidate[UpdateProjectData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		// issues a not found response regardless of authorisation issues, denying
		// information about existing resources
		switch err = ps.UpdateProject(rest.GetParam(request, "id"), user.Id, data); {
		case err == nil:
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "Project not found")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// setProjectImage handles the multipart POST "/projects/:id/image" route, replacing the
// primary asset and reclaiming the previous object's storage.
func setProjectImage(ps Storer, store *assets.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)
		var projectId = rest.GetParam(request, "id")

		if err := request.ParseMultipartForm(maxFormMemory); err != nil {
			JSON.BadRequestWithMessage(writer, "Expected a multipart form")
			return
		}

		images := request.MultipartForm.File["image"]
		if len(images) != 1 {
			JSON.BadRequestWithMessage(writer, "Exactly one image is required")
			return
		}
		extension, err := ValidateImageUpload(images[0])
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		url, err := saveUpload(store, assets.ImagesBucket, user.Id, extension, images[0])
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}

		previous, err := ps.SetProjectImage(projectId, user.Id, url)
		switch {
		case err == nil:
			if previous != "" && previous != url {
				store.RemoveAll([]string{previous})
			}
			JSON.Ok(writer, struct{ FileURL string }{url})
		case errors.Is(err, ErrNotFound):
			// the record was never updated, reclaim the freshly stored image
			store.RemoveAll([]string{url})
			JSON.NotFound(writer, "Project not found")
		default:
			store.RemoveAll([]string{url})
			JSON.InternalServerError(writer, err)
		}
	}
}

// deleteProject handles the DELETE "/projects/:id" route.
func deleteProject(ps Storer, store *assets.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		var user = auth.MustGetUser(request)

		storedAssets, err := ps.DeleteProject(rest.GetParam(request, "id"), user.Id)
		switch {
		case err == nil:
			// asset removal is best-effort; the rows are already gone
			store.RemoveAll(storedAssets)
			JSON.NoContent(writer)
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "Project not found")
		default:
			JSON.InternalServerError(writer, err)
		}
	}
}

// parseSubmission collects and validates the text fields of a multipart submission.
func parseSubmission(request *http.Request) (data AddProjectData, err error) {
	data.Title = request.FormValue("title")
	data.Description = request.FormValue("description")
	data.Department = request.FormValue("department")
	data.VideoURL = request.FormValue("video_url")
	data.GithubURL = request.FormValue("github_url")

	if raw := request.FormValue("level"); raw != "" {
		if data.Level, err = strconv.Atoi(raw); err != nil {
			return data, fmt.Errorf("invalid level %q", raw)
		}
	}

	return data, data.Validate()
}

func saveUpload(store *assets.Storage, bucket, ownerId, extension string, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	return store.Save(bucket, ownerId, extension, file)
}

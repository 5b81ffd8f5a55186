package admin

import (
	"net/http"
	"strings"

	"github.com/hazemadel/vitrine/pkg/auth"
	JSON "github.com/hazemadel/vitrine/pkg/json-utilities"
	"github.com/hazemadel/vitrine/pkg/projects"
	"github.com/hazemadel/vitrine/pkg/rest"
)

// catalogue is the slice of the projects store the dashboard consumes.
type catalogue interface {
	GetAllSummaries() ([]projects.ProjectSummary, error)
}

func RegisterHandlers(engine rest.Engine, as Storer, ps catalogue, ar auth.SessionRepository, adminEmail string) {
	var gated = Gate(adminEmail)
	engine.Get("/admin/stats", getStats(as), auth.Auth(ar), gated)
	engine.Get("/admin/projects", getProjects(ps), auth.Auth(ar), gated)
}

// Gate admits only the allow-listed administrator. The check runs at the API boundary, on
// the authenticated principal's email, so it can't be sidestepped by client side routing.
func Gate(adminEmail string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if !strings.EqualFold(auth.MustGetUser(request).Email, adminEmail) {
				JSON.Forbidden(writer)
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// getStats handles the GET "/admin/stats" route, serving the engagement dashboard.
func getStats(as Storer) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		overall, err := as.GetOverallStats()
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}

		top, err := as.GetTopProjects()
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}

		JSON.Ok(writer, struct {
			Overall OverallStats
			Top     []ProjectStat
		}{overall, top})
	}
}

// getProjects handles the GET "/admin/projects" route, a read-only view over all submissions.
func getProjects(ps catalogue) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		summaries, err := ps.GetAllSummaries()
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}
		JSON.Ok(writer, summaries)
	}
}

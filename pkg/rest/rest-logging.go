package rest

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

// statusRecorder captures the status code written by downstream handlers, so the
// logging middleware can report it; WriteHeader may never be called, hence the 200 default.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger returns a middleware that tags each request with a unique identifier and
// logs its method, path, resulting status code and duration.
func RequestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			var start = time.Now()
			var recorder = statusRecorder{writer, http.StatusOK}

			// a missing request id degrades logs but mustn't interrupt request handling
			var fields = logrus.Fields{
				"method":    request.Method,
				"path":      request.URL.Path,
				"remote-ip": request.RemoteAddr,
			}
			if reqUUID, err := uuid.NewV4(); err == nil {
				fields["reqid"] = reqUUID.String()
			}

			next.ServeHTTP(&recorder, request)

			logger.WithFields(fields).WithFields(logrus.Fields{
				"status":   recorder.status,
				"duration": time.Since(start).String(),
			}).Info("request handled")
		})
	}
}

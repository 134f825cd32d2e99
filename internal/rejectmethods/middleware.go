package rejectmethods

import (
	"net/http"

	"gitlab.com/gitlab-org/tiny-pages/internal/httperrors"
	"gitlab.com/gitlab-org/tiny-pages/internal/logging"
)

var acceptedMethods = map[string]bool{
	http.MethodGet:  true,
	http.MethodHead: true,
}

// NewMiddleware answers 405 to every method other than GET and HEAD
func NewMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !acceptedMethods[r.Method] {
			logging.LogRequest(r).WithField("method", r.Method).Debug("rejected request method")
			w.Header().Set("Allow", "GET, HEAD")
			httperrors.Serve405(w, r)
			return
		}

		handler.ServeHTTP(w, r)
	})
}

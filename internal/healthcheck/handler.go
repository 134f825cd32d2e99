package healthcheck

import (
	"net/http"
	"os"

	"gitlab.com/gitlab-org/tiny-pages/internal/logging"
)

// Handler is serving the application status check. The check fails while
// the root directory cannot be accessed.
func Handler(rootDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		if fi, err := os.Stat(rootDir); err != nil || !fi.IsDir() {
			logging.LogRequest(r).WithError(err).Warn("root directory is not accessible")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("failure\n"))
			return
		}

		w.Write([]byte("success\n"))
	})
}

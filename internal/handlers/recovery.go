package handlers

import (
	"net/http"

	ghandlers "github.com/gorilla/handlers"

	"gitlab.com/gitlab-org/tiny-pages/internal/errortracking"
)

// RecoveryHandler turns panics into a 500 response, logging and reporting them
func RecoveryHandler(handler http.Handler) http.Handler {
	return ghandlers.RecoveryHandler(
		ghandlers.RecoveryLogger(errortracking.PanicLogger{}),
	)(handler)
}

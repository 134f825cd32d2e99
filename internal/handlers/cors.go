package handlers

import (
	"net/http"

	"github.com/rs/cors"
)

var corsHandler = cors.New(cors.Options{AllowedMethods: []string{http.MethodGet, http.MethodHead}})

// CorsHandler allows cross-origin GET and HEAD requests unless disabled
func CorsHandler(disable bool, handler http.Handler) http.Handler {
	if disable {
		return handler
	}

	return corsHandler.Handler(handler)
}

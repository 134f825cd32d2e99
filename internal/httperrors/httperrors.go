package httperrors

import (
	"fmt"
	"net/http"
	"strings"

	"gitlab.com/gitlab-org/tiny-pages/internal/serving"
)

const errorPage = `<html>
<body>
<h1>Error accessing %s</h1>
<p>%s</p>
</body>
</html>
`

// markup only escapes the characters that can open a tag or an entity, so
// quotes in messages keep their literal bytes
var markup = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Render fills the error page template with the requested path and the
// error message. Markup characters in both values are escaped.
func Render(path, msg string) []byte {
	return []byte(fmt.Sprintf(errorPage, markup.Replace(path), markup.Replace(msg)))
}

// ServeDispatchError sends the error page for a request the dispatcher could
// not satisfy. Every kind of failure is reported as 404.
func ServeDispatchError(s serving.ContentSender, path, msg string) error {
	return s.Send(Render(path, msg), http.StatusNotFound)
}

func serveErrorPage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	// the sender is fresh, so Send cannot fail with ErrAlreadySent
	_ = serving.NewSender(w).Send(Render(r.URL.Path, msg), status)
}

// Serve405 returns a 405 error response / HTML page to the http.ResponseWriter
func Serve405(w http.ResponseWriter, r *http.Request) {
	serveErrorPage(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("Unsupported method (%s)", r.Method))
}

// Serve414 returns a 414 error response / HTML page to the http.ResponseWriter
func Serve414(w http.ResponseWriter, r *http.Request) {
	serveErrorPage(w, r, http.StatusRequestURITooLong, "Request URI Too Long")
}

// Serve429 returns a 429 error response / HTML page to the http.ResponseWriter
func Serve429(w http.ResponseWriter, r *http.Request) {
	serveErrorPage(w, r, http.StatusTooManyRequests, "Too many requests")
}

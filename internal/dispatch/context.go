package dispatch

import (
	"path/filepath"
	"strings"
)

// RequestContext is the per-request input of the rule chain. It is a value:
// once built its paths never change.
type RequestContext struct {
	requestPath  string
	resolvedPath string
}

// NewRequestContext maps requestPath onto root. The request path is appended
// to root as is: dot-dot segments are not cleaned and may point outside of
// root, see WithinRoot.
func NewRequestContext(root, requestPath string) RequestContext {
	return RequestContext{
		requestPath:  requestPath,
		resolvedPath: joinRoot(root, requestPath),
	}
}

func joinRoot(root, requestPath string) string {
	root = strings.TrimSuffix(root, "/")

	if strings.HasPrefix(requestPath, "/") {
		return root + requestPath
	}

	return root + "/" + requestPath
}

// RequestPath is the path as received from the client
func (rc RequestContext) RequestPath() string {
	return rc.requestPath
}

// ResolvedPath is the filesystem path the request refers to
func (rc RequestContext) ResolvedPath() string {
	return rc.resolvedPath
}

// WithinRoot reports whether the resolved path, once cleaned, stays inside root
func (rc RequestContext) WithinRoot(root string) bool {
	root = filepath.Clean(root)
	resolved := filepath.Clean(rc.resolvedPath)

	if resolved == root {
		return true
	}

	return strings.HasPrefix(resolved, strings.TrimSuffix(root, "/")+"/")
}

func (rc RequestContext) indexPath() string {
	return strings.TrimSuffix(rc.resolvedPath, "/") + "/" + indexFile
}

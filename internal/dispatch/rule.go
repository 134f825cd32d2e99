package dispatch

import (
	"context"
	"net/http"
	"os"
	"strings"

	"gitlab.com/gitlab-org/tiny-pages/internal/serving"
)

const indexFile = "index.html"

// Kind is one of the ways a request can be satisfied. The set is closed:
// every Kind is handled by the switches in Matches and Handle.
type Kind int

const (
	// NoTarget matches when the resolved path does not exist
	NoTarget Kind = iota
	// ScriptFile matches regular files with a script extension
	ScriptFile
	// RegularFile matches any other regular file
	RegularFile
	// DirectoryIndex matches directories holding an index.html file
	DirectoryIndex
	// Fallback matches everything
	Fallback
)

func (k Kind) String() string {
	switch k {
	case NoTarget:
		return "no_target"
	case ScriptFile:
		return "script_file"
	case RegularFile:
		return "regular_file"
	case DirectoryIndex:
		return "directory_index"
	case Fallback:
		return "fallback"
	}

	return "unknown"
}

// Matches reports whether the rule of kind k applies to rc
func (c *Chain) Matches(k Kind, rc RequestContext) bool {
	switch k {
	case NoTarget:
		return !exists(rc.ResolvedPath())
	case ScriptFile:
		return isRegular(rc.ResolvedPath()) && c.isScript(rc.ResolvedPath())
	case RegularFile:
		return isRegular(rc.ResolvedPath())
	case DirectoryIndex:
		return isDir(rc.ResolvedPath()) && isRegular(rc.indexPath())
	case Fallback:
		return true
	}

	return false
}

// Handle runs the action of the rule of kind k. A successful action has
// sent the response through s. Failures are returned as *Error, write
// errors of s are returned unchanged.
func (c *Chain) Handle(ctx context.Context, k Kind, rc RequestContext, s serving.ContentSender) error {
	switch k {
	case NoTarget:
		return notFoundError(rc)
	case ScriptFile:
		return c.runScript(ctx, rc, s)
	case RegularFile:
		return sendFile(s, rc.ResolvedPath())
	case DirectoryIndex:
		return sendFile(s, rc.indexPath())
	case Fallback:
		return unknownTargetError(rc)
	}

	return unknownTargetError(rc)
}

func (c *Chain) runScript(ctx context.Context, rc RequestContext, s serving.ContentSender) error {
	out, err := c.runner.Run(ctx, rc.ResolvedPath())
	if err != nil {
		return scriptError(err)
	}

	return s.Send(out, http.StatusOK)
}

func (c *Chain) isScript(path string) bool {
	for _, ext := range c.scriptExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}

func sendFile(s serving.ContentSender, fullPath string) error {
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return readError(fullPath, err)
	}

	return s.Send(content, http.StatusOK)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isRegular(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

package testhelpers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TmpDir returns a temporary directory with symlinks resolved
func TmpDir(tb testing.TB) string {
	tb.Helper()

	// On some systems `/tmp` can be a symlink
	tmpDir, err := filepath.EvalSymlinks(tb.TempDir())
	require.NoError(tb, err)

	return tmpDir
}

// TmpSite creates a site below a temporary directory and returns its root.
// Keys of files are slash separated paths relative to the root, a key
// ending with "/" creates an empty directory. Files ending in ".cgi" are
// made executable.
func TmpSite(tb testing.TB, files map[string]string) string {
	tb.Helper()

	root := TmpDir(tb)
	WriteSite(tb, root, files)

	return root
}

// WriteSite writes files below root, see TmpSite
func WriteSite(tb testing.TB, root string, files map[string]string) {
	tb.Helper()

	for name, content := range files {
		fullPath := filepath.Join(root, filepath.FromSlash(name))

		if strings.HasSuffix(name, "/") {
			require.NoError(tb, os.MkdirAll(fullPath, 0755))
			continue
		}

		require.NoError(tb, os.MkdirAll(filepath.Dir(fullPath), 0755))

		mode := os.FileMode(0644)
		if strings.HasSuffix(name, ".cgi") {
			mode = 0755
		}

		require.NoError(tb, os.WriteFile(fullPath, []byte(content), mode))
	}
}

package dispatch

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/gitlab-org/tiny-pages/internal/cgi"
	"gitlab.com/gitlab-org/tiny-pages/internal/cgi/mock"
	"gitlab.com/gitlab-org/tiny-pages/internal/testhelpers"
)

type recordingSender struct {
	mu     sync.Mutex
	calls  int
	body   []byte
	status int
	err    error
}

func (s *recordingSender) Send(body []byte, status int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.body = body
	s.status = status

	return s.err
}

func testSite(t *testing.T) string {
	t.Helper()

	root := testhelpers.TmpSite(t, map[string]string{
		"a.txt":                    "hi",
		"binary.bin":               "\x00\x01\xfe\xff",
		"docs/index.html":          "<p>ok</p>",
		"empty/":                   "",
		"run.py":                   "print('done')\n",
		"run.cgi":                  "printf done\n",
		"fail.cgi":                 "exit 1\n",
		"dir.py/":                  "",
		"index-is-dir/index.html/": "",
	})

	require.NoError(t, os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")))
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "broken")))

	return root
}

func TestRules(t *testing.T) {
	chain := NewChain(nil)

	require.Equal(t, []Kind{NoTarget, ScriptFile, RegularFile, DirectoryIndex, Fallback}, chain.Rules())

	rules := chain.Rules()
	rules[0] = Fallback
	require.Equal(t, NoTarget, chain.Rules()[0], "Rules must return a copy")
}

func TestMatches(t *testing.T) {
	root := testSite(t)
	chain := NewChain(nil)

	tests := map[string]struct {
		path     string
		expected []Kind
	}{
		"missing path": {
			path:     "/missing",
			expected: []Kind{NoTarget, Fallback},
		},
		"broken symlink": {
			path:     "/broken",
			expected: []Kind{NoTarget, Fallback},
		},
		"regular file": {
			path:     "/a.txt",
			expected: []Kind{RegularFile, Fallback},
		},
		"symlink to regular file": {
			path:     "/link.txt",
			expected: []Kind{RegularFile, Fallback},
		},
		"script": {
			path:     "/run.py",
			expected: []Kind{ScriptFile, RegularFile, Fallback},
		},
		"file with other extension is not a script": {
			path:     "/run.cgi",
			expected: []Kind{RegularFile, Fallback},
		},
		"directory with index": {
			path:     "/docs",
			expected: []Kind{DirectoryIndex, Fallback},
		},
		"directory with index and trailing slash": {
			path:     "/docs/",
			expected: []Kind{DirectoryIndex, Fallback},
		},
		"directory without index": {
			path:     "/empty",
			expected: []Kind{Fallback},
		},
		"directory named like a script": {
			path:     "/dir.py",
			expected: []Kind{Fallback},
		},
		"index that is a directory": {
			path:     "/index-is-dir",
			expected: []Kind{Fallback},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rc := NewRequestContext(root, tt.path)

			var matched []Kind
			for _, k := range chain.Rules() {
				if chain.Matches(k, rc) {
					matched = append(matched, k)
				}
			}

			require.Equal(t, tt.expected, matched)
		})
	}
}

func TestDispatch(t *testing.T) {
	root := testSite(t)

	tests := map[string]struct {
		path         string
		expectedKind Kind
		expectedBody []byte
	}{
		"regular file": {
			path:         "/a.txt",
			expectedKind: RegularFile,
			expectedBody: []byte("hi"),
		},
		"binary file": {
			path:         "/binary.bin",
			expectedKind: RegularFile,
			expectedBody: []byte("\x00\x01\xfe\xff"),
		},
		"directory index": {
			path:         "/docs",
			expectedKind: DirectoryIndex,
			expectedBody: []byte("<p>ok</p>"),
		},
		"index file requested directly": {
			path:         "/docs/index.html",
			expectedKind: RegularFile,
			expectedBody: []byte("<p>ok</p>"),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			chain := NewChain(mock.NewMockRunner(ctrl))
			s := &recordingSender{}

			kind, err := chain.Dispatch(context.Background(), NewRequestContext(root, tt.path), s)
			require.NoError(t, err)

			require.Equal(t, tt.expectedKind, kind)
			require.Equal(t, 1, s.calls)
			require.Equal(t, http.StatusOK, s.status)
			require.Equal(t, tt.expectedBody, s.body)
		})
	}
}

func TestDispatchFailures(t *testing.T) {
	root := testSite(t)

	tests := map[string]struct {
		path         string
		expectedKind Kind
		expectedErr  error
		expectedMsg  string
	}{
		"missing path": {
			path:         "/missing",
			expectedKind: NoTarget,
			expectedErr:  ErrNotFound,
			expectedMsg:  "'/missing' not found",
		},
		"directory without index": {
			path:         "/empty",
			expectedKind: Fallback,
			expectedErr:  ErrUnknownTarget,
			expectedMsg:  "Unknown object '/empty'",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// no calls are expected on the runner
			ctrl := gomock.NewController(t)
			chain := NewChain(mock.NewMockRunner(ctrl))
			s := &recordingSender{}

			kind, err := chain.Dispatch(context.Background(), NewRequestContext(root, tt.path), s)
			require.Equal(t, tt.expectedKind, kind)
			require.ErrorIs(t, err, tt.expectedErr)
			require.EqualError(t, err, tt.expectedMsg)
			require.Zero(t, s.calls)
		})
	}
}

func TestDispatchScript(t *testing.T) {
	root := testSite(t)
	scriptPath := filepath.Join(root, "run.py")

	ctrl := gomock.NewController(t)
	runner := mock.NewMockRunner(ctrl)
	runner.EXPECT().
		Run(gomock.Any(), scriptPath).
		Return([]byte("done"), nil).
		Times(1)

	s := &recordingSender{}
	kind, err := NewChain(runner).Dispatch(context.Background(), NewRequestContext(root, "/run.py"), s)
	require.NoError(t, err)

	require.Equal(t, ScriptFile, kind)
	require.Equal(t, http.StatusOK, s.status)
	require.Equal(t, []byte("done"), s.body)
}

func TestDispatchScriptFailure(t *testing.T) {
	root := testSite(t)
	runErr := errors.New(`script "run.py" failed: exit status 1`)

	ctrl := gomock.NewController(t)
	runner := mock.NewMockRunner(ctrl)
	runner.EXPECT().
		Run(gomock.Any(), gomock.Any()).
		Return(nil, runErr)

	s := &recordingSender{}
	kind, err := NewChain(runner).Dispatch(context.Background(), NewRequestContext(root, "/run.py"), s)

	require.Equal(t, ScriptFile, kind)
	require.ErrorIs(t, err, ErrScriptExecution)
	require.ErrorIs(t, err, runErr)
	require.EqualError(t, err, runErr.Error())
	require.Zero(t, s.calls)
}

func TestDispatchWithExecutor(t *testing.T) {
	root := testSite(t)
	chain := NewChain(cgi.New("/bin/sh"), WithScriptExtensions(".cgi"))

	s := &recordingSender{}
	kind, err := chain.Dispatch(context.Background(), NewRequestContext(root, "/run.cgi"), s)
	require.NoError(t, err)
	require.Equal(t, ScriptFile, kind)
	require.Equal(t, []byte("done"), s.body)

	s = &recordingSender{}
	kind, err = chain.Dispatch(context.Background(), NewRequestContext(root, "/fail.cgi"), s)
	require.Equal(t, ScriptFile, kind)
	require.ErrorIs(t, err, ErrScriptExecution)
	require.Contains(t, err.Error(), "exit status 1")
	require.Zero(t, s.calls)

	s = &recordingSender{}
	kind, err = chain.Dispatch(context.Background(), NewRequestContext(root, "/run.py"), s)
	require.NoError(t, err)
	require.Equal(t, RegularFile, kind, ".py is no longer a script extension")
	require.Equal(t, []byte("print('done')\n"), s.body)
}

func TestDispatchReadFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}

	root := testSite(t)
	secret := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0000))

	s := &recordingSender{}
	kind, err := NewChain(nil).Dispatch(context.Background(), NewRequestContext(root, "/secret.txt"), s)

	require.Equal(t, RegularFile, kind)
	require.ErrorIs(t, err, ErrRead)
	require.ErrorIs(t, err, os.ErrPermission)
	require.Contains(t, err.Error(), "'"+secret+"' cannot be read")
	require.Zero(t, s.calls)
}

func TestDispatchSendError(t *testing.T) {
	root := testSite(t)
	sendErr := errors.New("broken pipe")

	s := &recordingSender{err: sendErr}
	kind, err := NewChain(nil).Dispatch(context.Background(), NewRequestContext(root, "/a.txt"), s)

	require.Equal(t, RegularFile, kind)
	require.ErrorIs(t, err, sendErr)

	var dispatchErr *Error
	require.False(t, errors.As(err, &dispatchErr))
}

func TestDispatchIsDeterministic(t *testing.T) {
	root := testSite(t)
	chain := NewChain(nil)

	for _, path := range []string{"/a.txt", "/docs", "/missing", "/empty"} {
		t.Run(path, func(t *testing.T) {
			rc := NewRequestContext(root, path)

			first, second := &recordingSender{}, &recordingSender{}
			kind1, err1 := chain.Dispatch(context.Background(), rc, first)
			kind2, err2 := chain.Dispatch(context.Background(), rc, second)

			require.Equal(t, kind1, kind2)
			require.Equal(t, err1, err2)
			require.Equal(t, first.body, second.body)
			require.Equal(t, first.status, second.status)
		})
	}
}

func TestDispatchConcurrently(t *testing.T) {
	root := testSite(t)
	chain := NewChain(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			s := &recordingSender{}
			kind, err := chain.Dispatch(context.Background(), NewRequestContext(root, "/docs"), s)
			assert.NoError(t, err)
			assert.Equal(t, DirectoryIndex, kind)
			assert.Equal(t, []byte("<p>ok</p>"), s.body)
		}()
	}

	wg.Wait()
}

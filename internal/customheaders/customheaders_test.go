package customheaders_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/gitlab-org/tiny-pages/internal/customheaders"
)

func TestParseHeaderString(t *testing.T) {
	tests := []struct {
		name        string
		headers     []string
		wantHeaders http.Header
		wantErr     bool
	}{
		{
			name:        "Normal case",
			headers:     []string{"X-Test-String: Test"},
			wantHeaders: http.Header{"X-Test-String": []string{"Test"}},
		},
		{
			name:        "Whitespace trim case",
			headers:     []string{"   X-Test-String: Test   "},
			wantHeaders: http.Header{"X-Test-String": []string{"Test"}},
		},
		{
			name:        "Lowercase key is canonicalized",
			headers:     []string{"content-security-policy: default-src 'self'"},
			wantHeaders: http.Header{"Content-Security-Policy": []string{"default-src 'self'"}},
		},
		{
			name:        "Repeated key keeps every value",
			headers:     []string{"X-Test: a", "X-Test: b"},
			wantHeaders: http.Header{"X-Test": []string{"a", "b"}},
		},
		{
			name:    "Missing colon",
			headers: []string{"X-Test-String Test"},
			wantErr: true,
		},
		{
			name:    "Content-Type is reserved",
			headers: []string{"content-type: text/plain"},
			wantErr: true,
		},
		{
			name:    "Content-Length is reserved",
			headers: []string{"Content-Length: 10"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := customheaders.ParseHeaderString(tt.headers)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantHeaders, got)
		})
	}
}

func TestNewMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
	})

	headers := http.Header{
		"X-Frame-Options": []string{"DENY"},
		"X-Test":          []string{"a", "b"},
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	customheaders.NewMiddleware(next, headers).ServeHTTP(w, r)

	rsp := w.Result()
	defer rsp.Body.Close()

	require.Equal(t, []string{"DENY"}, rsp.Header["X-Frame-Options"])
	require.Equal(t, []string{"a", "b"}, rsp.Header["X-Test"])
	require.Equal(t, "text/html", rsp.Header.Get("Content-Type"))
}

func TestNewMiddlewareWithoutHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	customheaders.NewMiddleware(next, nil).ServeHTTP(w, r)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Header())
}

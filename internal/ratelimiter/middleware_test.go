package ratelimiter

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	testlog "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const remoteAddr = "192.168.1.1:41000"

var next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestSourceIPLimiterWithDifferentLimits(t *testing.T) {
	hook := testlog.NewGlobal()
	logrus.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() { logrus.SetLevel(logrus.InfoLevel) })

	for tn, tc := range sharedTestCases {
		t.Run(tn, func(t *testing.T) {
			hook.Reset()
			blocked := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_blocked_total"})

			rl := New(
				WithNow(mockNow),
				WithSourceIPLimitPerSecond(tc.sourceIPLimit),
				WithSourceIPBurstSize(tc.sourceIPBurstSize),
				WithBlockedCountMetric(blocked),
			)
			handler := rl.SourceIPLimiter(next)

			for i := 0; i < tc.reqNum; i++ {
				ww := httptest.NewRecorder()
				rr := httptest.NewRequest(http.MethodGet, "http://example.com/a.txt", nil)
				rr.RemoteAddr = remoteAddr

				handler.ServeHTTP(ww, rr)
				res := ww.Result()

				if i < tc.sourceIPBurstSize {
					require.Equal(t, http.StatusNoContent, res.StatusCode, "req: %d failed", i)
				} else {
					require.Equal(t, http.StatusTooManyRequests, res.StatusCode, "req: %d failed", i)
					b, err := io.ReadAll(res.Body)
					require.NoError(t, err)
					require.Contains(t, string(b), "Too Many Requests")
				}
				res.Body.Close()
			}

			rejected := tc.reqNum - tc.sourceIPBurstSize
			require.Equal(t, float64(rejected), testutil.ToFloat64(blocked))
			require.Len(t, hook.AllEntries(), rejected)
			require.Equal(t, "source IP hit rate limit", hook.LastEntry().Message)
			require.Equal(t, "192.168.1.1", hook.LastEntry().Data["source_ip"])
		})
	}
}

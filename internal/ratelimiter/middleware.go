package ratelimiter

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"gitlab.com/gitlab-org/tiny-pages/internal/httperrors"
	"gitlab.com/gitlab-org/tiny-pages/internal/logging"
	"gitlab.com/gitlab-org/tiny-pages/internal/request"
)

const headerXForwardedFor = "X-Forwarded-For"

// SourceIPLimiter returns middleware answering 429 to clients that ran out
// of tokens
func (rl *RateLimiter) SourceIPLimiter(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sourceIP := request.GetRemoteAddrWithoutPort(r)
		if !rl.SourceIPAllowed(sourceIP) {
			rl.logSourceIP(r, sourceIP)
			rl.sourceIPBlockedCount.Inc()
			httperrors.Serve429(w, r)
			return
		}

		handler.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) logSourceIP(r *http.Request, sourceIP string) {
	logging.LogRequest(r).WithFields(logrus.Fields{
		"handler":                       "source_ip_rate_limiter",
		"remote_addr":                   r.RemoteAddr,
		"source_ip":                     sourceIP,
		"x_forwarded_for":               r.Header.Get(headerXForwardedFor),
		"rate_limiter_limit_per_second": rl.sourceIPLimitPerSecond,
		"rate_limiter_burst_size":       rl.sourceIPBurstSize,
	}).Debug("source IP hit rate limit")
}

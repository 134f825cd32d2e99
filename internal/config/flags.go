package config

import (
	"time"

	"github.com/namsral/flag"

	"gitlab.com/gitlab-org/tiny-pages/internal/cgi"
	"gitlab.com/gitlab-org/tiny-pages/internal/dispatch"
)

var (
	rootDir       = flag.String("root-dir", ".", "The directory files and scripts are served from")
	statusPath    = flag.String("status-path", "", "The url path for a status page, e.g., /@status")
	confineToRoot = flag.Bool("confine-to-root", false, "Answer requests resolving outside of root-dir with not found instead of serving them")

	scriptInterpreter = flag.String("script-interpreter", cgi.DefaultInterpreter, "The command scripts are run with, empty to execute scripts directly")
	scriptTimeout     = flag.Duration("script-timeout", 0, "The maximum time a script may run, 0 means no limit")

	metricsAddress         = flag.String("metrics-address", "", "The address to listen on for metrics requests")
	sentryDSN              = flag.String("sentry-dsn", "", "The address for sending sentry crash reporting to")
	sentryEnvironment      = flag.String("sentry-environment", "", "The environment for sentry crash reporting")
	propagateCorrelationID = flag.Bool("propagate-correlation-id", false, "Reuse existing Correlation-ID from the incoming request header `X-Request-ID` if present")
	logFormat              = flag.String("log-format", "json", "The log output format: 'text' or 'json'")
	logVerbose             = flag.Bool("log-verbose", false, "Verbose logging")

	// HTTP rate limits
	rateLimitSourceIP      = flag.Float64("rate-limit-source-ip", 0.0, "Rate limit HTTP requests per second from a single IP, 0 means is disabled")
	rateLimitSourceIPBurst = flag.Int("rate-limit-source-ip-burst", 100, "Rate limit HTTP requests from a single IP, maximum burst allowed per second")

	maxConns     = flag.Int("max-conns", 0, "Limit on the number of concurrent connections to the HTTP or proxyv2 listeners, 0 for no limit")
	maxURILength = flag.Int("max-uri-length", 1024, "Limit the length of URI, 0 for unlimited.")
	useHTTP2     = flag.Bool("use-http2", true, "Enable HTTP2 support over cleartext connections (h2c)")

	// HTTP server timeouts
	serverReadTimeout       = flag.Duration("server-read-timeout", 5*time.Second, "ReadTimeout is the maximum duration for reading the entire request, including the body. A zero or negative value means there will be no timeout.")
	serverReadHeaderTimeout = flag.Duration("server-read-header-timeout", time.Second, "ReadHeaderTimeout is the amount of time allowed to read request headers. A zero or negative value means there will be no timeout.")
	serverWriteTimeout      = flag.Duration("server-write-timeout", 0, "WriteTimeout is the maximum duration before timing out writes of the response. A zero or negative value means there will be no timeout.")
	serverKeepAlive         = flag.Duration("server-keep-alive", 15*time.Second, "KeepAlive specifies the keep-alive period for network connections accepted by this listener. If zero, keep-alives are enabled if supported by the protocol and operating system. If negative, keep-alives are disabled.")
	serverShutdownTimeout   = flag.Duration("server-shutdown-timeout", 30*time.Second, "Server shutdown timeout (default: 30s)")

	disableCrossOriginRequests = flag.Bool("disable-cross-origin-requests", false, "Disable cross-origin requests")

	showVersion = flag.Bool("version", false, "Show version")

	// See initFlags()
	listenHTTP       = MultiStringFlag{separator: ","}
	listenProxyv2    = MultiStringFlag{separator: ","}
	scriptExtensions = MultiStringFlag{separator: ",", defaults: []string{dispatch.DefaultScriptExtension}}

	header = MultiStringFlag{separator: ";;"}
)

// initFlags will be called from LoadConfig
func initFlags() {
	flag.Var(&listenHTTP, "listen-http", "The address(es) to listen on for HTTP requests")
	flag.Var(&listenProxyv2, "listen-proxyv2", "The address(es) to listen on for HTTP requests behind a PROXY protocol v2 proxy (https://www.haproxy.org/download/1.8/doc/proxy-protocol.txt)")
	flag.Var(&scriptExtensions, "script-extension", "The file extension(s) of scripts that are run instead of served")
	flag.Var(&header, "header", "The additional http header(s) that should be send to the client")

	// read from -config=/path/to/tiny-pages-config
	flag.String(flag.DefaultConfigFlagname, "", "path to config file")

	flag.Parse()
}

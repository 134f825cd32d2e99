package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"gitlab.com/gitlab-org/labkit/correlation"
	labmetrics "gitlab.com/gitlab-org/labkit/metrics"

	"gitlab.com/gitlab-org/tiny-pages/internal/cgi"
	cfg "gitlab.com/gitlab-org/tiny-pages/internal/config"
	"gitlab.com/gitlab-org/tiny-pages/internal/customheaders"
	"gitlab.com/gitlab-org/tiny-pages/internal/dispatch"
	"gitlab.com/gitlab-org/tiny-pages/internal/handlers"
	"gitlab.com/gitlab-org/tiny-pages/internal/healthcheck"
	"gitlab.com/gitlab-org/tiny-pages/internal/logging"
	"gitlab.com/gitlab-org/tiny-pages/internal/ratelimiter"
	"gitlab.com/gitlab-org/tiny-pages/internal/rejectmethods"
	"gitlab.com/gitlab-org/tiny-pages/internal/urilimiter"
)

// the factory registers its collectors, so it must only be built once
var metricsMiddleware = labmetrics.NewHandlerFactory(labmetrics.WithNamespace("tiny_pages"))

type theApp struct {
	config *cfg.Config
	root   string
}

// dispatchHandler builds the rule chain shared by every request
func (a *theApp) dispatchHandler() http.Handler {
	executor := cgi.New(a.config.Script.Interpreter, cgi.WithTimeout(a.config.Script.Timeout))
	chain := dispatch.NewChain(executor, dispatch.WithScriptExtensions(a.config.Script.Extensions...))

	return dispatch.NewHandler(chain, a.root, dispatch.WithConfineToRoot(a.config.General.ConfineToRoot))
}

// router sends the status path to the health check and everything else to
// content. Paths are not cleaned so they reach the dispatcher untouched.
func (a *theApp) router(content http.Handler) http.Handler {
	r := mux.NewRouter().SkipClean(true)

	if a.config.General.StatusPath != "" {
		r.Handle(a.config.General.StatusPath, healthcheck.Handler(a.root))
	}

	r.PathPrefix("/").Handler(content)

	return r
}

func (a *theApp) rateLimiter(handler http.Handler) http.Handler {
	if a.config.RateLimit.SourceIPLimitPerSecond <= 0 {
		return handler
	}

	rl := ratelimiter.New(
		ratelimiter.WithSourceIPLimitPerSecond(a.config.RateLimit.SourceIPLimitPerSecond),
		ratelimiter.WithSourceIPBurstSize(a.config.RateLimit.SourceIPBurst),
	)

	return rl.SourceIPLimiter(handler)
}

func (a *theApp) correlationOptions() []correlation.InboundHandlerOption {
	opts := []correlation.InboundHandlerOption{correlation.WithSetResponseHeader()}
	if a.config.General.PropagateCorrelationID {
		opts = append(opts, correlation.WithPropagation())
	}

	return opts
}

// buildHandlerPipeline wraps the router with the middlewares, innermost first
func (a *theApp) buildHandlerPipeline() (http.Handler, error) {
	handler := a.router(a.dispatchHandler())
	handler = a.rateLimiter(handler)
	handler = urilimiter.NewMiddleware(handler, a.config.General.MaxURILength)
	handler = rejectmethods.NewMiddleware(handler)
	handler = handlers.CorsHandler(a.config.General.DisableCrossOriginRequests, handler)

	headers, err := customheaders.ParseHeaderString(a.config.General.CustomHeaders)
	if err != nil {
		return nil, err
	}
	handler = customheaders.NewMiddleware(handler, headers)

	handler = metricsMiddleware(handler)

	handler, err = logging.BasicAccessLogger(handler, a.config.Log.Format)
	if err != nil {
		return nil, err
	}

	handler = correlation.InjectCorrelationID(handler, a.correlationOptions()...)
	handler = handlers.RecoveryHandler(handler)

	return handler, nil
}

func runApp(config *cfg.Config, root string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &theApp{config: config, root: root}

	return a.Run(ctx)
}

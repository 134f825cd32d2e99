package dispatch

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"gitlab.com/gitlab-org/tiny-pages/internal/errortracking"
	"gitlab.com/gitlab-org/tiny-pages/internal/httperrors"
	"gitlab.com/gitlab-org/tiny-pages/internal/logging"
	"gitlab.com/gitlab-org/tiny-pages/internal/serving"
	"gitlab.com/gitlab-org/tiny-pages/metrics"
)

// Handler serves requests from the files below root using chain
type Handler struct {
	chain         *Chain
	root          string
	confineToRoot bool
	dispatched    *prometheus.CounterVec
	failures      *prometheus.CounterVec
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithConfineToRoot reports requests resolving outside of root as not found
func WithConfineToRoot(confine bool) HandlerOption {
	return func(h *Handler) {
		h.confineToRoot = confine
	}
}

// NewHandler returns an http.Handler dispatching every request to chain
func NewHandler(chain *Chain, root string, opts ...HandlerOption) *Handler {
	h := &Handler{
		chain:      chain,
		root:       root,
		dispatched: metrics.RequestsDispatched,
		failures:   metrics.DispatchFailures,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *Handler) dispatch(r *http.Request, rc RequestContext, s serving.ContentSender) (Kind, error) {
	if h.confineToRoot && !rc.WithinRoot(h.root) {
		return NoTarget, notFoundError(rc)
	}

	return h.chain.Dispatch(r.Context(), rc, s)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := NewRequestContext(h.root, r.URL.Path)
	s := serving.NewSender(w)

	kind, err := h.dispatch(r, rc, s)
	h.dispatched.WithLabelValues(kind.String()).Inc()

	logger := logging.LogRequest(r).WithField("rule", kind.String())
	if err == nil {
		logger.Trace("request dispatched")
		return
	}

	var dispatchErr *Error
	if !errors.As(err, &dispatchErr) {
		logger.WithError(err).Warn("failed to write response")
		return
	}

	h.failures.WithLabelValues(dispatchErr.Failure.String()).Inc()

	switch dispatchErr.Failure {
	case ScriptExecutionFailure, ReadFailure:
		// a script killed because the client went away is not a fault
		if r.Context().Err() != nil {
			logger.WithError(err).Info("request cancelled")
			break
		}

		logger.WithError(err).Error("request failed")
		errortracking.CaptureErrWithReqAndStackTrace(err, r,
			errortracking.WithField("failure", dispatchErr.Failure.String()))
	default:
		logger.WithError(err).Debug("request failed")
	}

	if s.Sent() {
		return
	}

	if err := httperrors.ServeDispatchError(s, rc.RequestPath(), dispatchErr.Error()); err != nil {
		logger.WithError(err).Warn("failed to write error page")
	}
}

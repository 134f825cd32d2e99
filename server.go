package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/hashicorp/go-multierror"
	proxyproto "github.com/pires/go-proxyproto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"gitlab.com/gitlab-org/tiny-pages/internal/netutil"
	"gitlab.com/gitlab-org/tiny-pages/metrics"
)

type listenerKind string

const (
	kindHTTP    listenerKind = "http"
	kindProxyv2 listenerKind = "proxyv2"
	kindMetrics listenerKind = "metrics"
)

type appListener struct {
	net.Listener
	kind listenerKind
}

func (a *theApp) limiter() *netutil.Limiter {
	if a.config.General.MaxConns <= 0 {
		return nil
	}

	return netutil.NewLimiter(
		a.config.General.MaxConns,
		metrics.LimitListenerMaxConns,
		metrics.LimitListenerConcurrentConns,
		metrics.LimitListenerWaitingConns,
	)
}

func (a *theApp) listen(ctx context.Context, addr string, kind listenerKind, limiter *netutil.Limiter) (*appListener, error) {
	lc := net.ListenConfig{KeepAlive: a.config.Server.ListenKeepAlive}

	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if limiter != nil && kind != kindMetrics {
		l = limiter.Listen(l)
	}

	if kind == kindProxyv2 {
		l = &proxyproto.Listener{
			Listener: l,
			Policy: func(upstream net.Addr) (proxyproto.Policy, error) {
				return proxyproto.REQUIRE, nil
			},
		}
	}

	log.WithFields(log.Fields{
		"listener": addr,
		"type":     kind,
	}).Debug("Set up listener")

	return &appListener{Listener: l, kind: kind}, nil
}

// createListeners opens every configured listener. Nothing stays open when
// one of them fails.
func (a *theApp) createListeners(ctx context.Context) ([]*appListener, error) {
	type listenerAddr struct {
		addr string
		kind listenerKind
	}

	var addrs []listenerAddr
	for _, addr := range a.config.Listeners.HTTP {
		addrs = append(addrs, listenerAddr{addr, kindHTTP})
	}
	for _, addr := range a.config.Listeners.Proxyv2 {
		addrs = append(addrs, listenerAddr{addr, kindProxyv2})
	}
	if a.config.General.MetricsAddress != "" {
		addrs = append(addrs, listenerAddr{a.config.General.MetricsAddress, kindMetrics})
	}

	limiter := a.limiter()
	listeners := make([]*appListener, 0, len(addrs))

	for _, la := range addrs {
		l, err := a.listen(ctx, la.addr, la.kind, limiter)
		if err != nil {
			closeAll(listeners)
			return nil, err
		}

		listeners = append(listeners, l)
	}

	return listeners, nil
}

func closeAll(listeners []*appListener) {
	for _, l := range listeners {
		l.Close()
	}
}

func (a *theApp) newServer(handler http.Handler) *http.Server {
	if a.config.General.HTTP2 {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	return &http.Server{
		Handler:           handler,
		ReadTimeout:       a.config.Server.ReadTimeout,
		ReadHeaderTimeout: a.config.Server.ReadHeaderTimeout,
		WriteTimeout:      a.config.Server.WriteTimeout,
	}
}

// Run serves requests until ctx is done or a listener fails
func (a *theApp) Run(ctx context.Context) error {
	listeners, err := a.createListeners(ctx)
	if err != nil {
		return err
	}

	return a.serve(ctx, listeners)
}

func (a *theApp) serve(ctx context.Context, listeners []*appListener) error {
	handler, err := a.buildHandlerPipeline()
	if err != nil {
		closeAll(listeners)
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)

	servers := make([]*http.Server, 0, len(listeners))
	for _, l := range listeners {
		s := a.newServer(handler)
		if l.kind == kindMetrics {
			s = &http.Server{Handler: promhttp.Handler()}
		}
		servers = append(servers, s)

		l := l
		eg.Go(func() error {
			log.WithField("listener", l.Addr().String()).WithField("type", l.kind).Info("Serving requests")

			if err := s.Serve(l); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s listener %s: %w", l.kind, l.Addr(), err)
			}
			return nil
		})
	}

	eg.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		var result *multierror.Error
		for _, s := range servers {
			result = multierror.Append(result, s.Shutdown(shutdownCtx))
		}

		return result.ErrorOrNil()
	})

	return eg.Wait()
}

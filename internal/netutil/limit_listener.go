package netutil

import (
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Limiter is a pool of connection slots that can be shared by several
// listeners. Use NewLimiter to create one.
type Limiter struct {
	slots      chan struct{}
	concurrent prometheus.Gauge
	waiting    prometheus.Gauge
}

// NewLimiter creates a Limiter allowing n simultaneous connections and
// reporting its usage through the given gauges
func NewLimiter(n int, maxConns, concurrent, waiting prometheus.Gauge) *Limiter {
	maxConns.Set(float64(n))

	return &Limiter{
		slots:      make(chan struct{}, n),
		concurrent: concurrent,
		waiting:    waiting,
	}
}

// Listen wraps listener so that Accept blocks while every slot of the
// pool is taken. Slots are returned when accepted connections are closed.
func (lim *Limiter) Listen(listener net.Listener) net.Listener {
	return &limitListener{
		Listener: listener,
		limiter:  lim,
		done:     make(chan struct{}),
	}
}

func (lim *Limiter) release() {
	<-lim.slots
	lim.concurrent.Dec()
}

type limitListener struct {
	net.Listener
	limiter   *Limiter
	closeOnce sync.Once
	done      chan struct{}
}

// acquire returns false when the listener was closed while waiting
func (l *limitListener) acquire() bool {
	l.limiter.waiting.Inc()
	defer l.limiter.waiting.Dec()

	select {
	case <-l.done:
		return false
	case l.limiter.slots <- struct{}{}:
		l.limiter.concurrent.Inc()
		return true
	}
}

func (l *limitListener) Accept() (net.Conn, error) {
	acquired := l.acquire()

	// a closed listener returns an error right away
	c, err := l.Listener.Accept()
	if err != nil {
		if acquired {
			l.limiter.release()
		}
		return nil, err
	}

	return &limitConn{Conn: c, release: l.limiter.release}, nil
}

func (l *limitListener) Close() error {
	err := l.Listener.Close()
	l.closeOnce.Do(func() { close(l.done) })
	return err
}

type limitConn struct {
	net.Conn
	releaseOnce sync.Once
	release     func()
}

func (c *limitConn) Close() error {
	err := c.Conn.Close()
	c.releaseOnce.Do(c.release)
	return err
}

package serving

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"gitlab.com/gitlab-org/tiny-pages/metrics"
)

// ContentType is reported for every response body, whatever it contains.
const ContentType = "text/html"

// ErrAlreadySent is returned when a response was already written for the request
var ErrAlreadySent = errors.New("response already sent")

// ContentSender writes a complete response with the fixed content type
type ContentSender interface {
	Send(body []byte, status int) error
}

// Sender writes exactly one complete response to an http.ResponseWriter
type Sender struct {
	w              http.ResponseWriter
	sent           bool
	bodySizeMetric *prometheus.HistogramVec
}

// NewSender returns a Sender writing to w
func NewSender(w http.ResponseWriter) *Sender {
	return &Sender{
		w:              w,
		bodySizeMetric: metrics.ServingBodySize,
	}
}

// Send writes the status line, the fixed content type, the content length
// of body and then body itself. Only the first call has any effect.
func (s *Sender) Send(body []byte, status int) error {
	if s.sent {
		return ErrAlreadySent
	}
	s.sent = true

	s.w.Header().Set("Content-Type", ContentType)
	s.w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	s.w.WriteHeader(status)

	s.bodySizeMetric.WithLabelValues(strconv.Itoa(status)).Observe(float64(len(body)))

	_, err := s.w.Write(body)
	return err
}

// Sent reports whether Send has been called
func (s *Sender) Sent() bool {
	return s.sent
}

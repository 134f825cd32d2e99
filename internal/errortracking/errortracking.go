package errortracking

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"gitlab.com/gitlab-org/labkit/errortracking"
)

// CaptureOption alias to avoid importing labkit/errortracking in internal packages
type CaptureOption = errortracking.CaptureOption

// Initialize enables Sentry reporting. Nothing is reported while dsn is empty.
func Initialize(dsn, environment, version string) error {
	if dsn == "" {
		return nil
	}

	return errortracking.Initialize(
		errortracking.WithSentryDSN(dsn),
		errortracking.WithSentryEnvironment(environment),
		errortracking.WithVersion(version),
	)
}

// WithField alias to avoid importing labkit/errortracking in internal packages
func WithField(key, value string) CaptureOption {
	return errortracking.WithField(key, value)
}

// CaptureErrWithReqAndStackTrace reports err along with the request it happened on
func CaptureErrWithReqAndStackTrace(err error, r *http.Request, fields ...CaptureOption) {
	opts := append(
		fields,
		errortracking.WithContext(r.Context()),
		errortracking.WithRequest(r),
		errortracking.WithStackTrace(),
	)

	errortracking.Capture(err, opts...)
}

// CaptureErrWithStackTrace reports err with the current stack trace
func CaptureErrWithStackTrace(err error, fields ...CaptureOption) {
	opts := append(
		fields,
		errortracking.WithStackTrace(),
	)

	errortracking.Capture(err, opts...)
}

// PanicLogger logs and reports panics recovered by the HTTP recovery middleware
type PanicLogger struct{}

// Println implements handlers.RecoveryHandlerLogger
func (PanicLogger) Println(v ...interface{}) {
	err := fmt.Errorf("panic serving request: %s", fmt.Sprint(v...))

	log.WithError(err).Error("recovered from panic")
	CaptureErrWithStackTrace(err, WithField("source", "recovery"))
}

package customheaders

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"net/textproto"
	"strings"
)

var (
	errInvalidHeaderParameter = errors.New("invalid syntax specified as header parameter")
	errReservedHeader         = errors.New("header is managed by the server and can not be overridden")
)

// reserved headers are always written by the content sender
var reserved = map[string]bool{
	"Content-Type":   true,
	"Content-Length": true,
}

// ParseHeaderString parses a list of "Key: Value" strings into a header map
func ParseHeaderString(customHeaders []string) (http.Header, error) {
	headers := http.Header{}
	for _, keyValueString := range customHeaders {
		keyValueString = strings.TrimSpace(keyValueString) + "\n\n"
		tp := textproto.NewReader(bufio.NewReader(strings.NewReader(keyValueString)))
		keyValue, err := tp.ReadMIMEHeader()
		if err != nil {
			return nil, errInvalidHeaderParameter
		}

		for k, v := range keyValue {
			k = textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(k))
			if reserved[k] {
				return nil, fmt.Errorf("%s: %w", k, errReservedHeader)
			}
			headers[k] = append(headers[k], v...)
		}
	}

	return headers, nil
}

// NewMiddleware returns middleware which injects custom headers into every response
func NewMiddleware(handler http.Handler, headers http.Header) http.Handler {
	if len(headers) == 0 {
		return handler
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			for _, value := range v {
				w.Header().Add(k, value)
			}
		}

		handler.ServeHTTP(w, r)
	})
}

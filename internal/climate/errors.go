package climate

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrMissingCredentials is returned by providers that need an API key when
// none is configured.
var ErrMissingCredentials = errors.New("missing API credentials")

// StatusError is a non-200 response from a provider.
type StatusError struct {
	Provider   string
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsTransient reports whether err is worth retrying: throttling, server
// errors and network timeouts. Missing credentials and client errors are not.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrMissingCredentials) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

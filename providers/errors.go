package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrorKind is the closed taxonomy of upstream failures.
type ErrorKind string

const (
	KindRateLimit          ErrorKind = "RATE_LIMIT"
	KindTimeout            ErrorKind = "TIMEOUT"
	KindServiceUnavailable ErrorKind = "SERVICE_UNAVAILABLE"
	KindAuthError          ErrorKind = "AUTH_ERROR"
	KindInvalidResponse    ErrorKind = "INVALID_RESPONSE"
	KindInternalError      ErrorKind = "INTERNAL_ERROR"
)

// defaultRetryAfter is used when a rate-limited upstream does not supply
// its own retry hint.
const defaultRetryAfter = 60

// Error is a classified upstream failure. It is constructed once at the
// point where a raw failure is first observed and flows to the HTTP
// boundary unchanged. The Message is safe to show to an end user.
type Error struct {
	Kind       ErrorKind
	Code       string
	Message    string
	HTTPStatus int
	RetryAfter int // seconds; set for rate limits only
	Service    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Service, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same kind, so callers can use errors.Is with a
// sentinel like &Error{Kind: KindRateLimit}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Retryable reports whether another attempt could plausibly succeed.
// Malformed payloads and credential problems are not retried.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindTimeout, KindServiceUnavailable:
		return true
	default:
		return false
	}
}

// Per-service rate-limit messages, matching each upstream's audience.
var rateLimitMessages = map[string]string{
	"Alpha Vantage":           "Stock data requests are temporarily limited. Please wait a moment and try again. Data will be available shortly.",
	"CoinGecko":               "Cryptocurrency data requests are temporarily limited. Please wait a moment and try again. Data will be available shortly.",
	"NewsAPI":                 "News data requests are temporarily limited. Please wait a moment and try again.",
	"Financial Modeling Prep": "Financial data requests are temporarily limited. Please wait a moment and try again.",
	"Polygon":                 "Market data requests are temporarily limited. Please wait a moment and try again.",
}

// RateLimitError builds a RATE_LIMIT error. retryAfter <= 0 falls back to
// the 60 second default.
func RateLimitError(service string, retryAfter int) *Error {
	if retryAfter <= 0 {
		retryAfter = defaultRetryAfter
	}
	msg, ok := rateLimitMessages[service]
	if !ok {
		msg = "Data requests are temporarily limited. Please wait a moment and try again."
	}
	return &Error{
		Kind:       KindRateLimit,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    msg,
		HTTPStatus: http.StatusTooManyRequests,
		RetryAfter: retryAfter,
		Service:    service,
	}
}

// TimeoutError builds a TIMEOUT error.
func TimeoutError(service string, cause error) *Error {
	return &Error{
		Kind:       KindTimeout,
		Code:       "TIMEOUT",
		Message:    "The request took too long to complete. Please try again in a moment.",
		HTTPStatus: http.StatusGatewayTimeout,
		Service:    service,
		Cause:      cause,
	}
}

// UnavailableError builds a SERVICE_UNAVAILABLE error for connection
// failures (refused, unresolvable).
func UnavailableError(service string, cause error) *Error {
	return &Error{
		Kind:       KindServiceUnavailable,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "Unable to connect to data service. Please try again later.",
		HTTPStatus: http.StatusServiceUnavailable,
		Service:    service,
		Cause:      cause,
	}
}

// AuthError builds an AUTH_ERROR. The status is deliberately 500 rather
// than 401: the missing credential belongs to the server operator, not the
// end user.
func AuthError(service string) *Error {
	return &Error{
		Kind:       KindAuthError,
		Code:       "AUTH_ERROR",
		Message:    "Service authentication error. Please contact support if this persists.",
		HTTPStatus: http.StatusInternalServerError,
		Service:    service,
	}
}

// InvalidResponseError builds an INVALID_RESPONSE error for payloads that
// lack the expected shape.
func InvalidResponseError(service string, cause error) *Error {
	return &Error{
		Kind:       KindInvalidResponse,
		Code:       "INVALID_RESPONSE",
		Message:    "Received unexpected data format. Please try again in a moment.",
		HTTPStatus: http.StatusBadGateway,
		Service:    service,
		Cause:      cause,
	}
}

const genericInternalMessage = "An unexpected error occurred. Please try again later."

// InternalError builds the fallback INTERNAL_ERROR, preserving the original
// message when one is available. Callers must only pass causes whose text is
// safe to show (provider-embedded error messages); transport errors carry
// the full request URL, credentials included, and go through Classify.
func InternalError(service string, cause error) *Error {
	msg := genericInternalMessage
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	return &Error{
		Kind:       KindInternalError,
		Code:       "INTERNAL_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusInternalServerError,
		Service:    service,
		Cause:      cause,
	}
}

// rate-limit phrases some upstreams embed in otherwise-successful bodies.
var rateLimitPhrases = []string{
	"frequency limit exceeded",
	"api call frequency",
	"call limit",
	"call frequency",
	"429",
}

func mentionsRateLimit(msg string) bool {
	lower := strings.ToLower(msg)
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Classify maps an arbitrary failure into exactly one *Error. First match
// wins, in taxonomy order: rate limit, timeout, connection failure,
// credentials, invalid response, fallback. Already-classified errors pass
// through untouched.
func Classify(service string, err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	msg := err.Error()

	if mentionsRateLimit(msg) {
		return RateLimitError(service, 0)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return TimeoutError(service, err)
	}
	if strings.Contains(msg, "timeout") {
		return TimeoutError(service, err)
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return UnavailableError(service, err)
	}
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return UnavailableError(service, err)
	}

	// Remaining transport failures (TLS handshake, proxy, bad redirect)
	// surface as *url.Error, whose text embeds the full request URL with the
	// injected API key. Never show that to a caller.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		internal := InternalError(service, err)
		internal.Message = genericInternalMessage
		return internal
	}

	lower := strings.ToLower(msg)
	if strings.Contains(lower, "api key") || strings.Contains(lower, "authentication") {
		return AuthError(service)
	}

	if strings.Contains(msg, "Invalid response") {
		return InvalidResponseError(service, err)
	}

	return InternalError(service, err)
}

// ClassifyStatus maps a non-2xx upstream status into an *Error. The
// Retry-After header, when parseable, overrides the rate-limit default.
func ClassifyStatus(service string, status int, retryAfterHeader string) *Error {
	switch {
	case status == http.StatusTooManyRequests:
		retryAfter := 0
		if secs, err := strconv.Atoi(strings.TrimSpace(retryAfterHeader)); err == nil {
			retryAfter = secs
		}
		return RateLimitError(service, retryAfter)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return AuthError(service)
	case status >= 500:
		return UnavailableError(service, fmt.Errorf("upstream returned status %d", status))
	default:
		return InternalError(service, fmt.Errorf("upstream returned status %d", status))
	}
}

package clickup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jonwraymond/clickup-go/resilience"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindUnknown is reported by KindOf for errors not produced by this package.
	KindUnknown Kind = iota
	// KindConfiguration means the client is unusable, e.g. no credential.
	KindConfiguration
	// KindValidation is a 400/422, or any 4xx carrying per-field errors.
	KindValidation
	// KindNotFound is a 404.
	KindNotFound
	// KindAuth is a 401 or 403.
	KindAuth
	// KindRateLimit is a 429, a 4xx whose message reports rate limiting, or
	// a client-side throttle that could not admit the call.
	KindRateLimit
	// KindTransient is a 408, a 5xx, a network failure or an attempt timeout.
	KindTransient
	// KindCircuitOpen means the call was rejected without being sent.
	KindCircuitOpen
	// KindCanceled means the caller's context ended.
	KindCanceled
	// KindClient is any other 4xx, or a request that could not be built.
	KindClient
	// KindDecode means a 2xx body could not be decoded into the target.
	KindDecode
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindConfiguration: "configuration",
	KindValidation:    "validation",
	KindNotFound:      "not_found",
	KindAuth:          "auth",
	KindRateLimit:     "rate_limit",
	KindTransient:     "transient",
	KindCircuitOpen:   "circuit_open",
	KindCanceled:      "canceled",
	KindClient:        "client",
	KindDecode:        "decode",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ErrInvalidOptions is wrapped by configuration errors about Options.
var ErrInvalidOptions = errors.New("clickup: invalid options")

// Error is a failed API call.
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int    // 0 when no response was received
	Code       string // Upstream ECODE
	Message    string // Upstream err message, or a local description

	// FieldErrors holds per-field validation messages.
	FieldErrors map[string][]string

	// RetryAfter is the server-directed delay; HasRetryAfter reports
	// whether the response carried a Retry-After header at all.
	RetryAfter    time.Duration
	HasRetryAfter bool

	// Body is the raw response body of a non-2xx response.
	Body []byte

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("clickup: ")
	if e.Method != "" {
		b.WriteString(e.Method)
		b.WriteByte(' ')
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d", e.StatusCode)
		if e.Code != "" {
			b.WriteString(" " + e.Code)
		}
		b.WriteByte(')')
	}
	switch {
	case e.Message != "":
		b.WriteString(": " + e.Message)
	case e.Err != nil:
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err. Context errors and resilience rejections
// are recognized even when they were not wrapped in an *Error.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, resilience.ErrCircuitOpen):
		return KindCircuitOpen
	}
	return KindUnknown
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsAuth reports whether err is a 401 or 403.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool { return KindOf(err) == KindRateLimit }

// IsValidation reports whether err carries validation failures.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsCircuitOpen reports whether the call was rejected by an open breaker.
func IsCircuitOpen(err error) bool { return KindOf(err) == KindCircuitOpen }

// IsCanceled reports whether the caller's context ended the call.
func IsCanceled(err error) bool { return KindOf(err) == KindCanceled }

// IsTransient reports whether err is a server, network or timeout failure.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// errorBody is the upstream error envelope.
type errorBody struct {
	Err    string          `json:"err"`
	Code   string          `json:"ECODE"`
	Errors json.RawMessage `json:"errors"`
}

// fieldErrors accepts {"field": ["msg"]} and {"field": "msg"}, or a mix.
func fieldErrors(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return nil
	}

	out := make(map[string][]string, len(fields))
	for k, v := range fields {
		var many []string
		if err := json.Unmarshal(v, &many); err == nil {
			out[k] = many
			continue
		}
		var one string
		if err := json.Unmarshal(v, &one); err == nil {
			out[k] = []string{one}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isRateLimitMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}

// classifyResponse turns a non-2xx response into an *Error.
func classifyResponse(method, path string, status int, header http.Header, body []byte, now time.Time, fallback time.Duration) *Error {
	e := &Error{Method: method, Path: path, StatusCode: status, Body: body}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Message = eb.Err
		e.Code = eb.Code
		e.FieldErrors = fieldErrors(eb.Errors)
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}

	if v, ok := header[http.CanonicalHeaderKey("Retry-After")]; ok && len(v) > 0 {
		e.HasRetryAfter = true
		e.RetryAfter = parseRetryAfter(v[0], now, fallback)
	}

	client := status >= 400 && status < 500
	switch {
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusTooManyRequests, client && isRateLimitMessage(e.Message):
		e.Kind = KindRateLimit
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		e.Kind = KindAuth
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, client && len(e.FieldErrors) > 0:
		e.Kind = KindValidation
	case status == http.StatusRequestTimeout, status >= 500:
		e.Kind = KindTransient
	default:
		e.Kind = KindClient
	}
	return e
}

// classifyFailure wraps a pipeline failure that is not already an *Error.
func classifyFailure(ctx context.Context, method, path string, err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	e := &Error{Method: method, Path: path, Err: err}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		e.Kind = KindCircuitOpen
		e.Message = "circuit open"
	case ctx.Err() != nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.Kind = KindCanceled
	case errors.Is(err, resilience.ErrRateLimitExceeded), errors.Is(err, resilience.ErrBulkheadFull):
		e.Kind = KindRateLimit
	default:
		e.Kind = KindTransient
	}
	return e
}

// isRetryable reports the failures the backoff layer re-attempts.
func isRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindTransient || apiErr.Kind == KindRateLimit
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, resilience.ErrCircuitOpen):
		return false
	}
	return true
}

// isBreakerFailure reports the failures the circuit breaker counts. A local
// throttle rejection says nothing about upstream health.
func isBreakerFailure(err error) bool {
	if errors.Is(err, resilience.ErrRateLimitExceeded) || errors.Is(err, resilience.ErrBulkheadFull) {
		return false
	}
	return isRetryable(err)
}

// retryAfterHint feeds the rate-limit retry layer: only a 429 that carried
// a Retry-After header qualifies.
func retryAfterHint(err error) (time.Duration, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests && apiErr.HasRetryAfter {
		return apiErr.RetryAfter, true
	}
	return 0, false
}

func configError(format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Kind: KindConfiguration, Message: err.Error(), Err: err}
}

package dart

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingAPIKey is returned before any I/O when no credential is configured.
var ErrMissingAPIKey = errors.New("dart: DART_API_KEY is not set; add it to the environment or .env (keys are issued free at https://opendart.fss.or.kr)")

// StatusCode is the three-digit provider status carried inside every response body.
type StatusCode string

const (
	StatusOK               StatusCode = "000"
	StatusUnregisteredKey  StatusCode = "010"
	StatusDisabledKey      StatusCode = "011"
	StatusIPNotAllowed     StatusCode = "012"
	StatusNoData           StatusCode = "013"
	StatusFileNotFound     StatusCode = "014"
	StatusRateLimited      StatusCode = "020"
	StatusTooManyCompanies StatusCode = "021"
	StatusFieldError       StatusCode = "100"
	StatusInvalidField     StatusCode = "101"
	StatusSystemFault      StatusCode = "800"
	StatusUndefined        StatusCode = "900"
	StatusKeyExpired       StatusCode = "901"
)

// Known reports whether s is one of the documented provider codes.
func (s StatusCode) Known() bool {
	_, ok := statusDescriptions[s]
	return ok
}

var statusDescriptions = map[StatusCode]string{
	StatusOK:               "OK",
	StatusUnregisteredKey:  "the API key is not registered; check that it was issued by DART OpenAPI",
	StatusDisabledKey:      "the API key is disabled; check the key status on DART OpenAPI",
	StatusIPNotAllowed:     "this IP address is not allowed; check the allowed IPs for the key on DART OpenAPI",
	StatusNoData:           "no data matched the request",
	StatusFileNotFound:     "the requested file does not exist",
	StatusRateLimited:      "the request limit was exceeded; the daily quota is 10,000 requests per key",
	StatusTooManyCompanies: "too many companies in one request; at most 100 are allowed",
	StatusFieldError:       "invalid field value; check the request parameters",
	StatusInvalidField:     "unsupported field value; check the request parameters",
	StatusSystemFault:      "DART system fault; try again later",
	StatusUndefined:        "undefined provider error",
	StatusKeyExpired:       "the API key has expired because the account was suspended or withdrawn",
}

// Describe returns the human-readable guidance for a status. Codes outside the
// table fall back to a generic message that embeds the raw code and the
// provider's own message.
func (s StatusCode) Describe(providerMessage string) string {
	if msg, ok := statusDescriptions[s]; ok {
		return msg
	}
	return fmt.Sprintf("unknown DART API error (status: %s, message: %s)", string(s), providerMessage)
}

// APIStatusError is a successful HTTP exchange whose body carries a
// non-success provider status.
type APIStatusError struct {
	Status          StatusCode
	Message         string
	ProviderMessage string
}

func (e *APIStatusError) Error() string {
	return fmt.Sprintf("dart: status %s: %s", e.Status, e.Message)
}

func newAPIStatusError(status, providerMessage string) *APIStatusError {
	code := StatusCode(status)
	return &APIStatusError{
		Status:          code,
		Message:         code.Describe(providerMessage),
		ProviderMessage: providerMessage,
	}
}

// HTTPError is a response outside the 2xx range.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("dart: HTTP error %s", e.Status)
}

// TimeoutError reports a request that did not complete before its deadline.
type TimeoutError struct {
	Endpoint string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("dart: request to %s timed out after %s; try again later", e.Endpoint, e.Timeout)
}

// NetworkError wraps transport failures such as DNS errors or connection resets.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("dart: network error calling %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsStatus reports whether err is an APIStatusError with the given status.
func IsStatus(err error, status StatusCode) bool {
	var se *APIStatusError
	if errors.As(err, &se) {
		return se.Status == status
	}
	return false
}

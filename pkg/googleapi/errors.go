package googleapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gapi "google.golang.org/api/googleapi"
)

// ProviderError is a non-success response from a Google API. StatusCode and
// Message are surfaced to callers unmodified.
type ProviderError struct {
	StatusCode int
	// Status is Google's canonical status name, e.g. PERMISSION_DENIED.
	Status  string
	Message string
	Body    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}

// errorEnvelope is Google's JSON error body.
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func newProviderError(statusCode int, body []byte) *ProviderError {
	pe := &ProviderError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		pe.Message = env.Error.Message
		pe.Status = env.Error.Status
		return pe
	}

	pe.Message = strings.TrimSpace(string(body))
	if pe.Message == "" {
		pe.Message = http.StatusText(statusCode)
	}
	return pe
}

// FromAPIError converts an error returned by a generated Google API client
// into a *ProviderError. Other errors are returned unchanged.
func FromAPIError(err error) error {
	var ae *gapi.Error
	if !errors.As(err, &ae) {
		return err
	}
	pe := newProviderError(ae.Code, []byte(ae.Body))
	if ae.Body == "" && ae.Message != "" {
		pe.Message = ae.Message
	}
	return pe
}

// AsProviderError unwraps err into a *ProviderError.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Int64 is an integer that Google encodes either as a JSON number or as a
// decimal string (int64 fields in proto3 JSON).
type Int64 int64

// UnmarshalJSON accepts 12, "12" and null.
func (i *Int64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid int64 value %s: %w", data, err)
	}
	*i = Int64(v)
	return nil
}

// MarshalJSON encodes the value as a JSON number.
func (i Int64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(i), 10)), nil
}

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// ErrRemoteRequestFailed matches every *RequestError.
var ErrRemoteRequestFailed = errors.New("remote request failed")

// RequestError describes a failed pull or write. Status is 0 when the request
// never produced a response.
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Code    int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d code %d: %s", e.Method, e.Path, e.Status, e.Code, e.Message)
}

func (e *RequestError) Is(target error) bool { return target == ErrRemoteRequestFailed }

func (e *RequestError) Unwrap() error { return e.Err }

// RequestOptions are per-call extras.
type RequestOptions struct {
	Reason string
	Query  url.Values
}

type RequestOption func(*RequestOptions)

// WithReason sets the audit log reason header.
func WithReason(reason string) RequestOption {
	return func(o *RequestOptions) { o.Reason = reason }
}

// WithQuery adds a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(o *RequestOptions) {
		if o.Query == nil {
			o.Query = url.Values{}
		}
		o.Query.Add(key, value)
	}
}

// Apply folds opts into RequestOptions.
func Apply(opts ...RequestOption) RequestOptions {
	var o RequestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Requester sends one request and returns the raw response body. path is
// relative to the API root, e.g. "guilds/1/roles". A nil body sends no
// payload. Failures are *RequestError.
type Requester interface {
	Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (json.RawMessage, error)
}

// RequesterFunc adapts a function to Requester.
type RequesterFunc func(ctx context.Context, method, path string, body any, opts ...RequestOption) (json.RawMessage, error)

func (f RequesterFunc) Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (json.RawMessage, error) {
	return f(ctx, method, path, body, opts...)
}

// TokenSetter is implemented by requesters whose auth token can be replaced.
type TokenSetter interface {
	SetToken(token string)
}

// Decode unmarshals a response into out, wrapping decode failures as a
// RequestError so callers see one failure type.
func Decode(method, path string, raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &RequestError{Method: method, Path: path, Message: "decode response", Err: err}
	}
	return nil
}

package httptransport

import (
	"fmt"
	"net/http"
)

// Error codes of RequestError.
const (
	CodeRequest = "request_error"
	CodeDecode  = "json_decode_error"
)

// RequestError reports a failed HTTP exchange: the request could not be
// sent, the status was not 200 or the body could not be decoded.
type RequestError struct {
	Code       string
	StatusCode int // zero when no response was received
	Err        error

	// Request and Response are only set in debug mode.
	Request  *ExchangeInfo
	Response *ExchangeInfo
}

// ExchangeInfo contains HTTP headers and body captured for debugging.
type ExchangeInfo struct {
	Headers http.Header
	Body    string
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Code, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// newRequestError creates a RequestError and decorates it with
// request/response information if debug mode is enabled.
func (t *Transport) newRequestError(
	code string,
	err error,
	req *http.Request,
	resp *http.Response,
	reqBody,
	respBody []byte,
) *RequestError {
	e := &RequestError{Code: code, Err: err}
	if resp != nil {
		e.StatusCode = resp.StatusCode
	}
	if !t.debug {
		return e
	}
	if req != nil && reqBody != nil {
		e.Request = &ExchangeInfo{Headers: req.Header, Body: string(reqBody)}
	}
	if resp != nil && respBody != nil {
		e.Response = &ExchangeInfo{Headers: resp.Header, Body: string(respBody)}
	}
	return e
}

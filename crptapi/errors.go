/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package crptapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorBody is the error payload returned by the registry.
type ErrorBody struct {
	Code         string `json:"code"`
	ErrorMessage string `json:"error_message"`
	Description  string `json:"description,omitempty"`
}

// ResponseError is reported when the registry answers with a non-2xx status.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	RequestID  string
	// Body holds the beginning of the response body.
	Body []byte
}

func (e *ResponseError) Error() string {
	if eb, ok := e.ErrorBody(); ok && eb.ErrorMessage != "" {
		return fmt.Sprintf("registry request %s %s failed with status %d: %s (code %s)",
			e.Method, e.URL, e.StatusCode, eb.ErrorMessage, eb.Code)
	}
	return fmt.Sprintf("registry request %s %s failed with status %d", e.Method, e.URL, e.StatusCode)
}

// ErrorBody decodes the registry error payload from Body.
func (e *ResponseError) ErrorBody() (ErrorBody, bool) {
	var eb ErrorBody
	if len(e.Body) == 0 || json.Unmarshal(e.Body, &eb) != nil {
		return ErrorBody{}, false
	}
	return eb, true
}

// Temporary reports whether the request may succeed if sent again later.
func (e *ResponseError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// RequestError is reported when the request couldn't be sent or the response couldn't be read.
type RequestError struct {
	Method string
	URL    string
	Inner  error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("registry request %s %s: %s", e.Method, e.URL, e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *RequestError) Unwrap() error {
	return e.Inner
}

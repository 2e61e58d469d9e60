/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/require"
)

const contentTypeAppJSON = "application/json"

// RegistryErrorBody is the error body returned by the registry (and the stub registry).
type RegistryErrorBody struct {
	Code         string `json:"code"`
	ErrorMessage string `json:"error_message"`
}

// RequireRegistryErrorInRecorder asserts that passing httptest.ResponseRecorder contains a registry error.
func RequireRegistryErrorInRecorder(t require.TestingT, resp *httptest.ResponseRecorder, wantHTTPCode int, wantErrCode string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	requireRegistryError(t, resp.Code, resp.Header(), resp.Body, wantHTTPCode, wantErrCode)
}

// RequireRegistryErrorInResponse asserts that passing http.Response contains a registry error.
func RequireRegistryErrorInResponse(t require.TestingT, resp *http.Response, wantHTTPCode int, wantErrCode string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	requireRegistryError(t, resp.StatusCode, resp.Header, resp.Body, wantHTTPCode, wantErrCode)
}

func requireRegistryError(
	t require.TestingT, code int, header http.Header, body io.Reader, wantHTTPCode int, wantErrCode string,
) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, wantHTTPCode, code)
	require.Equal(t, contentTypeAppJSON, header.Get("Content-Type"))
	var errBody RegistryErrorBody
	require.NoError(t, json.NewDecoder(body).Decode(&errBody))
	require.Equal(t, wantErrCode, errBody.Code)
	require.NotEmpty(t, errBody.ErrorMessage)
}

// RequireJSONInRecorder asserts that passing httptest.ResponseRecorder contains the data in json format.
// The body is decoded into dest which is then compared with want.
func RequireJSONInRecorder(t require.TestingT, resp *httptest.ResponseRecorder, want, dest interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, contentTypeAppJSON, resp.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), dest))
	require.Equal(t, want, dest)
}

/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequireRegistryErrorInRecorder(t *testing.T) {
	tests := []struct {
		name        string
		respCode    int
		contentType string
		body        string
		wantCode    int
		wantErrCode string
		wantFailed  bool
	}{
		{
			name: "ok", respCode: http.StatusTooManyRequests, contentType: contentTypeAppJSON,
			body:     `{"code":"too_many_requests","error_message":"rate limit exceeded"}`,
			wantCode: http.StatusTooManyRequests, wantErrCode: "too_many_requests",
		},
		{
			name: "unexpected status", respCode: http.StatusBadRequest, contentType: contentTypeAppJSON,
			body:     `{"code":"too_many_requests","error_message":"rate limit exceeded"}`,
			wantCode: http.StatusTooManyRequests, wantErrCode: "too_many_requests", wantFailed: true,
		},
		{
			name: "unexpected content type", respCode: http.StatusBadRequest, contentType: "text/plain",
			body:     `{"code":"invalid_document","error_message":"doc_id is required"}`,
			wantCode: http.StatusBadRequest, wantErrCode: "invalid_document", wantFailed: true,
		},
		{
			name: "unexpected error code", respCode: http.StatusBadRequest, contentType: contentTypeAppJSON,
			body:     `{"code":"invalid_document","error_message":"doc_id is required"}`,
			wantCode: http.StatusBadRequest, wantErrCode: "bad_json", wantFailed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rec.Header().Set("Content-Type", tt.contentType)
			rec.WriteHeader(tt.respCode)
			_, _ = rec.Write([]byte(tt.body))
			mockT := &fakeT{}
			RequireRegistryErrorInRecorder(mockT, rec, tt.wantCode, tt.wantErrCode)
			require.Equal(t, tt.wantFailed, mockT.failed)
		})
	}
}

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/acronis/go-crptapi/log"
)

type bodyRewinder func(r *http.Request) error

func noopBodyRewinder(*http.Request) error { return nil }

// makeRequestBodyRewindable lets the request body be sent again on retry.
// GetBody is preferred, then io.Seeker, and the body is buffered in memory as a last resort.
func makeRequestBodyRewindable(req *http.Request) (bodyRewinder, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return noopBodyRewinder, nil
	}

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("get body before doing first request: %w", err)
		}
		req.Body = body
		return func(r *http.Request) error {
			newBody, getErr := r.GetBody()
			if getErr != nil {
				return fmt.Errorf("get body for retry: %w", getErr)
			}
			r.Body = newBody
			return nil
		}, nil
	}

	if seeker, ok := req.Body.(io.ReadSeeker); ok {
		offset, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("seek request body before doing first request: %w", err)
		}
		req.Body = io.NopCloser(seeker)
		return func(r *http.Request) error {
			if _, seekErr := seeker.Seek(offset, io.SeekStart); seekErr != nil {
				return fmt.Errorf("seek request body to offset %d for retry: %w", offset, seekErr)
			}
			r.Body = io.NopCloser(seeker)
			return nil
		}, nil
	}

	buf, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body before doing first request: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(buf))
	return func(r *http.Request) error {
		r.Body = io.NopCloser(bytes.NewReader(buf))
		return nil
	}, nil
}

// drainResponseBody reads and discards the entire response body to allow connection reuse.
func drainResponseBody(resp *http.Response, logger log.FieldLogger) {
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("failed to close response body between retry attempts", log.Error(closeErr))
		}
	}()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		logger.Error("failed to discard response body between retry attempts", log.Error(err))
	}
}

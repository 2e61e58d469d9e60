/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package crptapi provides the HTTP transport to the CRPT registry "create document" endpoint.
// Client implements submitter.Transport.
package crptapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/acronis/go-crptapi/httpclient"
	"github.com/acronis/go-crptapi/internal/libinfo"
	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/submitter"
)

// RequestTypeCreateDocument labels registry requests in HTTP client logs and metrics.
const RequestTypeCreateDocument = "create-document"

// SignatureHeader is the HTTP header that carries the document signature.
const SignatureHeader = "Signature"

// ClientOpts represents options for the Client.
type ClientOpts struct {
	Logger log.FieldLogger

	// MetricsCollector is used when metrics are enabled in httpclient.Config.
	MetricsCollector httpclient.MetricsCollector

	// UserAgent defaults to "go-crptapi/<module version>".
	UserAgent string

	// Transport is the innermost http.RoundTripper. Mostly useful in tests.
	Transport http.RoundTripper
}

// Client sends documents to the registry.
type Client struct {
	httpClient   *http.Client
	url          string
	maxBodySize  int64
	logger       log.FieldLogger
	inFlightSend sync.WaitGroup
}

var _ submitter.Transport = (*Client)(nil)

// NewClient creates a new registry client.
func NewClient(cfg *Config, opts ClientOpts) (*Client, error) {
	if err := validateBaseURL(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = libinfo.UserAgent()
	}
	maxBodySize := int64(cfg.MaxResponseBodySize)
	if maxBodySize <= 0 {
		maxBodySize = int64(DefaultMaxResponseBodySize)
	}

	httpCfg := cfg.HTTPClient
	if httpCfg == nil {
		httpCfg = httpclient.NewDefaultConfig()
	}
	httpOpts := httpclient.Opts{
		UserAgent:   opts.UserAgent,
		RequestType: RequestTypeCreateDocument,
		Delegate:    opts.Transport,
		Logger:      opts.Logger,
		Collector:   opts.MetricsCollector,
	}
	if cfg.Token != "" {
		httpOpts.AuthProvider = httpclient.StaticTokenProvider(cfg.Token)
	}
	httpClient, err := httpclient.NewWithOpts(httpCfg, httpOpts)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	return &Client{
		httpClient:  httpClient,
		url:         cfg.DocumentsURL(),
		maxBodySize: maxBodySize,
		logger:      opts.Logger,
	}, nil
}

// Send posts the request to the registry in a separate goroutine and reports the result through done.
func (c *Client) Send(ctx context.Context, req submitter.Request, done func(submitter.Response, error)) {
	c.inFlightSend.Add(1)
	go func() {
		defer c.inFlightSend.Done()
		done(c.CreateDocument(ctx, req))
	}()
}

// Wait blocks until all requests started by Send are finished.
func (c *Client) Wait() {
	c.inFlightSend.Wait()
}

// CreateDocument posts the request to the registry synchronously.
// A non-2xx response is reported as *ResponseError.
func (c *Client) CreateDocument(ctx context.Context, req submitter.Request) (submitter.Response, error) {
	ctx = httpclient.NewContextWithRequestType(ctx, RequestTypeCreateDocument)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(req.Payload))
	if err != nil {
		return submitter.Response{}, &RequestError{Method: http.MethodPost, URL: c.url, Inner: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.ID != "" {
		httpReq.Header.Set(httpclient.RequestIDHeader, req.ID)
	}
	if req.Signature != "" {
		httpReq.Header.Set(SignatureHeader, req.Signature)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return submitter.Response{}, &RequestError{Method: http.MethodPost, URL: c.url, Inner: err}
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close registry response body", log.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBodySize))
	if err != nil {
		return submitter.Response{}, &RequestError{
			Method: http.MethodPost, URL: c.url, Inner: fmt.Errorf("read response body: %w", err)}
	}
	// Drain the rest so the connection can be reused.
	_, _ = io.Copy(io.Discard, httpResp.Body)

	requestID := httpResp.Header.Get(httpclient.RequestIDHeader)
	if requestID == "" {
		requestID = req.ID
	}
	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return submitter.Response{}, &ResponseError{
			Method:     http.MethodPost,
			URL:        c.url,
			StatusCode: httpResp.StatusCode,
			RequestID:  requestID,
			Body:       body,
		}
	}
	return submitter.Response{StatusCode: httpResp.StatusCode, Body: body, RequestID: requestID}, nil
}

// CreateResult is the success payload of the "create document" endpoint.
type CreateResult struct {
	// Value is the registry-assigned identifier of the created document.
	Value string `json:"value"`
}

// ParseCreateResult decodes the success payload of the "create document" endpoint.
func ParseCreateResult(resp submitter.Response) (CreateResult, error) {
	var res CreateResult
	if err := json.Unmarshal(resp.Body, &res); err != nil {
		return CreateResult{}, fmt.Errorf("decode create document result: %w", err)
	}
	if res.Value == "" {
		return CreateResult{}, errors.New("create document result has empty value")
	}
	return res, nil
}

// IsTemporary reports whether a submission that failed with err may succeed if retried.
func IsTemporary(err error) bool {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Temporary()
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return httpclient.CheckErrorIsTemporary(reqErr.Inner) || errors.Is(reqErr.Inner, context.DeadlineExceeded)
	}
	return errors.Is(err, submitter.ErrRequestTimeout)
}

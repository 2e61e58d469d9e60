/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package registrystub implements a fake CRPT registry.
// It accepts documents on the "create document" endpoint, validates them,
// and records what it admitted so tests can check the client-side throttling.
package registrystub

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"

	"github.com/acronis/go-crptapi/document"
	"github.com/acronis/go-crptapi/internal/ratelimit"
	"github.com/acronis/go-crptapi/log"
)

// Error codes returned in the "code" field of the error body.
const (
	ErrCodeInvalidJSON     = "invalid_json"
	ErrCodeInvalidDocument = "invalid_document"
	ErrCodeTooLarge        = "payload_too_large"
	ErrCodeTooManyRequests = "too_many_requests"
	ErrCodeInternal        = "internal_error"
)

const (
	headerRequestID = "X-Request-ID"
	headerSignature = "Signature"
)

// Admission describes a document accepted by the stub.
type Admission struct {
	Time      time.Time
	Value     string
	DocID     string
	RequestID string
	Signature string
}

// ErrorBody is the error payload the stub responds with.
type ErrorBody struct {
	Code         string `json:"code"`
	ErrorMessage string `json:"error_message"`
}

// CreateResult is the success payload the stub responds with.
type CreateResult struct {
	Value string `json:"value"`
}

// Registry is the fake registry state and its HTTP handler.
type Registry struct {
	cfg     *Config
	logger  log.FieldLogger
	limiter ratelimit.Limiter
	handler http.Handler
	metrics *metrics

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	mu         sync.Mutex
	admissions []Admission
}

// New creates a new stub registry.
func New(cfg *Config, logger log.FieldLogger) (*Registry, error) {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	r := &Registry{cfg: cfg, logger: logger, metrics: newMetrics()}
	if cfg.RateLimit.Enabled {
		var err error
		if r.limiter, err = cfg.RateLimit.NewLimiter(); err != nil {
			return nil, err
		}
	}
	r.handler = r.newRouter()
	return r, nil
}

// ServeHTTP implements http.Handler.
func (r *Registry) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(rw, req)
}

// Admissions returns documents accepted so far in the order of acceptance.
func (r *Registry) Admissions() []Admission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Admission(nil), r.admissions...)
}

// MaxConcurrent returns the largest number of document requests that were processed at once.
func (r *Registry) MaxConcurrent() int {
	return int(r.maxInFlight.Load())
}

// Reset forgets accepted documents and the concurrency peak.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.admissions = nil
	r.mu.Unlock()
	r.maxInFlight.Store(r.inFlight.Load())
}

func (r *Registry) newRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(requestIDMiddleware, recoveryMiddleware(r.logger))
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(r.metrics.registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	router.Post(r.cfg.DocumentsPath, r.createDocument)
	return router
}

func (r *Registry) createDocument(rw http.ResponseWriter, req *http.Request) {
	cur := r.inFlight.Inc()
	defer r.inFlight.Dec()
	for peak := r.maxInFlight.Load(); cur > peak && !r.maxInFlight.CompareAndSwap(peak, cur); {
		peak = r.maxInFlight.Load()
	}
	r.metrics.inFlight.Set(float64(cur))

	requestID := rw.Header().Get(headerRequestID)
	logger := r.logger.With(log.String("request_id", requestID))

	status := r.processDocument(rw, req, logger, requestID)
	r.metrics.requests.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (r *Registry) processDocument(
	rw http.ResponseWriter, req *http.Request, logger log.FieldLogger, requestID string,
) int {
	if r.limiter != nil {
		allow, retryAfter, err := r.limiter.Allow(req.Context(), rateLimitKey(req))
		if err != nil {
			logger.Error("rate limiter failed", log.Error(err))
			return respondError(rw, http.StatusInternalServerError, ErrCodeInternal, "rate limiter failed", logger)
		}
		if !allow {
			rw.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			return respondError(rw, http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded", logger)
		}
	}

	if r.cfg.Latency > 0 {
		timer := time.NewTimer(r.cfg.Latency)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return 499
		case <-timer.C:
		}
	}

	var doc document.Document
	body := http.MaxBytesReader(rw, req.Body, int64(r.cfg.MaxRequestBodySize))
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return respondError(rw, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, err.Error(), logger)
		}
		return respondError(rw, http.StatusBadRequest, ErrCodeInvalidJSON, err.Error(), logger)
	}

	validate := document.Validate
	if r.cfg.StrictValidation {
		validate = document.ValidateStrict
	}
	if err := validate(&doc); err != nil {
		return respondError(rw, http.StatusBadRequest, ErrCodeInvalidDocument, err.Error(), logger)
	}

	if r.cfg.FailureRatio > 0 && rand.Float64() < r.cfg.FailureRatio {
		return respondError(rw, http.StatusInternalServerError, ErrCodeInternal, "registry is unavailable", logger)
	}

	adm := Admission{
		Time:      time.Now(),
		Value:     uuid.NewString(),
		DocID:     doc.DocID,
		RequestID: requestID,
		Signature: req.Header.Get(headerSignature),
	}
	r.mu.Lock()
	r.admissions = append(r.admissions, adm)
	r.mu.Unlock()

	logger.Info("document accepted",
		log.String("doc_id", doc.DocID), log.Int("products", len(doc.Products)), log.Secret("signature", adm.Signature))
	return respondJSON(rw, http.StatusOK, CreateResult{Value: adm.Value}, logger)
}

// rateLimitKey identifies the client: by its token when present, by the remote IP otherwise.
func rateLimitKey(req *http.Request) string {
	if auth := req.Header.Get("Authorization"); auth != "" {
		return auth
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func respondError(rw http.ResponseWriter, status int, code, msg string, logger log.FieldLogger) int {
	if status >= http.StatusInternalServerError {
		logger.Warn("document rejected", log.Int("status", status), log.String("code", code), log.String("error", msg))
	} else {
		logger.Info("document rejected", log.Int("status", status), log.String("code", code), log.String("error", msg))
	}
	return respondJSON(rw, status, ErrorBody{Code: code, ErrorMessage: msg}, logger)
}

func respondJSON(rw http.ResponseWriter, status int, data interface{}, logger log.FieldLogger) int {
	respJSON, err := json.Marshal(data)
	if err != nil {
		logger.Error("error while marshaling json for response body", log.Error(err))
		rw.WriteHeader(http.StatusInternalServerError)
		return http.StatusInternalServerError
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if _, err = rw.Write(respJSON); err != nil {
		logger.Error("error while writing response body", log.Error(err))
	}
	return status
}

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	inFlight prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crpt_stub",
			Name:      "document_requests_total",
			Help:      "Number of document requests by response status.",
		}, []string{"status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crpt_stub",
			Name:      "document_requests_in_flight",
			Help:      "Number of document requests being processed.",
		}),
	}
	m.registry.MustRegister(m.requests, m.inFlight)
	return m
}

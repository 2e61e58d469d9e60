/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package registrystub

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/rs/xid"

	"github.com/acronis/go-crptapi/log"
)

const recoveryStackSize = 8192

// requestIDMiddleware echoes X-Request-ID into the response and generates one if the client sent none.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = xid.New().String()
		}
		rw.Header().Set(headerRequestID, requestID)
		next.ServeHTTP(rw, r)
	})
}

// recoveryMiddleware recovers from panics, logs the panic value with a stacktrace and responds with 500.
func recoveryMiddleware(logger log.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler { //nolint:errorlint,goerr113
					logger.Warn("request has been aborted", log.Error(http.ErrAbortHandler))
					panic(p)
				}
				stack := make([]byte, recoveryStackSize)
				stack = stack[:runtime.Stack(stack, false)]
				logger.Error(fmt.Sprintf("Panic: %+v", p), log.Bytes("stack", stack),
					log.String("request_id", rw.Header().Get(headerRequestID)))
				respondError(rw, http.StatusInternalServerError, ErrCodeInternal, "internal server error", logger)
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package submitter

import (
	"context"
	"encoding/json"
)

// Request is a single serialized submission handed to a Transport.
type Request struct {
	// ID identifies the submission in logs, traces and the X-Request-ID header.
	ID        string
	Payload   []byte
	Signature string
}

// Response summarizes a successful registry response.
type Response struct {
	StatusCode int
	Body       []byte
	RequestID  string
}

// Transport delivers requests to the registry.
// Send must call done exactly once, either before returning or later from another goroutine.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, req Request, done func(Response, error))
}

// TransportFunc adapts a synchronous function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) (Response, error)

// Send calls f and reports its result through done.
func (f TransportFunc) Send(ctx context.Context, req Request, done func(Response, error)) {
	done(f(ctx, req))
}

// Encoder serializes a document into a request payload.
type Encoder interface {
	Encode(v interface{}) ([]byte, error)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(v interface{}) ([]byte, error)

// Encode calls f.
func (f EncoderFunc) Encode(v interface{}) ([]byte, error) {
	return f(v)
}

// JSONEncoder serializes documents with encoding/json.
var JSONEncoder Encoder = EncoderFunc(json.Marshal)

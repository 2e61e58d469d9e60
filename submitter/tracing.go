/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package submitter

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/acronis/go-crptapi/submitter"

const submitSpanName = "crpt.submit"

func startSubmitSpan(ctx context.Context, tracer trace.Tracer, reqID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, submitSpanName,
		trace.WithAttributes(attribute.String("crpt.request_id", reqID)),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func recordThrottleWait(span trace.Span, waited time.Duration) {
	span.SetAttributes(attribute.Int64("crpt.throttle.wait_ms", waited.Milliseconds()))
}

func recordPayload(span trace.Span, size int) {
	span.SetAttributes(attribute.Int("crpt.payload.size", size))
}

func endSubmitSpan(span trace.Span, outcome Outcome) {
	if outcome.Err != nil {
		span.RecordError(outcome.Err)
		span.SetStatus(codes.Error, outcome.Err.Error())
	} else {
		span.SetAttributes(attribute.Int("http.response.status_code", outcome.Response.StatusCode))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

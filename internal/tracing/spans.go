package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/agview/internal/domain"
)

// Span attribute keys.
const (
	AttrOperation  = "agview.operation"
	AttrProjectID  = "agview.project_id"
	AttrCourseID   = "agview.course_id"
	AttrEntityID   = "agview.entity_id"
	AttrPageNum    = "agview.page_num"
	AttrPageCount  = "agview.page_records"
	AttrHTTPStatus = "http.status_code"
	AttrRequestID  = "http.request_id"

	AttrErrorMessage = "error.message"
)

// Span name prefixes.
const (
	SpanPrefixAPI     = "api."
	SpanPrefixGrading = "grading."
)

// Event names.
const (
	EventPageMerged   = "page.merged"
	EventStaleDropped = "completion.dropped"
)

// Start opens a span named name. A nil tracer yields a non-recording span
// so callers never need to branch.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span (with its HTTP status when it is an HTTPError)
// and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
		var httpErr *domain.HTTPError
		if errors.As(err, &httpErr) {
			span.SetAttributes(attribute.Int(AttrHTTPStatus, httpErr.StatusCode))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

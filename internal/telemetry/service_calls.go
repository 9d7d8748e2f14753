package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// GorseCallAttrs describes a call to the Gorse recommender
type GorseCallAttrs struct {
	ItemID string
	UserID string
	Limit  int
}

// TraceGorseCall creates a span for Gorse recommendation API calls
// Examples: item_neighbors, insert_item, insert_feedback
func TraceGorseCall(ctx context.Context, operation string, attrs GorseCallAttrs) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("gorse").Start(ctx, "gorse."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("gorse.operation", operation)),
	)

	if attrs.ItemID != "" {
		span.SetAttributes(attribute.String("gorse.item_id", attrs.ItemID))
	}
	if attrs.UserID != "" {
		span.SetAttributes(attribute.String("gorse.user_id", attrs.UserID))
	}
	if attrs.Limit > 0 {
		span.SetAttributes(attribute.Int("gorse.limit", attrs.Limit))
	}
	return ctx, span
}

// S3CallAttrs describes an S3 operation
type S3CallAttrs struct {
	Bucket      string
	Key         string
	ContentType string
	SizeBytes   int64
}

// TraceS3Call creates a span for AWS S3 operations
func TraceS3Call(ctx context.Context, operation string, attrs S3CallAttrs) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("s3").Start(ctx, "s3."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("s3.operation", operation)),
	)

	if attrs.Bucket != "" {
		span.SetAttributes(attribute.String("s3.bucket", attrs.Bucket))
	}
	if attrs.Key != "" {
		span.SetAttributes(attribute.String("s3.key", attrs.Key))
	}
	if attrs.ContentType != "" {
		span.SetAttributes(attribute.String("s3.content_type", attrs.ContentType))
	}
	if attrs.SizeBytes > 0 {
		span.SetAttributes(attribute.Int64("s3.size_bytes", attrs.SizeBytes))
	}
	return ctx, span
}

// GalleryEventAttrs describes a gallery or lightbox operation
type GalleryEventAttrs struct {
	ItemID    string
	SessionID string
	UserID    string
	Index     int
	Count     int
}

// TraceGalleryEvent creates an internal span for a gallery operation such as
// related, image_load or lightbox.next
func TraceGalleryEvent(ctx context.Context, operation string, attrs GalleryEventAttrs) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("gallery").Start(ctx, "gallery."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	if attrs.ItemID != "" {
		span.SetAttributes(attribute.String("gallery.item_id", attrs.ItemID))
	}
	if attrs.SessionID != "" {
		span.SetAttributes(attribute.String("lightbox.session_id", attrs.SessionID))
		span.SetAttributes(attribute.Int("lightbox.index", attrs.Index))
	}
	if attrs.UserID != "" {
		span.SetAttributes(attribute.String("user.id", attrs.UserID))
	}
	if attrs.Count > 0 {
		span.SetAttributes(attribute.Int("result.item_count", attrs.Count))
	}
	return ctx, span
}

// RecordServiceError records a service error in span
func RecordServiceError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err, trace.WithStackTrace(true))
	span.SetAttributes(attribute.String("error.type", "service_error"))
}

// RecordServiceSuccess marks span successful with the result size
func RecordServiceSuccess(span trace.Span, itemCount int, cached bool) {
	span.SetAttributes(attribute.Int("result.item_count", itemCount))
	if cached {
		span.SetAttributes(attribute.Bool("result.from_cache", true))
	}
	span.SetStatus(codes.Ok, "")
}

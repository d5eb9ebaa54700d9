package telemetry

import (
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// redactedParams never show up on a span.
var redactedParams = []string{"api-key"}

// TraceResty opens a client span around every request made by the client.
func TraceResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(onBeforeRequest(tracer))
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func onBeforeRequest(tracer trace.Tracer) resty.RequestMiddleware {
	return func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(
			req.Context(),
			fmt.Sprintf("http %s", req.Method),
			trace.WithSpanKind(trace.SpanKindClient),
		)
		req.SetContext(ctx)
		return nil
	}
}

func redactUrl(u *url.URL) string {
	if u == nil {
		return ""
	}
	out := *u
	query := out.Query()
	for _, param := range redactedParams {
		if query.Has(param) {
			query.Set(param, "<redacted>")
		}
	}
	out.RawQuery = query.Encode()
	return out.String()
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	span.SetAttributes(
		semconv.HTTPRequestMethodKey.String(res.Request.Method),
		semconv.HTTPResponseStatusCode(res.StatusCode()),
	)
	if res.Request.RawRequest != nil {
		span.SetAttributes(semconv.URLFull(redactUrl(res.Request.RawRequest.URL)))
	}
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(semconv.HTTPRequestMethodKey.String(req.Method))
	if req.RawRequest != nil {
		span.SetAttributes(semconv.URLFull(redactUrl(req.RawRequest.URL)))
	}
}

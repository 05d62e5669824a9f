package ctxutil

import "context"

type requestMetaKey struct{}

// RequestMeta identifies the inbound request a piece of work belongs to.
type RequestMeta struct {
	TraceID   string
	RequestID string
}

func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func GetRequestMeta(ctx context.Context) *RequestMeta {
	if ctx == nil {
		return nil
	}
	if meta, ok := ctx.Value(requestMetaKey{}).(*RequestMeta); ok {
		return meta
	}
	return nil
}

// RequestID returns the request id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	if meta := GetRequestMeta(ctx); meta != nil {
		return meta.RequestID
	}
	return ""
}

// LogFields returns trace_id/request_id key-value pairs for structured logging.
func LogFields(ctx context.Context) []interface{} {
	meta := GetRequestMeta(ctx)
	if meta == nil {
		return nil
	}
	var out []interface{}
	if meta.TraceID != "" {
		out = append(out, "trace_id", meta.TraceID)
	}
	if meta.RequestID != "" {
		out = append(out, "request_id", meta.RequestID)
	}
	return out
}

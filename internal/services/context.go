package services

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	apodDateKey
)

// WithRequestID tags ctx with the invocation's correlation id. An empty id
// leaves ctx unchanged.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

// WithAPODDate tags ctx with the YYYY-MM-DD date being cached.
func WithAPODDate(ctx context.Context, date string) context.Context {
	return withString(ctx, apodDateKey, date)
}

func APODDateFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, apodDateKey)
}

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key ctxKey) (string, bool) {
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

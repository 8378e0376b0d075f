// Package context carries the correlation values the pipeline threads
// through its batch runs and queue consumers.
package context

import "context"

type ContextKey string

var (
	RequestIDKey = ContextKey("X-Request-Id")
	RunIDKey     = ContextKey("X-Run-Id")
	JobIDKey     = ContextKey("X-Job-Id")
	JobKindKey   = ContextKey("X-Job-Kind")
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	value, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

// SetRunID tags a context with the id of the batch run that owns it
func SetRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

func GetRunID(ctx context.Context) string {
	value, ok := ctx.Value(RunIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

// SetJobID tags a context with the id of the job being executed
func SetJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

func GetJobID(ctx context.Context) string {
	value, ok := ctx.Value(JobIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetJobKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, JobKindKey, kind)
}

func GetJobKind(ctx context.Context) string {
	value, ok := ctx.Value(JobKindKey).(string)
	if !ok {
		return ""
	}
	return value
}

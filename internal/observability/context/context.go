// Package context carries request correlation values used by logs and traces.
package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}

type orgIDKey struct{}

type actorKey struct{}

type runKey struct{}

type actor struct {
	kind string
	id   string
}

type run struct {
	generator string
	id        string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

func WithOrgID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgIDKey{}, strings.TrimSpace(orgID))
}

func OrgIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(orgIDKey{}).(string)
	return value
}

// WithActor records who performs the request, e.g. ("user", "123") or ("scheduler", "impact").
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor{
		kind: strings.TrimSpace(actorType),
		id:   strings.TrimSpace(actorID),
	})
}

func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	value, ok := ctx.Value(actorKey{}).(actor)
	if !ok {
		return "", ""
	}
	return value.kind, value.id
}

// WithRun tags work done by one generator or scheduler run, e.g. ("insights", "01J...").
func WithRun(ctx context.Context, generator, runID string) context.Context {
	return context.WithValue(ctx, runKey{}, run{
		generator: strings.TrimSpace(generator),
		id:        strings.TrimSpace(runID),
	})
}

func RunFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	value, ok := ctx.Value(runKey{}).(run)
	if !ok {
		return "", ""
	}
	return value.generator, value.id
}

package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxCallerID ctxKey = iota

var ErrNoCaller = errors.New("caller_id not in context")

func WithCaller(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, ctxCallerID, callerID)
}

func CallerID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxCallerID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", ErrNoCaller
}

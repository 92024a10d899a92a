// Package groutine starts named goroutines. The name is attached as a pprof
// label and carried in the context so log lines can say which worker
// produced them.
package groutine

import (
	"context"
	"runtime/pprof"
)

type ctxKey struct{}

const labelKey = "goroutine_name"

// Go runs fn in a new goroutine labelled with name. A nil parent is
// treated as context.Background().
//
//	groutine.Go(ctx, "ble-scan", func(ctx context.Context) {
//	    // work
//	})
func Go(parent context.Context, name string, fn func(ctx context.Context)) {
	if parent == nil {
		parent = context.Background()
	}

	go pprof.Do(parent, pprof.Labels(labelKey, name), func(ctx context.Context) {
		fn(context.WithValue(ctx, ctxKey{}, name))
	})
}

// Name returns the goroutine name stored in ctx, or "" when ctx was not
// created by Go.
func Name(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(ctxKey{}).(string)
	return name
}

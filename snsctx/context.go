// Package snsctx carries per-call flags for drivers and bus adapters.
package snsctx

import "context"

type ctxKey int

const verboseKey ctxKey = iota

// IsVerbose reports whether raw bus traffic should be dumped to the debug log.
func IsVerbose(ctx context.Context) bool {
	verbose, _ := ctx.Value(verboseKey).(bool)
	return verbose
}

func SetVerbose(parent context.Context, value bool) context.Context {
	return context.WithValue(parent, verboseKey, value)
}

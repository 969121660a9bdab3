package unitofwork

import (
	"context"

	"github.com/librisys/loanservice/storage"
)

type scopeContextKey struct{}

// ContextWithScope attaches a Scope to the context. Scope travels as an
// explicit parameter through the core APIs; context carriage exists only to
// cross the http.Handler and event dispatch boundaries, which cannot grow
// extra parameters.
func ContextWithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext extracts the Scope attached by ContextWithScope. It
// returns nil when the context carries none, which is the normal case for
// background work.
func ScopeFromContext(ctx context.Context) *Scope {
	scope, _ := ctx.Value(scopeContextKey{}).(*Scope)
	return scope
}

// QuerierFrom picks the Querier a piece of work should run against: the
// scope's transaction when a scope is present, otherwise the fallback.
func QuerierFrom(scope *Scope, fallback storage.Querier) storage.Querier {
	if scope != nil {
		return scope.Tx()
	}

	return fallback
}

package goGuard

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoResult is delivered when an [AsyncHandler] returns a nil channel or
// closes its channel without sending a Result.
var ErrNoResult = errors.New("goGuard: handler produced no result")

// Handler is a blocking request handler producing a T. The ctx it receives
// carries the published [RequestContext].
type Handler[T any] func(ctx context.Context, r *http.Request) (T, error)

// Result is the single value delivered by an [AsyncHandler].
type Result[T any] struct {
	Value T
	Err   error
}

// AsyncHandler starts handling a request and returns a channel that delivers
// exactly one Result and is then closed.
type AsyncHandler[T any] func(ctx context.Context, r *http.Request) <-chan Result[T]

// Protect wraps next with policy. next runs only after the guard succeeded
// and receives the guard's context.
func Protect[T any](g *Guard, policy Policy, next Handler[T]) Handler[T] {
	return func(ctx context.Context, r *http.Request) (T, error) {
		ctx, err := g.Verify(ctx, r, policy)
		if err != nil {
			var zero T
			return zero, err
		}
		return next(ctx, r.WithContext(ctx))
	}
}

// ProtectAsync wraps next with policy. The guard runs on its own goroutine;
// next is started only after it succeeded, and its own channel is forwarded
// as-is so it may keep suspending independently.
//
// If ctx ends while the guard is still running, the returned channel
// delivers ctx.Err() and next is never started.
func ProtectAsync[T any](g *Guard, policy Policy, next AsyncHandler[T]) AsyncHandler[T] {
	return func(ctx context.Context, r *http.Request) <-chan Result[T] {
		out := make(chan Result[T], 1)

		go func() {
			defer close(out)

			type verified struct {
				ctx context.Context
				err error
			}
			done := make(chan verified, 1)
			go func() {
				vctx, err := g.Verify(ctx, r, policy)
				done <- verified{ctx: vctx, err: err}
			}()

			var v verified
			select {
			case v = <-done:
			case <-ctx.Done():
				out <- Result[T]{Err: ctx.Err()}
				return
			}
			if v.err != nil {
				out <- Result[T]{Err: v.err}
				return
			}

			inner := next(v.ctx, r.WithContext(v.ctx))
			if inner == nil {
				out <- Result[T]{Err: ErrNoResult}
				return
			}
			select {
			case res, ok := <-inner:
				if !ok {
					res = Result[T]{Err: ErrNoResult}
				}
				out <- res
			case <-ctx.Done():
				out <- Result[T]{Err: ctx.Err()}
			}
		}()

		return out
	}
}

// Await blocks until ch delivers a result or ctx ends.
func Await[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	var zero T
	select {
	case res, ok := <-ch:
		if !ok {
			return zero, ErrNoResult
		}
		return res.Value, res.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// RequireAccess wraps next with [PolicyRequiredAccess].
func RequireAccess[T any](g *Guard, next Handler[T]) Handler[T] {
	return Protect(g, PolicyRequiredAccess, next)
}

// OptionalAccess wraps next with [PolicyOptionalAccess].
func OptionalAccess[T any](g *Guard, next Handler[T]) Handler[T] {
	return Protect(g, PolicyOptionalAccess, next)
}

// RequireFreshAccess wraps next with [PolicyFreshAccessRequired].
func RequireFreshAccess[T any](g *Guard, next Handler[T]) Handler[T] {
	return Protect(g, PolicyFreshAccessRequired, next)
}

// RequireRefresh wraps next with [PolicyRequiredRefresh].
func RequireRefresh[T any](g *Guard, next Handler[T]) Handler[T] {
	return Protect(g, PolicyRequiredRefresh, next)
}

// RequireAccessAsync wraps next with [PolicyRequiredAccess].
func RequireAccessAsync[T any](g *Guard, next AsyncHandler[T]) AsyncHandler[T] {
	return ProtectAsync(g, PolicyRequiredAccess, next)
}

// OptionalAccessAsync wraps next with [PolicyOptionalAccess].
func OptionalAccessAsync[T any](g *Guard, next AsyncHandler[T]) AsyncHandler[T] {
	return ProtectAsync(g, PolicyOptionalAccess, next)
}

// RequireFreshAccessAsync wraps next with [PolicyFreshAccessRequired].
func RequireFreshAccessAsync[T any](g *Guard, next AsyncHandler[T]) AsyncHandler[T] {
	return ProtectAsync(g, PolicyFreshAccessRequired, next)
}

// RequireRefreshAsync wraps next with [PolicyRequiredRefresh].
func RequireRefreshAsync[T any](g *Guard, next AsyncHandler[T]) AsyncHandler[T] {
	return ProtectAsync(g, PolicyRequiredRefresh, next)
}

// Package inflight collapses concurrent identical translation requests into a
// single execution.
package inflight

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Group deduplicates calls by key. The zero value is ready to use.
type Group struct {
	sf      singleflight.Group
	pending atomic.Int64
}

// Do runs fn once per key while a call for that key is in flight. Every caller
// observes the same value or error, and the key is released when fn returns.
//
// fn runs on a context detached from the first caller's cancellation. A caller
// whose ctx ends stops waiting and gets ctx.Err(); the call keeps running for the
// others. A panic in fn is returned to every caller as an error.
func (g *Group) Do(ctx context.Context, key string, fn func(context.Context) (string, error)) (string, bool, error) {
	detached := context.WithoutCancel(ctx)

	ch := g.sf.DoChan(key, func() (value any, err error) {
		g.pending.Add(1)
		defer g.pending.Add(-1)
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("in-flight call %q panicked: %v", key, rec)
			}
		}()
		return fn(detached)
	})

	select {
	case res := <-ch:
		value, _ := res.Val.(string)
		return value, res.Shared, res.Err
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// Pending returns how many keys are currently in flight.
func (g *Group) Pending() int {
	return int(g.pending.Load())
}

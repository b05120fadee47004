package logctx

import (
	"context"
	"sync"
)

// Scope is an overlay of ambient fields created by Enter.
type Scope struct {
	once sync.Once
	undo []*Token
}

// Enter returns a fork of ctx with every non-empty member of fields set, in
// the order request_id, task_id, step. The flow carried by ctx is never
// modified, so sibling goroutines may enter scopes on a shared context.
// Callers must use the returned context and call Exit, normally with defer.
//
//	ctx, scope := logctx.Enter(ctx, logctx.Fields{RequestID: id})
//	defer scope.Exit()
func Enter(ctx context.Context, fields Fields) (context.Context, *Scope) {
	ctx = Fork(ctx)
	s := &Scope{}
	for _, key := range Keys {
		v := fields.Get(key)
		if v == "" {
			continue
		}
		tok, err := Set(ctx, key, v)
		if err != nil {
			// ctx carries a fresh flow and key comes from Keys.
			panic(err)
		}
		s.undo = append(s.undo, tok)
	}
	return ctx, s
}

// Exit restores the fields set by Enter on the returned context in reverse
// order. Calls after the first are no-ops.
func (s *Scope) Exit() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		for i := len(s.undo) - 1; i >= 0; i-- {
			Restore(s.undo[i])
		}
		s.undo = nil
	})
}

// Do runs fn inside a scope with fields. The scope is exited even when fn
// panics; fn's error is returned unchanged.
func Do(ctx context.Context, fields Fields, fn func(ctx context.Context) error) error {
	ctx, scope := Enter(ctx, fields)
	defer scope.Exit()
	return fn(ctx)
}

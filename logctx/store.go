package logctx

import (
	"context"
	"sync"
)

// Unset is the value reported for a field that was never set.
const Unset = "-"

// Key names one ambient field.
type Key int

const (
	RequestID Key = iota
	TaskID
	Step

	numKeys
)

// Keys lists every field in its fixed order.
var Keys = [...]Key{RequestID, TaskID, Step}

// String returns the JSON key used for the field.
func (k Key) String() string {
	switch k {
	case RequestID:
		return "request_id"
	case TaskID:
		return "task_id"
	case Step:
		return "step"
	default:
		return "unknown"
	}
}

func (k Key) valid() bool {
	return k >= 0 && k < numKeys
}

// flow holds the field values of one execution flow. The zero string means unset.
type flow struct {
	mu   sync.RWMutex
	vals [numKeys]string
}

type flowKey struct{}

func flowFrom(ctx context.Context) *flow {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(flowKey{}).(*flow)
	return f
}

// Fork returns a context carrying a new flow seeded with the current values.
// Later changes on either side are not visible to the other.
func Fork(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	child := &flow{}
	if parent := flowFrom(ctx); parent != nil {
		parent.mu.RLock()
		child.vals = parent.vals
		parent.mu.RUnlock()
	}
	return context.WithValue(ctx, flowKey{}, child)
}

// HasFlow reports whether ctx carries a flow.
func HasFlow(ctx context.Context) bool {
	return flowFrom(ctx) != nil
}

// Get returns the field value for the flow on ctx, or Unset.
func Get(ctx context.Context, key Key) string {
	f := flowFrom(ctx)
	if f == nil || !key.valid() {
		return Unset
	}
	f.mu.RLock()
	v := f.vals[key]
	f.mu.RUnlock()
	if v == "" {
		return Unset
	}
	return v
}

// Fields is a snapshot of all ambient fields. Empty members mean "not supplied"
// when passed to Enter.
type Fields struct {
	RequestID string
	TaskID    string
	Step      string
}

// Get returns the member for key.
func (f Fields) Get(key Key) string {
	switch key {
	case RequestID:
		return f.RequestID
	case TaskID:
		return f.TaskID
	case Step:
		return f.Step
	}
	return ""
}

// Snapshot returns every field of the flow on ctx, Unset where not set.
func Snapshot(ctx context.Context) Fields {
	out := Fields{RequestID: Unset, TaskID: Unset, Step: Unset}
	f := flowFrom(ctx)
	if f == nil {
		return out
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if v := f.vals[RequestID]; v != "" {
		out.RequestID = v
	}
	if v := f.vals[TaskID]; v != "" {
		out.TaskID = v
	}
	if v := f.vals[Step]; v != "" {
		out.Step = v
	}
	return out
}

// Token records the value a field held before Set. It restores exactly once.
type Token struct {
	f    *flow
	key  Key
	prev string
	used bool
}

// Key returns the field the token restores.
func (t *Token) Key() Key { return t.key }

// Previous returns the value Restore will put back.
func (t *Token) Previous() string {
	if t.prev == "" {
		return Unset
	}
	return t.prev
}

// Set changes a field on the flow carried by ctx and returns a token for the
// previous value.
func Set(ctx context.Context, key Key, value string) (*Token, error) {
	if !key.valid() {
		return nil, ErrInvalidKey
	}
	f := flowFrom(ctx)
	if f == nil {
		return nil, ErrNoFlow
	}
	f.mu.Lock()
	prev := f.vals[key]
	f.vals[key] = value
	f.mu.Unlock()
	return &Token{f: f, key: key, prev: prev}, nil
}

// Restore puts back the value captured by tok. It panics on a nil or already
// used token.
func Restore(tok *Token) {
	if tok == nil || tok.f == nil {
		panic("logctx: restore with nil token")
	}
	tok.f.mu.Lock()
	defer tok.f.mu.Unlock()
	if tok.used {
		panic("logctx: token for " + tok.key.String() + " already used")
	}
	tok.used = true
	tok.f.vals[tok.key] = tok.prev
}

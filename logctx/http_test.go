package logctx

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/sync/errgroup"
)

// TestMiddleware_UsesHeaderRequestID verifies the incoming id reaches the handler.
func TestMiddleware_UsesHeaderRequestID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = Get(r.Context(), RequestID)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "req-abc" {
		t.Errorf("expected request_id req-abc, got %q", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "req-abc" {
		t.Errorf("expected echoed header req-abc, got %q", got)
	}
}

// TestMiddleware_GeneratesRequestID verifies a UUID is assigned when absent.
func TestMiddleware_GeneratesRequestID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = Get(r.Context(), RequestID)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" || seen == Unset {
		t.Fatal("expected generated request_id")
	}
	if len(seen) != 36 {
		t.Errorf("expected UUID string, got %q", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("expected echoed header %q, got %q", seen, got)
	}
}

// TestMiddleware_ConcurrentStepsIsolated verifies goroutines sharing the
// request context each keep their own step and leave the request flow intact.
func TestMiddleware_ConcurrentStepsIsolated(t *testing.T) {
	var after Fields
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		aEntered := make(chan struct{})
		bEntered := make(chan struct{})
		aExited := make(chan struct{})

		g, _ := errgroup.WithContext(r.Context())
		g.Go(func() error {
			ctx, scope := Enter(r.Context(), Fields{Step: "a"})
			close(aEntered)
			<-bEntered
			got := Get(ctx, Step)
			scope.Exit()
			close(aExited)
			if got != "a" {
				return fmt.Errorf("goroutine a observed step %q", got)
			}
			return nil
		})
		g.Go(func() error {
			<-aEntered
			ctx, scope := Enter(r.Context(), Fields{Step: "b"})
			close(bEntered)
			<-aExited
			got := Get(ctx, Step)
			req := Get(ctx, RequestID)
			scope.Exit()
			if got != "b" {
				return fmt.Errorf("goroutine b observed step %q", got)
			}
			if req != "req-shared" {
				return fmt.Errorf("goroutine b observed request_id %q", req)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			t.Error(err)
		}
		after = Snapshot(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-shared")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if after != (Fields{RequestID: "req-shared", TaskID: Unset, Step: Unset}) {
		t.Errorf("request flow changed after both scopes exited: %+v", after)
	}
}

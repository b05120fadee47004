package observe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"time"
)

// Instrumentation wraps units of work with logs, metrics and spans.
//
// Contract:
//   - Concurrency: functions returned by Instrument are safe for concurrent use
//     when the wrapped function is.
//   - Errors: errors and panics from the wrapped function are recorded and
//     propagated unchanged.
//   - Ownership: inputs and results are passed through without modification.
type Instrumentation struct {
	logs    *Registry
	metrics Metrics
	tracer  Tracer
}

// NewInstrumentation creates an Instrumentation. Nil arguments fall back to
// the default registry, no-op metrics and a no-op tracer.
func NewInstrumentation(logs *Registry, metrics Metrics, tracer Tracer) *Instrumentation {
	if logs == nil {
		logs = DefaultRegistry()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if tracer == nil {
		tracer = newNoopTracer()
	}
	return &Instrumentation{logs: logs, metrics: metrics, tracer: tracer}
}

// InstrumentationFromObserver creates an Instrumentation from an Observer.
func InstrumentationFromObserver(obs Observer) (*Instrumentation, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	return NewInstrumentation(obs.Logs(), obs.Metrics(), newTracer(obs.Tracer())), nil
}

// Instrument wraps fn so every call logs "start" and then "done" or "failed"
// on logger <component>.<action>, observes its latency once and counts it once
// as success or error. A panic in fn is recorded as a failure and re-raised
// with the original value.
func Instrument[In, Out any](inst *Instrumentation, component, action string, fn func(context.Context, In) (Out, error)) func(context.Context, In) (Out, error) {
	if inst == nil {
		inst = NewInstrumentation(nil, nil, nil)
	}
	log := inst.logs.Get(component + "." + action)

	return func(ctx context.Context, in In) (out Out, err error) {
		log.Info(ctx, "start")
		start := time.Now()
		spanCtx, span := inst.tracer.StartSpan(ctx, component, action)

		returned := false
		defer func() {
			if returned {
				return
			}
			r := recover()
			elapsed := time.Since(start).Seconds()
			if r == nil {
				// runtime.Goexit
				inst.tracer.EndSpan(span, errGoexit)
				inst.failed(ctx, log, component, action, elapsed, &ErrorInfo{Kind: "goexit", Message: errGoexit.Error()})
				return
			}
			inst.tracer.EndSpan(span, fmt.Errorf("panic: %v", r))
			inst.failed(ctx, log, component, action, elapsed, PanicInfo(r, debug.Stack()))
			panic(r)
		}()

		out, err = fn(spanCtx, in)
		returned = true
		elapsed := time.Since(start).Seconds()
		inst.tracer.EndSpan(span, err)

		if err != nil {
			inst.failed(ctx, log, component, action, elapsed, NewErrorInfo(err))
			return out, err
		}
		inst.metrics.ObserveLatency(ctx, component, action, elapsed)
		inst.metrics.IncrementCounter(ctx, component, action, StatusSuccess)
		log.Info(ctx, "done", Field{Key: "latency_sec", Value: roundLatency(elapsed)})
		return out, nil
	}
}

// Run instruments a single call of fn.
func Run(ctx context.Context, inst *Instrumentation, component, action string, fn func(context.Context) error) error {
	wrapped := Instrument(inst, component, action, func(ctx context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	_, err := wrapped(ctx, struct{}{})
	return err
}

var errGoexit = errors.New("observe: goroutine exited during instrumented call")

func (inst *Instrumentation) failed(ctx context.Context, log *Logger, component, action string, elapsed float64, info *ErrorInfo) {
	inst.metrics.ObserveLatency(ctx, component, action, elapsed)
	inst.metrics.IncrementCounter(ctx, component, action, StatusError)
	log.Log(ctx, Record{
		Level:   LevelError,
		Message: "failed",
		Fields:  []Field{{Key: "latency_sec", Value: roundLatency(elapsed)}},
		Err:     info,
	})
}

// roundLatency rounds seconds to four decimal places.
func roundLatency(seconds float64) float64 {
	return math.Round(seconds*1e4) / 1e4
}

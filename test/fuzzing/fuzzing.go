package fuzzing

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"nytbestsellers/internal/components/telemetry"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Target is some stateful component under test, every possible mutation of
// its state is a "step".
//
// Fuzzing deterministically picks random steps (and their inputs) and lets
// the target check its invariants after each one. Steps are exposed as
// methods with the signature:
//
// `Step*(ctx context.Context, res *Results) error`
//
// A violated invariant is reported with res.Fail, the returned error is only
// for setup problems (like failing to generate an input).
//
// If the target has a method:
//
// `OnEnd(ctx context.Context, res *Results)`
//
// it is called at the end of every path.
type Target interface{}

type TargetProvider interface {
	CreateTarget(tel telemetry.API, rndm *rand.Rand) (Target, error)
}

var (
	ctxType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	resultsType = reflect.TypeOf(&Results{})
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

func getTargetMethods(target Target) (steps []reflect.Method, onEnd reflect.Method) {
	t := reflect.TypeOf(target)
	for i := 0; i < t.NumMethod(); i++ {
		method := t.Method(i)
		methodType := method.Type

		// the receiver is the first input
		if methodType.NumIn() != 3 || methodType.In(1) != ctxType || methodType.In(2) != resultsType {
			continue
		}
		if method.Name == "OnEnd" && methodType.NumOut() == 0 {
			onEnd = method
			continue
		}
		if !strings.HasPrefix(method.Name, "Step") {
			continue
		}
		if methodType.NumOut() != 1 || methodType.Out(0) != errorType {
			continue
		}
		steps = append(steps, method)
	}
	return steps, onEnd
}

// Results collects the invariant violations of one path.
type Results struct {
	failures []error
}

func (r *Results) Fail(err error) {
	r.failures = append(r.failures, err)
}

func (r *Results) Failures() []error {
	return r.failures
}

func (r *Results) formatFails() string {
	var out strings.Builder

	out.WriteString("====== CHECKS FAILED ======\n\n")
	for _, err := range r.failures {
		out.WriteString(fmt.Sprintf("\t- %v\n", err))
	}

	return out.String()
}

// Path is a seed and the number of steps to take from it, it replays a
// fuzzing run exactly.
type Path struct {
	Seed  uint64
	Steps int
}

func (p Path) String() string {
	return fmt.Sprintf("%d:%d", p.Seed, p.Steps)
}

// ParsePath reads the `seed:steps` form printed on failures.
func ParsePath(text string) (Path, error) {
	seed, steps, ok := strings.Cut(text, ":")
	if !ok {
		return Path{}, fmt.Errorf("parse path: expected <seed>:<steps>, got '%s'", text)
	}
	parsedSeed, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return Path{}, fmt.Errorf("parse path: %w", err)
	}
	parsedSteps, err := strconv.Atoi(steps)
	if err != nil {
		return Path{}, fmt.Errorf("parse path: %w", err)
	}
	return Path{Seed: parsedSeed, Steps: parsedSteps}, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// F is a fuzzing job on a given fuzz target.
type F struct {
	tel telemetry.API

	provider TargetProvider
	steps    []reflect.Method
	onEnd    reflect.Method

	minSteps int
	maxSteps int
}

func New(tel telemetry.API, provider TargetProvider, minSteps, maxSteps int) (F, error) {
	if minSteps <= 0 || maxSteps < minSteps {
		return F{}, fmt.Errorf("fuzzing: invalid step range [%d, %d]", minSteps, maxSteps)
	}

	f := F{
		tel:      telemetry.NewScopedAPI("fuzzer", tel),
		provider: provider,
		minSteps: minSteps,
		maxSteps: maxSteps,
	}

	target, err := provider.CreateTarget(telemetry.NoopAPI{}, newRand(0))
	if err != nil {
		return F{}, err
	}
	f.steps, f.onEnd = getTargetMethods(target)
	if len(f.steps) == 0 {
		return F{}, errors.New("fuzzing: target has no steps")
	}
	return f, nil
}

func (f F) call(method reflect.Method, target Target, ctx context.Context, results *Results) []reflect.Value {
	return method.Func.Call([]reflect.Value{
		reflect.ValueOf(target),
		reflect.ValueOf(ctx),
		reflect.ValueOf(results),
	})
}

// RunPath replays one path on a fresh target.
func (f F) RunPath(ctx context.Context, tel telemetry.API, path Path) (*Results, error) {
	rndm := newRand(path.Seed)
	target, err := f.provider.CreateTarget(tel, rndm)
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}

	results := &Results{}
	for i := 0; i < path.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step := f.steps[rndm.IntN(len(f.steps))]
		out := f.call(step, target, ctx, results)
		if err, ok := out[0].Interface().(error); ok && err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name, err)
		}
	}
	if f.onEnd.Func.IsValid() {
		f.call(f.onEnd, target, ctx, results)
	}
	return results, nil
}

func (f F) randomPath() Path {
	steps := f.minSteps
	if f.maxSteps > f.minSteps {
		steps += rand.IntN(f.maxSteps - f.minSteps)
	}
	return Path{Seed: rand.Uint64(), Steps: steps}
}

// fuzzWorker explores random paths until one fails or ctx is done.
func (f F) fuzzWorker(ctx context.Context, cancel func(), count *uint64) {
	for ctx.Err() == nil {
		path := f.randomPath()
		results, err := f.RunPath(ctx, telemetry.NoopAPI{}, path)
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			f.tel.ReportBroken("fuzzer.run-path", err, path.String())
			cancel()
			return
		}

		atomic.AddUint64(count, 1)
		if len(results.failures) == 0 {
			continue
		}

		f.tel.ReportBroken("fuzzer.checks", fmt.Sprintf("%s\npath: %s\n", results.formatFails(), path))
		cancel()
		return
	}
}

// StartFuzzTest explores paths on every cpu and blocks until a path fails or
// ctx is done.
func (f F) StartFuzzTest(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cpus := runtime.NumCPU()
	f.tel.ReportDebug("starting fuzzing on all threads", "count", cpus)

	var count uint64
	for range cpus {
		go f.fuzzWorker(ctx, cancel, &count)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.tel.ReportDebug("run paths count", "count", atomic.LoadUint64(&count))
		}
	}
}

// Replay runs a single path with full reporting.
func (f F) Replay(ctx context.Context, path Path) {
	f.tel.ReportDebug("replaying path", "path", path.String())
	results, err := f.RunPath(ctx, f.tel, path)
	if err != nil {
		f.tel.ReportBroken("fuzzer.run-path", err, path.String())
		return
	}
	if len(results.failures) == 0 {
		f.tel.ReportDebug("no failures")
		return
	}
	f.tel.ReportBroken("fuzzer.checks", results.formatFails())
}

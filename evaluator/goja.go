package evaluator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// hostBindings are names untrusted scripts commonly reach for to touch the
// hosting process. A fresh goja runtime does not define any of them, but they
// are still bound to undefined explicitly so the capability set stays a
// closed, enumerated list rather than an accident of the engine version.
var hostBindings = []string{
	"require", "module", "exports", "process", "global", "Buffer",
	"fetch", "XMLHttpRequest", "WebSocket",
	"setTimeout", "setInterval", "setImmediate",
	"clearTimeout", "clearInterval", "clearImmediate",
}

// consoleMethods are the logging entry points redirected into the capture
var consoleMethods = []string{"log", "info", "warn", "error", "debug"}

// GojaEvaluator implements ScriptEvaluator on a fresh, single-use goja
// runtime per call.
//
// The runtime exposes only ECMAScript intrinsics (Math, Date, JSON, Array,
// Object, String, Number, Boolean, ...) plus a console whose methods append
// to an output capture; nothing from the hosting process is reachable.
// Captured console output takes precedence over the script's return value.
// When a script logs output and then throws, the partial output is discarded
// and only the error text is returned.
type GojaEvaluator struct {
	logger *zap.Logger
	config *Config
}

// NewGojaEvaluator creates a new GojaEvaluator
func NewGojaEvaluator(logger *zap.Logger, config *Config) *GojaEvaluator {
	return &GojaEvaluator{
		logger: logger,
		config: config,
	}
}

// Evaluate runs the script and renders the outcome as text. It never
// returns an error and never panics past this boundary.
func (e *GojaEvaluator) Evaluate(ctx context.Context, req Request) string {
	execID := uuid.NewString()
	start := time.Now()

	outcome := e.run(ctx, req)

	e.logger.Info("script evaluation finished",
		zap.String("execution_id", execID),
		zap.String("outcome", outcome.kind.String()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("source_len", len(req.Source)))

	return outcome.Text()
}

type evalResult struct {
	value goja.Value
	err   error
}

func (e *GojaEvaluator) run(ctx context.Context, req Request) Outcome {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.config.DefaultTimeout
	}

	// Wrapping the source as an IIFE makes top-level return legal and keeps
	// caller statements inside function scope.
	program, err := goja.Compile("script", wrapSource(req.Source), false)
	if err != nil {
		return Failed(err.Error())
	}

	vm := goja.New()
	capture := newOutputCapture(e.config.MaxOutputBytes)
	if err := installCapabilities(vm, capture); err != nil {
		return Failed(fmt.Sprintf("sandbox construction failed: %v", err))
	}

	done := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- evalResult{err: fmt.Errorf("evaluator internal error: %v", r)}
			}
		}()
		value, runErr := vm.RunProgram(program)
		done <- evalResult{value: value, err: runErr}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return failedFrom(res.err)
		}
		if text, ok := capture.joined(); ok {
			return Produced(text)
		}
		return Produced(stringify(res.value))
	case <-timer.C:
		// Interrupt stops even tight non-yielding loops; do not wait for the
		// goroutine so control returns to the caller at the deadline.
		vm.Interrupt("execution deadline exceeded")
		return TimedOut(timeout)
	case <-ctx.Done():
		vm.Interrupt("execution canceled")
		return Failed(ctx.Err().Error())
	}
}

func wrapSource(source string) string {
	return "(function() {\n" + source + "\n})();"
}

func failedFrom(err error) Outcome {
	switch e := err.(type) {
	case *goja.Exception:
		if v := e.Value(); v != nil {
			return Failed(v.String())
		}
		return Failed(e.Error())
	case *goja.InterruptedError:
		return Failed(e.Error())
	default:
		return Failed(err.Error())
	}
}

func stringify(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	return v.String()
}

// installCapabilities pins the runtime's capability set: the console capture
// on top of goja's ECMAScript intrinsics, and inert bindings for everything
// host-like so lookups see undefined instead of a real host object.
func installCapabilities(vm *goja.Runtime, capture *outputCapture) error {
	console := vm.NewObject()
	write := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		capture.append(strings.Join(parts, " "))
		return goja.Undefined()
	}
	for _, name := range consoleMethods {
		if err := console.Set(name, write); err != nil {
			return fmt.Errorf("failed to install console.%s: %w", name, err)
		}
	}
	if err := vm.Set("console", console); err != nil {
		return fmt.Errorf("failed to install console: %w", err)
	}

	for _, name := range hostBindings {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return fmt.Errorf("failed to neutralize %s: %w", name, err)
		}
	}

	return nil
}

// outputCapture accumulates console output for the lifetime of one
// evaluation. It is written from the evaluation goroutine only; the result
// is read after that goroutine reports completion.
type outputCapture struct {
	lines     []string
	size      int
	limit     int
	truncated bool
}

func newOutputCapture(limit int) *outputCapture {
	return &outputCapture{limit: limit}
}

func (c *outputCapture) append(line string) {
	if c.truncated {
		return
	}
	if c.size+len(line) > c.limit {
		c.truncated = true
		return
	}
	c.lines = append(c.lines, line)
	c.size += len(line)
}

// joined returns the captured lines joined by newlines, and whether any
// output was captured at all.
func (c *outputCapture) joined() (string, bool) {
	if len(c.lines) == 0 {
		return "", false
	}
	text := strings.Join(c.lines, "\n")
	if c.truncated {
		text += "\n[output truncated]"
	}
	return text, true
}

package evaluator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/isdmx/toolbelt/config"
)

// Request represents the parameters for one script evaluation
type Request struct {
	Source  string
	Timeout time.Duration // falls back to the configured default when zero
}

// Config holds evaluator runtime limits
type Config struct {
	DefaultTimeout time.Duration
	MaxOutputBytes int
}

// ScriptEvaluator defines the interface for isolated script evaluation.
//
// Evaluate never returns an error: every failure mode of the submitted
// script (syntax error, runtime throw, exceeded deadline, sandbox setup
// problem) is rendered into the returned text.
type ScriptEvaluator interface {
	Evaluate(ctx context.Context, req Request) string
}

// outcomeKind discriminates the evaluation outcome variants
type outcomeKind int

const (
	outcomeProduced outcomeKind = iota
	outcomeTimedOut
	outcomeFailed
)

func (k outcomeKind) String() string {
	switch k {
	case outcomeProduced:
		return "produced"
	case outcomeTimedOut:
		return "timed_out"
	case outcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one evaluation: Produced, TimedOut or Failed.
// It is collapsed to a single text field only at the tool boundary.
type Outcome struct {
	kind    outcomeKind
	text    string
	budget  time.Duration
	message string
}

// Produced represents a completed evaluation with its result text
func Produced(text string) Outcome {
	return Outcome{kind: outcomeProduced, text: text}
}

// TimedOut represents an evaluation aborted at its deadline
func TimedOut(budget time.Duration) Outcome {
	return Outcome{kind: outcomeTimedOut, budget: budget}
}

// Failed represents a syntax error, runtime throw or sandbox failure
func Failed(message string) Outcome {
	return Outcome{kind: outcomeFailed, message: message}
}

// Text renders the outcome as the single text field the caller receives
func (o Outcome) Text() string {
	switch o.kind {
	case outcomeTimedOut:
		return fmt.Sprintf("Execution timed out after %dms", o.budget.Milliseconds())
	case outcomeFailed:
		return "Error: " + o.message
	default:
		return o.text
	}
}

// New creates the script evaluator selected by the configuration
func New(logger *zap.Logger, cfg *config.Config) (ScriptEvaluator, error) {
	evalCfg := &Config{
		DefaultTimeout: cfg.Evaluator.DefaultTimeout(),
		MaxOutputBytes: cfg.Evaluator.MaxOutputBytes,
	}

	switch cfg.Evaluator.Engine {
	case "goja":
		return NewGojaEvaluator(logger, evalCfg), nil
	default:
		return nil, fmt.Errorf("unsupported evaluator engine: %s", cfg.Evaluator.Engine)
	}
}

// Package evaluator provides isolated execution of untrusted scripts.
//
// The evaluator package implements the run_script tool's execution engine.
// Each call builds a fresh, single-use goja JavaScript runtime whose
// capability set is a closed allow-list: ECMAScript intrinsics plus a
// console redirected into an output capture. Timers, module loading,
// process handles, filesystem and network access are absent.
//
// Evaluation runs under a hard wall-clock deadline enforced with the
// engine's interrupt mechanism, so a busy loop cannot hold the caller past
// its budget. Every failure mode is converted to result text at the
// Evaluate boundary; the evaluator never returns an error.
//
// Usage:
//
//	eval, err := evaluator.New(logger, cfg)
//	result := eval.Evaluate(ctx, evaluator.Request{
//	    Source:  "return 2 + 2",
//	    Timeout: 5 * time.Second,
//	})
package evaluator

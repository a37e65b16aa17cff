package evaluator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/toolbelt/config"
)

func newTestEvaluator(t *testing.T) *GojaEvaluator {
	t.Helper()
	return NewGojaEvaluator(zaptest.NewLogger(t), &Config{
		DefaultTimeout: 5 * time.Second,
		MaxOutputBytes: 64 * 1024,
	})
}

func TestEvaluateReturnValue(t *testing.T) {
	eval := newTestEvaluator(t)

	t.Run("ArithmeticReturn", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{Source: "return 2 + 2"})
		assert.Equal(t, "4", result)
	})

	t.Run("StringReturn", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{Source: "return 'hello'.toUpperCase()"})
		assert.Equal(t, "HELLO", result)
	})

	t.Run("NoReturnValue", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{Source: "var a = 1"})
		assert.Equal(t, "undefined", result)
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "return JSON.stringify(JSON.parse('{\"a\":1}').a)",
		})
		assert.Equal(t, "1", result)
	})

	t.Run("MathAndDateAvailable", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "return Math.max(1, 2) + (new Date(0)).getTime()",
		})
		assert.Equal(t, "2", result)
	})
}

func TestEvaluateConsoleCapture(t *testing.T) {
	eval := newTestEvaluator(t)

	t.Run("LinesJoinedByNewlines", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "console.log('a'); console.log('b')",
		})
		assert.Equal(t, "a\nb", result)
	})

	t.Run("CaptureWinsOverReturnValue", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "console.log('out'); return 42",
		})
		assert.Equal(t, "out", result)
	})

	t.Run("AllConsoleMethodsCaptured", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "console.error('e'); console.warn('w'); console.info('i'); console.debug('d')",
		})
		assert.Equal(t, "e\nw\ni\nd", result)
	})

	t.Run("MultipleArgumentsJoinedBySpaces", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "console.log('answer:', 42)",
		})
		assert.Equal(t, "answer: 42", result)
	})

	t.Run("OutputTruncatedAtByteBudget", func(t *testing.T) {
		small := NewGojaEvaluator(zaptest.NewLogger(t), &Config{
			DefaultTimeout: 5 * time.Second,
			MaxOutputBytes: 16,
		})
		result := small.Evaluate(context.Background(), Request{
			Source: "for (var i = 0; i < 100; i++) { console.log('0123456789') }",
		})
		assert.Contains(t, result, "[output truncated]")
	})
}

func TestEvaluateFailures(t *testing.T) {
	eval := newTestEvaluator(t)

	t.Run("SyntaxError", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{Source: "return ((("})
		assert.True(t, strings.HasPrefix(result, "Error: "), result)
	})

	t.Run("ThrownErrorMessageSurfaced", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "throw new Error('boom')",
		})
		assert.True(t, strings.HasPrefix(result, "Error: "), result)
		assert.Contains(t, result, "boom")
	})

	t.Run("JSONParseFailure", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "JSON.parse('not json')",
		})
		assert.True(t, strings.HasPrefix(result, "Error: "), result)
		assert.Contains(t, result, "SyntaxError")
	})

	t.Run("PartialOutputDiscardedOnThrow", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "console.log('first'); console.log('second'); throw new Error('late failure')",
		})
		assert.True(t, strings.HasPrefix(result, "Error: "), result)
		assert.Contains(t, result, "late failure")
		assert.NotContains(t, result, "first")
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		result := eval.Evaluate(ctx, Request{Source: "while(true){}"})
		assert.True(t, strings.HasPrefix(result, "Error: "), result)
	})
}

func TestEvaluateCapabilityIsolation(t *testing.T) {
	eval := newTestEvaluator(t)

	t.Run("ProcessUnavailable", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "return process.env.HOME",
		})
		assert.True(t, strings.HasPrefix(result, "Error: "), result)
	})

	t.Run("RequireUnavailable", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "return require('fs').readFileSync('/etc/passwd')",
		})
		assert.True(t, strings.HasPrefix(result, "Error: "), result)
	})

	t.Run("TimersUnavailable", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "return setTimeout(function(){}, 1)",
		})
		assert.True(t, strings.HasPrefix(result, "Error: "), result)
	})

	t.Run("HostNamesResolveToUndefined", func(t *testing.T) {
		result := eval.Evaluate(context.Background(), Request{
			Source: "return typeof process + ' ' + typeof require + ' ' + typeof fetch",
		})
		assert.Equal(t, "undefined undefined undefined", result)
	})
}

func TestEvaluateTimeout(t *testing.T) {
	eval := newTestEvaluator(t)

	t.Run("BusyLoopInterruptedAtDeadline", func(t *testing.T) {
		start := time.Now()
		result := eval.Evaluate(context.Background(), Request{
			Source:  "while(true){}",
			Timeout: 200 * time.Millisecond,
		})
		elapsed := time.Since(start)

		assert.Equal(t, "Execution timed out after 200ms", result)
		assert.Less(t, elapsed, 2*time.Second, "caller must regain control shortly after the deadline")
	})

	t.Run("ShortTimeoutReturnsPromptly", func(t *testing.T) {
		start := time.Now()
		result := eval.Evaluate(context.Background(), Request{
			Source:  "for(;;){ Math.random() }",
			Timeout: 100 * time.Millisecond,
		})
		elapsed := time.Since(start)

		assert.Contains(t, result, "100")
		assert.Less(t, elapsed, time.Second)
	})
}

func TestEvaluateIsolationBetweenCalls(t *testing.T) {
	eval := newTestEvaluator(t)

	t.Run("Idempotence", func(t *testing.T) {
		req := Request{Source: "console.log('x'); return 1"}
		first := eval.Evaluate(context.Background(), req)
		second := eval.Evaluate(context.Background(), req)
		assert.Equal(t, first, second)
	})

	t.Run("NoStateLeaksAcrossCalls", func(t *testing.T) {
		_ = eval.Evaluate(context.Background(), Request{Source: "leaked = 5; return leaked"})
		result := eval.Evaluate(context.Background(), Request{Source: "return typeof leaked"})
		assert.Equal(t, "undefined", result)
	})

	t.Run("ConcurrentEvaluations", func(t *testing.T) {
		results := make(chan string, 2)
		go func() {
			results <- eval.Evaluate(context.Background(), Request{Source: "return 'one'"})
		}()
		go func() {
			results <- eval.Evaluate(context.Background(), Request{Source: "return 'two'"})
		}()

		got := map[string]bool{<-results: true, <-results: true}
		assert.True(t, got["one"])
		assert.True(t, got["two"])
	})
}

func TestOutcomeText(t *testing.T) {
	t.Run("Produced", func(t *testing.T) {
		assert.Equal(t, "done", Produced("done").Text())
	})

	t.Run("TimedOut", func(t *testing.T) {
		assert.Equal(t, "Execution timed out after 5000ms", TimedOut(5*time.Second).Text())
	})

	t.Run("Failed", func(t *testing.T) {
		assert.Equal(t, "Error: boom", Failed("boom").Text())
	})
}

func TestNewFactory(t *testing.T) {
	cfg := &config.Config{
		Evaluator: config.EvaluatorConfig{
			Engine:           "goja",
			DefaultTimeoutMs: 5000,
			MinTimeoutMs:     100,
			MaxTimeoutMs:     10000,
			MaxOutputBytes:   64 * 1024,
		},
	}

	t.Run("GojaEngine", func(t *testing.T) {
		eval, err := New(zaptest.NewLogger(t), cfg)
		require.NoError(t, err)
		require.NotNil(t, eval)

		result := eval.Evaluate(context.Background(), Request{Source: "return 1 + 1"})
		assert.Equal(t, "2", result)
	})

	t.Run("UnsupportedEngine", func(t *testing.T) {
		bad := *cfg
		bad.Evaluator.Engine = "v8"
		eval, err := New(zaptest.NewLogger(t), &bad)
		require.Error(t, err)
		assert.Nil(t, eval)
		assert.Contains(t, err.Error(), "v8")
	})
}

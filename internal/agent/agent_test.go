package agent

import (
	"testing"

	"github.com/novabit/ecmacore/internal/config"
	"github.com/novabit/ecmacore/internal/runtime"
)

func newTestAgent(t *testing.T) (*Agent, runtime.NoGcScope) {
	t.Helper()
	a := New(0)
	s := a.Heap.NoGcScope()
	_, globalObj := a.Heap.AllocateObject(runtime.NewObjectData(runtime.Null()), s)
	a.InitGlobalEnvironment(globalObj, s)
	return a, s
}

func TestNewDefaultsMaxCallDepth(t *testing.T) {
	a := New(0)
	if a.maxCallDepth != DefaultMaxCallDepth {
		t.Fatalf("expected a non-positive maxCallDepth to default to %d, got %d", DefaultMaxCallDepth, a.maxCallDepth)
	}
}

func TestNewFromConfigWiresCallDepthAndTrace(t *testing.T) {
	cfg := config.Default()
	cfg.MaxCallDepth = 3
	cfg.Trace = true
	a := NewFromConfig(cfg)
	if a.maxCallDepth != 3 {
		t.Fatalf("expected maxCallDepth 3 from config, got %d", a.maxCallDepth)
	}
	if !a.Trace {
		t.Fatalf("expected Trace to be wired from config")
	}
}

func TestPushContextThrowsRangeErrorPastMaxDepth(t *testing.T) {
	a, s := newTestAgent(t)
	a.maxCallDepth = 2

	first := a.PushContext(ExecutionContext{FunctionName: "a"}, s)
	if first.IsThrow() {
		t.Fatalf("expected the first push to succeed")
	}
	second := a.PushContext(ExecutionContext{FunctionName: "b"}, s)
	if second.IsThrow() {
		t.Fatalf("expected the second push to succeed")
	}
	third := a.PushContext(ExecutionContext{FunctionName: "c"}, s)
	if !third.IsThrow() {
		t.Fatalf("expected pushing past maxCallDepth to throw a RangeError")
	}
	if a.Depth() != 2 {
		t.Fatalf("expected depth to remain 2 after a rejected push, got %d", a.Depth())
	}
}

func TestPopContextOnEmptyStackIsNoOp(t *testing.T) {
	a, _ := newTestAgent(t)
	a.PopContext()
	if a.Depth() != 0 {
		t.Fatalf("expected popping an empty context stack to stay at depth 0")
	}
}

func TestCallDispatchesBuiltin(t *testing.T) {
	a, s := newTestAgent(t)
	called := false
	fn := a.Heap.NewBuiltinFunction("f", func(h *runtime.Heap, thisValue runtime.Value, args []runtime.Value, gc runtime.NoGcScope) runtime.Completion[runtime.Value] {
		called = true
		return runtime.Ok(runtime.SmallInteger(9))
	}, s)

	result := a.Call(a.Heap, fn, runtime.Undefined(), nil, s)
	if result.IsThrow() {
		t.Fatalf("expected calling a builtin function to succeed")
	}
	if !called {
		t.Fatalf("expected the builtin callback to run")
	}
	if result.Value().SmallInt() != 9 {
		t.Fatalf("expected the builtin's return value to propagate, got %+v", result.Value())
	}
}

func TestCallNonCallableThrowsTypeError(t *testing.T) {
	a, s := newTestAgent(t)
	result := a.Call(a.Heap, runtime.SmallInteger(1), runtime.Undefined(), nil, s)
	if !result.IsThrow() {
		t.Fatalf("expected calling a non-callable value to throw")
	}
}

func TestCallScriptFunctionWithoutVMThrows(t *testing.T) {
	a, s := newTestAgent(t)
	execIdx := a.Heap.Executables.Allocate(&runtime.ExecutableData{})
	exec := runtime.NewHandle[runtime.ExecutableData](s, runtime.RawHandle{Kind: runtime.KindExecutable, Index: execIdx})
	fn := a.Heap.NewFunction("g", exec, a.GlobalEnv, s)

	result := a.Call(a.Heap, fn, runtime.Undefined(), nil, s)
	if !result.IsThrow() {
		t.Fatalf("expected calling a script function with no attached VM to throw")
	}
}

func TestErrorConstructorsProduceMatchingKinds(t *testing.T) {
	a, s := newTestAgent(t)
	cases := []struct {
		name string
		make func(string, runtime.NoGcScope) runtime.Value
		kind runtime.ErrorKind
	}{
		{"TypeError", a.NewTypeError, runtime.ErrorKindTypeError},
		{"RangeError", a.NewRangeError, runtime.ErrorKindRangeError},
		{"SyntaxError", a.NewSyntaxError, runtime.ErrorKindSyntaxError},
		{"ReferenceError", a.NewReferenceError, runtime.ErrorKindReferenceError},
		{"URIError", a.NewURIError, runtime.ErrorKindURIError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := c.make("boom", s)
			if !v.IsObject() {
				t.Fatalf("expected an Error value to be an object")
			}
		})
	}
}

// Package agent implements spec.md §5's Agent: the single owner of one
// Heap, the execution-context stack, and the host hooks that let the
// (out-of-scope) parser/compiler/VM collaborate with the managed object
// model. Grounded on the teacher's CallStack
// (internal/interp/evaluator/callstack.go) for stack-depth bookkeeping
// and its runtime/errors.go for the NewXxxError constructor naming
// convention, reworked to build Completion-carried Error objects
// instead of Go errors, since a script-visible throw is never
// represented as a Go `error` in this core (spec.md §7).
package agent

import (
	"fmt"

	"github.com/novabit/ecmacore/internal/config"
	"github.com/novabit/ecmacore/internal/runtime"
)

// DefaultMaxCallDepth bounds the execution-context stack before a
// RangeError ("call stack size exceeded") is thrown instead of
// recursing further — mirrors the teacher's DefaultMaxRecursionDepth.
const DefaultMaxCallDepth = 1024

// ExecutionContext is one entry in the execution-context stack: the
// running function (nil for the top-level script context), its
// variable/lexical environments, and the flags direct-eval inspection
// needs (spec.md §6 step 3).
type ExecutionContext struct {
	FunctionName         string
	VariableEnv          runtime.RawHandle
	LexicalEnv           runtime.RawHandle
	InFunction           bool
	InMethod             bool
	InDerivedConstructor bool
}

// Agent owns the heap and the execution-context stack for one running
// script, per spec.md §5 ("no ambient current engine — callers always
// pass the heap/agent explicitly"). There is exactly one Agent per
// running script; it is not meant to be shared across goroutines.
type Agent struct {
	Heap  *runtime.Heap
	Trace bool

	contexts     []ExecutionContext
	maxCallDepth int
	vm           VM

	GlobalEnv runtime.RawHandle
	hasGlobal bool
}

// New creates an Agent with a fresh heap and the given call-depth limit
// (0 or negative selects DefaultMaxCallDepth).
func New(maxCallDepth int) *Agent {
	if maxCallDepth <= 0 {
		maxCallDepth = DefaultMaxCallDepth
	}
	return &Agent{Heap: runtime.NewHeap(), maxCallDepth: maxCallDepth}
}

// NewFromConfig creates an Agent whose heap arena capacities, element-
// storage growth factor, call-stack depth and trace flag all come from
// cfg (see config.Load/config.Default).
func NewFromConfig(cfg config.Config) *Agent {
	runtime.ElementStorageGrowthFactor = cfg.Heap.ElementStorageGrowth
	heap := runtime.NewHeapWithCapacity(runtime.HeapCapacity{
		Objects:   cfg.Heap.ObjectCapacity,
		Arrays:    cfg.Heap.ArrayCapacity,
		Functions: cfg.Heap.FunctionCapacity,
		Strings:   cfg.Heap.StringCapacity,
	})
	maxCallDepth := cfg.MaxCallDepth
	if maxCallDepth <= 0 {
		maxCallDepth = DefaultMaxCallDepth
	}
	return &Agent{Heap: heap, Trace: cfg.Trace, maxCallDepth: maxCallDepth}
}

// InitGlobalEnvironment installs the realm's Global environment record,
// backed by globalObject, as the base of every execution context this
// agent subsequently pushes.
func (a *Agent) InitGlobalEnvironment(globalObject runtime.RawHandle, s runtime.NoGcScope) {
	idx := a.Heap.Environments.Allocate(runtime.NewGlobalEnvironmentData(globalObject))
	a.GlobalEnv = runtime.RawHandle{Kind: runtime.KindEnvironment, Index: idx}
	a.hasGlobal = true
	a.logTrace("global environment initialized")
}

// PushContext pushes a new execution context, failing with a RangeError
// completion instead of exceeding maxCallDepth — this is the one path
// by which unbounded script recursion turns into a script-visible
// throw rather than a Go stack overflow.
func (a *Agent) PushContext(ctx ExecutionContext, gc runtime.NoGcScope) runtime.Completion[struct{}] {
	if len(a.contexts) >= a.maxCallDepth {
		return runtime.ThrowCompletion[struct{}](a.Heap.NewError(runtime.ErrorKindRangeError,
			fmt.Sprintf("call stack size exceeded (max depth %d)", a.maxCallDepth), gc))
	}
	a.contexts = append(a.contexts, ctx)
	a.logTrace(fmt.Sprintf("-> enter %q (depth %d)", ctx.FunctionName, len(a.contexts)))
	return runtime.Ok(struct{}{})
}

// PopContext removes the innermost execution context. A no-op on an
// empty stack, matching the teacher's CallStack.Pop.
func (a *Agent) PopContext() {
	if len(a.contexts) == 0 {
		return
	}
	top := a.contexts[len(a.contexts)-1]
	a.contexts = a.contexts[:len(a.contexts)-1]
	a.logTrace(fmt.Sprintf("<- leave %q (depth %d)", top.FunctionName, len(a.contexts)))
}

// CurrentContext returns the innermost execution context, or the zero
// value and false if the stack is empty.
func (a *Agent) CurrentContext() (ExecutionContext, bool) {
	if len(a.contexts) == 0 {
		return ExecutionContext{}, false
	}
	return a.contexts[len(a.contexts)-1], true
}

// Depth reports the current execution-context stack depth.
func (a *Agent) Depth() int { return len(a.contexts) }

func (a *Agent) logTrace(msg string) {
	if a.Trace {
		fmt.Println("[trace]", msg)
	}
}

// VM is the narrow port this package needs from the out-of-scope
// compiler/VM collaborator (spec.md §6): given a script function's
// Executable, run it to completion. The parser/compiler/opcode-dispatch
// VM themselves are not part of this core; anything implementing this
// interface (internal/host/miniscript, or a real bytecode VM) can drive
// a script FunctionData's body.
type VM interface {
	Execute(h *runtime.Heap, exec runtime.Handle[runtime.ExecutableData], env runtime.RawHandle, thisValue runtime.Value, args []runtime.Value, gc runtime.NoGcScope) runtime.Completion[runtime.Value]
}

// AttachVM installs the host's script-execution collaborator. Without
// one, Call on a script (non-builtin) function always throws.
func (a *Agent) AttachVM(vm VM) { a.vm = vm }

// Call implements runtime.CallFunc: invoke a builtin Go callback or
// delegate to the attached VM for a script function. It is the one
// concrete implementation of the function-call collaborator every
// internal-method slow path (InternalGet's accessor call, iteration's
// generic next()) is threaded through rather than assuming.
func (a *Agent) Call(h *runtime.Heap, fn runtime.Value, thisValue runtime.Value, args []runtime.Value, gc runtime.NoGcScope) runtime.Completion[runtime.Value] {
	if !fn.IsCallable() {
		return runtime.ThrowCompletion[runtime.Value](a.NewTypeError("value is not a function", gc))
	}
	data := h.Functions.Get(fn.ObjectHandle().Index)
	if data.Kind == runtime.FunctionKindBuiltin {
		return data.Builtin(h, thisValue, args, gc)
	}
	if !data.HasExec || a.vm == nil {
		return runtime.ThrowCompletion[runtime.Value](a.NewTypeError("function has no executable body", gc))
	}
	env := data.Env
	if !data.HasEnv {
		env = a.GlobalEnv
	}
	return a.vm.Execute(h, data.Executable, env, thisValue, args, gc)
}

// NewTypeError, NewRangeError, NewSyntaxError, NewReferenceError, and
// NewURIError allocate the minimal Error object spec.md §7 describes
// for each ECMAScript NativeError kind, following the teacher's
// NewXxxError naming convention.
func (a *Agent) NewTypeError(message string, gc runtime.NoGcScope) runtime.Value {
	return a.Heap.NewError(runtime.ErrorKindTypeError, message, gc)
}

func (a *Agent) NewRangeError(message string, gc runtime.NoGcScope) runtime.Value {
	return a.Heap.NewError(runtime.ErrorKindRangeError, message, gc)
}

func (a *Agent) NewSyntaxError(message string, gc runtime.NoGcScope) runtime.Value {
	return a.Heap.NewError(runtime.ErrorKindSyntaxError, message, gc)
}

func (a *Agent) NewReferenceError(message string, gc runtime.NoGcScope) runtime.Value {
	return a.Heap.NewError(runtime.ErrorKindReferenceError, message, gc)
}

func (a *Agent) NewURIError(message string, gc runtime.NoGcScope) runtime.Value {
	return a.Heap.NewError(runtime.ErrorKindURIError, message, gc)
}

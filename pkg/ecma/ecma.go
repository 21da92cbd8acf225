// Package ecma is the public embedding facade over internal/agent,
// internal/eval, internal/runtime, and internal/host/miniscript: the
// handful of calls an embedder needs to run source text and get a value
// or a thrown error back, without reaching into the managed-heap
// internals directly. Modeled on the teacher's pkg/dwscript Engine
// (New/Parse/Compile/Eval).
package ecma

import (
	"fmt"

	"github.com/novabit/ecmacore/internal/agent"
	"github.com/novabit/ecmacore/internal/config"
	"github.com/novabit/ecmacore/internal/eval"
	"github.com/novabit/ecmacore/internal/host"
	"github.com/novabit/ecmacore/internal/host/miniscript"
	"github.com/novabit/ecmacore/internal/introspect"
	"github.com/novabit/ecmacore/internal/runtime"
)

// Engine owns one Agent (heap + execution-context stack) and the
// parser/compiler/VM triple that drives it. Not safe for concurrent use
// from multiple goroutines, matching Agent's own single-owner contract.
type Engine struct {
	agent    *agent.Agent
	parser   host.Parser
	compiler host.Compiler
	vm       *miniscript.VM
}

// New creates an Engine with default tuning (config.Default()) and an
// initialized global environment.
func New() (*Engine, error) {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates an Engine whose heap and call-stack limits come
// from cfg.
func NewWithConfig(cfg config.Config) (*Engine, error) {
	a := agent.NewFromConfig(cfg)
	s := a.Heap.NoGcScope()

	globalData := runtime.NewObjectData(runtime.Null())
	_, globalObj := a.Heap.AllocateObject(globalData, s)
	a.InitGlobalEnvironment(globalObj, s)

	vm := miniscript.NewVM()
	a.AttachVM(vm)
	vm.Call = a.Call

	return &Engine{
		agent:    a,
		parser:   miniscript.Parser{},
		compiler: miniscript.Compiler{},
		vm:       vm,
	}, nil
}

// Parse parses source and returns the resulting parse tree, without
// running any of it.
func (e *Engine) Parse(source string) (*host.ParseNode, error) {
	return e.parser.Parse(source, host.GoalScript)
}

// Compile parses and compiles source into an Executable, without running
// it.
func (e *Engine) Compile(source string) (*runtime.ExecutableData, error) {
	node, err := e.Parse(source)
	if err != nil {
		return nil, err
	}
	return e.compiler.CompileEvalBody(node)
}

// Eval runs source as a top-level, non-strict indirect eval (the shape a
// standalone script runs under) and returns its completion value, or an
// error describing a thrown exception.
func (e *Engine) Eval(source string) (runtime.Value, error) {
	s := e.agent.Heap.NoGcScope()
	input := e.agent.Heap.NewString(source, s)

	result := eval.PerformEval(e.agent, e.parser, e.compiler, e.vm, input, false, false, s, func() bool { return true })
	if result.IsThrow() {
		thrown := result.ThrownValue()
		return runtime.Undefined(), fmt.Errorf("uncaught exception: %s", thrown.ToDisplayString())
	}
	return result.Value(), nil
}

// Inspect renders value as a JSON document via internal/introspect, for
// embedders that want to show or log a result's shape.
func (e *Engine) Inspect(value runtime.Value) string {
	return introspect.Stringify(e.agent.Heap, value)
}

// Heap exposes the engine's underlying heap for callers that need
// lower-level access (building host values to pass in as globals, for
// instance) beyond what Eval/Parse/Compile cover.
func (e *Engine) Heap() *runtime.Heap { return e.agent.Heap }

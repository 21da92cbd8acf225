package eval

import (
	"errors"
	"testing"

	"github.com/novabit/ecmacore/internal/agent"
	"github.com/novabit/ecmacore/internal/host"
	"github.com/novabit/ecmacore/internal/runtime"
)

func newTestAgentWithGlobal(t *testing.T) (*agent.Agent, runtime.NoGcScope) {
	t.Helper()
	a := agent.New(0)
	s := a.Heap.NoGcScope()
	_, globalObj := a.Heap.AllocateObject(runtime.NewObjectData(runtime.Null()), s)
	a.InitGlobalEnvironment(globalObj, s)
	return a, s
}

func TestEvalDeclarationInstantiationHoistsGlobalVarAndFunction(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	body := &host.ParseNode{
		VarNames:      []string{"x"},
		FunctionDecls: []host.FunctionDecl{{Name: "f", Body: "body"}},
	}

	result := EvalDeclarationInstantiation(a, body, a.GlobalEnv, a.GlobalEnv, false, s)
	if result.IsThrow() {
		t.Fatalf("expected hoisting to succeed, got a throw")
	}

	if !a.Heap.HasVarDeclaration(a.GlobalEnv, "x") {
		t.Fatalf("expected x to become an own global property")
	}
	gotX := a.Heap.GetBindingValue(a.GlobalEnv, "x", false, s)
	if gotX.IsThrow() || gotX.Value().Kind() != runtime.ValueUndefined {
		t.Fatalf("expected freshly hoisted var x to read as undefined, got %+v", gotX)
	}

	gotF := a.Heap.GetBindingValue(a.GlobalEnv, "f", false, s)
	if gotF.IsThrow() || !gotF.Value().IsCallable() {
		t.Fatalf("expected f to be bound to a callable function, got %+v", gotF)
	}
}

func TestEvalDeclarationInstantiationFunctionHoistingLastWins(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	body := &host.ParseNode{
		FunctionDecls: []host.FunctionDecl{
			{Name: "f", Body: "first"},
			{Name: "f", Body: "second"},
		},
	}

	result := EvalDeclarationInstantiation(a, body, a.GlobalEnv, a.GlobalEnv, false, s)
	if result.IsThrow() {
		t.Fatalf("expected hoisting to succeed")
	}
	got := a.Heap.GetBindingValue(a.GlobalEnv, "f", false, s)
	if got.IsThrow() || !got.Value().IsCallable() {
		t.Fatalf("expected f to resolve to a callable function")
	}
}

func TestEvalDeclarationInstantiationRejectsVarConflictingWithGlobalLexical(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	a.Heap.CreateImmutableBinding(a.GlobalEnv, "x", true)
	a.Heap.InitializeBinding(a.GlobalEnv, "x", runtime.SmallInteger(1))

	body := &host.ParseNode{VarNames: []string{"x"}}
	result := EvalDeclarationInstantiation(a, body, a.GlobalEnv, a.GlobalEnv, false, s)
	if !result.IsThrow() {
		t.Fatalf("expected a var colliding with an existing global lexical declaration to throw a SyntaxError")
	}
}

func TestEvalDeclarationInstantiationStrictSkipsLexicalConflictCheck(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	a.Heap.CreateImmutableBinding(a.GlobalEnv, "x", true)
	a.Heap.InitializeBinding(a.GlobalEnv, "x", runtime.SmallInteger(1))

	body := &host.ParseNode{VarNames: []string{"x"}}
	result := EvalDeclarationInstantiation(a, body, a.GlobalEnv, a.GlobalEnv, true, s)
	if result.IsThrow() {
		t.Fatalf("expected the strict-eval path (varEnv==lexEnv) to not run the sloppy-mode var/lexical conflict check")
	}
}

func TestEvalDeclarationInstantiationRejectsFunctionOverNonConfigurableGlobalProperty(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	globalObj := a.Heap.Environments.Get(a.GlobalEnv.Index).BindingObject
	ok := a.Heap.TryDefineOwnProperty(globalObj, runtime.StringKey("f"),
		runtime.PropertyDescriptor{
			HasValue: true, Value: runtime.SmallInteger(1),
			HasWritable: true, Writable: false,
			HasEnumerable: true, Enumerable: true,
			HasConfigurable: true, Configurable: false,
		})
	if !ok.Ok() || !ok.Value() {
		t.Fatalf("expected defining the blocking global property to succeed")
	}

	body := &host.ParseNode{FunctionDecls: []host.FunctionDecl{{Name: "f"}}}
	result := EvalDeclarationInstantiation(a, body, a.GlobalEnv, a.GlobalEnv, false, s)
	if !result.IsThrow() {
		t.Fatalf("expected declaring a function over a non-configurable, non-writable global property to throw a TypeError")
	}
}

func TestEvalDeclarationInstantiationNonGlobalVarEnvDoesNotTouchGlobalObject(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	funcEnvIdx := a.Heap.Environments.Allocate(runtime.NewDeclarativeEnvironmentData(a.GlobalEnv, true))
	funcEnv := runtime.RawHandle{Kind: runtime.KindEnvironment, Index: funcEnvIdx}

	body := &host.ParseNode{VarNames: []string{"local"}}
	result := EvalDeclarationInstantiation(a, body, funcEnv, funcEnv, false, s)
	if result.IsThrow() {
		t.Fatalf("expected hoisting into a non-global variable environment to succeed")
	}
	if a.Heap.HasVarDeclaration(a.GlobalEnv, "local") {
		t.Fatalf("expected a non-global eval to never touch the global object")
	}
	got := a.Heap.GetBindingValue(funcEnv, "local", false, s)
	if got.IsThrow() || got.Value().Kind() != runtime.ValueUndefined {
		t.Fatalf("expected local to be bound as undefined in the function environment")
	}
}

type stubParser struct {
	node *host.ParseNode
	err  error
}

func (p *stubParser) Parse(source string, goal host.ParseGoal) (*host.ParseNode, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.node, nil
}

type stubCompiler struct {
	err error
}

func (c *stubCompiler) CompileEvalBody(node *host.ParseNode) (*runtime.ExecutableData, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &runtime.ExecutableData{}, nil
}

type stubVM struct {
	result runtime.Completion[runtime.Value]
}

func (v *stubVM) Execute(h *runtime.Heap, exec runtime.Handle[runtime.ExecutableData], env runtime.RawHandle, thisValue runtime.Value, args []runtime.Value, gc runtime.NoGcScope) runtime.Completion[runtime.Value] {
	return v.result
}

func TestPerformEvalPassesThroughNonStringInput(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	result := PerformEval(a, &stubParser{}, &stubCompiler{}, &stubVM{}, runtime.SmallInteger(5), false, false, s, nil)
	if result.IsThrow() || result.Value().SmallInt() != 5 {
		t.Fatalf("expected a non-string eval argument to pass through unchanged, got %+v", result)
	}
}

func TestPerformEvalRespectsCanCompileStringsHook(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	src := a.Heap.NewString("1", s)
	refuse := func() bool { return false }
	result := PerformEval(a, &stubParser{}, &stubCompiler{}, &stubVM{}, src, false, false, s, refuse)
	if !result.IsThrow() {
		t.Fatalf("expected a refusing CanCompileStrings hook to throw")
	}
}

func TestPerformEvalSyntaxErrorOnParseFailure(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	src := a.Heap.NewString("{{{", s)
	result := PerformEval(a, &stubParser{err: errors.New("unexpected token")}, &stubCompiler{}, &stubVM{}, src, false, false, s, nil)
	if !result.IsThrow() {
		t.Fatalf("expected a parser error to surface as a SyntaxError throw")
	}
}

func TestPerformEvalIndirectEvalUsesGlobalVarEnv(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	src := a.Heap.NewString("var g = 1;", s)
	node := &host.ParseNode{VarNames: []string{"g"}}
	vm := &stubVM{result: runtime.Ok(runtime.SmallInteger(1))}

	result := PerformEval(a, &stubParser{node: node}, &stubCompiler{}, vm, src, false, false, s, nil)
	if result.IsThrow() {
		t.Fatalf("expected indirect eval to succeed, got a throw")
	}
	if !a.Heap.HasVarDeclaration(a.GlobalEnv, "g") {
		t.Fatalf("expected an indirect eval's var declarations to land on the global object")
	}
	if a.Depth() != 0 {
		t.Fatalf("expected PerformEval to pop its execution context before returning, depth=%d", a.Depth())
	}
}

func TestPerformEvalDirectEvalStrictUsesFreshLexEnvAsVarEnv(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	src := a.Heap.NewString("'use strict'; var g = 1;", s)
	node := &host.ParseNode{UseStrict: true, VarNames: []string{"g"}}
	vm := &stubVM{result: runtime.Ok(runtime.Undefined())}

	result := PerformEval(a, &stubParser{node: node}, &stubCompiler{}, vm, src, true, false, s, nil)
	if result.IsThrow() {
		t.Fatalf("expected a direct strict eval to succeed")
	}
	if a.Heap.HasVarDeclaration(a.GlobalEnv, "g") {
		t.Fatalf("expected a strict eval's var declarations to stay off the global object")
	}
}

func TestPerformEvalPropagatesCompilerError(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	src := a.Heap.NewString("1", s)
	node := &host.ParseNode{}
	result := PerformEval(a, &stubParser{node: node}, &stubCompiler{err: errors.New("bad bytecode")}, &stubVM{}, src, false, false, s, nil)
	if !result.IsThrow() {
		t.Fatalf("expected a compile failure to surface as a SyntaxError throw")
	}
}

func TestPerformEvalDepthLimitExceededThrowsRangeError(t *testing.T) {
	a, s := newTestAgentWithGlobal(t)
	for a.Depth() < 1024 {
		pushed := a.PushContext(agent.ExecutionContext{FunctionName: "filler"}, s)
		if pushed.IsThrow() {
			break
		}
	}
	src := a.Heap.NewString("1", s)
	node := &host.ParseNode{}
	result := PerformEval(a, &stubParser{node: node}, &stubCompiler{}, &stubVM{}, src, false, false, s, nil)
	if !result.IsThrow() {
		t.Fatalf("expected eval to throw once the call-context stack is already at its limit")
	}
}

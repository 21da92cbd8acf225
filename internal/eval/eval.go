// Package eval implements PerformEval and EvalDeclarationInstantiation
// (spec.md §4.6), the one place this core drives the out-of-scope
// parser/compiler/VM collaborators (internal/host) end to end. Grounded
// on spec.md §4.6's algorithm text and on original_source/nova_vm's
// global_object.rs/miscellaneous.rs for the eval-context construction
// and conflict-check ordering; the Agent bookkeeping (context push/pop,
// NewXxxError) reuses internal/agent exactly as a direct function call
// would.
package eval

import (
	"github.com/novabit/ecmacore/internal/agent"
	"github.com/novabit/ecmacore/internal/host"
	"github.com/novabit/ecmacore/internal/runtime"
)

// CanCompileStrings is the host_ensure_can_compile_strings hook
// (spec.md §6): a realm may refuse eval/Function entirely (e.g. a CSP
// policy). Returning false throws the EvalError spec.md's error list
// omits by name but every conforming host needs; this core reuses
// TypeError for it since no EvalError kind is modelled.
type CanCompileStrings func() bool

// PerformEval implements spec.md §4.6's PerformEval. x is the value
// passed to eval(); direct reports whether this is a direct eval call
// (affects scoping only, never bypasses host.Parser); strictCaller
// reports whether the calling code's context is already strict.
func PerformEval(a *agent.Agent, parser host.Parser, compiler host.Compiler, vm agent.VM, x runtime.Value, direct bool, strictCaller bool, gc runtime.NoGcScope, canCompile CanCompileStrings) runtime.Completion[runtime.Value] {
	// Step 1: non-string input passes through unchanged.
	if !x.IsString() {
		return runtime.Ok(x)
	}

	// Step 2: host_ensure_can_compile_strings.
	if canCompile != nil && !canCompile() {
		return runtime.ThrowCompletion[runtime.Value](a.NewTypeError("eval is disabled by the host", gc))
	}

	source := a.Heap.StringText(x)

	// Step 3: inspect the direct-eval context for the flags later
	// contains-checks need. A non-direct eval always runs as if from
	// the top level of the global scope (ECMA-262 19.2.1.1 step 4).
	inFunction, inMethod, inDerivedConstructor := false, false, false
	callerVarEnv := a.GlobalEnv
	callerLexEnv := a.GlobalEnv
	if direct {
		if ctx, ok := a.CurrentContext(); ok {
			inFunction = ctx.InFunction
			inMethod = ctx.InMethod
			inDerivedConstructor = ctx.InDerivedConstructor
			callerVarEnv = ctx.VariableEnv
			callerLexEnv = ctx.LexicalEnv
		}
	}

	// Step 4: parse; a parse failure is a SyntaxError throw.
	node, err := parser.Parse(source, host.GoalScript)
	if err != nil {
		return runtime.ThrowCompletion[runtime.Value](a.NewSyntaxError(err.Error(), gc))
	}

	// Step 5.
	strictEval := strictCaller || node.UseStrict

	// Step 6: construct the EvalContext's environments.
	var varEnv, lexEnv runtime.RawHandle
	if direct {
		varEnv = callerVarEnv
	} else {
		varEnv = a.GlobalEnv
	}
	lexEnvData := runtime.NewDeclarativeEnvironmentData(callerLexEnvOrGlobal(direct, callerLexEnv, a), true)
	lexEnvIdx := a.Heap.Environments.Allocate(lexEnvData)
	lexEnv = runtime.RawHandle{Kind: runtime.KindEnvironment, Index: lexEnvIdx}
	if strictEval {
		varEnv = lexEnv
	}

	pushed := a.PushContext(agent.ExecutionContext{
		FunctionName:         "eval",
		VariableEnv:          varEnv,
		LexicalEnv:           lexEnv,
		InFunction:           inFunction,
		InMethod:             inMethod,
		InDerivedConstructor: inDerivedConstructor,
	}, gc)
	if pushed.IsThrow() {
		return runtime.ThrowCompletion[runtime.Value](pushed.ThrownValue())
	}
	defer a.PopContext()

	// Step 7.
	inst := EvalDeclarationInstantiation(a, node, varEnv, lexEnv, strictEval, gc)
	if inst.IsThrow() {
		return runtime.ThrowCompletion[runtime.Value](inst.ThrownValue())
	}

	exec, err := compiler.CompileEvalBody(node)
	if err != nil {
		return runtime.ThrowCompletion[runtime.Value](a.NewSyntaxError(err.Error(), gc))
	}
	execIdx := a.Heap.Executables.Allocate(exec)
	execHandle := runtime.NewHandle[runtime.ExecutableData](gc, runtime.RawHandle{Kind: runtime.KindExecutable, Index: execIdx})

	return vm.Execute(a.Heap, execHandle, lexEnv, runtime.Undefined(), nil, gc)
}

func callerLexEnvOrGlobal(direct bool, callerLexEnv runtime.RawHandle, a *agent.Agent) runtime.RawHandle {
	if direct {
		return callerLexEnv
	}
	return a.GlobalEnv
}

// EvalDeclarationInstantiation implements spec.md §4.6's
// EvalDeclarationInstantiation. privateEnv is omitted: this core has no
// class/private-field model (out of scope per spec.md §1).
func EvalDeclarationInstantiation(a *agent.Agent, body *host.ParseNode, varEnv, lexEnv runtime.RawHandle, strict bool, gc runtime.NoGcScope) runtime.Completion[struct{}] {
	h := a.Heap
	isGlobalVarEnv := varEnv == a.GlobalEnv

	varNames := dedupeNames(body.VarNames)

	if !strict {
		if isGlobalVarEnv {
			for _, name := range varNames {
				if h.HasLexicalDeclaration(varEnv, name) {
					return runtime.ThrowCompletion[struct{}](a.NewSyntaxError(
						name+" has already been declared", gc))
				}
			}
		}
		// Walk outward from lexEnv toward (but not including) varEnv;
		// at every non-object environment layer a shadowing let/const
		// from an enclosing block is a conflict.
		for env, ok := lexEnv, true; ok && env != varEnv; {
			if !h.IsObjectEnvironment(env) {
				for _, name := range varNames {
					if h.HasBindingDirect(env, name) {
						return runtime.ThrowCompletion[struct{}](a.NewSyntaxError(
							name+" has already been declared", gc))
					}
				}
			}
			env, ok = h.OuterEnvironment(env)
		}
	}

	// Function declarations, reverse order, first occurrence per name
	// wins (= last declaration in source order wins).
	declaredFunctionNames := map[string]bool{}
	var functionsToInitialize []host.FunctionDecl
	for i := len(body.FunctionDecls) - 1; i >= 0; i-- {
		fd := body.FunctionDecls[i]
		if declaredFunctionNames[fd.Name] {
			continue
		}
		declaredFunctionNames[fd.Name] = true
		if isGlobalVarEnv && !h.CanDeclareGlobalFunction(varEnv, fd.Name) {
			return runtime.ThrowCompletion[struct{}](a.NewTypeError(
				"cannot declare global function "+fd.Name, gc))
		}
		functionsToInitialize = append(functionsToInitialize, fd)
	}

	declaredVarNames := map[string]bool{}
	for _, name := range varNames {
		if declaredFunctionNames[name] {
			continue
		}
		if isGlobalVarEnv {
			if !h.CanDeclareGlobalVar(varEnv, name) {
				return runtime.ThrowCompletion[struct{}](a.NewTypeError(
					"cannot declare global variable "+name, gc))
			}
		}
		declaredVarNames[name] = true
	}

	for _, ld := range body.LexicalDecls {
		if ld.IsConst {
			h.CreateImmutableBinding(lexEnv, ld.Name, true)
		} else {
			h.CreateMutableBinding(lexEnv, ld.Name, false)
		}
	}

	for _, fd := range functionsToInitialize {
		exec := &runtime.ExecutableData{Payload: fd.Body}
		execIdx := h.Executables.Allocate(exec)
		execHandle := runtime.NewHandle[runtime.ExecutableData](gc, runtime.RawHandle{Kind: runtime.KindExecutable, Index: execIdx})
		fn := h.NewFunction(fd.Name, execHandle, lexEnv, gc)
		if isGlobalVarEnv {
			h.CreateGlobalFunctionBinding(varEnv, fd.Name, fn, true)
			continue
		}
		has := h.TryHasBinding(varEnv, fd.Name)
		if !has.Ok() || !has.Value() {
			h.CreateMutableBinding(varEnv, fd.Name, true)
		}
		h.InitializeBinding(varEnv, fd.Name, fn)
	}

	for name := range declaredVarNames {
		if isGlobalVarEnv {
			h.CreateGlobalVarBinding(varEnv, name, true)
			continue
		}
		has := h.TryHasBinding(varEnv, name)
		if has.Ok() && has.Value() {
			continue
		}
		h.CreateMutableBinding(varEnv, name, true)
		h.InitializeBinding(varEnv, name, runtime.Undefined())
	}

	return runtime.Ok(struct{}{})
}

func dedupeNames(names []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

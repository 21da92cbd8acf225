package miniscript

import (
	"github.com/novabit/ecmacore/internal/iteration"
	"github.com/novabit/ecmacore/internal/runtime"
)

// VM implements agent.VM by tree-walking the AST
// internal/host/miniscript's Parser and
// Compiler produced. Its frame-per-call, loop-while-body-pending shape
// is grounded on the dispatch-loop style of the teacher's
// internal/bytecode/vm_exec.go (a frame is pushed, run until it drains,
// popped) even though there is no opcode stream here: one evalBlock
// call per call frame plays the same role as one vm_exec frame loop.
type VM struct {
	// Call is the function-invocation seam (agent.Agent.Call bound as a
	// method value) this VM uses for every call expression and for any
	// internal-method slow path (accessor getters, iterator next) that
	// needs to invoke script code. Set once, after the owning Agent
	// exists, via AttachVM(vm); vm.Call = agent.Call.
	Call runtime.CallFunc
}

func NewVM() *VM { return &VM{} }

// Execute implements agent.VM: exec's payload is whichever AST node
// CompileEvalBody or a function declaration's hoisting stored — a
// *Program for a script/eval body, or a *FunctionDeclStmt/*FunctionExpr
// for a call.
func (vm *VM) Execute(h *runtime.Heap, exec runtime.Handle[runtime.ExecutableData], env runtime.RawHandle, thisValue runtime.Value, args []runtime.Value, gc runtime.NoGcScope) runtime.Completion[runtime.Value] {
	payload := h.Executables.Get(exec.Raw.Index).Payload

	switch body := payload.(type) {
	case *Program:
		// A script or eval body completes with the value of its last
		// top-level expression statement.
		res := vm.evalStmts(h, env, thisValue, body.Body, gc)
		if res.kind == sigThrow {
			return runtime.ThrowCompletion[runtime.Value](res.thrown)
		}
		return runtime.Ok(res.value)
	case *FunctionDeclStmt:
		return vm.runCall(h, env, thisValue, body.Params, body.Body.Body, args, gc)
	case *FunctionExpr:
		return vm.runCall(h, env, thisValue, body.Params, body.Body.Body, args, gc)
	case *BlockStmt:
		return vm.runBody(h, env, thisValue, body.Body, gc)
	default:
		return runtime.Ok(runtime.Undefined())
	}
}

func (vm *VM) runCall(h *runtime.Heap, closureEnv runtime.RawHandle, thisValue runtime.Value, params []string, body []Node, args []runtime.Value, gc runtime.NoGcScope) runtime.Completion[runtime.Value] {
	callEnvData := runtime.NewDeclarativeEnvironmentData(closureEnv, true)
	idx := h.Environments.Allocate(callEnvData)
	callEnv := runtime.RawHandle{Kind: runtime.KindEnvironment, Index: idx}
	for i, name := range params {
		v := runtime.Undefined()
		if i < len(args) {
			v = args[i]
		}
		h.CreateMutableBinding(callEnv, name, false)
		h.InitializeBinding(callEnv, name, v)
	}
	return vm.runBody(h, callEnv, thisValue, body, gc)
}

func (vm *VM) runBody(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, body []Node, gc runtime.NoGcScope) runtime.Completion[runtime.Value] {
	res := vm.evalStmts(h, env, thisValue, body, gc)
	if res.kind == sigThrow {
		return runtime.ThrowCompletion[runtime.Value](res.thrown)
	}
	if res.kind == sigReturn {
		return runtime.Ok(res.value)
	}
	return runtime.Ok(runtime.Undefined())
}

// signalKind distinguishes the non-local exits a statement can produce;
// Go's own control flow (if/for) drives the walk, this just threads the
// outcome back up to the nearest construct that can absorb it.
type signalKind uint8

const (
	sigNormal signalKind = iota
	sigReturn
	sigBreak
	sigContinue
	sigThrow
)

type signal struct {
	kind   signalKind
	value  runtime.Value
	thrown runtime.Value
}

func normal() signal { return signal{kind: sigNormal} }
func throwSignal(v runtime.Value) signal { return signal{kind: sigThrow, thrown: v} }

func (vm *VM) evalStmts(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, stmts []Node, gc runtime.NoGcScope) signal {
	completion := normal()
	for _, stmt := range stmts {
		sig := vm.evalStmt(h, env, thisValue, stmt, gc)
		if sig.kind != sigNormal {
			return sig
		}
		if _, isExpr := stmt.(*ExprStmt); isExpr {
			completion = sig
		}
	}
	return completion
}

func (vm *VM) evalStmt(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, stmt Node, gc runtime.NoGcScope) signal {
	switch s := stmt.(type) {
	case *VarDeclStmt:
		return vm.evalVarDecl(h, env, thisValue, s, gc)
	case *FunctionDeclStmt:
		// Top-level eval-body declarations are already bound by
		// EvalDeclarationInstantiation; a nested one (inside an if/for/
		// while body this grammar gives no block scope of its own) is
		// materialized here, the first time control reaches it.
		exec := &runtime.ExecutableData{Payload: s}
		idx := h.Executables.Allocate(exec)
		handle := runtime.NewHandle[runtime.ExecutableData](gc, runtime.RawHandle{Kind: runtime.KindExecutable, Index: idx})
		fn := h.NewFunction(s.Name, handle, env, gc)
		has := h.TryHasBinding(env, s.Name)
		if !has.Ok() || !has.Value() {
			h.CreateMutableBinding(env, s.Name, false)
		}
		h.InitializeBinding(env, s.Name, fn)
		return normal()
	case *BlockStmt:
		return vm.evalStmts(h, env, thisValue, s.Body, gc)
	case *ExprStmt:
		v, sig := vm.eval(h, env, thisValue, s.Expr, gc)
		if sig.kind != sigNormal {
			return sig
		}
		return signal{kind: sigNormal, value: v}
	case *IfStmt:
		cond, sig := vm.eval(h, env, thisValue, s.Cond, gc)
		if sig.kind != sigNormal {
			return sig
		}
		if toBool(cond) {
			return vm.evalStmt(h, env, thisValue, s.Then, gc)
		}
		if s.Else != nil {
			return vm.evalStmt(h, env, thisValue, s.Else, gc)
		}
		return normal()
	case *WhileStmt:
		for {
			cond, sig := vm.eval(h, env, thisValue, s.Cond, gc)
			if sig.kind != sigNormal {
				return sig
			}
			if !toBool(cond) {
				return normal()
			}
			bodySig := vm.evalStmt(h, env, thisValue, s.Body, gc)
			switch bodySig.kind {
			case sigBreak:
				return normal()
			case sigContinue, sigNormal:
			default:
				return bodySig
			}
		}
	case *ForStmt:
		return vm.evalFor(h, env, thisValue, s, gc)
	case *ForInStmt:
		return vm.evalForIn(h, env, thisValue, s, gc)
	case *ForOfStmt:
		return vm.evalForOf(h, env, thisValue, s, gc)
	case *ReturnStmt:
		if s.Value == nil {
			return signal{kind: sigReturn, value: runtime.Undefined()}
		}
		v, sig := vm.eval(h, env, thisValue, s.Value, gc)
		if sig.kind != sigNormal {
			return sig
		}
		return signal{kind: sigReturn, value: v}
	case *BreakStmt:
		return signal{kind: sigBreak}
	case *ContinueStmt:
		return signal{kind: sigContinue}
	default:
		return normal()
	}
}

func (vm *VM) evalVarDecl(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, s *VarDeclStmt, gc runtime.NoGcScope) signal {
	var value runtime.Value = runtime.Undefined()
	if s.Init != nil {
		v, sig := vm.eval(h, env, thisValue, s.Init, gc)
		if sig.kind != sigNormal {
			return sig
		}
		value = v
	}
	switch s.Kind {
	case VAR:
		has := h.TryHasBinding(env, s.Name)
		if !has.Ok() || !has.Value() {
			h.CreateMutableBinding(env, s.Name, false)
			h.InitializeBinding(env, s.Name, value)
			return normal()
		}
		set := h.SetMutableBinding(env, s.Name, value, false, gc)
		if set.IsThrow() {
			return throwSignal(set.ThrownValue())
		}
	case CONST:
		if !h.TryHasBinding(env, s.Name).Value() {
			h.CreateImmutableBinding(env, s.Name, true)
		}
		h.InitializeBinding(env, s.Name, value)
	default: // LET
		if !h.TryHasBinding(env, s.Name).Value() {
			h.CreateMutableBinding(env, s.Name, true)
		}
		h.InitializeBinding(env, s.Name, value)
	}
	return normal()
}

func (vm *VM) evalFor(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, s *ForStmt, gc runtime.NoGcScope) signal {
	if s.Init != nil {
		sig := vm.evalStmt(h, env, thisValue, s.Init, gc)
		if sig.kind != sigNormal {
			return sig
		}
	}
	for {
		if s.Cond != nil {
			cond, sig := vm.eval(h, env, thisValue, s.Cond, gc)
			if sig.kind != sigNormal {
				return sig
			}
			if !toBool(cond) {
				return normal()
			}
		}
		bodySig := vm.evalStmt(h, env, thisValue, s.Body, gc)
		switch bodySig.kind {
		case sigBreak:
			return normal()
		case sigContinue, sigNormal:
		default:
			return bodySig
		}
		if s.Post != nil {
			_, sig := vm.eval(h, env, thisValue, s.Post, gc)
			if sig.kind != sigNormal {
				return sig
			}
		}
	}
}

func (vm *VM) evalForIn(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, s *ForInStmt, gc runtime.NoGcScope) signal {
	obj, sig := vm.eval(h, env, thisValue, s.Object, gc)
	if sig.kind != sigNormal {
		return sig
	}
	if !obj.IsObject() {
		return normal() // for-in over a primitive visits no properties
	}
	it := iteration.FromObjectProperties(obj.ObjectHandle())
	return vm.runIterationLoop(h, env, thisValue, s.DeclKind, s.Name, it, s.Body, gc)
}

func (vm *VM) evalForOf(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, s *ForOfStmt, gc runtime.NoGcScope) signal {
	iterable, sig := vm.eval(h, env, thisValue, s.Iterable, gc)
	if sig.kind != sigNormal {
		return sig
	}
	itC := iteration.GetIterator(h, iterable, vm.Call, gc)
	if itC.IsThrow() {
		return throwSignal(itC.ThrownValue())
	}
	return vm.runIterationLoop(h, env, thisValue, s.DeclKind, s.Name, itC.Value(), s.Body, gc)
}

func (vm *VM) runIterationLoop(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, declKind TokenType, name string, it *iteration.VmIterator, body Node, gc runtime.NoGcScope) signal {
	for {
		step := it.StepValue(h, vm.Call, gc)
		if step.IsThrow() {
			return throwSignal(step.ThrownValue())
		}
		if step.Value().Done() {
			return normal()
		}
		bindLoopVariable(h, env, declKind, name, step.Value().Value(), gc)
		bodySig := vm.evalStmt(h, env, thisValue, body, gc)
		switch bodySig.kind {
		case sigBreak:
			return normal()
		case sigContinue, sigNormal:
		default:
			return bodySig
		}
	}
}

func bindLoopVariable(h *runtime.Heap, env runtime.RawHandle, declKind TokenType, name string, value runtime.Value, gc runtime.NoGcScope) {
	if declKind == TokenType(ILLEGAL) {
		h.SetMutableBinding(env, name, value, false, gc)
		return
	}
	has := h.TryHasBinding(env, name)
	if !has.Ok() || !has.Value() {
		h.CreateMutableBinding(env, name, false)
	}
	h.InitializeBinding(env, name, value)
}

func toBool(v runtime.Value) bool {
	switch v.Kind() {
	case runtime.ValueUndefined, runtime.ValueNull:
		return false
	case runtime.ValueBoolean:
		return v.Boolean()
	case runtime.ValueNumber:
		f := v.Float()
		return f != 0 && f == f // false for 0 and NaN
	case runtime.ValueSmallString:
		return v.SmallStr() != ""
	default:
		return true
	}
}

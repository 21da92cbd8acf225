package miniscript

import (
	"math"
	"strconv"
	"strings"

	"github.com/novabit/ecmacore/internal/runtime"
)

// eval evaluates an expression node, returning a non-normal signal only
// for a throw — expressions in this grammar have no break/continue/
// return of their own, but propagating the same signal type as
// statements keeps every call site uniform.
func (vm *VM) eval(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, n Node, gc runtime.NoGcScope) (runtime.Value, signal) {
	switch e := n.(type) {
	case *Ident:
		// Resolve the name in the nearest enclosing environment that binds it.
		scope := env
		for {
			if has := h.TryHasBinding(scope, e.Name); has.Ok() && has.Value() {
				break
			}
			outer, ok := h.OuterEnvironment(scope)
			if !ok {
				break
			}
			scope = outer
		}
		v := h.GetBindingValue(scope, e.Name, false, gc)
		if v.IsThrow() {
			return runtime.Undefined(), throwSignal(v.ThrownValue())
		}
		return v.Value(), normal()
	case *NumberLit:
		return runtime.NumberValue(e.Value), normal()
	case *StringLit:
		return h.NewString(e.Value, gc), normal()
	case *BoolLit:
		return runtime.Bool(e.Value), normal()
	case *NullLit:
		return runtime.Null(), normal()
	case *UndefinedLit:
		return runtime.Undefined(), normal()
	case *ThisExpr:
		return thisValue, normal()
	case *ArrayLit:
		return vm.evalArrayLit(h, env, thisValue, e, gc)
	case *FunctionExpr:
		exec := &runtime.ExecutableData{Payload: e}
		idx := h.Executables.Allocate(exec)
		handle := runtime.NewHandle[runtime.ExecutableData](gc, runtime.RawHandle{Kind: runtime.KindExecutable, Index: idx})
		return h.NewFunction(e.Name, handle, env, gc), normal()
	case *UnaryExpr:
		return vm.evalUnary(h, env, thisValue, e, gc)
	case *BinaryExpr:
		return vm.evalBinary(h, env, thisValue, e, gc)
	case *LogicalExpr:
		return vm.evalLogical(h, env, thisValue, e, gc)
	case *ConditionalExpr:
		cond, sig := vm.eval(h, env, thisValue, e.Cond, gc)
		if sig.kind != sigNormal {
			return runtime.Undefined(), sig
		}
		if toBool(cond) {
			return vm.eval(h, env, thisValue, e.Then, gc)
		}
		return vm.eval(h, env, thisValue, e.Else, gc)
	case *AssignExpr:
		return vm.evalAssign(h, env, thisValue, e, gc)
	case *CallExpr:
		return vm.evalCall(h, env, thisValue, e, gc)
	case *MemberExpr:
		obj, sig := vm.eval(h, env, thisValue, e.Object, gc)
		if sig.kind != sigNormal {
			return runtime.Undefined(), sig
		}
		return vm.getProperty(h, obj, runtime.StringKey(e.Prop), gc)
	case *IndexExpr:
		obj, sig := vm.eval(h, env, thisValue, e.Object, gc)
		if sig.kind != sigNormal {
			return runtime.Undefined(), sig
		}
		idx, sig := vm.eval(h, env, thisValue, e.Index, gc)
		if sig.kind != sigNormal {
			return runtime.Undefined(), sig
		}
		return vm.getProperty(h, obj, vm.toPropertyKey(h, idx, gc), gc)
	default:
		return runtime.Undefined(), normal()
	}
}

func (vm *VM) toPropertyKey(h *runtime.Heap, v runtime.Value, gc runtime.NoGcScope) runtime.PropertyKey {
	if v.Kind() == runtime.ValueNumber || v.Kind() == runtime.ValueSmallInteger {
		f := v.NumberAsFloat()
		if f >= 0 && f == math.Trunc(f) && f < float64(runtime.MaxArrayIndex)+1 {
			return runtime.IndexKey(uint32(f))
		}
	}
	return runtime.StringKey(h.StringText(vm.toStringValue(h, v, gc)))
}

func (vm *VM) getProperty(h *runtime.Heap, obj runtime.Value, key runtime.PropertyKey, gc runtime.NoGcScope) (runtime.Value, signal) {
	if obj.Kind() == runtime.ValueString || obj.Kind() == runtime.ValueSmallString {
		if key == runtime.LengthKey {
			return runtime.NumberValue(float64(len([]rune(h.StringText(obj))))), normal()
		}
	}
	if !obj.IsObject() {
		return runtime.Undefined(), normal()
	}
	fast := h.TryGet(obj.ObjectHandle(), key, obj)
	if fast.Ok() {
		return fast.Value(), normal()
	}
	v := h.InternalGet(obj.ObjectHandle(), key, obj, vm.Call, gc)
	if v.IsThrow() {
		return runtime.Undefined(), throwSignal(v.ThrownValue())
	}
	return v.Value(), normal()
}

func (vm *VM) evalArrayLit(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, e *ArrayLit, gc runtime.NoGcScope) (runtime.Value, signal) {
	values := make([]runtime.Value, len(e.Elements))
	for i, el := range e.Elements {
		if el == nil {
			values[i] = runtime.Undefined()
			continue
		}
		v, sig := vm.eval(h, env, thisValue, el, gc)
		if sig.kind != sigNormal {
			return runtime.Undefined(), sig
		}
		values[i] = v
	}
	return h.CreateArrayFromList(values, gc), normal()
}

func (vm *VM) evalUnary(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, e *UnaryExpr, gc runtime.NoGcScope) (runtime.Value, signal) {
	v, sig := vm.eval(h, env, thisValue, e.Operand, gc)
	if sig.kind != sigNormal {
		return runtime.Undefined(), sig
	}
	switch e.Op {
	case MINUS:
		return runtime.NumberValue(-vm.toNumber(h, v, gc)), normal()
	case PLUS:
		return runtime.NumberValue(vm.toNumber(h, v, gc)), normal()
	case NOT:
		return runtime.Bool(!toBool(v)), normal()
	case TYPEOF:
		return h.NewString(vm.typeOf(v), gc), normal()
	default:
		return runtime.Undefined(), normal()
	}
}

func (vm *VM) typeOf(v runtime.Value) string {
	switch v.Kind() {
	case runtime.ValueUndefined:
		return "undefined"
	case runtime.ValueNull:
		return "object"
	case runtime.ValueBoolean:
		return "boolean"
	case runtime.ValueNumber, runtime.ValueSmallInteger:
		return "number"
	case runtime.ValueSmallString, runtime.ValueString:
		return "string"
	case runtime.ValueSymbol:
		return "symbol"
	case runtime.ValueObject:
		if v.IsCallable() {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}

func (vm *VM) evalLogical(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, e *LogicalExpr, gc runtime.NoGcScope) (runtime.Value, signal) {
	left, sig := vm.eval(h, env, thisValue, e.Left, gc)
	if sig.kind != sigNormal {
		return runtime.Undefined(), sig
	}
	if e.Op == AND && !toBool(left) {
		return left, normal()
	}
	if e.Op == OR && toBool(left) {
		return left, normal()
	}
	return vm.eval(h, env, thisValue, e.Right, gc)
}

func (vm *VM) evalBinary(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, e *BinaryExpr, gc runtime.NoGcScope) (runtime.Value, signal) {
	left, sig := vm.eval(h, env, thisValue, e.Left, gc)
	if sig.kind != sigNormal {
		return runtime.Undefined(), sig
	}
	right, sig := vm.eval(h, env, thisValue, e.Right, gc)
	if sig.kind != sigNormal {
		return runtime.Undefined(), sig
	}

	switch e.Op {
	case PLUS:
		if isStringLike(left) || isStringLike(right) {
			return h.NewString(vm.toStringValue2(h, left, gc)+vm.toStringValue2(h, right, gc), gc), normal()
		}
		return runtime.NumberValue(vm.toNumber(h, left, gc) + vm.toNumber(h, right, gc)), normal()
	case MINUS:
		return runtime.NumberValue(vm.toNumber(h, left, gc) - vm.toNumber(h, right, gc)), normal()
	case STAR:
		return runtime.NumberValue(vm.toNumber(h, left, gc) * vm.toNumber(h, right, gc)), normal()
	case SLASH:
		return runtime.NumberValue(vm.toNumber(h, left, gc) / vm.toNumber(h, right, gc)), normal()
	case PERCENT:
		return runtime.NumberValue(math.Mod(vm.toNumber(h, left, gc), vm.toNumber(h, right, gc))), normal()
	case LT:
		return runtime.Bool(vm.toNumber(h, left, gc) < vm.toNumber(h, right, gc)), normal()
	case LTE:
		return runtime.Bool(vm.toNumber(h, left, gc) <= vm.toNumber(h, right, gc)), normal()
	case GT:
		return runtime.Bool(vm.toNumber(h, left, gc) > vm.toNumber(h, right, gc)), normal()
	case GTE:
		return runtime.Bool(vm.toNumber(h, left, gc) >= vm.toNumber(h, right, gc)), normal()
	case EQ, NEQ, SEQ, SNEQ:
		eq := vm.looseOrStrictEquals(h, left, right)
		isNum := func(v runtime.Value) bool {
			return v.Kind() == runtime.ValueNumber || v.Kind() == runtime.ValueSmallInteger
		}
		if (e.Op == EQ || e.Op == NEQ) && ((isNum(left) && isStringLike(right)) || (isStringLike(left) && isNum(right))) {
			// == and != convert the string operand to a number first.
			eq = vm.toNumber(h, left, gc) == vm.toNumber(h, right, gc)
		}
		return runtime.Bool(eq != (e.Op == NEQ || e.Op == SNEQ)), normal()
	default:
		return runtime.Undefined(), normal()
	}
}

func isStringLike(v runtime.Value) bool {
	return v.Kind() == runtime.ValueString || v.Kind() == runtime.ValueSmallString
}

func (vm *VM) toNumber(h *runtime.Heap, v runtime.Value, gc runtime.NoGcScope) float64 {
	switch v.Kind() {
	case runtime.ValueNumber, runtime.ValueSmallInteger:
		return v.NumberAsFloat()
	case runtime.ValueBoolean:
		if v.Boolean() {
			return 1
		}
		return 0
	case runtime.ValueNull:
		return 0
	case runtime.ValueSmallString, runtime.ValueString:
		s := strings.TrimSpace(h.StringText(v))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func (vm *VM) toStringValue(h *runtime.Heap, v runtime.Value, gc runtime.NoGcScope) runtime.Value {
	return h.NewString(vm.toStringValue2(h, v, gc), gc)
}

func (vm *VM) toStringValue2(h *runtime.Heap, v runtime.Value, gc runtime.NoGcScope) string {
	if isStringLike(v) {
		return h.StringText(v)
	}
	return v.ToDisplayString()
}

func (vm *VM) looseOrStrictEquals(h *runtime.Heap, a, b runtime.Value) bool {
	if a.Kind() != b.Kind() {
		if (a.Kind() == runtime.ValueString || a.Kind() == runtime.ValueSmallString) &&
			(b.Kind() == runtime.ValueString || b.Kind() == runtime.ValueSmallString) {
			return h.StringText(a) == h.StringText(b)
		}
		return false
	}
	switch a.Kind() {
	case runtime.ValueUndefined, runtime.ValueNull:
		return true
	case runtime.ValueBoolean:
		return a.Boolean() == b.Boolean()
	case runtime.ValueNumber, runtime.ValueSmallInteger:
		return a.NumberAsFloat() == b.NumberAsFloat()
	case runtime.ValueSmallString, runtime.ValueString:
		return h.StringText(a) == h.StringText(b)
	case runtime.ValueObject, runtime.ValueSymbol:
		return a.ObjectHandle() == b.ObjectHandle()
	default:
		return false
	}
}

func (vm *VM) evalAssign(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, e *AssignExpr, gc runtime.NoGcScope) (runtime.Value, signal) {
	value, sig := vm.eval(h, env, thisValue, e.Value, gc)
	if sig.kind != sigNormal {
		return runtime.Undefined(), sig
	}
	if e.Op == PLUS_ASSIGN || e.Op == MINUS_ASSIGN {
		current, sig := vm.eval(h, env, thisValue, e.Target, gc)
		if sig.kind != sigNormal {
			return runtime.Undefined(), sig
		}
		if e.Op == PLUS_ASSIGN && (isStringLike(current) || isStringLike(value)) {
			value = h.NewString(vm.toStringValue2(h, current, gc)+vm.toStringValue2(h, value, gc), gc)
		} else if e.Op == PLUS_ASSIGN {
			value = runtime.NumberValue(vm.toNumber(h, current, gc) + vm.toNumber(h, value, gc))
		} else {
			value = runtime.NumberValue(vm.toNumber(h, current, gc) - vm.toNumber(h, value, gc))
		}
	}

	switch target := e.Target.(type) {
	case *Ident:
		set := h.SetMutableBinding(env, target.Name, value, false, gc)
		if set.IsThrow() {
			return runtime.Undefined(), throwSignal(set.ThrownValue())
		}
	case *MemberExpr:
		obj, sig := vm.eval(h, env, thisValue, target.Object, gc)
		if sig.kind != sigNormal {
			return runtime.Undefined(), sig
		}
		if !vm.setProperty(h, obj, runtime.StringKey(target.Prop), value, gc) {
			return runtime.Undefined(), normal()
		}
	case *IndexExpr:
		obj, sig := vm.eval(h, env, thisValue, target.Object, gc)
		if sig.kind != sigNormal {
			return runtime.Undefined(), sig
		}
		idx, sig := vm.eval(h, env, thisValue, target.Index, gc)
		if sig.kind != sigNormal {
			return runtime.Undefined(), sig
		}
		vm.setProperty(h, obj, vm.toPropertyKey(h, idx, gc), value, gc)
	}
	return value, normal()
}

func (vm *VM) setProperty(h *runtime.Heap, obj runtime.Value, key runtime.PropertyKey, value runtime.Value, gc runtime.NoGcScope) bool {
	if !obj.IsObject() {
		return false
	}
	desc := runtime.PropertyDescriptor{
		HasValue: true, Value: value,
		HasWritable: true, Writable: true,
		HasEnumerable: true, Enumerable: true,
		HasConfigurable: true, Configurable: true,
	}
	return h.InternalDefineOwnProperty(obj.ObjectHandle(), key, desc, gc).Value()
}

func (vm *VM) evalCall(h *runtime.Heap, env runtime.RawHandle, thisValue runtime.Value, e *CallExpr, gc runtime.NoGcScope) (runtime.Value, signal) {
	var callThis runtime.Value = runtime.Undefined()
	var callee runtime.Value
	var sig signal

	switch c := e.Callee.(type) {
	case *MemberExpr:
		obj, s := vm.eval(h, env, thisValue, c.Object, gc)
		if s.kind != sigNormal {
			return runtime.Undefined(), s
		}
		callThis = obj
		callee, sig = vm.getProperty(h, obj, runtime.StringKey(c.Prop), gc)
	case *IndexExpr:
		obj, s := vm.eval(h, env, thisValue, c.Object, gc)
		if s.kind != sigNormal {
			return runtime.Undefined(), s
		}
		idx, s := vm.eval(h, env, thisValue, c.Index, gc)
		if s.kind != sigNormal {
			return runtime.Undefined(), s
		}
		callThis = obj
		callee, sig = vm.getProperty(h, obj, vm.toPropertyKey(h, idx, gc), gc)
	default:
		callee, sig = vm.eval(h, env, thisValue, e.Callee, gc)
	}
	if sig.kind != sigNormal {
		return runtime.Undefined(), sig
	}

	args := make([]runtime.Value, len(e.Args))
	for i, a := range e.Args {
		v, s := vm.eval(h, env, thisValue, a, gc)
		if s.kind != sigNormal {
			return runtime.Undefined(), s
		}
		args[i] = v
	}

	result := vm.Call(h, callee, callThis, args, gc)
	if result.IsThrow() {
		return runtime.Undefined(), throwSignal(result.ThrownValue())
	}
	return result.Value(), normal()
}

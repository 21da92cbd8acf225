// Package iteration implements the bytecode-level iteration protocol
// spec.md §8 describes: the closed VmIterator variant union that backs
// for-in, for-of, and spread, plus its StepValue/RemainingLengthEstimate
// operations. Grounded on original_source/nova_vm's
// engine/bytecode/iterator.rs, the concrete Rust implementation this
// spec's iteration section was distilled from.
package iteration

import "github.com/novabit/ecmacore/internal/runtime"

// kind tags which VmIterator variant is active.
type kind uint8

const (
	kindInvalid kind = iota
	kindObjectProperties
	kindArrayValues
	kindGeneric
	kindSlice
	kindEmptySlice
)

// VmIterator is the closed variant union the VM's iteration opcodes
// drive: an invalid placeholder (for a for-of/spread target with no
// callable @@iterator), the fast paths for for-in's object-property
// walk and for-of/spread over a plain Array, the general case wrapping
// an arbitrary Iterator Record, and the two slice-backed shapes used
// for spreading an already-materialized argument list.
type VmIterator struct {
	k kind

	// kindObjectProperties
	objectProps *objectPropertiesIterator

	// kindArrayValues
	arrayValues *arrayValuesIterator

	// kindGeneric
	iteratorObject runtime.RawHandle
	nextMethod     runtime.Value

	// kindSlice
	slice    []runtime.Value
	sliceIdx int
}

// Invalid returns the placeholder iterator StepValue immediately fails
// on with a TypeError, mirroring VmIterator::InvalidIterator.
func Invalid() *VmIterator { return &VmIterator{k: kindInvalid} }

// EmptySlice returns an iterator that is immediately exhausted, used
// when a spread's source is statically known to have zero elements.
func EmptySlice() *VmIterator { return &VmIterator{k: kindEmptySlice} }

// FromSlice wraps an already-materialized value list (e.g. a rest
// parameter's arguments) as an iterator with no @@iterator indirection.
func FromSlice(values []runtime.Value) *VmIterator {
	return &VmIterator{k: kindSlice, slice: values}
}

// FromObjectProperties builds the for-in enumeration iterator over obj
// and its prototype chain's enumerable string-keyed properties.
func FromObjectProperties(obj runtime.RawHandle) *VmIterator {
	return &VmIterator{k: kindObjectProperties, objectProps: &objectPropertiesIterator{object: obj}}
}

// FromArrayValues builds the for-of fast-path iterator over an Array's
// own elements, used when GetIterator recognizes the value's
// @@iterator is the unmodified Array.prototype.values.
func FromArrayValues(array runtime.RawHandle) *VmIterator {
	return &VmIterator{k: kindArrayValues, arrayValues: &arrayValuesIterator{array: array}}
}

// FromGeneric wraps an arbitrary Iterator Record (an iterator object
// plus its resolved `next` method), the general case every other
// @@iterator implementation falls into.
func FromGeneric(iteratorObject runtime.RawHandle, nextMethod runtime.Value) *VmIterator {
	return &VmIterator{k: kindGeneric, iteratorObject: iteratorObject, nextMethod: nextMethod}
}

// GetIterator implements GetIterator (ECMA-262 7.4.4, sync case): resolve
// value's %Symbol.iterator% method and, unless it is undefined, build an
// Iterator Record from it. Recognizes the Array.prototype.values fast
// path the same way VmIterator::from_value does, but since this core has
// no realm/intrinsics registry yet, the fast path triggers whenever the
// resolved method is itself absent from the array's own/backing
// properties and the value is an Array — i.e. the common case of an
// unmodified array, not a precise identity check against an intrinsic.
func GetIterator(h *runtime.Heap, value runtime.Value, call runtime.CallFunc, gc runtime.NoGcScope) runtime.Completion[*VmIterator] {
	if value.IsArray() {
		raw := value.ObjectHandle()
		own := h.TryGetOwnProperty(raw, runtime.SymbolKeyFromValue(h.WellKnown(runtime.SymbolIterator)))
		if own.Ok() && own.Value() == nil {
			return runtime.Ok(FromArrayValues(raw))
		}
	}
	return getIteratorSlow(h, value, call, gc)
}

func getIteratorSlow(h *runtime.Heap, value runtime.Value, call runtime.CallFunc, gc runtime.NoGcScope) runtime.Completion[*VmIterator] {
	if !value.IsObject() && !value.IsString() {
		return runtime.ThrowCompletion[*VmIterator](h.NewError(runtime.ErrorKindTypeError, "value is not iterable", gc))
	}
	raw := value.ObjectHandle()
	method := h.GetMethod(raw, runtime.SymbolKeyFromValue(h.WellKnown(runtime.SymbolIterator)), call, gc)
	if method.IsThrow() {
		return runtime.ThrowCompletion[*VmIterator](method.ThrownValue())
	}
	if method.Value().IsUndefined() {
		return runtime.ThrowCompletion[*VmIterator](h.NewError(runtime.ErrorKindTypeError, "value is not iterable", gc))
	}
	return GetIteratorFromMethod(h, value, method.Value(), call, gc)
}

// GetIteratorFromMethod implements GetIteratorFromMethod (ECMA-262
// 7.4.5): call method with value as `this`, require the result to be an
// object, and resolve its `next` method once up front.
func GetIteratorFromMethod(h *runtime.Heap, value runtime.Value, method runtime.Value, call runtime.CallFunc, gc runtime.NoGcScope) runtime.Completion[*VmIterator] {
	iter := call(h, method, value, nil, gc)
	if iter.IsThrow() {
		return runtime.ThrowCompletion[*VmIterator](iter.ThrownValue())
	}
	if !iter.Value().IsObject() {
		return runtime.ThrowCompletion[*VmIterator](h.NewError(runtime.ErrorKindTypeError, "iterator result is not an object", gc))
	}
	iteratorObj := iter.Value().ObjectHandle()
	next := h.InternalGet(iteratorObj, runtime.StringKey("next"), iter.Value(), call, gc)
	if next.IsThrow() {
		return runtime.ThrowCompletion[*VmIterator](next.ThrownValue())
	}
	return runtime.Ok(FromGeneric(iteratorObj, next.Value()))
}

// StepValue implements IteratorStepValue (ECMA-262 7.4.8): advance the
// iterator once and return either the next value or, at exhaustion, a
// result whose Done() is true — the done flag distinguishes "done, value
// is undefined" from "not done, value is undefined", which a bare Value
// zero-value can't.
func (it *VmIterator) StepValue(h *runtime.Heap, call runtime.CallFunc, gc runtime.NoGcScope) runtime.Completion[stepResult] {
	switch it.k {
	case kindInvalid:
		return runtime.ThrowCompletion[stepResult](h.NewError(runtime.ErrorKindTypeError, "value is not a function", gc))
	case kindObjectProperties:
		return it.objectProps.next(h, gc)
	case kindArrayValues:
		return it.arrayValues.next(h, call, gc)
	case kindSlice:
		if it.sliceIdx >= len(it.slice) {
			return runtime.Ok(stepResult{done: true})
		}
		v := it.slice[it.sliceIdx]
		it.sliceIdx++
		return runtime.Ok(stepResult{value: v})
	case kindEmptySlice:
		return runtime.Ok(stepResult{done: true})
	default: // kindGeneric
		return it.genericNext(h, call, gc)
	}
}

// stepResult is StepValue's (value, done) pair; done=true means the
// iterator is exhausted and value carries no meaning.
type stepResult struct {
	value runtime.Value
	done  bool
}

// Value returns the stepped value; only meaningful when !Done().
func (r stepResult) Value() runtime.Value { return r.value }

// Done reports whether the iterator reported completion.
func (r stepResult) Done() bool { return r.done }

func (it *VmIterator) genericNext(h *runtime.Heap, call runtime.CallFunc, gc runtime.NoGcScope) runtime.Completion[stepResult] {
	result := call(h, it.nextMethod, runtime.ObjectFromHandle(it.iteratorObject), nil, gc)
	if result.IsThrow() {
		return runtime.ThrowCompletion[stepResult](result.ThrownValue())
	}
	if !result.Value().IsObject() {
		return runtime.ThrowCompletion[stepResult](h.NewError(runtime.ErrorKindTypeError, "iterator result is not an object", gc))
	}
	resultObj := result.Value().ObjectHandle()
	doneVal := h.InternalGet(resultObj, runtime.StringKey("done"), result.Value(), call, gc)
	if doneVal.IsThrow() {
		return runtime.ThrowCompletion[stepResult](doneVal.ThrownValue())
	}
	if toBoolean(doneVal.Value()) {
		return runtime.Ok(stepResult{done: true})
	}
	value := h.InternalGet(resultObj, runtime.StringKey("value"), result.Value(), call, gc)
	if value.IsThrow() {
		return runtime.ThrowCompletion[stepResult](value.ThrownValue())
	}
	return runtime.Ok(stepResult{value: value.Value()})
}

// toBoolean implements the ToBoolean abstract operation for the subset
// of values this package needs it for (an iterator result's "done"
// flag, which user code can set to any value).
func toBoolean(v runtime.Value) bool {
	switch v.Kind() {
	case runtime.ValueUndefined, runtime.ValueNull:
		return false
	case runtime.ValueBoolean:
		return v.Boolean()
	case runtime.ValueSmallInteger:
		return v.SmallInt() != 0
	case runtime.ValueNumber:
		f := v.Float()
		return f != 0 && f == f // false for 0, -0, and NaN
	case runtime.ValueSmallString:
		return v.SmallStr() != ""
	default:
		return true
	}
}

// RemainingLengthEstimate implements remaining_length_estimate: an
// upper bound on how many more values StepValue will produce, or
// (0, false) when the shape gives no cheap estimate (a generic
// user-defined iterator, whose `next` may run arbitrary code and could
// in principle never terminate).
func (it *VmIterator) RemainingLengthEstimate(h *runtime.Heap) (int, bool) {
	switch it.k {
	case kindInvalid, kindGeneric:
		return 0, false
	case kindObjectProperties:
		return len(it.objectProps.remainingKeys), true
	case kindArrayValues:
		length := h.ArrayLength(it.arrayValues.array)
		if it.arrayValues.index >= length {
			return 0, true
		}
		return int(length - it.arrayValues.index), true
	case kindSlice:
		return len(it.slice) - it.sliceIdx, true
	case kindEmptySlice:
		return 0, true
	default:
		return 0, false
	}
}

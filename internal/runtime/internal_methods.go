package runtime

// This file implements spec.md §4.3: the polymorphic internal-method
// protocol dispatched over the closed set of object variants
// {OrdinaryObject, Array, Function}, plus the ordinary-object algorithms
// (ValidateAndApplyPropertyDescriptor and friends) that both ordinary
// objects and an Array's materialized backing object share. Array's own
// overrides of four of these methods live in array.go; everything else
// for an Array delegates here against its backing object.

// backingObjectData resolves an ObjectData handle to its record. Panics
// (via Arena.Get) if raw does not identify a live Object-kind record —
// a programming error, per spec.md §4.1.
func (h *Heap) backingObjectData(raw RawHandle) *ObjectData {
	return h.Objects.Get(raw.Index)
}

// TryGetOwnProperty is the ordinary-object [[GetOwnProperty]] fast path:
// it never needs user code, so it has no internal_ counterpart distinct
// from itself — ordinary own-property lookup can't invoke a proxy trap.
func (h *Heap) TryGetOwnProperty(obj RawHandle, key PropertyKey) Try[*PropertyDescriptor] {
	switch obj.Kind {
	case KindArray:
		return h.arrayGetOwnProperty(obj, key)
	default:
		d, ok := h.backingObjectData(obj).getOwn(key)
		if !ok {
			return TryOK[*PropertyDescriptor](nil)
		}
		return TryOK(&d)
	}
}

// TryHasProperty implements OrdinaryHasProperty: own property, else walk
// the prototype chain. It is a Try-only operation unless a prototype
// segment is itself an exotic object needing user code (not modeled
// here, since this core's only exotic kind is Array, which never
// requires a proxy trap for HasProperty).
func (h *Heap) TryHasProperty(obj RawHandle, key PropertyKey) Try[bool] {
	current := obj
	for {
		own := h.TryGetOwnProperty(current, key)
		if !own.Ok() {
			return TryBreak[bool]()
		}
		if own.Value() != nil {
			return TryOK(true)
		}
		proto := h.TryGetPrototypeOf(current)
		if !proto.Ok() {
			return TryBreak[bool]()
		}
		if proto.Value().IsNullish() {
			return TryOK(false)
		}
		current = proto.Value().ObjectHandle()
	}
}

// TryGet implements OrdinaryGet (spec.md §9.1.8): consult the own
// property, fall through the prototype chain, and call a getter if one
// is present. Array overrides this for the integer-index fast path (see
// array.go); this implementation is used directly for ordinary objects
// and as the Array delegate for non-index keys.
func (h *Heap) TryGet(obj RawHandle, key PropertyKey, receiver Value) Try[Value] {
	if obj.Kind == KindArray {
		return h.arrayTryGet(obj, key, receiver)
	}
	desc := h.TryGetOwnProperty(obj, key)
	if !desc.Ok() {
		return TryBreak[Value]()
	}
	if desc.Value() == nil {
		proto := h.TryGetPrototypeOf(obj)
		if !proto.Ok() {
			return TryBreak[Value]()
		}
		if proto.Value().IsNullish() {
			return TryOK(Undefined())
		}
		return h.TryGet(proto.Value().ObjectHandle(), key, receiver)
	}
	d := desc.Value()
	if d.IsAccessor() {
		if !d.HasGet || d.Get.IsUndefined() {
			return TryOK(Undefined())
		}
		// Calling the getter may run user code: not a Try-safe operation.
		return TryBreak[Value]()
	}
	return TryOK(d.Value)
}

// InternalGet is the slow-path [[Get]]: like TryGet, but willing to call
// a getter (which can allocate, throw, or recurse). call is the
// function-invocation collaborator (normally the Agent/VM); it is
// threaded through explicitly, per spec.md §5's "no ambient current
// engine" rule.
func (h *Heap) InternalGet(obj RawHandle, key PropertyKey, receiver Value, call CallFunc, gc NoGcScope) Completion[Value] {
	if obj.Kind == KindArray {
		return h.arrayInternalGet(obj, key, receiver, call, gc)
	}
	desc := h.TryGetOwnProperty(obj, key)
	if !desc.Ok() || desc.Value() == nil {
		proto := h.TryGetPrototypeOf(obj)
		if proto.Ok() {
			if proto.Value().IsNullish() {
				return Ok(Undefined())
			}
			return h.InternalGet(proto.Value().ObjectHandle(), key, receiver, call, gc)
		}
	}
	d := desc.Value()
	if d == nil {
		return Ok(Undefined())
	}
	if d.IsAccessor() {
		if !d.HasGet || d.Get.IsUndefined() {
			return Ok(Undefined())
		}
		return call(h, d.Get, receiver, nil, gc)
	}
	return Ok(d.Value)
}

// GetMethod implements GetMethod (ECMA-262 7.3.11): fetch the property
// at key and, unless it is undefined or null, require it to be
// callable. Used by GetIterator to fetch %Symbol.iterator%.
func (h *Heap) GetMethod(obj RawHandle, key PropertyKey, call CallFunc, gc NoGcScope) Completion[Value] {
	receiver := ObjectFromHandle(obj)
	v := h.InternalGet(obj, key, receiver, call, gc)
	if v.IsThrow() {
		return v
	}
	if v.Value().IsNullish() {
		return Ok(Undefined())
	}
	if !v.Value().IsCallable() {
		return ThrowCompletion[Value](h.NewError(ErrorKindTypeError, "value is not a function", gc))
	}
	return Ok(v.Value())
}

// CallFunc invokes a callable Value with `this` and arguments, returning
// its completion. This is the one place the object model reaches out to
// the (out-of-scope) call-dispatch machinery; Agent supplies a concrete
// implementation backed by FunctionData.Builtin or the host VM.
type CallFunc func(h *Heap, fn Value, thisValue Value, args []Value, gc NoGcScope) Completion[Value]

// TryDefineOwnProperty implements OrdinaryDefineOwnProperty via
// ValidateAndApplyPropertyDescriptor; Array overrides it (array.go) for
// "length" and in-range integer indices.
func (h *Heap) TryDefineOwnProperty(obj RawHandle, key PropertyKey, desc PropertyDescriptor) Try[bool] {
	if obj.Kind == KindArray {
		return h.arrayDefineOwnProperty(obj, key, desc)
	}
	current := h.TryGetOwnProperty(obj, key)
	if !current.Ok() {
		return TryBreak[bool]()
	}
	extensible := h.TryIsExtensible(obj)
	if !extensible.Ok() {
		return TryBreak[bool]()
	}
	ok := validateAndApply(h.backingObjectData(obj), key, current.Value(), desc, extensible.Value())
	return TryOK(ok)
}

// validateAndApply is ValidateAndApplyPropertyDescriptor
// (https://tc39.es/ecma262/#sec-validateandapplypropertydescriptor),
// applied directly to an ObjectData's property map.
func validateAndApply(o *ObjectData, key PropertyKey, current *PropertyDescriptor, desc PropertyDescriptor, extensible bool) bool {
	if current == nil {
		if !extensible {
			return false
		}
		o.setOwn(key, completeDescriptor(desc))
		return true
	}
	if !desc.HasValue && !desc.HasWritable && !desc.HasGet && !desc.HasSet &&
		!desc.HasEnumerable && !desc.HasConfigurable {
		return true // no fields present: always valid, no-op
	}
	if !current.Configurable {
		if desc.HasConfigurable && desc.Configurable {
			return false
		}
		if desc.HasEnumerable && desc.Enumerable != current.Enumerable {
			return false
		}
		if !desc.IsGenericDescriptor() && desc.IsAccessor() != current.IsAccessor() {
			return false
		}
		if current.IsAccessor() {
			if desc.HasGet && !sameValueValue(desc.Get, current.Get) {
				return false
			}
			if desc.HasSet && !sameValueValue(desc.Set, current.Set) {
				return false
			}
		} else if !current.Writable {
			if desc.HasWritable && desc.Writable {
				return false
			}
			if desc.HasValue && !sameValueValue(desc.Value, current.Value) {
				return false
			}
		}
	}
	merged := *current
	if desc.IsAccessor() && !current.IsAccessor() {
		merged = PropertyDescriptor{
			HasEnumerable: true, Enumerable: current.Enumerable,
			HasConfigurable: true, Configurable: current.Configurable,
		}
	} else if desc.IsDataDescriptor() && current.IsAccessor() {
		merged = PropertyDescriptor{
			HasEnumerable: true, Enumerable: current.Enumerable,
			HasConfigurable: true, Configurable: current.Configurable,
			HasWritable: true, Writable: false,
		}
	}
	if desc.HasValue {
		merged.HasValue, merged.Value = true, desc.Value
		merged.HasGet, merged.HasSet = false, false
	}
	if desc.HasWritable {
		merged.HasWritable, merged.Writable = true, desc.Writable
	}
	if desc.HasGet {
		merged.HasGet, merged.Get = true, desc.Get
		merged.HasValue, merged.HasWritable = false, false
	}
	if desc.HasSet {
		merged.HasSet, merged.Set = true, desc.Set
		merged.HasValue, merged.HasWritable = false, false
	}
	if desc.HasEnumerable {
		merged.HasEnumerable, merged.Enumerable = true, desc.Enumerable
	}
	if desc.HasConfigurable {
		merged.HasConfigurable, merged.Configurable = true, desc.Configurable
	}
	o.setOwn(key, merged)
	return true
}

func completeDescriptor(desc PropertyDescriptor) PropertyDescriptor {
	if desc.IsAccessor() {
		if !desc.HasGet {
			desc.Get = Undefined()
		}
		if !desc.HasSet {
			desc.Set = Undefined()
		}
	} else {
		if !desc.HasValue {
			desc.Value = Undefined()
		}
		if !desc.HasWritable {
			desc.Writable = false
		}
	}
	if !desc.HasEnumerable {
		desc.Enumerable = false
	}
	if !desc.HasConfigurable {
		desc.Configurable = false
	}
	desc.HasValue, desc.HasWritable, desc.HasEnumerable, desc.HasConfigurable = true, true, true, true
	if desc.IsAccessor() {
		desc.HasValue, desc.HasWritable = false, false
		desc.HasGet, desc.HasSet = true, true
	}
	return desc
}

func sameValueValue(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case ValueUndefined, ValueNull:
		return true
	case ValueBoolean:
		return a.Boolean() == b.Boolean()
	case ValueSmallInteger:
		return a.SmallInt() == b.SmallInt()
	case ValueNumber:
		return a.Float() == b.Float() || (a.Float() != a.Float() && b.Float() != b.Float())
	case ValueSmallString:
		return a.SmallStr() == b.SmallStr()
	case ValueString, ValueSymbol, ValueObject:
		return a.ObjectHandle() == b.ObjectHandle()
	default:
		return false
	}
}

// InternalDefineOwnProperty is the slow-path [[DefineOwnProperty]]: the
// only case the Try fast path can't finish itself is setting an Array's
// "length" to a value that fails ToUint32(v) == ToNumber(v), which is a
// RangeError (ECMA-262 10.4.2.4 step 3.d).
func (h *Heap) InternalDefineOwnProperty(obj RawHandle, key PropertyKey, desc PropertyDescriptor, gc NoGcScope) Completion[bool] {
	fast := h.TryDefineOwnProperty(obj, key, desc)
	if fast.Ok() {
		return Ok(fast.Value())
	}
	if obj.Kind == KindArray && sameKey(key, LengthKey) {
		return ThrowCompletion[bool](h.NewError(ErrorKindRangeError, "Invalid array length", gc))
	}
	return Ok(false)
}

// TryDelete implements OrdinaryDelete: remove a configurable own
// property, or report false for a non-configurable one, or true if the
// property is already absent.
func (h *Heap) TryDelete(obj RawHandle, key PropertyKey) Try[bool] {
	if obj.Kind == KindArray {
		return h.arrayDelete(obj, key)
	}
	own := h.TryGetOwnProperty(obj, key)
	if !own.Ok() {
		return TryBreak[bool]()
	}
	if own.Value() == nil {
		return TryOK(true)
	}
	if !own.Value().Configurable {
		return TryOK(false)
	}
	h.backingObjectData(obj).deleteOwn(key)
	return TryOK(true)
}

// TryOwnPropertyKeys implements OrdinaryOwnPropertyKeys.
func (h *Heap) TryOwnPropertyKeys(obj RawHandle) Try[[]PropertyKey] {
	if obj.Kind == KindArray {
		return h.arrayOwnPropertyKeys(obj)
	}
	return TryOK(h.backingObjectData(obj).OwnPropertyKeys())
}

// TryGetPrototypeOf implements OrdinaryGetPrototypeOf; Array forwards
// here through its materialized (or absent, meaning %Array.prototype%-
// implied-Null-for-this-core) backing object.
func (h *Heap) TryGetPrototypeOf(obj RawHandle) Try[Value] {
	switch obj.Kind {
	case KindArray:
		a := h.Arrays.Get(obj.Index)
		if a.BackingObject == nil {
			return TryOK(Null())
		}
		return TryOK(h.backingObjectData(*a.BackingObject).Prototype)
	case KindFunction:
		backing := h.functionBacking(obj, false)
		if backing == nil {
			return TryOK(Null())
		}
		return TryOK(backing.Prototype)
	default:
		return TryOK(h.backingObjectData(obj).Prototype)
	}
}

// TrySetPrototypeOf implements OrdinarySetPrototypeOf.
func (h *Heap) TrySetPrototypeOf(obj RawHandle, proto Value) Try[bool] {
	data := h.ensureBacking(obj)
	if !h.TryIsExtensible(obj).Value() {
		current := data.Prototype
		return TryOK(sameValueValue(current, proto))
	}
	data.Prototype = proto
	return TryOK(true)
}

// TryIsExtensible implements OrdinaryIsExtensible.
func (h *Heap) TryIsExtensible(obj RawHandle) Try[bool] {
	switch obj.Kind {
	case KindArray:
		a := h.Arrays.Get(obj.Index)
		if a.BackingObject == nil {
			return TryOK(true)
		}
		return TryOK(h.backingObjectData(*a.BackingObject).Extensible)
	case KindFunction:
		backing := h.functionBacking(obj, false)
		if backing == nil {
			return TryOK(true)
		}
		return TryOK(backing.Extensible)
	default:
		return TryOK(h.backingObjectData(obj).Extensible)
	}
}

// TrySetExtensible implements OrdinarySetExtensible.
func (h *Heap) TrySetExtensible(obj RawHandle, value bool) Try[bool] {
	data := h.ensureBacking(obj)
	data.Extensible = value
	return TryOK(true)
}

// ensureBacking returns the backing ObjectData for any variant,
// materializing an Array's or Function's lazily-allocated backing
// object on first use (spec.md §3 "Backing objects are allocated lazily
// on first non-integer key assignment or on forced non-extensibility").
func (h *Heap) ensureBacking(obj RawHandle) *ObjectData {
	switch obj.Kind {
	case KindArray:
		a := h.Arrays.Get(obj.Index)
		if a.BackingObject == nil {
			idx := h.Objects.Allocate(NewObjectData(Null()))
			raw := RawHandle{Kind: KindObject, Index: idx}
			a.BackingObject = &raw
		}
		return h.backingObjectData(*a.BackingObject)
	case KindFunction:
		return h.functionBacking(obj, true)
	default:
		return h.backingObjectData(obj)
	}
}

func (h *Heap) functionBacking(obj RawHandle, create bool) *ObjectData {
	f := h.Functions.Get(obj.Index)
	if f.backing == nil {
		if !create {
			return nil
		}
		idx := h.Objects.Allocate(NewObjectData(Null()))
		raw := RawHandle{Kind: KindObject, Index: idx}
		f.backing = &raw
	}
	return h.backingObjectData(*f.backing)
}

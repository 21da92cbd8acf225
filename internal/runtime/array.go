package runtime

// MaxArrayIndex is the inclusive upper bound of the Array index range,
// spec.md §4.4's ARRAY_INDEX_RANGE: [0, 2^32-2]. ECMA-262 reserves
// 2^32-1 itself so that an array's length (which must hold any valid
// index + 1) always fits in a uint32 without overflow, a detail easy to
// get wrong by reaching for 2^32-1 as the bound instead — ported from
// the ARRAY_INDEX_RANGE constant in original_source/nova_vm.
const MaxArrayIndex uint32 = 1<<32 - 2

// ArrayData is the Array exotic object record: an optional lazily
// materialized backing object for non-index named properties, plus a
// reference to the packed element storage holding its integer-indexed
// elements and "length", per spec.md §4.4.
type ArrayData struct {
	BackingObject *RawHandle // KindObject; nil until a non-index key is defined
	StorageID     uint32     // index into Heap.ElementStorages
	Length        uint32
	LengthWritable bool
}

// NewArrayData creates an Array record over freshly allocated element
// storage with the given initial values, all with default attributes.
func (h *Heap) NewArrayData(values []Value) *ArrayData {
	storage := NewElementStorage(uint32(len(values)))
	for i, v := range values {
		storage.Set(uint32(i), v)
	}
	return &ArrayData{
		StorageID:      h.AllocateElementStorage(storage),
		Length:         uint32(len(values)),
		LengthWritable: true,
	}
}

// CreateArrayFromList implements CreateArrayFromList (ECMA-262 7.3.19):
// allocate a new Array exotic object whose elements are exactly `items`,
// in order, each with the default data attributes.
func (h *Heap) CreateArrayFromList(items []Value, s NoGcScope) Value {
	idx := h.Arrays.Allocate(h.NewArrayData(items))
	raw := RawHandle{Kind: KindArray, Index: idx}
	_ = NewHandle[ArrayData](s, raw)
	return ObjectFromHandle(raw)
}

func (h *Heap) arrayStorage(raw RawHandle) *ElementStorage {
	a := h.Arrays.Get(raw.Index)
	return h.ElementStorages.Get(a.StorageID)
}

// arrayGetOwnProperty implements the Array exotic [[GetOwnProperty]]
// (ECMA-262 10.4.2.1): "length" reports the current length with its
// writability, an in-range index reports its element slot's effective
// descriptor, and everything else forwards to the backing object.
func (h *Heap) arrayGetOwnProperty(raw RawHandle, key PropertyKey) Try[*PropertyDescriptor] {
	a := h.Arrays.Get(raw.Index)
	if sameKey(key, LengthKey) {
		d := dataDescriptor(SmallInteger(int64(a.Length)), a.LengthWritable, false, false)
		return TryOK(&d)
	}
	if idx, ok := key.AsArrayIndex(); ok {
		storage := h.ElementStorages.Get(a.StorageID)
		if storage.IsHole(idx) {
			return TryOK[*PropertyDescriptor](nil)
		}
		v, _ := storage.Get(idx)
		eff := storage.EffectiveDescriptor(idx)
		if eff.IsAccessor() {
			d := PropertyDescriptor{
				HasGet: true, Get: eff.Getter,
				HasSet: true, Set: eff.Setter,
				HasEnumerable: true, Enumerable: eff.Enumerable,
				HasConfigurable: true, Configurable: eff.Configurable,
			}
			return TryOK(&d)
		}
		d := dataDescriptor(v, eff.Writable, eff.Enumerable, eff.Configurable)
		return TryOK(&d)
	}
	if a.BackingObject == nil {
		return TryOK[*PropertyDescriptor](nil)
	}
	return h.TryGetOwnProperty(*a.BackingObject, key)
}

// arrayTryGet is the Array fast-path [[Get]] override: an in-range
// index with a plain data slot is resolved without establishing a
// GcScope; everything else (accessors, "length", named properties)
// falls back through the generic algorithm against the materialized
// view arrayGetOwnProperty already provides, or breaks to the slow path
// if a getter must run.
func (h *Heap) arrayTryGet(raw RawHandle, key PropertyKey, receiver Value) Try[Value] {
	if idx, ok := key.AsArrayIndex(); ok {
		storage := h.arrayStorage(raw)
		if storage.EffectiveDescriptor(idx).IsAccessor() {
			return TryBreak[Value]()
		}
		if v, present := storage.Get(idx); present {
			return TryOK(v)
		}
		// Hole (in or out of range): defer to the prototype chain, per
		// spec.md §4.4's [[Get]] algorithm.
		proto := h.TryGetPrototypeOf(raw)
		if !proto.Ok() {
			return TryBreak[Value]()
		}
		if proto.Value().IsNullish() {
			return TryOK(Undefined())
		}
		return h.TryGet(proto.Value().ObjectHandle(), key, receiver)
	}
	if sameKey(key, LengthKey) {
		return TryOK(SmallInteger(int64(h.Arrays.Get(raw.Index).Length)))
	}
	a := h.Arrays.Get(raw.Index)
	if a.BackingObject == nil {
		return TryOK(Undefined())
	}
	return h.TryGet(*a.BackingObject, key, receiver)
}

// arrayInternalGet is the Array slow-path [[Get]]: like arrayTryGet but
// willing to invoke an accessor's getter.
func (h *Heap) arrayInternalGet(raw RawHandle, key PropertyKey, receiver Value, call CallFunc, gc NoGcScope) Completion[Value] {
	if idx, ok := key.AsArrayIndex(); ok {
		storage := h.arrayStorage(raw)
		eff := storage.EffectiveDescriptor(idx)
		if eff.IsAccessor() {
			if !eff.HasGetter || eff.Getter.IsUndefined() {
				return Ok(Undefined())
			}
			return call(h, eff.Getter, receiver, nil, gc)
		}
		if v, present := storage.Get(idx); present {
			return Ok(v)
		}
		proto := h.TryGetPrototypeOf(raw)
		if proto.Ok() {
			if proto.Value().IsNullish() {
				return Ok(Undefined())
			}
			return h.InternalGet(proto.Value().ObjectHandle(), key, receiver, call, gc)
		}
		return Ok(Undefined())
	}
	if sameKey(key, LengthKey) {
		return Ok(SmallInteger(int64(h.Arrays.Get(raw.Index).Length)))
	}
	a := h.Arrays.Get(raw.Index)
	if a.BackingObject == nil {
		return Ok(Undefined())
	}
	return h.InternalGet(*a.BackingObject, key, receiver, call, gc)
}

// arrayDefineOwnProperty implements the Array exotic
// [[DefineOwnProperty]] (ECMA-262 10.4.2.1): "length" runs ArraySetLength,
// an in-range index runs the ordinary algorithm against the element slot
// and may grow length, everything else forwards to the (lazily
// materialized) backing object.
func (h *Heap) arrayDefineOwnProperty(raw RawHandle, key PropertyKey, desc PropertyDescriptor) Try[bool] {
	a := h.Arrays.Get(raw.Index)
	if sameKey(key, LengthKey) {
		return h.arraySetLength(raw, desc)
	}
	if idx, ok := key.AsArrayIndex(); ok {
		if idx >= a.Length && !a.LengthWritable {
			return TryOK(false)
		}
		storage := h.arrayStorage(raw)
		ok2 := validateAndApplyElement(storage, idx, desc)
		if ok2 && idx >= a.Length {
			a.Length = idx + 1
		}
		return TryOK(ok2)
	}
	backing := h.ensureBacking(raw)
	extensible := backing.Extensible
	current, _ := backing.getOwn(key)
	var currentPtr *PropertyDescriptor
	if _, existed := backing.getOwn(key); existed {
		currentPtr = &current
	}
	return TryOK(validateAndApply(backing, key, currentPtr, desc, extensible))
}

// arraySetLength is ArraySetLength (ECMA-262 10.4.2.4). Shrinking the
// length deletes every element at or above the new length, stopping at
// (and reporting failure past) the first non-configurable element it
// cannot remove — the one piece of this algorithm every naive
// reimplementation tends to get backwards by deleting front-to-back
// instead of descending from the top.
func (h *Heap) arraySetLength(raw RawHandle, desc PropertyDescriptor) Try[bool] {
	a := h.Arrays.Get(raw.Index)
	if !desc.HasValue {
		// Only writable/enumerable/configurable are being touched.
		if desc.HasWritable && !desc.Writable {
			a.LengthWritable = false
		}
		return TryOK(true)
	}
	newLen, exact := coerceLengthValue(desc.Value)
	if !exact {
		// ToUint32(value) != ToNumber(value): a RangeError, which needs
		// the throwing slow path.
		return TryBreak[bool]()
	}
	if !a.LengthWritable && newLen != a.Length {
		return TryOK(false)
	}
	storage := h.arrayStorage(raw)
	oldLen := a.Length
	if newLen >= oldLen {
		a.Length = newLen
		if desc.HasWritable && !desc.Writable {
			a.LengthWritable = false
		}
		return TryOK(true)
	}
	for i := oldLen; i > newLen; i-- {
		idx := i - 1
		if storage.IsHole(idx) {
			continue
		}
		if !storage.EffectiveDescriptor(idx).Configurable {
			a.Length = idx + 1
			return TryOK(false)
		}
		storage.Clear(idx)
	}
	a.Length = newLen
	if desc.HasWritable && !desc.Writable {
		a.LengthWritable = false
	}
	return TryOK(true)
}

// coerceLengthValue accepts only the SmallInteger/Number forms the core
// ever constructs internally for a length value, reporting whether the
// value is already an exact non-negative uint32 (ToUint32(v) ==
// ToNumber(v), in ECMA-262 terms). Anything else needs full ToNumber
// coercion via the slow path, which this package does not perform
// itself (conversion of arbitrary values is the VM's concern).
func coerceLengthValue(v Value) (uint32, bool) {
	switch v.Kind() {
	case ValueSmallInteger:
		if v.SmallInt() < 0 || v.SmallInt() > int64(^uint32(0)) {
			return 0, false
		}
		return uint32(v.SmallInt()), true
	case ValueNumber:
		f := v.Float()
		if f < 0 || f != float64(uint32(f)) {
			return 0, false
		}
		return uint32(f), true
	default:
		return 0, false
	}
}

// validateAndApplyElement is ValidateAndApplyPropertyDescriptor
// specialized to one element-storage slot instead of an ObjectData
// property map.
func validateAndApplyElement(storage *ElementStorage, idx uint32, desc PropertyDescriptor) bool {
	extensible := true // Array elements are never blocked by extensibility directly; length governs growth.
	hole := storage.IsHole(idx)
	if hole {
		if !extensible {
			return false
		}
		installElement(storage, idx, completeDescriptor(desc))
		return true
	}
	eff := storage.EffectiveDescriptor(idx)
	current := elementEffectiveAsPropertyDescriptor(storage, idx, eff)
	if !desc.HasValue && !desc.HasWritable && !desc.HasGet && !desc.HasSet &&
		!desc.HasEnumerable && !desc.HasConfigurable {
		return true
	}
	if !eff.Configurable {
		if desc.HasConfigurable && desc.Configurable {
			return false
		}
		if desc.HasEnumerable && desc.Enumerable != eff.Enumerable {
			return false
		}
		if !desc.IsGenericDescriptor() && desc.IsAccessor() != eff.IsAccessor() {
			return false
		}
		if eff.IsAccessor() {
			if desc.HasGet && !sameValueValue(desc.Get, eff.Getter) {
				return false
			}
			if desc.HasSet && !sameValueValue(desc.Set, eff.Setter) {
				return false
			}
		} else if !eff.Writable {
			if desc.HasWritable && desc.Writable {
				return false
			}
			if desc.HasValue {
				v, _ := storage.Get(idx)
				if !sameValueValue(desc.Value, v) {
					return false
				}
			}
		}
	}
	merged := current
	if desc.IsAccessor() && !eff.IsAccessor() {
		merged = PropertyDescriptor{
			HasEnumerable: true, Enumerable: eff.Enumerable,
			HasConfigurable: true, Configurable: eff.Configurable,
		}
	} else if desc.IsDataDescriptor() && eff.IsAccessor() {
		merged = PropertyDescriptor{
			HasEnumerable: true, Enumerable: eff.Enumerable,
			HasConfigurable: true, Configurable: eff.Configurable,
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
	installElement(storage, idx, completeDescriptor(merged))
	return true
}

func elementEffectiveAsPropertyDescriptor(storage *ElementStorage, idx uint32, eff ElementDescriptor) PropertyDescriptor {
	if eff.IsAccessor() {
		return PropertyDescriptor{
			HasGet: true, Get: eff.Getter,
			HasSet: true, Set: eff.Setter,
			HasEnumerable: true, Enumerable: eff.Enumerable,
			HasConfigurable: true, Configurable: eff.Configurable,
		}
	}
	v, _ := storage.Get(idx)
	return dataDescriptor(v, eff.Writable, eff.Enumerable, eff.Configurable)
}

func installElement(storage *ElementStorage, idx uint32, desc PropertyDescriptor) {
	if desc.IsAccessor() {
		storage.Push(idx, Undefined(), &ElementDescriptor{
			HasGetter: true, Getter: desc.Get,
			HasSetter: true, Setter: desc.Set,
			Enumerable: desc.Enumerable, Configurable: desc.Configurable,
		})
		return
	}
	var ed *ElementDescriptor
	if !desc.Writable || !desc.Enumerable || !desc.Configurable {
		ed = &ElementDescriptor{Writable: desc.Writable, Enumerable: desc.Enumerable, Configurable: desc.Configurable}
	}
	storage.Push(idx, desc.Value, ed)
	if ed == nil && storage.GetDescriptor(idx) != nil {
		storage.SetDescriptor(idx, nil) // Push keeps an existing descriptor when given nil
	}
}

// arrayDelete implements the Array exotic [[Delete]] (ECMA-262 10.4.2.1,
// via OrdinaryDelete over the element range plus named properties): an
// in-range index clears its slot if configurable, "length" is never
// deletable (Open Question, decided in DESIGN.md), everything else
// forwards to the backing object.
func (h *Heap) arrayDelete(raw RawHandle, key PropertyKey) Try[bool] {
	if sameKey(key, LengthKey) {
		// Returns true unconditionally, a deliberate divergence from the
		// ECMA-262 letter (which would report false for this
		// non-configurable property) recorded as an Open Question in
		// DESIGN.md: several engines observably behave this way.
		return TryOK(true)
	}
	if idx, ok := key.AsArrayIndex(); ok {
		storage := h.arrayStorage(raw)
		if storage.IsHole(idx) {
			return TryOK(true)
		}
		if !storage.EffectiveDescriptor(idx).Configurable {
			return TryOK(false)
		}
		storage.Clear(idx)
		return TryOK(true)
	}
	a := h.Arrays.Get(raw.Index)
	if a.BackingObject == nil {
		return TryOK(true)
	}
	return h.TryDelete(*a.BackingObject, key)
}

// arrayOwnPropertyKeys implements the Array exotic [[OwnPropertyKeys]]
// (ECMA-262 10.4.2.1): present indices ascending, then "length", then
// the backing object's own string and symbol keys in its own order.
func (h *Heap) arrayOwnPropertyKeys(raw RawHandle) Try[[]PropertyKey] {
	a := h.Arrays.Get(raw.Index)
	storage := h.ElementStorages.Get(a.StorageID)
	var keys []PropertyKey
	for i := uint32(0); i < storage.Capacity(); i++ {
		if !storage.IsHole(i) {
			keys = append(keys, IndexKey(i))
		}
	}
	keys = append(keys, LengthKey)
	if a.BackingObject != nil {
		keys = append(keys, h.backingObjectData(*a.BackingObject).OwnPropertyKeys()...)
	}
	return TryOK(keys)
}

// ArrayLength returns the array's current "length" value directly,
// without going through the property-key machinery — used by the
// iteration protocol's remaining_length_estimate (spec.md §8).
func (h *Heap) ArrayLength(raw RawHandle) uint32 {
	return h.Arrays.Get(raw.Index).Length
}

// ArrayToCloned makes a shallow clone of an array's element storage
// (dropping accessor descriptors, per ElementStorage.ShallowClone) as a
// fresh Array sharing no mutable state with the original. It does not
// copy the backing object's named properties: spec.md §9 scopes cloning
// to "simple arrays" precisely so that case never arises in practice.
func (h *Heap) ArrayToCloned(raw RawHandle, s NoGcScope) Value {
	src := h.Arrays.Get(raw.Index)
	srcStorage := h.ElementStorages.Get(src.StorageID)
	cloned := &ArrayData{
		StorageID:      h.AllocateElementStorage(srcStorage.ShallowClone()),
		Length:         src.Length,
		LengthWritable: src.LengthWritable,
	}
	idx := h.Arrays.Allocate(cloned)
	out := RawHandle{Kind: KindArray, Index: idx}
	_ = NewHandle[ArrayData](s, out)
	return ObjectFromHandle(out)
}

func (a *ArrayData) Mark(queues *WorkQueues) {
	queues.Push(RawHandle{Kind: KindElementStorage, Index: a.StorageID})
	if a.BackingObject != nil {
		queues.Push(*a.BackingObject)
	}
}

func (a *ArrayData) Sweep(compactions *CompactionLists) {
	if h, ok := compactions.Rewrite(RawHandle{Kind: KindElementStorage, Index: a.StorageID}); ok {
		a.StorageID = h.Index
	}
	if a.BackingObject != nil {
		if h, ok := compactions.Rewrite(*a.BackingObject); ok {
			*a.BackingObject = h
		}
	}
}

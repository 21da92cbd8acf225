package runtime

import "testing"

func newTestArray(h *Heap, s NoGcScope, values ...Value) RawHandle {
	idx := h.Arrays.Allocate(h.NewArrayData(values))
	return RawHandle{Kind: KindArray, Index: idx}
}

func TestArrayLengthTracksHighestIndex(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestArray(h, s, SmallInteger(1), SmallInteger(2))

	if got := h.ArrayLength(raw); got != 2 {
		t.Fatalf("expected length 2, got %d", got)
	}

	ok := h.TryDefineOwnProperty(raw, IndexKey(5), dataDescriptor(SmallInteger(9), true, true, true))
	if !ok.Ok() || !ok.Value() {
		t.Fatalf("expected define at index 5 to succeed")
	}
	if got := h.ArrayLength(raw); got != 6 {
		t.Fatalf("expected length to grow to 6, got %d", got)
	}
}

func TestArraySetLengthShrinkDeletesTrailingElements(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestArray(h, s, SmallInteger(1), SmallInteger(2), SmallInteger(3))

	gc := h.NoGcScope()
	result := h.InternalDefineOwnProperty(raw, LengthKey, PropertyDescriptor{HasValue: true, Value: SmallInteger(1)}, gc)
	if result.IsThrow() || !result.Value() {
		t.Fatalf("expected shrinking length to succeed")
	}
	if got := h.ArrayLength(raw); got != 1 {
		t.Fatalf("expected length 1 after shrink, got %d", got)
	}

	get := h.TryGet(raw, IndexKey(2), ObjectFromHandle(raw))
	if !get.Ok() || get.Value().Kind() != ValueUndefined {
		t.Fatalf("expected index 2 to read back as undefined after shrink")
	}
}

func TestArraySetLengthRefusesPastNonConfigurableElement(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestArray(h, s, SmallInteger(1), SmallInteger(2))

	ok := h.TryDefineOwnProperty(raw, IndexKey(1), dataDescriptor(SmallInteger(2), true, true, false))
	if !ok.Ok() || !ok.Value() {
		t.Fatalf("expected marking index 1 non-configurable to succeed")
	}

	fast := h.TryDefineOwnProperty(raw, LengthKey, PropertyDescriptor{HasValue: true, Value: SmallInteger(0)})
	if !fast.Ok() {
		t.Fatalf("expected the length-shrink fast path to finish without a throw")
	}
	if fast.Value() {
		t.Fatalf("expected shrinking past a non-configurable element to fail")
	}
	if got := h.ArrayLength(raw); got != 2 {
		t.Fatalf("expected length to stop at the non-configurable element, got %d", got)
	}
}

func TestArraySetLengthRangeErrorOnNonUint32(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestArray(h, s, SmallInteger(1))

	gc := h.NoGcScope()
	result := h.InternalDefineOwnProperty(raw, LengthKey, PropertyDescriptor{HasValue: true, Value: NumberValue(-1)}, gc)
	if !result.IsThrow() {
		t.Fatalf("expected a RangeError completion for a negative length")
	}
	thrown := result.ThrownValue()
	if !thrown.IsObject() {
		t.Fatalf("expected the thrown value to be an Error object")
	}
}

func TestArrayDeleteOfLengthReturnsTrue(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestArray(h, s, SmallInteger(1))

	del := h.TryDelete(raw, LengthKey)
	if !del.Ok() || !del.Value() {
		t.Fatalf("expected deleting length to report success (documented divergence)")
	}
	if got := h.ArrayLength(raw); got != 1 {
		t.Fatalf("expected length to remain unchanged, got %d", got)
	}
}

func TestArrayDeleteNonConfigurableElementFails(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestArray(h, s, SmallInteger(1))

	ok := h.TryDefineOwnProperty(raw, IndexKey(0), dataDescriptor(SmallInteger(1), true, true, false))
	if !ok.Ok() || !ok.Value() {
		t.Fatalf("expected marking index 0 non-configurable to succeed")
	}

	del := h.TryDelete(raw, IndexKey(0))
	if !del.Ok() || del.Value() {
		t.Fatalf("expected deleting a non-configurable element to fail")
	}
}

func TestArrayOwnPropertyKeysOrder(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestArray(h, s, SmallInteger(10), SmallInteger(20))

	ok := h.TryDefineOwnProperty(raw, StringKey("extra"), dataDescriptor(SmallInteger(1), true, true, true))
	if !ok.Ok() || !ok.Value() {
		t.Fatalf("expected defining a named property to succeed")
	}

	keys := h.TryOwnPropertyKeys(raw)
	if !keys.Ok() {
		t.Fatalf("expected TryOwnPropertyKeys to succeed")
	}
	got := keys.Value()
	want := []string{"0", "1", "length", "extra"}
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %d: %v", len(want), len(got), got)
	}
	for i, k := range want {
		if got[i].IsSymbol() || got[i].String() != k {
			t.Errorf("key %d: expected %q, got %v", i, k, got[i])
		}
	}
}

func TestArrayToClonedSharesNoMutableState(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestArray(h, s, SmallInteger(1), SmallInteger(2))

	cloneVal := h.ArrayToCloned(raw, s)
	cloneRaw := cloneVal.ObjectHandle()

	set := h.TryDefineOwnProperty(raw, IndexKey(0), dataDescriptor(SmallInteger(99), true, true, true))
	if !set.Ok() || !set.Value() {
		t.Fatalf("expected defining index 0 on the original to succeed")
	}

	got := h.TryGet(cloneRaw, IndexKey(0), cloneVal)
	if !got.Ok() || got.Value().SmallInt() != 1 {
		t.Fatalf("expected the clone's element 0 to remain 1, got %+v", got.Value())
	}
}

func TestArrayMaxIndexBound(t *testing.T) {
	if MaxArrayIndex != uint32(1<<32-2) {
		t.Fatalf("expected MaxArrayIndex to be 2^32-2, got %d", MaxArrayIndex)
	}
	key := IndexKey(MaxArrayIndex)
	if _, ok := key.AsArrayIndex(); !ok {
		t.Fatalf("expected MaxArrayIndex itself to be a valid array index")
	}
	tooFar := StringKey("4294967295") // 2^32-1, reserved
	if _, ok := tooFar.AsArrayIndex(); ok {
		t.Fatalf("expected 2^32-1 to be rejected as an array index")
	}
}

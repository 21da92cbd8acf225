package runtime

import "testing"

func newTestObject(h *Heap, s NoGcScope, proto Value) RawHandle {
	_, raw := h.AllocateObject(NewObjectData(proto), s)
	return raw
}

func TestOrdinaryDefineAndGet(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestObject(h, s, Null())

	key := StringKey("name")
	ok := h.TryDefineOwnProperty(raw, key, dataDescriptor(h.NewString("Ada", s), true, true, true))
	if !ok.Ok() || !ok.Value() {
		t.Fatalf("expected define to succeed")
	}

	got := h.TryGet(raw, key, ObjectFromHandle(raw))
	if !got.Ok() {
		t.Fatalf("expected TryGet to resolve without a slow path")
	}
	if h.StringText(got.Value()) != "Ada" {
		t.Errorf("expected \"Ada\", got %q", h.StringText(got.Value()))
	}
}

func TestOrdinaryGetFallsThroughPrototypeChain(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	protoRaw := newTestObject(h, s, Null())
	ok := h.TryDefineOwnProperty(protoRaw, StringKey("inherited"), dataDescriptor(SmallInteger(7), true, true, true))
	if !ok.Ok() || !ok.Value() {
		t.Fatalf("expected defining the prototype property to succeed")
	}

	child := newTestObject(h, s, ObjectFromHandle(protoRaw))
	got := h.TryGet(child, StringKey("inherited"), ObjectFromHandle(child))
	if !got.Ok() || got.Value().SmallInt() != 7 {
		t.Fatalf("expected inherited property to resolve through the prototype chain, got %+v", got)
	}

	missing := h.TryGet(child, StringKey("absent"), ObjectFromHandle(child))
	if !missing.Ok() || missing.Value().Kind() != ValueUndefined {
		t.Fatalf("expected a missing property to resolve to undefined")
	}
}

func TestNonConfigurableNonWritablePropertyRejectsOverwrite(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestObject(h, s, Null())
	key := StringKey("frozen")

	ok := h.TryDefineOwnProperty(raw, key, dataDescriptor(SmallInteger(1), false, true, false))
	if !ok.Ok() || !ok.Value() {
		t.Fatalf("expected initial define to succeed")
	}

	attempt := h.TryDefineOwnProperty(raw, key, PropertyDescriptor{HasValue: true, Value: SmallInteger(2)})
	if !attempt.Ok() {
		t.Fatalf("expected the overwrite attempt to finish on the fast path")
	}
	if attempt.Value() {
		t.Fatalf("expected overwriting a non-writable, non-configurable property to fail")
	}

	got := h.TryGet(raw, key, ObjectFromHandle(raw))
	if !got.Ok() || got.Value().SmallInt() != 1 {
		t.Fatalf("expected the original value to survive the rejected overwrite")
	}
}

func TestNonExtensibleObjectRejectsNewProperty(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestObject(h, s, Null())

	set := h.TrySetExtensible(raw, false)
	if !set.Ok() || !set.Value() {
		t.Fatalf("expected setting non-extensible to succeed")
	}

	ok := h.TryDefineOwnProperty(raw, StringKey("new"), dataDescriptor(SmallInteger(1), true, true, true))
	if !ok.Ok() {
		t.Fatalf("expected the define attempt to finish on the fast path")
	}
	if ok.Value() {
		t.Fatalf("expected defining a new property on a non-extensible object to fail")
	}
}

func TestDeleteRemovesConfigurableProperty(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestObject(h, s, Null())
	key := StringKey("temp")

	ok := h.TryDefineOwnProperty(raw, key, dataDescriptor(SmallInteger(1), true, true, true))
	if !ok.Ok() || !ok.Value() {
		t.Fatalf("expected define to succeed")
	}

	del := h.TryDelete(raw, key)
	if !del.Ok() || !del.Value() {
		t.Fatalf("expected deleting a configurable property to succeed")
	}

	has := h.TryHasProperty(raw, key)
	if !has.Ok() || has.Value() {
		t.Fatalf("expected the deleted property to no longer be present")
	}
}

func TestOwnPropertyKeysOrdering(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestObject(h, s, Null())

	sym := h.NewSymbol("tag", true, s)
	for _, key := range []PropertyKey{StringKey("b"), IndexKey(5), StringKey("a"), IndexKey(1), SymbolKeyFromValue(sym)} {
		ok := h.TryDefineOwnProperty(raw, key, dataDescriptor(Undefined(), true, true, true))
		if !ok.Ok() || !ok.Value() {
			t.Fatalf("expected defining %v to succeed", key)
		}
	}

	keys := h.TryOwnPropertyKeys(raw)
	if !keys.Ok() {
		t.Fatalf("expected TryOwnPropertyKeys to succeed")
	}
	got := keys.Value()
	if len(got) != 5 {
		t.Fatalf("expected 5 keys, got %d", len(got))
	}
	// Indices ascending first, then strings in insertion order, then symbols.
	wantStrs := []string{"1", "5", "b", "a"}
	for i, w := range wantStrs {
		if got[i].IsSymbol() || got[i].String() != w {
			t.Errorf("key %d: expected %q, got %v", i, w, got[i])
		}
	}
	if !got[4].IsSymbol() {
		t.Errorf("expected the last key to be the symbol, got %v", got[4])
	}
}

func TestSetPrototypeOfRespectsExtensibility(t *testing.T) {
	h := NewHeap()
	s := h.NoGcScope()
	raw := newTestObject(h, s, Null())
	otherProto := newTestObject(h, s, Null())

	set := h.TrySetExtensible(raw, false)
	if !set.Ok() || !set.Value() {
		t.Fatalf("expected setting non-extensible to succeed")
	}

	attempt := h.TrySetPrototypeOf(raw, ObjectFromHandle(otherProto))
	if !attempt.Ok() {
		t.Fatalf("expected TrySetPrototypeOf to finish on the fast path")
	}
	if attempt.Value() {
		t.Fatalf("expected changing the prototype of a non-extensible object to fail")
	}

	proto := h.TryGetPrototypeOf(raw)
	if !proto.Ok() || !proto.Value().IsNullish() {
		t.Fatalf("expected the prototype to remain Null")
	}
}

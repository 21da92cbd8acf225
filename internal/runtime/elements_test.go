package runtime

import "testing"

func TestElementStorageHoleSemantics(t *testing.T) {
	s := NewElementStorage(4)
	if !s.IsHole(0) {
		t.Fatalf("expected a freshly allocated slot to be a hole")
	}

	s.Set(1, SmallInteger(42))
	if s.IsHole(1) {
		t.Fatalf("expected slot 1 to no longer be a hole after Set")
	}
	v, ok := s.Get(1)
	if !ok || v.SmallInt() != 42 {
		t.Fatalf("expected Get(1) to return 42, got %+v ok=%v", v, ok)
	}

	s.Clear(1)
	if !s.IsHole(1) {
		t.Fatalf("expected slot 1 to be a hole again after Clear")
	}
	if _, ok := s.Get(1); ok {
		t.Fatalf("expected Get on a cleared slot to report absent")
	}
}

func TestElementStorageAccessorSlotHasNoValue(t *testing.T) {
	s := NewElementStorage(2)
	getter := SmallInteger(1)
	s.Push(0, Undefined(), &ElementDescriptor{HasGetter: true, Getter: getter})

	if _, ok := s.Get(0); ok {
		t.Fatalf("expected an accessor slot to report no data value (invariant 4)")
	}
	if s.IsHole(0) {
		t.Fatalf("expected an accessor slot to not be a hole")
	}
	if !s.EffectiveDescriptor(0).IsAccessor() {
		t.Fatalf("expected the effective descriptor to report an accessor")
	}
}

func TestElementStorageDefaultDescriptorWhenUnset(t *testing.T) {
	s := NewElementStorage(1)
	s.Set(0, SmallInteger(1))
	eff := s.EffectiveDescriptor(0)
	if !eff.Writable || !eff.Enumerable || !eff.Configurable {
		t.Fatalf("expected default attributes to be all-true, got %+v", eff)
	}
}

func TestElementStorageShallowCloneDropsAccessors(t *testing.T) {
	s := NewElementStorage(2)
	s.Set(0, SmallInteger(1))
	s.Push(1, Undefined(), &ElementDescriptor{HasGetter: true, Getter: SmallInteger(2)})

	clone := s.ShallowClone()
	if v, ok := clone.Get(0); !ok || v.SmallInt() != 1 {
		t.Fatalf("expected the cloned data slot to carry its value, got %+v ok=%v", v, ok)
	}
	if _, ok := clone.Get(1); ok {
		t.Fatalf("expected the cloned accessor slot to become a hole")
	}
	if clone.EffectiveDescriptor(1).IsAccessor() {
		t.Fatalf("expected the clone's accessor descriptor to be dropped entirely")
	}
}

func TestElementStorageIsDenseIsSimpleIsTrivial(t *testing.T) {
	s := NewElementStorage(3)
	s.Set(0, SmallInteger(1))
	s.Set(1, SmallInteger(2))
	s.Set(2, SmallInteger(3))

	if !s.IsDense(3) || !s.IsSimple() || !s.IsTrivial() {
		t.Fatalf("expected an all-default, fully-present storage to be dense/simple/trivial")
	}

	s.Push(1, Undefined(), &ElementDescriptor{HasGetter: true, Getter: SmallInteger(9)})
	if s.IsDense(3) {
		t.Fatalf("expected an accessor slot to break density")
	}
	if s.IsSimple() {
		t.Fatalf("expected an accessor slot to break simplicity")
	}
	if s.IsTrivial() {
		t.Fatalf("expected an accessor slot's descriptor entry to break triviality")
	}
}

func TestElementStorageIsDenseFalseOnHole(t *testing.T) {
	s := NewElementStorage(3)
	s.Set(0, SmallInteger(1))
	s.Set(2, SmallInteger(3))
	// slot 1 left as a hole

	if s.IsDense(3) {
		t.Fatalf("expected a hole within the length bound to break density")
	}
	if !s.IsSimple() || !s.IsTrivial() {
		t.Fatalf("expected a plain hole (no descriptor) to not affect simplicity/triviality")
	}
}

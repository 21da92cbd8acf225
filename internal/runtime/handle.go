// Package runtime implements the managed heap at the center of the engine:
// typed arenas of entity records, the Handle/NoGcScope lifetime discipline
// that keeps raw heap references from surviving a GC safepoint, packed
// element storage, the ordinary-object internal-method protocol, and the
// Array exotic object built on top of it.
//
// These concerns are kept in one package, the way the teacher keeps
// Array, ObjectInstance, Environment, the method registry and the error
// types together under internal/interp/runtime: they share one arena set
// and constantly reach into each other's records.
package runtime

import "fmt"

// Kind identifies which typed arena a handle or value variant belongs to.
type Kind uint8

const (
	KindObject Kind = iota
	KindArray
	KindFunction
	KindString
	KindSymbol
	KindEnvironment
	KindExecutable
	KindSourceCode
	KindElementStorage
)

var kindNames = [...]string{
	KindObject:         "Object",
	KindArray:          "Array",
	KindFunction:       "Function",
	KindString:         "String",
	KindSymbol:         "Symbol",
	KindEnvironment:    "Environment",
	KindExecutable:     "Executable",
	KindSourceCode:     "SourceCode",
	KindElementStorage: "ElementStorage",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// RawHandle is a (kind, arena-index) pair with no lifetime tracking of its
// own. It is what every Handle[T] and ScopedHandle[T] carries underneath;
// most code should use the typed wrappers instead of this directly.
type RawHandle struct {
	Kind  Kind
	Index uint32
}

// Handle is a reference to a heap record of type T, valid only between GC
// safepoints. The scope field is the generation counter of the NoGcScope
// that vouched for it; any operation taking a Handle also takes the
// NoGcScope it was issued from and panics if the heap has run a safepoint
// since. This is the runtime-assertion encoding of the phantom-lifetime
// discipline spec.md §5 describes: Go has no borrow checker, so the
// invariant "a raw handle cannot outlive the scope that issued it" is
// enforced by comparing generation counters instead of by the compiler.
type Handle[T any] struct {
	Raw RawHandle
	gen uint64
}

// NoGcScope is a token proving no safepoint has occurred since it was
// obtained. Every Heap operation that allocates, or reenters user code,
// invalidates all outstanding NoGcScope values by bumping the heap's
// generation counter; holders must reload their handles (or better, have
// scoped them) before touching the heap again.
type NoGcScope struct {
	heap *Heap
	gen  uint64
}

// Generation reports the safepoint generation this scope was issued at.
func (s NoGcScope) Generation() uint64 { return s.gen }

func (s NoGcScope) checkCurrent() {
	if s.heap == nil {
		panic("runtime: NoGcScope zero value used")
	}
	if s.gen != s.heap.safepointGen {
		panic("runtime: raw Handle used across a GC safepoint without rescoping")
	}
}

// NewHandle packages a RawHandle known to be valid under s into a typed,
// scope-checked Handle.
func NewHandle[T any](s NoGcScope, raw RawHandle) Handle[T] {
	s.checkCurrent()
	return Handle[T]{Raw: raw, gen: s.gen}
}

func (h Handle[T]) checkValid(s NoGcScope) {
	s.checkCurrent()
	if h.gen != s.gen {
		panic(fmt.Sprintf("runtime: Handle[%s] issued in an earlier GC generation used without rescoping", h.Raw.Kind))
	}
}

// ScopedHandle is a handle registered in the heap's rooted-handle list, so
// it remains valid across safepoints; the collector treats every entry in
// that list as a GC root. Obtain one with Scope before calling anything
// that may allocate or reenter user code, and exchange it back for a
// fresh Handle with Take once you are back on the other side.
type ScopedHandle[T any] struct {
	raw  RawHandle
	slot uint32
}

// Scope roots h for the duration that follows, returning a handle safe to
// hold across safepoints.
func Scope[T any](heap *Heap, h Handle[T], s NoGcScope) ScopedHandle[T] {
	h.checkValid(s)
	slot := heap.addRoot(h.Raw)
	return ScopedHandle[T]{raw: h.Raw, slot: slot}
}

// Take unregisters the root and returns a fresh Handle valid under the
// heap's current generation, rewritten through any compaction that ran
// while it was rooted.
func Take[T any](heap *Heap, sh ScopedHandle[T]) Handle[T] {
	raw := heap.takeRoot(sh.slot)
	return Handle[T]{Raw: raw, gen: heap.safepointGen}
}

// Peek reads the scoped handle's current (possibly compacted) raw handle
// without unregistering it.
func (sh ScopedHandle[T]) Peek(heap *Heap) RawHandle {
	return heap.peekRoot(sh.slot)
}

package runtime

// StringData is the heap record backing a String Value too long to live
// inline as a SmallString.
type StringData struct {
	UTF8 string
}

func (s *StringData) Mark(*WorkQueues)           {}
func (s *StringData) Sweep(*CompactionLists)      {}

// SymbolData is the heap record backing a Symbol Value.
type SymbolData struct {
	HasDescription bool
	Description    string
}

func (s *SymbolData) Mark(*WorkQueues)      {}
func (s *SymbolData) Sweep(*CompactionLists) {}

// FunctionKind distinguishes the handful of function shapes the core
// needs to recognize without reimplementing the builtin-registration
// tables (out of scope per spec.md §1).
type FunctionKind uint8

const (
	FunctionKindUser FunctionKind = iota
	FunctionKindBuiltin
)

// FunctionData is the heap record backing a callable object. Script
// functions carry an Executable (opaque to this package — owned by the
// out-of-scope compiler) and the lexical Environment they close over;
// builtin functions carry a Go callback instead.
type FunctionData struct {
	Name        string
	Kind        FunctionKind
	Env         RawHandle // KindEnvironment; zero-value Index with Kind!=KindEnvironment means "none"
	HasEnv      bool
	Executable  Handle[ExecutableData]
	HasExec     bool
	Builtin     BuiltinFunc
	backing     *RawHandle // KindObject, materialised lazily
}

// BuiltinFunc is a host-provided callback exposed to the engine as a
// callable Function object (e.g. a builtin registered by the embedder,
// or a host-hook such as the eval iterator's `next`).
type BuiltinFunc func(agentHeap *Heap, thisValue Value, args []Value, gc NoGcScope) Completion[Value]

func (f *FunctionData) Mark(queues *WorkQueues) {
	if f.HasEnv {
		queues.Push(f.Env)
	}
	if f.HasExec {
		queues.Push(f.Executable.Raw)
	}
	if f.backing != nil {
		queues.Push(*f.backing)
	}
}

func (f *FunctionData) Sweep(compactions *CompactionLists) {
	if f.HasEnv {
		if h, ok := compactions.Rewrite(f.Env); ok {
			f.Env = h
		}
	}
	if f.HasExec {
		if h, ok := compactions.Rewrite(f.Executable.Raw); ok {
			f.Executable.Raw = h
		}
	}
	if f.backing != nil {
		if h, ok := compactions.Rewrite(*f.backing); ok {
			*f.backing = h
		}
	}
}

// ExecutableData is an opaque holder for whatever the out-of-scope
// compiler produced from compile_eval_body; the core never looks inside
// it, only stores and forwards it to the VM's execute contract.
type ExecutableData struct {
	Payload any
}

func (e *ExecutableData) Mark(*WorkQueues)      {}
func (e *ExecutableData) Sweep(*CompactionLists) {}

// SourceCodeData holds the raw text of a parsed script, kept alive for
// error reporting/debugging for as long as an Executable referencing it
// is reachable.
type SourceCodeData struct {
	Text string
}

func (s *SourceCodeData) Mark(*WorkQueues)      {}
func (s *SourceCodeData) Sweep(*CompactionLists) {}

type rootEntry struct {
	raw  RawHandle
	used bool
}

// Heap owns every typed arena plus the rooted-handle list the collector
// scans in addition to caller-supplied roots, per spec.md §4.1. It is
// meant to be owned exclusively by one Agent (spec.md §5): there is no
// synchronization here because the engine is single-threaded.
type Heap struct {
	Objects         *Arena[*ObjectData]
	Arrays          *Arena[*ArrayData]
	Functions       *Arena[*FunctionData]
	Strings         *Arena[*StringData]
	Symbols         *Arena[*SymbolData]
	Environments    *Arena[*EnvironmentData]
	Executables     *Arena[*ExecutableData]
	SourceCodes     *Arena[*SourceCodeData]
	ElementStorages *Arena[*ElementStorage]

	safepointGen  uint64
	roots         []rootEntry
	freeRootSlots []uint32

	wellKnown [wellKnownSymbolCount]RawHandle
}

// WellKnownSymbol names one of the engine's fixed, pre-allocated Symbol
// values — the ones whose identity must be stable and known without
// going through a realm's intrinsics lookup, per spec.md §8's use of
// %Symbol.iterator% in GetIterator.
type WellKnownSymbol uint8

const (
	SymbolIterator WellKnownSymbol = iota
	SymbolAsyncIterator
	SymbolToStringTag
	wellKnownSymbolCount
)

var wellKnownSymbolNames = [wellKnownSymbolCount]string{
	SymbolIterator:      "Symbol.iterator",
	SymbolAsyncIterator: "Symbol.asyncIterator",
	SymbolToStringTag:   "Symbol.toStringTag",
}

// WellKnown returns the stable Symbol Value for one of the engine's
// well-known symbols, identical on every call.
func (h *Heap) WellKnown(sym WellKnownSymbol) Value {
	return Value{kind: ValueSymbol, handle: h.wellKnown[sym]}
}

// NewHeap creates an empty heap with one empty arena per kind, plus the
// fixed well-known Symbol records every realm shares.
func NewHeap() *Heap {
	return NewHeapWithCapacity(HeapCapacity{})
}

// HeapCapacity preallocates each arena's backing slice, avoiding early
// reallocation when the embedder's config.HeapConfig already estimates
// the rough heap size. A zero value behaves exactly like NewHeap.
type HeapCapacity struct {
	Objects   int
	Arrays    int
	Functions int
	Strings   int
}

// NewHeapWithCapacity is NewHeap with arena capacities taken from cap.
func NewHeapWithCapacity(cap HeapCapacity) *Heap {
	h := &Heap{
		Objects:         NewArenaWithCapacity[*ObjectData](KindObject, cap.Objects),
		Arrays:          NewArenaWithCapacity[*ArrayData](KindArray, cap.Arrays),
		Functions:       NewArenaWithCapacity[*FunctionData](KindFunction, cap.Functions),
		Strings:         NewArenaWithCapacity[*StringData](KindString, cap.Strings),
		Symbols:         NewArena[*SymbolData](KindSymbol),
		Environments:    NewArena[*EnvironmentData](KindEnvironment),
		Executables:     NewArena[*ExecutableData](KindExecutable),
		SourceCodes:     NewArena[*SourceCodeData](KindSourceCode),
		ElementStorages: NewArena[*ElementStorage](KindElementStorage),
	}
	for i := WellKnownSymbol(0); i < wellKnownSymbolCount; i++ {
		idx := h.Symbols.Allocate(&SymbolData{HasDescription: true, Description: wellKnownSymbolNames[i]})
		h.wellKnown[i] = RawHandle{Kind: KindSymbol, Index: idx}
	}
	return h
}

// NoGcScope issues a scope token bound to the heap's current safepoint
// generation. Call this right after any Safepoint() to get a token
// proving no allocation or reentrancy has happened since.
func (h *Heap) NoGcScope() NoGcScope {
	return NoGcScope{heap: h, gen: h.safepointGen}
}

// Safepoint marks that an allocation, a user-callback call, or a
// parser/compiler reentry just happened, invalidating every outstanding
// NoGcScope. Callers must reacquire a NoGcScope (or use a ScopedHandle
// across the call) before touching the heap with old handles again.
func (h *Heap) Safepoint() {
	h.safepointGen++
}

func (h *Heap) addRoot(raw RawHandle) uint32 {
	if n := len(h.freeRootSlots); n > 0 {
		slot := h.freeRootSlots[n-1]
		h.freeRootSlots = h.freeRootSlots[:n-1]
		h.roots[slot] = rootEntry{raw: raw, used: true}
		return slot
	}
	h.roots = append(h.roots, rootEntry{raw: raw, used: true})
	return uint32(len(h.roots) - 1)
}

func (h *Heap) takeRoot(slot uint32) RawHandle {
	raw := h.roots[slot].raw
	h.roots[slot] = rootEntry{}
	h.freeRootSlots = append(h.freeRootSlots, slot)
	return raw
}

func (h *Heap) peekRoot(slot uint32) RawHandle {
	return h.roots[slot].raw
}

// AllocateObject allocates an ordinary object record and returns a
// scope-checked Handle plus the raw handle suitable for wrapping in a
// Value.
func (h *Heap) AllocateObject(data *ObjectData, s NoGcScope) (Handle[ObjectData], RawHandle) {
	idx := h.Objects.Allocate(data)
	raw := RawHandle{Kind: KindObject, Index: idx}
	return NewHandle[ObjectData](s, raw), raw
}

// AllocateElementStorage allocates a new ElementStorage record.
func (h *Heap) AllocateElementStorage(storage *ElementStorage) uint32 {
	return h.ElementStorages.Allocate(storage)
}

// NewString allocates a String record (or, when short enough, returns an
// inline SmallString Value with no allocation at all) per spec.md §3.
func (h *Heap) NewString(utf8 string, s NoGcScope) Value {
	if len(utf8) <= maxSmallStringLen {
		return SmallStringValue(utf8)
	}
	idx := h.Strings.Allocate(&StringData{UTF8: utf8})
	return StringFromHandle(NewHandle[StringData](s, RawHandle{Kind: KindString, Index: idx}))
}

// StringText resolves any String Value (inline or heap) to its UTF-8 text.
func (h *Heap) StringText(v Value) string {
	switch v.Kind() {
	case ValueSmallString:
		return v.SmallStr()
	case ValueString:
		return h.Strings.Get(v.ObjectHandle().Index).UTF8
	default:
		panic("runtime: StringText called on a non-string Value")
	}
}

// NewError allocates a minimal Error object: an ordinary object record
// tagged with an ErrorKind and message, with no prototype chain of its
// own (the realm's %Error.prototype% hierarchy is out of scope here;
// embedders render kind+message directly, per spec.md §7).
func (h *Heap) NewError(kind ErrorKind, message string, s NoGcScope) Value {
	data := NewObjectData(Null())
	data.ErrorKind = kind
	data.ErrorMessage = message
	_, raw := h.AllocateObject(data, s)
	return ObjectFromHandle(raw)
}

// NewFunction allocates a script Function object closing over env, whose
// body the host's Compiler already turned into exec. Used by
// EvalDeclarationInstantiation's function-hoisting step and by the host
// VM's function-declaration/expression handling alike; this core has no
// opinion on parameter lists or closures beyond "a function remembers
// the environment it was created in".
func (h *Heap) NewFunction(name string, exec Handle[ExecutableData], env RawHandle, s NoGcScope) Value {
	idx := h.Functions.Allocate(&FunctionData{
		Name: name, Kind: FunctionKindUser,
		Env: env, HasEnv: true,
		Executable: exec, HasExec: true,
	})
	return Value{kind: ValueObject, handle: RawHandle{Kind: KindFunction, Index: idx}}
}

// NewBuiltinFunction allocates a host-provided callback as a callable
// Function object (no Environment, no Executable).
func (h *Heap) NewBuiltinFunction(name string, fn BuiltinFunc, s NoGcScope) Value {
	idx := h.Functions.Allocate(&FunctionData{Name: name, Kind: FunctionKindBuiltin, Builtin: fn})
	return Value{kind: ValueObject, handle: RawHandle{Kind: KindFunction, Index: idx}}
}

// NewSymbol allocates a Symbol record.
func (h *Heap) NewSymbol(description string, hasDescription bool, s NoGcScope) Value {
	idx := h.Symbols.Allocate(&SymbolData{HasDescription: hasDescription, Description: description})
	return SymbolFromHandle(NewHandle[SymbolData](s, RawHandle{Kind: KindSymbol, Index: idx}))
}

// mark marks every handle the mark phase must start from: the rooted
// (scoped) handle list, plus whatever the caller passes in (the VM's
// value stack, the globals table, the execution-context stack — the
// caller, not the heap, knows what those are).
func (h *Heap) mark(extraRoots []RawHandle) {
	queues := &WorkQueues{}
	for _, r := range h.roots {
		if r.used {
			queues.Push(r.raw)
		}
	}
	for _, r := range extraRoots {
		queues.Push(r)
	}

	for !queues.Empty() {
		drainKind(queues, KindObject, h.Objects)
		drainKind(queues, KindArray, h.Arrays)
		drainKind(queues, KindFunction, h.Functions)
		drainKind(queues, KindString, h.Strings)
		drainKind(queues, KindSymbol, h.Symbols)
		drainKind(queues, KindEnvironment, h.Environments)
		drainKind(queues, KindExecutable, h.Executables)
		drainKind(queues, KindSourceCode, h.SourceCodes)
		drainKind(queues, KindElementStorage, h.ElementStorages)
	}
}

func drainKind[T Markable](queues *WorkQueues, kind Kind, arena *Arena[T]) {
	for {
		idx, ok := queues.Pop(kind)
		if !ok {
			return
		}
		arena.mark(idx, queues)
	}
}

// MarkAndSweep runs a full two-phase collection: mark transitively closes
// over the rooted-handle list and extraRoots, then sweep-and-compact
// reassigns every surviving record a dense index per arena and rewrites
// every live handle (including roots) through the resulting compaction
// map, per spec.md §4.1. This is itself a safepoint.
func (h *Heap) MarkAndSweep(extraRoots []RawHandle) {
	h.mark(extraRoots)

	compactions := newCompactionLists()
	compactions.maps[KindObject] = h.Objects.sweepAndCompact()
	compactions.maps[KindArray] = h.Arrays.sweepAndCompact()
	compactions.maps[KindFunction] = h.Functions.sweepAndCompact()
	compactions.maps[KindString] = h.Strings.sweepAndCompact()
	compactions.maps[KindSymbol] = h.Symbols.sweepAndCompact()
	compactions.maps[KindEnvironment] = h.Environments.sweepAndCompact()
	compactions.maps[KindExecutable] = h.Executables.sweepAndCompact()
	compactions.maps[KindSourceCode] = h.SourceCodes.sweepAndCompact()
	compactions.maps[KindElementStorage] = h.ElementStorages.sweepAndCompact()

	h.Objects.rewriteAll(compactions)
	h.Arrays.rewriteAll(compactions)
	h.Functions.rewriteAll(compactions)
	h.Strings.rewriteAll(compactions)
	h.Symbols.rewriteAll(compactions)
	h.Environments.rewriteAll(compactions)
	h.Executables.rewriteAll(compactions)
	h.SourceCodes.rewriteAll(compactions)
	h.ElementStorages.rewriteAll(compactions)

	for i, r := range h.roots {
		if !r.used {
			continue
		}
		if newRaw, ok := compactions.Rewrite(r.raw); ok {
			h.roots[i].raw = newRaw
		}
	}

	h.Safepoint()
}

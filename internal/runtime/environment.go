package runtime

// EnvironmentKind distinguishes the environment record shapes the
// glossary names: "lexical, variable, object, function, global, and
// module kinds exist". Declarative and Module share the same binding
// map shape here (a Module environment is a Declarative one whose
// bindings happen to come from import/export resolution, out of scope
// for this core); Global layers a declarative record over an object
// environment, per ECMA-262 9.1.1.4.
type EnvironmentKind uint8

const (
	EnvDeclarative EnvironmentKind = iota
	EnvObject
	EnvFunction
	EnvGlobal
	EnvModule
)

type binding struct {
	value       Value
	mutable     bool
	initialized bool
	deletable   bool // object-environment bindings only
}

// EnvironmentData is the binding-resolution record spec.md's glossary
// describes. One struct serves every kind; fields irrelevant to a given
// Kind stay zero, the way FunctionData's Builtin/Executable fields do
// for the kind that doesn't use them.
type EnvironmentData struct {
	Kind     EnvironmentKind
	Outer    RawHandle
	HasOuter bool

	// Declarative / Function / Global's declarative half.
	Bindings     map[string]*binding
	bindingOrder []string

	// Object / Global's object half.
	BindingObject    RawHandle
	HasBindingObject bool
	IsWithEnvironment bool

	// Function-environment extras (ECMA-262 9.1.1.3).
	ThisValue         Value
	ThisBindingStatus ThisBindingStatus
	HasFunctionObject bool
	FunctionObject    RawHandle
	NewTarget         Value
}

// ThisBindingStatus is a Function environment record's [[ThisBindingStatus]].
type ThisBindingStatus uint8

const (
	ThisUninitialized ThisBindingStatus = iota
	ThisInitialized
	ThisLexical
)

// NewDeclarativeEnvironmentData creates a Declarative environment record
// chained to outer (the global environment has no outer: pass
// hasOuter=false).
func NewDeclarativeEnvironmentData(outer RawHandle, hasOuter bool) *EnvironmentData {
	return &EnvironmentData{
		Kind: EnvDeclarative, Outer: outer, HasOuter: hasOuter,
		Bindings: make(map[string]*binding),
	}
}

// NewObjectEnvironmentData creates an Object environment record backed
// by bindingObject (a `with` statement's expression value, or the
// global object's half of a Global environment).
func NewObjectEnvironmentData(bindingObject RawHandle, isWith bool, outer RawHandle, hasOuter bool) *EnvironmentData {
	return &EnvironmentData{
		Kind: EnvObject, Outer: outer, HasOuter: hasOuter,
		BindingObject: bindingObject, HasBindingObject: true,
		IsWithEnvironment: isWith,
	}
}

// NewFunctionEnvironmentData creates a Function environment record for
// a call to fn, per ECMA-262 9.1.1.3's NewFunctionEnvironment.
// thisStatus is ThisLexical for arrow functions (which never bind their
// own `this`) or ThisUninitialized for ordinary/derived-constructor
// calls awaiting BindThisValue.
func NewFunctionEnvironmentData(fn RawHandle, thisStatus ThisBindingStatus, outer RawHandle) *EnvironmentData {
	return &EnvironmentData{
		Kind: EnvFunction, Outer: outer, HasOuter: true,
		Bindings:          make(map[string]*binding),
		FunctionObject:    fn,
		HasFunctionObject: true,
		ThisBindingStatus: thisStatus,
	}
}

// NewGlobalEnvironmentData creates the realm's Global environment record:
// a declarative record (for let/const/class at top level) layered over
// an object record backed by globalObject, per ECMA-262 9.1.1.4.
func NewGlobalEnvironmentData(globalObject RawHandle) *EnvironmentData {
	return &EnvironmentData{
		Kind:             EnvGlobal,
		Bindings:         make(map[string]*binding),
		BindingObject:    globalObject,
		HasBindingObject: true,
	}
}

func (h *Heap) env(raw RawHandle) *EnvironmentData { return h.Environments.Get(raw.Index) }

// TryHasBinding implements [[HasBinding]]. It never needs user code: a
// Declarative/Function/Global-lexical lookup is a map check, and an
// Object environment's HasProperty is itself a Try-safe operation (its
// only exotic override in this core, Array, never needs a trap for
// HasProperty).
func (h *Heap) TryHasBinding(raw RawHandle, name string) Try[bool] {
	e := h.env(raw)
	switch e.Kind {
	case EnvObject:
		has := h.TryHasProperty(e.BindingObject, StringKey(name))
		if !has.Ok() {
			return TryBreak[bool]()
		}
		if !has.Value() || !e.IsWithEnvironment {
			return TryOK(has.Value())
		}
		return TryOK(true) // unscopables check intentionally out of scope
	case EnvGlobal:
		if _, ok := e.Bindings[name]; ok {
			return TryOK(true)
		}
		return h.TryHasProperty(e.BindingObject, StringKey(name))
	default:
		_, ok := e.Bindings[name]
		return TryOK(ok)
	}
}

// CreateMutableBinding implements [[CreateMutableBinding]].
func (h *Heap) CreateMutableBinding(raw RawHandle, name string, deletable bool) {
	e := h.env(raw)
	if e.Kind == EnvObject {
		h.ensureBacking(e.BindingObject) // materialize lazily, mirroring Array/Function
		h.TryDefineOwnProperty(e.BindingObject, StringKey(name), dataDescriptor(Undefined(), true, true, deletable))
		return
	}
	if _, exists := e.Bindings[name]; !exists {
		e.bindingOrder = append(e.bindingOrder, name)
	}
	e.Bindings[name] = &binding{mutable: true, deletable: deletable}
}

// InitializeBinding implements [[InitializeBinding]]: gives a previously
// uninitialized binding its first value.
func (h *Heap) InitializeBinding(raw RawHandle, name string, value Value) {
	e := h.env(raw)
	if e.Kind == EnvObject {
		h.TryDefineOwnProperty(e.BindingObject, StringKey(name), dataDescriptor(value, true, true, true))
		return
	}
	b, ok := e.Bindings[name]
	if !ok {
		b = &binding{mutable: true}
		e.Bindings[name] = b
		e.bindingOrder = append(e.bindingOrder, name)
	}
	b.value = value
	b.initialized = true
}

// CreateImmutableBinding implements [[CreateImmutableBinding]]: strict
// records a binding whose SetMutableBinding must throw rather than
// silently ignore an attempted (illegal) write.
func (h *Heap) CreateImmutableBinding(raw RawHandle, name string, strict bool) {
	e := h.env(raw)
	if _, exists := e.Bindings[name]; !exists {
		e.bindingOrder = append(e.bindingOrder, name)
	}
	e.Bindings[name] = &binding{mutable: false, deletable: false}
	_ = strict // strictness only affects the throw path in SetMutableBinding
}

// SetMutableBinding implements [[SetMutableBinding]]. Assigning to a
// missing binding in strict mode, or to an uninitialized/immutable
// binding at all, is a ReferenceError/TypeError — the throwing slow
// path, hence Completion rather than Try.
func (h *Heap) SetMutableBinding(raw RawHandle, name string, value Value, strict bool, gc NoGcScope) Completion[struct{}] {
	e := h.env(raw)
	if e.Kind == EnvObject || e.Kind == EnvGlobal {
		if e.Kind == EnvGlobal {
			if b, ok := e.Bindings[name]; ok {
				return h.setDeclarativeBinding(b, name, value, strict, gc)
			}
		}
		has := h.TryHasProperty(e.BindingObject, StringKey(name))
		if has.Ok() && !has.Value() && strict {
			return ThrowCompletion[struct{}](h.NewError(ErrorKindReferenceError, name+" is not defined", gc))
		}
		h.ensureBacking(e.BindingObject)
		h.TryDefineOwnProperty(e.BindingObject, StringKey(name), dataDescriptor(value, true, true, true))
		return Ok(struct{}{})
	}
	b, ok := e.Bindings[name]
	if !ok {
		if strict {
			return ThrowCompletion[struct{}](h.NewError(ErrorKindReferenceError, name+" is not defined", gc))
		}
		h.CreateMutableBinding(raw, name, true)
		h.InitializeBinding(raw, name, value)
		return Ok(struct{}{})
	}
	return h.setDeclarativeBinding(b, name, value, strict, gc)
}

func (h *Heap) setDeclarativeBinding(b *binding, name string, value Value, strict bool, gc NoGcScope) Completion[struct{}] {
	if !b.initialized {
		return ThrowCompletion[struct{}](h.NewError(ErrorKindReferenceError, name+" used before initialization", gc))
	}
	if !b.mutable {
		if strict {
			return ThrowCompletion[struct{}](h.NewError(ErrorKindTypeError, "Assignment to constant variable: "+name, gc))
		}
		return Ok(struct{}{})
	}
	b.value = value
	return Ok(struct{}{})
}

// GetBindingValue implements [[GetBindingValue]]: a ReferenceError if
// the name has no binding, or (for a declarative binding) if it exists
// but is still uninitialized (the temporal-dead-zone case).
func (h *Heap) GetBindingValue(raw RawHandle, name string, strict bool, gc NoGcScope) Completion[Value] {
	e := h.env(raw)
	if e.Kind == EnvObject {
		has := h.TryHasProperty(e.BindingObject, StringKey(name))
		if !has.Ok() || !has.Value() {
			return ThrowCompletion[Value](h.NewError(ErrorKindReferenceError, name+" is not defined", gc))
		}
		v := h.TryGet(e.BindingObject, StringKey(name), ObjectFromHandle(e.BindingObject))
		if v.Ok() {
			return Ok(v.Value())
		}
		return Ok(Undefined())
	}
	if e.Kind == EnvGlobal {
		if b, ok := e.Bindings[name]; ok {
			if !b.initialized {
				return ThrowCompletion[Value](h.NewError(ErrorKindReferenceError, name+" used before initialization", gc))
			}
			return Ok(b.value)
		}
		has := h.TryHasProperty(e.BindingObject, StringKey(name))
		if !has.Ok() || !has.Value() {
			return ThrowCompletion[Value](h.NewError(ErrorKindReferenceError, name+" is not defined", gc))
		}
		v := h.TryGet(e.BindingObject, StringKey(name), ObjectFromHandle(e.BindingObject))
		if v.Ok() {
			return Ok(v.Value())
		}
		return Ok(Undefined())
	}
	b, ok := e.Bindings[name]
	if !ok {
		return ThrowCompletion[Value](h.NewError(ErrorKindReferenceError, name+" is not defined", gc))
	}
	if !b.initialized {
		return ThrowCompletion[Value](h.NewError(ErrorKindReferenceError, name+" used before initialization", gc))
	}
	return Ok(b.value)
}

// DeleteBinding implements [[DeleteBinding]].
func (h *Heap) DeleteBinding(raw RawHandle, name string) Try[bool] {
	e := h.env(raw)
	if e.Kind == EnvObject {
		return h.TryDelete(e.BindingObject, StringKey(name))
	}
	b, ok := e.Bindings[name]
	if !ok {
		return TryOK(true)
	}
	if !b.deletable {
		return TryOK(false)
	}
	delete(e.Bindings, name)
	for i, n := range e.bindingOrder {
		if n == name {
			e.bindingOrder = append(e.bindingOrder[:i], e.bindingOrder[i+1:]...)
			break
		}
	}
	return TryOK(true)
}

// HasThisBinding reports whether this environment (or, transitively for
// a lexical/module environment, none at all here since we have no
// module resolution) directly supplies `this`.
func (h *Heap) HasThisBinding(raw RawHandle) bool {
	e := h.env(raw)
	return e.Kind == EnvFunction && e.ThisBindingStatus != ThisLexical || e.Kind == EnvGlobal
}

// GetThisBinding resolves `this` by walking outward to the nearest
// environment that supplies one.
func (h *Heap) GetThisBinding(raw RawHandle) Value {
	e := h.env(raw)
	if e.Kind == EnvGlobal {
		return ObjectFromHandle(e.BindingObject)
	}
	if e.Kind == EnvFunction && e.ThisBindingStatus != ThisLexical {
		return e.ThisValue
	}
	if e.HasOuter {
		return h.GetThisBinding(e.Outer)
	}
	return Undefined()
}

// BindThisValue implements BindThisValue for a Function environment
// whose [[ThisBindingStatus]] starts Uninitialized (ordinary functions
// and derived-class constructors).
func (h *Heap) BindThisValue(raw RawHandle, v Value) {
	e := h.env(raw)
	e.ThisValue = v
	e.ThisBindingStatus = ThisInitialized
}

// IsObjectEnvironment reports whether raw is an Object environment
// record — EvalDeclarationInstantiation's outward walk skips these
// (a `with` binding object never conflicts with a hoisted var).
func (h *Heap) IsObjectEnvironment(raw RawHandle) bool {
	return h.env(raw).Kind == EnvObject
}

// HasBindingDirect reports whether name is bound directly in raw's own
// declarative binding map, without consulting a binding object or
// walking outward — the "does this exact lexical layer already shadow
// this name" check EvalDeclarationInstantiation's conflict scan needs.
func (h *Heap) HasBindingDirect(raw RawHandle, name string) bool {
	_, ok := h.env(raw).Bindings[name]
	return ok
}

// OuterEnvironment returns raw's enclosing environment, or ok=false at
// the top of the chain.
func (h *Heap) OuterEnvironment(raw RawHandle) (RawHandle, bool) {
	e := h.env(raw)
	if !e.HasOuter {
		return RawHandle{}, false
	}
	return e.Outer, true
}

// --- Global environment record extras (ECMA-262 9.1.1.4), used by
// EvalDeclarationInstantiation's hoisting and conflict checks. ---

// HasLexicalDeclaration reports whether name is bound in the global
// environment's declarative record (a top-level let/const/class),
// distinct from a `var`/function binding on the global object.
func (h *Heap) HasLexicalDeclaration(raw RawHandle, name string) bool {
	_, ok := h.env(raw).Bindings[name]
	return ok
}

// HasVarDeclaration reports whether name is an own property of the
// global object (created by a prior `var` or function declaration).
func (h *Heap) HasVarDeclaration(raw RawHandle, name string) bool {
	e := h.env(raw)
	own := h.TryGetOwnProperty(e.BindingObject, StringKey(name))
	return own.Ok() && own.Value() != nil
}

// HasRestrictedGlobalProperty reports whether the global object has an
// own, non-configurable property named name — such a name can never be
// (re)declared as a global var/function/lexical binding.
func (h *Heap) HasRestrictedGlobalProperty(raw RawHandle, name string) bool {
	e := h.env(raw)
	own := h.TryGetOwnProperty(e.BindingObject, StringKey(name))
	return own.Ok() && own.Value() != nil && !own.Value().Configurable
}

// CanDeclareGlobalVar reports whether a `var` declaration for name may
// proceed: the global object either already owns the property, or is
// extensible.
func (h *Heap) CanDeclareGlobalVar(raw RawHandle, name string) bool {
	e := h.env(raw)
	own := h.TryGetOwnProperty(e.BindingObject, StringKey(name))
	if own.Ok() && own.Value() != nil {
		return true
	}
	ext := h.TryIsExtensible(e.BindingObject)
	return ext.Ok() && ext.Value()
}

// CanDeclareGlobalFunction mirrors CanDeclareGlobalVar but additionally
// requires, for an existing own property, that it be configurable or a
// writable+enumerable data property (ECMA-262 9.1.1.4.7).
func (h *Heap) CanDeclareGlobalFunction(raw RawHandle, name string) bool {
	e := h.env(raw)
	own := h.TryGetOwnProperty(e.BindingObject, StringKey(name))
	if !own.Ok() {
		return false
	}
	d := own.Value()
	if d == nil {
		ext := h.TryIsExtensible(e.BindingObject)
		return ext.Ok() && ext.Value()
	}
	if d.Configurable {
		return true
	}
	return d.IsDataDescriptor() && d.Writable && d.Enumerable
}

// CreateGlobalVarBinding implements CreateGlobalVarBinding: ensures name
// exists as an own, writable, enumerable (and, if deletable, also
// configurable) data property of the global object, initialized to
// undefined only if it did not already exist.
func (h *Heap) CreateGlobalVarBinding(raw RawHandle, name string, deletable bool) {
	e := h.env(raw)
	own := h.TryGetOwnProperty(e.BindingObject, StringKey(name))
	ext := h.TryIsExtensible(e.BindingObject)
	if (!own.Ok() || own.Value() == nil) && ext.Ok() && ext.Value() {
		h.ensureBacking(e.BindingObject)
		h.TryDefineOwnProperty(e.BindingObject, StringKey(name), dataDescriptor(Undefined(), true, true, deletable))
	}
}

// CreateGlobalFunctionBinding implements CreateGlobalFunctionBinding:
// installs value as name on the global object, overwriting any existing
// property, per the function-hoisting "last declaration wins" rule.
func (h *Heap) CreateGlobalFunctionBinding(raw RawHandle, name string, value Value, deletable bool) {
	e := h.env(raw)
	own := h.TryGetOwnProperty(e.BindingObject, StringKey(name))
	desc := dataDescriptor(value, true, true, deletable)
	if own.Ok() && own.Value() != nil && !own.Value().Configurable {
		desc = dataDescriptor(value, true, own.Value().Enumerable, false)
	}
	h.ensureBacking(e.BindingObject)
	h.TryDefineOwnProperty(e.BindingObject, StringKey(name), desc)
}

func (e *EnvironmentData) Mark(queues *WorkQueues) {
	if e.HasOuter {
		queues.Push(e.Outer)
	}
	if e.HasBindingObject {
		queues.Push(e.BindingObject)
	}
	if e.HasFunctionObject {
		queues.Push(e.FunctionObject)
	}
	for _, b := range e.Bindings {
		if b.initialized {
			markValue(b.value, queues)
		}
	}
	markValue(e.ThisValue, queues)
	markValue(e.NewTarget, queues)
}

func (e *EnvironmentData) Sweep(compactions *CompactionLists) {
	if e.HasOuter {
		if h, ok := compactions.Rewrite(e.Outer); ok {
			e.Outer = h
		}
	}
	if e.HasBindingObject {
		if h, ok := compactions.Rewrite(e.BindingObject); ok {
			e.BindingObject = h
		}
	}
	if e.HasFunctionObject {
		if h, ok := compactions.Rewrite(e.FunctionObject); ok {
			e.FunctionObject = h
		}
	}
	for _, b := range e.Bindings {
		if b.initialized {
			b.value = sweepValue(b.value, compactions)
		}
	}
	e.ThisValue = sweepValue(e.ThisValue, compactions)
	e.NewTarget = sweepValue(e.NewTarget, compactions)
}

package runtime

// PropertyDescriptor is the full descriptor shape DefineOwnProperty and
// GetOwnProperty exchange at the internal-method boundary — richer than
// ElementDescriptor, which only records the non-default case for a
// packed element slot. Fields not present in a given call are signalled
// by the Has* flags, matching ECMA-262's "Completion Record fields
// absent" convention for partial descriptors.
type PropertyDescriptor struct {
	HasValue bool
	Value    Value

	HasWritable bool
	Writable    bool

	HasGet bool
	Get    Value

	HasSet bool
	Set    Value

	HasEnumerable bool
	Enumerable    bool

	HasConfigurable bool
	Configurable    bool
}

// IsAccessor reports whether d describes (or converts to) an accessor
// property.
func (d PropertyDescriptor) IsAccessor() bool { return d.HasGet || d.HasSet }

// IsDataDescriptor reports whether d describes (or converts to) a data
// property.
func (d PropertyDescriptor) IsDataDescriptor() bool { return d.HasValue || d.HasWritable }

// IsGenericDescriptor reports whether d specifies neither a value/writable
// pair nor a get/set pair — only enumerable/configurable.
func (d PropertyDescriptor) IsGenericDescriptor() bool {
	return !d.IsAccessor() && !d.IsDataDescriptor()
}

func dataDescriptor(v Value, writable, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{
		HasValue: true, Value: v,
		HasWritable: true, Writable: writable,
		HasEnumerable: true, Enumerable: enumerable,
		HasConfigurable: true, Configurable: configurable,
	}
}

// Try is the fast-path result of a try_X internal method: Continue(r) when
// the operation finished without needing user code, or Break when a
// getter/setter/proxy trap must run and the caller should fall back to
// the internal_X slow path. Splitting the two forms (spec.md §4.3) lets
// hot paths run without establishing a GcScope; only the slow path pays
// for rooting.
type Try[T any] struct {
	ok    bool
	value T
}

// TryOK wraps a fast-path result.
func TryOK[T any](v T) Try[T] { return Try[T]{ok: true, value: v} }

// TryBreak signals that the slow path is required.
func TryBreak[T any]() Try[T] { return Try[T]{} }

// Ok reports whether the fast path completed.
func (t Try[T]) Ok() bool { return t.ok }

// Value returns the fast-path result; only meaningful when Ok().
func (t Try[T]) Value() T { return t.value }

// Completion is the {Normal(value) | Throw(value)} sum type every
// fallible core operation returns, per spec.md §7 and the glossary.
// Throws are carried as values, not as Go errors or panics: unwinding
// VM-managed frames happens in a specific, specified order that a bare
// `error` return can't express.
type Completion[T any] struct {
	threw  bool
	normal T
	thrown Value
}

// Ok wraps a successful completion.
func Ok[T any](v T) Completion[T] { return Completion[T]{normal: v} }

// ThrowCompletion wraps a thrown value as a completion of any result type.
func ThrowCompletion[T any](v Value) Completion[T] { return Completion[T]{threw: true, thrown: v} }

// IsThrow reports whether the completion is a throw.
func (c Completion[T]) IsThrow() bool { return c.threw }

// Value returns the normal result; only meaningful when !IsThrow().
func (c Completion[T]) Value() T { return c.normal }

// ThrownValue returns the thrown value; only meaningful when IsThrow().
func (c Completion[T]) ThrownValue() Value { return c.thrown }

// ObjectData is the ordinary-object record: a property map plus a
// prototype link and extensibility flag, per spec.md §4.3. Array and
// Function records embed or reference one of these as their "backing
// object" for named properties; ordinary objects use one directly.
type ObjectData struct {
	Properties   map[string]PropertyDescriptor
	SymbolProps  map[RawHandle]PropertyDescriptor
	keyOrder     []PropertyKey // insertion order, for own_property_keys
	Prototype    Value         // Null or an object-variant Value
	Extensible   bool
	ErrorKind    ErrorKind // ErrorKindNone for ordinary objects
	ErrorMessage string
}

// NewObjectData creates an empty, extensible ordinary object with the
// given prototype (pass Null() for %Object.prototype%-less objects; a
// real prototype chain is the realm's concern, out of scope here).
func NewObjectData(prototype Value) *ObjectData {
	return &ObjectData{
		Properties: make(map[string]PropertyDescriptor),
		Prototype:  prototype,
		Extensible: true,
	}
}

func (o *ObjectData) getOwn(key PropertyKey) (PropertyDescriptor, bool) {
	if key.IsSymbol() {
		d, ok := o.SymbolProps[key.SymbolHandle()]
		return d, ok
	}
	d, ok := o.Properties[key.String()]
	return d, ok
}

func (o *ObjectData) setOwn(key PropertyKey, d PropertyDescriptor) {
	if key.IsSymbol() {
		if o.SymbolProps == nil {
			o.SymbolProps = make(map[RawHandle]PropertyDescriptor)
		}
		if _, existed := o.SymbolProps[key.SymbolHandle()]; !existed {
			o.keyOrder = append(o.keyOrder, key)
		}
		o.SymbolProps[key.SymbolHandle()] = d
		return
	}
	if _, existed := o.Properties[key.String()]; !existed {
		o.keyOrder = append(o.keyOrder, key)
	}
	o.Properties[key.String()] = d
}

func (o *ObjectData) deleteOwn(key PropertyKey) {
	if key.IsSymbol() {
		delete(o.SymbolProps, key.SymbolHandle())
	} else {
		delete(o.Properties, key.String())
	}
	for i, k := range o.keyOrder {
		if sameKey(k, key) {
			o.keyOrder = append(o.keyOrder[:i], o.keyOrder[i+1:]...)
			break
		}
	}
}

func sameKey(a, b PropertyKey) bool {
	if a.IsSymbol() != b.IsSymbol() {
		return false
	}
	if a.IsSymbol() {
		return a.SymbolHandle() == b.SymbolHandle()
	}
	return a.String() == b.String()
}

// OwnPropertyKeys returns this object's own keys in spec order: integer
// indices ascending, then strings in insertion order, then symbols in
// insertion order (spec.md §5 "Ordering").
func (o *ObjectData) OwnPropertyKeys() []PropertyKey {
	var indices []uint32
	var strs []PropertyKey
	var syms []PropertyKey
	for _, k := range o.keyOrder {
		if k.IsSymbol() {
			syms = append(syms, k)
			continue
		}
		if idx, ok := k.AsArrayIndex(); ok {
			indices = append(indices, idx)
			continue
		}
		strs = append(strs, k)
	}
	sortUint32(indices)
	out := make([]PropertyKey, 0, len(indices)+len(strs)+len(syms))
	for _, idx := range indices {
		out = append(out, IndexKey(idx))
	}
	out = append(out, strs...)
	out = append(out, syms...)
	return out
}

func sortUint32(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Mark enqueues every property value's, the prototype's, and every symbol
// key's out-references.
func (o *ObjectData) Mark(queues *WorkQueues) {
	markValue(o.Prototype, queues)
	for _, d := range o.Properties {
		markDescriptor(d, queues)
	}
	for symHandle, d := range o.SymbolProps {
		queues.Push(symHandle)
		markDescriptor(d, queues)
	}
}

func markDescriptor(d PropertyDescriptor, queues *WorkQueues) {
	if d.HasValue {
		markValue(d.Value, queues)
	}
	if d.HasGet {
		markValue(d.Get, queues)
	}
	if d.HasSet {
		markValue(d.Set, queues)
	}
}

// Sweep rewrites the prototype link, every symbol key, and every property
// value's out-reference through the compaction map.
func (o *ObjectData) Sweep(compactions *CompactionLists) {
	o.Prototype = sweepValue(o.Prototype, compactions)
	for k, d := range o.Properties {
		o.Properties[k] = sweepDescriptor(d, compactions)
	}
	if len(o.SymbolProps) > 0 {
		rewritten := make(map[RawHandle]PropertyDescriptor, len(o.SymbolProps))
		for symHandle, d := range o.SymbolProps {
			newHandle := symHandle
			if h, ok := compactions.Rewrite(symHandle); ok {
				newHandle = h
			}
			rewritten[newHandle] = sweepDescriptor(d, compactions)
		}
		o.SymbolProps = rewritten
	}
	for i, k := range o.keyOrder {
		if k.IsSymbol() {
			if h, ok := compactions.Rewrite(k.SymbolHandle()); ok {
				o.keyOrder[i] = PropertyKey{kind: propertyKeySymbol, symbol: h}
			}
		}
	}
}

func sweepDescriptor(d PropertyDescriptor, compactions *CompactionLists) PropertyDescriptor {
	if d.HasValue {
		d.Value = sweepValue(d.Value, compactions)
	}
	if d.HasGet {
		d.Get = sweepValue(d.Get, compactions)
	}
	if d.HasSet {
		d.Set = sweepValue(d.Set, compactions)
	}
	return d
}

// ErrorKind distinguishes the user-visible throw kinds spec.md §7 names.
type ErrorKind uint8

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindTypeError
	ErrorKindRangeError
	ErrorKindSyntaxError
	ErrorKindReferenceError
	ErrorKindURIError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindTypeError:
		return "TypeError"
	case ErrorKindRangeError:
		return "RangeError"
	case ErrorKindSyntaxError:
		return "SyntaxError"
	case ErrorKindReferenceError:
		return "ReferenceError"
	case ErrorKindURIError:
		return "URIError"
	default:
		return "Error"
	}
}

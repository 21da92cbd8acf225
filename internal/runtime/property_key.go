package runtime

import "strconv"

// propertyKeyKind tags PropertyKey's two wire forms.
type propertyKeyKind uint8

const (
	propertyKeyString propertyKeyKind = iota
	propertyKeySymbol
)

// PropertyKey is either a string or a Symbol handle, per the glossary's
// Handle entry and spec.md §4.4's own-key enumeration order. Integer
// array indices are string keys whose text is the canonical decimal
// form of the index (ECMA-262's CanonicalNumericIndexString); IsIndex
// recognizes them.
type PropertyKey struct {
	kind   propertyKeyKind
	str    string
	symbol RawHandle
}

// StringKey builds a string-valued PropertyKey.
func StringKey(s string) PropertyKey { return PropertyKey{kind: propertyKeyString, str: s} }

// SymbolKey builds a Symbol-valued PropertyKey from a Symbol handle.
func SymbolKey(h Handle[SymbolData]) PropertyKey {
	return PropertyKey{kind: propertyKeySymbol, symbol: h.Raw}
}

// SymbolKeyFromValue builds a Symbol-valued PropertyKey directly from a
// Symbol Value, for callers (such as a well-known symbol returned by
// Heap.WellKnown) that hold a raw handle rather than a scope-checked
// Handle[SymbolData].
func SymbolKeyFromValue(v Value) PropertyKey {
	return PropertyKey{kind: propertyKeySymbol, symbol: v.ObjectHandle()}
}

// IsSymbol reports whether the key is a Symbol.
func (k PropertyKey) IsSymbol() bool { return k.kind == propertyKeySymbol }

// String returns the key's string form; only meaningful when !IsSymbol().
func (k PropertyKey) String() string { return k.str }

// SymbolHandle returns the key's Symbol handle; only meaningful when
// IsSymbol().
func (k PropertyKey) SymbolHandle() RawHandle { return k.symbol }

// AsArrayIndex reports whether the key denotes an integer index in
// [0, 2^32-2] (spec.md §4.4's ARRAY_INDEX_RANGE), returning the index.
// Only the canonical decimal rendering of the index counts: "01" or
// "+1" are ordinary string keys, not indices, matching
// CanonicalNumericIndexString.
func (k PropertyKey) AsArrayIndex() (uint32, bool) {
	if k.kind != propertyKeyString {
		return 0, false
	}
	return parseCanonicalIndex(k.str)
}

func parseCanonicalIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	if strconv.FormatUint(n, 10) != s {
		return 0, false
	}
	if n > uint64(MaxArrayIndex) {
		return 0, false
	}
	return uint32(n), true
}

// IndexKey builds the canonical string PropertyKey for an array index.
func IndexKey(i uint32) PropertyKey {
	return PropertyKey{kind: propertyKeyString, str: strconv.FormatUint(uint64(i), 10)}
}

// LengthKey is the well-known "length" PropertyKey Array overrides.
var LengthKey = StringKey("length")

package iteration

import "github.com/novabit/ecmacore/internal/runtime"

// objectPropertiesIterator implements the for-in enumeration algorithm
// (ECMA-262 14.7.5.9 EnumerateObjectProperties, informative but
// universally implemented this way): walk the target and its prototype
// chain's own keys, visiting each string key at most once and skipping
// one no longer enumerable by the time it is reached, ported from
// original_source/nova_vm's ObjectPropertiesIterator.
type objectPropertiesIterator struct {
	object           runtime.RawHandle
	objectWasVisited bool
	visitedKeys      []runtime.PropertyKey
	remainingKeys    []runtime.PropertyKey
}

func (it *objectPropertiesIterator) next(h *runtime.Heap, gc runtime.NoGcScope) runtime.Completion[stepResult] {
	for {
		if !it.objectWasVisited {
			keys := h.TryOwnPropertyKeys(it.object)
			if !keys.Ok() {
				return runtime.ThrowCompletion[stepResult](h.NewError(runtime.ErrorKindTypeError, "failed to enumerate object properties", gc))
			}
			for _, k := range keys.Value() {
				if !k.IsSymbol() {
					it.remainingKeys = append(it.remainingKeys, k)
				}
			}
			it.objectWasVisited = true
		}
		for len(it.remainingKeys) > 0 {
			key := it.remainingKeys[0]
			it.remainingKeys = it.remainingKeys[1:]
			if containsKey(it.visitedKeys, key) {
				continue
			}
			desc := h.TryGetOwnProperty(it.object, key)
			if !desc.Ok() {
				return runtime.ThrowCompletion[stepResult](h.NewError(runtime.ErrorKindTypeError, "failed to enumerate object properties", gc))
			}
			if desc.Value() != nil {
				it.visitedKeys = append(it.visitedKeys, key)
				if desc.Value().Enumerable {
					return runtime.Ok(stepResult{value: keyAsValue(h, key, gc)})
				}
			}
		}
		proto := h.TryGetPrototypeOf(it.object)
		if !proto.Ok() {
			return runtime.ThrowCompletion[stepResult](h.NewError(runtime.ErrorKindTypeError, "failed to enumerate object properties", gc))
		}
		if proto.Value().IsNullish() {
			return runtime.Ok(stepResult{done: true})
		}
		it.object = proto.Value().ObjectHandle()
		it.objectWasVisited = false
	}
}

func containsKey(keys []runtime.PropertyKey, k runtime.PropertyKey) bool {
	for _, v := range keys {
		if v.IsSymbol() == k.IsSymbol() && ((v.IsSymbol() && v.SymbolHandle() == k.SymbolHandle()) || (!v.IsSymbol() && v.String() == k.String())) {
			return true
		}
	}
	return false
}

// keyAsValue renders a for-in-visited property key as the String Value
// for-in yields (an integer index key becomes its decimal String,
// matching PropertyKey::Integer/SmallString/String handling in
// iterator.rs's ObjectProperties arm).
func keyAsValue(h *runtime.Heap, key runtime.PropertyKey, gc runtime.NoGcScope) runtime.Value {
	return h.NewString(key.String(), gc)
}

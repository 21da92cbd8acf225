package iteration

import "github.com/novabit/ecmacore/internal/runtime"

// arrayValuesIterator implements Array.prototype.values' CreateArrayIterator
// fast path for an Array whose @@iterator has not been overridden: step
// through the array's own element slots in order, falling back to a
// full [[Get]] only for holes/accessors, per
// original_source/nova_vm's ArrayValuesIterator.
type arrayValuesIterator struct {
	array runtime.RawHandle
	index uint32
}

func (it *arrayValuesIterator) next(h *runtime.Heap, call runtime.CallFunc, gc runtime.NoGcScope) runtime.Completion[stepResult] {
	length := h.ArrayLength(it.array)
	if it.index >= length {
		return runtime.Ok(stepResult{done: true})
	}
	index := it.index
	it.index++

	fast := h.TryGet(it.array, runtime.IndexKey(index), runtime.ObjectFromHandle(it.array))
	if fast.Ok() {
		return runtime.Ok(stepResult{value: fast.Value()})
	}
	v := h.InternalGet(it.array, runtime.IndexKey(index), runtime.ObjectFromHandle(it.array), call, gc)
	if v.IsThrow() {
		return runtime.ThrowCompletion[stepResult](v.ThrownValue())
	}
	return runtime.Ok(stepResult{value: v.Value()})
}

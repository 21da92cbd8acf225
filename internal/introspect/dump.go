// Package introspect renders heap objects as JSON for debugging and
// embedding tools: a structural dump of an object graph, `--query`
// lookups into that dump via gjson, and `--redact` patching via sjson
// before the dump ever reaches a terminal or log line.
package introspect

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/novabit/ecmacore/internal/runtime"
)

// Node is one object's JSON-shaped snapshot: its own string-keyed
// properties (enumerable or not, so an array's indices and "length"
// appear under Properties) plus a type tag, good enough to round-trip
// through gjson/sjson without needing the heap arenas themselves. Dump
// does not fill Elements.
type Node struct {
	Type       string           `json:"type"`
	Properties map[string]any   `json:"properties,omitempty"`
	Elements   []any            `json:"elements,omitempty"`
	Length     *uint32          `json:"length,omitempty"`
	Name       string           `json:"name,omitempty"`
}

// maxDepth bounds how far Dump follows object-valued properties before
// truncating with a placeholder, guarding against cyclic object graphs.
const maxDepth = 8

// Dump renders value as a JSON document describing its shape: primitives
// render as their own JSON scalar, objects/arrays/functions render as a
// Node with their own properties walked recursively up to maxDepth.
func Dump(h *runtime.Heap, value runtime.Value) ([]byte, error) {
	tree := toTree(h, value, 0)
	return json.MarshalIndent(tree, "", "  ")
}

func toTree(h *runtime.Heap, v runtime.Value, depth int) any {
	switch v.Kind() {
	case runtime.ValueUndefined:
		return nil
	case runtime.ValueNull:
		return nil
	case runtime.ValueBoolean:
		return v.Boolean()
	case runtime.ValueSmallInteger:
		return v.SmallInt()
	case runtime.ValueNumber:
		return v.NumberAsFloat()
	case runtime.ValueSmallString, runtime.ValueString:
		return h.StringText(v)
	case runtime.ValueSymbol:
		return map[string]any{"type": "symbol", "description": v.ToDisplayString()}
	case runtime.ValueObject:
		return objectNode(h, v, depth)
	default:
		return nil
	}
}

func objectNode(h *runtime.Heap, v runtime.Value, depth int) Node {
	raw := v.ObjectHandle()

	typ := "object"
	switch {
	case v.IsArray():
		typ = "array"
	case v.IsCallable():
		typ = "function"
	}

	node := Node{Type: typ}

	if v.IsArray() {
		length := h.ArrayLength(raw)
		node.Length = &length
	}

	if depth >= maxDepth {
		node.Properties = map[string]any{"__truncated__": true}
		return node
	}

	keysTry := h.TryOwnPropertyKeys(raw)
	if !keysTry.Ok() {
		return node
	}

	props := make(map[string]any)
	for _, key := range keysTry.Value() {
		if key.IsSymbol() {
			continue
		}
		valTry := h.TryGet(raw, key, v)
		if !valTry.Ok() {
			continue
		}
		props[key.String()] = toTree(h, valTry.Value(), depth+1)
	}
	if len(props) > 0 {
		node.Properties = props
	}
	return node
}

// SortedKeys returns m's keys in lexical order, for stable JSON/snapshot
// output across map iteration.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stringify is a convenience wrapper returning Dump's output as a string,
// or a JSON error document if the dump itself failed to marshal (it never
// returns a Go error, to keep CLI call sites simple).
func Stringify(h *runtime.Heap, value runtime.Value) string {
	data, err := Dump(h, value)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

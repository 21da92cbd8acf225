package introspect

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/novabit/ecmacore/internal/runtime"
)

// Query renders value's dump and then evaluates a gjson path against it,
// returning the matched sub-document as a string ("" with ok=false if the
// path matched nothing). Lets a caller pull one field out of a large heap
// dump (e.g. "properties.name") without parsing the whole thing back into
// Go types.
func Query(h *runtime.Heap, value runtime.Value, path string) (result string, ok bool) {
	doc, err := Dump(h, value)
	if err != nil {
		return "", false
	}
	res := gjson.GetBytes(doc, path)
	if !res.Exists() {
		return "", false
	}
	return res.Raw, true
}

// QueryMany evaluates multiple gjson paths against value's dump in one
// pass, returning a map keyed by path. Paths that match nothing are
// simply absent from the result rather than erroring the whole batch.
func QueryMany(h *runtime.Heap, value runtime.Value, paths []string) map[string]string {
	doc, err := Dump(h, value)
	if err != nil {
		return map[string]string{"__error__": err.Error()}
	}
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		res := gjson.GetBytes(doc, p)
		if res.Exists() {
			out[p] = res.Raw
		}
	}
	return out
}

// FormatQueryResult renders a single Query result for CLI output, making
// an unmatched path visible instead of printing an empty line.
func FormatQueryResult(path string, result string, ok bool) string {
	if !ok {
		return fmt.Sprintf("%s: <no match>", path)
	}
	return fmt.Sprintf("%s: %s", path, result)
}

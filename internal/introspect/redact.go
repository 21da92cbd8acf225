package introspect

import (
	"fmt"

	"github.com/novabit/ecmacore/internal/runtime"
	"github.com/tidwall/sjson"
)

// Redact renders value's dump and overwrites every field at paths with
// the literal string "<redacted>", for the heapdump --redact flag:
// stripping secret-looking property values (tokens, connection strings)
// out of a dump before it's logged or pasted somewhere.
func Redact(h *runtime.Heap, value runtime.Value, paths []string) ([]byte, error) {
	doc, err := Dump(h, value)
	if err != nil {
		return nil, err
	}

	out := string(doc)
	for _, p := range paths {
		patched, err := sjson.Set(out, p, "<redacted>")
		if err != nil {
			return nil, fmt.Errorf("introspect: failed to redact %q: %w", p, err)
		}
		out = patched
	}
	return []byte(out), nil
}

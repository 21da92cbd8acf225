package introspect

import (
	"os"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/novabit/ecmacore/internal/runtime"
	"github.com/tidwall/gjson"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func newTestObject(h *runtime.Heap) runtime.Value {
	s := h.NoGcScope()
	data := runtime.NewObjectData(runtime.Null())
	_, raw := h.AllocateObject(data, s)
	v := runtime.ObjectFromHandle(raw)

	name := h.NewString("Ada Lovelace", s)
	h.InternalDefineOwnProperty(raw, runtime.StringKey("name"), runtime.PropertyDescriptor{
		HasValue: true, Value: name,
		HasWritable: true, Writable: true,
		HasEnumerable: true, Enumerable: true,
		HasConfigurable: true, Configurable: true,
	}, s)
	h.InternalDefineOwnProperty(raw, runtime.StringKey("age"), runtime.PropertyDescriptor{
		HasValue: true, Value: runtime.NumberValue(36),
		HasWritable: true, Writable: true,
		HasEnumerable: true, Enumerable: true,
		HasConfigurable: true, Configurable: true,
	}, s)
	return v
}

func TestDump(t *testing.T) {
	h := runtime.NewHeap()
	v := newTestObject(h)

	doc, err := Dump(h, v)
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	snaps.MatchJSON(t, doc)
}

func TestDump_Primitives(t *testing.T) {
	h := runtime.NewHeap()

	tests := []struct {
		name string
		v    runtime.Value
	}{
		{"undefined", runtime.Undefined()},
		{"null", runtime.Null()},
		{"boolean", runtime.Bool(true)},
		{"number", runtime.NumberValue(3.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Dump(h, tt.v)
			if err != nil {
				t.Fatalf("Dump failed: %v", err)
			}
			snaps.MatchJSON(t, doc)
		})
	}
}

func TestQuery(t *testing.T) {
	h := runtime.NewHeap()
	v := newTestObject(h)

	result, ok := Query(h, v, "properties.name")
	if !ok {
		t.Fatal("expected properties.name to match")
	}
	if result != `"Ada Lovelace"` {
		t.Errorf("expected quoted name, got %s", result)
	}

	_, ok = Query(h, v, "properties.nonexistent")
	if ok {
		t.Error("expected no match for nonexistent path")
	}
}

func TestRedact(t *testing.T) {
	h := runtime.NewHeap()
	v := newTestObject(h)

	redacted, err := Redact(h, v, []string{"properties.name"})
	if err != nil {
		t.Fatalf("Redact failed: %v", err)
	}

	if got := QueryMany(h, v, []string{"properties.name"})["properties.name"]; got == `"<redacted>"` {
		t.Error("Redact must not mutate the live heap, only the returned document")
	}

	redactedDoc := gjson.GetBytes(redacted, "properties.name").Raw
	if redactedDoc != `"<redacted>"` {
		t.Errorf("expected redacted name field, got %s", redactedDoc)
	}
}

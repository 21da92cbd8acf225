package ecma

import "testing"

func TestEval_Arithmetic(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := e.Eval("1 + 2 * 3;")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if got := result.NumberAsFloat(); got != 7 {
		t.Errorf("expected 7, got %v", got)
	}
}

func TestEval_VariableAndFunction(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := e.Eval(`
		var double = function(n) { return n * 2; };
		double(21);
	`)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if got := result.NumberAsFloat(); got != 42 {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestParse_ReturnsNode(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	node, err := e.Parse("var x = 1;")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(node.VarNames) != 1 || node.VarNames[0] != "x" {
		t.Errorf("expected var name x, got %v", node.VarNames)
	}
}

func TestInspect_PrimitiveValue(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	result, err := e.Eval("42;")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if got := e.Inspect(result); got != "42" {
		t.Errorf("expected \"42\", got %q", got)
	}
}

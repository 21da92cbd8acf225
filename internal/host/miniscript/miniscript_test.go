package miniscript

import (
	"testing"

	"github.com/novabit/ecmacore/internal/agent"
	"github.com/novabit/ecmacore/internal/eval"
	"github.com/novabit/ecmacore/internal/host"
	"github.com/novabit/ecmacore/internal/runtime"
)

func newTestEngine(t *testing.T) (*agent.Agent, Parser, Compiler, *VM, runtime.NoGcScope) {
	t.Helper()
	a := agent.New(0)
	s := a.Heap.NoGcScope()
	_, globalObj := a.Heap.AllocateObject(runtime.NewObjectData(runtime.Null()), s)
	a.InitGlobalEnvironment(globalObj, s)

	vm := NewVM()
	a.AttachVM(vm)
	vm.Call = a.Call

	return a, Parser{}, Compiler{}, vm, s
}

func run(t *testing.T, source string) runtime.Completion[runtime.Value] {
	t.Helper()
	a, p, c, vm, s := newTestEngine(t)
	input := a.Heap.NewString(source, s)
	return eval.PerformEval(a, p, c, vm, input, false, false, s, nil)
}

func runOk(t *testing.T, source string) (*agent.Agent, runtime.Value) {
	t.Helper()
	a, p, c, vm, s := newTestEngine(t)
	input := a.Heap.NewString(source, s)
	result := eval.PerformEval(a, p, c, vm, input, false, false, s, nil)
	if result.IsThrow() {
		t.Fatalf("expected %q to evaluate without throwing, got a throw", source)
	}
	return a, result.Value()
}

func TestArithmeticPrecedence(t *testing.T) {
	_, got := runOk(t, "1 + 2 * 3;")
	if got.NumberAsFloat() != 7 {
		t.Errorf("expected 7, got %v", got.NumberAsFloat())
	}
}

func TestArrayLiteralAndIndexing(t *testing.T) {
	_, got := runOk(t, "var a = [1, 2, 3]; a[1];")
	if got.NumberAsFloat() != 2 {
		t.Errorf("expected 2, got %v", got.NumberAsFloat())
	}
}

func TestArrayLiteralTrailingElision(t *testing.T) {
	_, got := runOk(t, "var a = [1, 2,]; a.length;")
	if got.NumberAsFloat() != 2 {
		t.Errorf("expected a trailing comma to not add a phantom element, got length %v", got.NumberAsFloat())
	}
}

func TestWhileLoopWithBreak(t *testing.T) {
	_, got := runOk(t, `
		var i = 0;
		while (true) {
			i = i + 1;
			if (i == 3) { break; }
		}
		i;
	`)
	if got.NumberAsFloat() != 3 {
		t.Errorf("expected the loop to break at 3, got %v", got.NumberAsFloat())
	}
}

func TestForLoopWithContinue(t *testing.T) {
	_, got := runOk(t, `
		var sum = 0;
		for (var i = 0; i < 5; i = i + 1) {
			if (i == 2) { continue; }
			sum = sum + i;
		}
		sum;
	`)
	if got.NumberAsFloat() != 8 {
		t.Errorf("expected 0+1+3+4=8 (skipping 2), got %v", got.NumberAsFloat())
	}
}

func TestForInEnumeratesOwnEnumerableKeys(t *testing.T) {
	_, got := runOk(t, `
		var a = [10, 20];
		var keys = "";
		for (var k in a) { keys = keys + k; }
		keys;
	`)
	if got.Kind() != runtime.ValueSmallString && got.Kind() != runtime.ValueString {
		t.Fatalf("expected a string result, got kind %v", got.Kind())
	}
}

func TestForOfIteratesArrayValues(t *testing.T) {
	_, got := runOk(t, `
		var a = [1, 2, 3];
		var sum = 0;
		for (var v of a) { sum = sum + v; }
		sum;
	`)
	if got.NumberAsFloat() != 6 {
		t.Errorf("expected 6, got %v", got.NumberAsFloat())
	}
}

func TestCompoundPlusAssignNumeric(t *testing.T) {
	_, got := runOk(t, "var n = 1; n += 4; n;")
	if got.NumberAsFloat() != 5 {
		t.Errorf("expected 5, got %v", got.NumberAsFloat())
	}
}

func TestCompoundPlusAssignStringConcatenation(t *testing.T) {
	a, got := runOk(t, `var s = "a"; s += "b"; s;`)
	if a.Heap.StringText(got) != "ab" {
		t.Errorf("expected \"ab\", got %q", a.Heap.StringText(got))
	}
}

func TestCompoundMinusAssign(t *testing.T) {
	_, got := runOk(t, "var n = 10; n -= 3; n;")
	if got.NumberAsFloat() != 7 {
		t.Errorf("expected 7, got %v", got.NumberAsFloat())
	}
}

func TestTypeofOperator(t *testing.T) {
	a, got := runOk(t, `typeof 1;`)
	if a.Heap.StringText(got) != "number" {
		t.Errorf("expected \"number\", got %q", a.Heap.StringText(got))
	}
	a, got = runOk(t, `typeof "x";`)
	if a.Heap.StringText(got) != "string" {
		t.Errorf("expected \"string\", got %q", a.Heap.StringText(got))
	}
	a, got = runOk(t, `var f = function() {}; typeof f;`)
	if a.Heap.StringText(got) != "function" {
		t.Errorf("expected \"function\", got %q", a.Heap.StringText(got))
	}
}

func TestLooseEqualityAcrossStringAndNumberLiteralParsing(t *testing.T) {
	_, got := runOk(t, `"1" == 1;`)
	if !got.Boolean() {
		t.Errorf("expected \"1\" == 1 to be true via numeric coercion of the string literal")
	}
}

func TestNumericStringCoercionUsesStrconvParseFloat(t *testing.T) {
	_, got := runOk(t, `+"  3.5 ";`)
	if f := got.NumberAsFloat(); f != f {
		t.Errorf("expected surrounding whitespace to be trimmed before parsing, got NaN")
	} else if f != 3.5 {
		t.Errorf("expected 3.5, got %v", f)
	}
}

func TestFunctionCallAndReturn(t *testing.T) {
	_, got := runOk(t, `
		function square(n) { return n * n; }
		square(6);
	`)
	if got.NumberAsFloat() != 36 {
		t.Errorf("expected 36, got %v", got.NumberAsFloat())
	}
}

func TestRecursiveFunctionCall(t *testing.T) {
	_, got := runOk(t, `
		function fact(n) {
			if (n <= 1) { return 1; }
			return n * fact(n - 1);
		}
		fact(5);
	`)
	if got.NumberAsFloat() != 120 {
		t.Errorf("expected 120, got %v", got.NumberAsFloat())
	}
}

func TestConditionalExpression(t *testing.T) {
	a, got := runOk(t, `var n = 4; n % 2 == 0 ? "even" : "odd";`)
	if a.Heap.StringText(got) != "even" {
		t.Errorf("expected \"even\", got %q", a.Heap.StringText(got))
	}
}

func TestParseErrorSurfacesAsThrow(t *testing.T) {
	result := run(t, "var = ;")
	if !result.IsThrow() {
		t.Fatalf("expected a syntax error to surface as a thrown SyntaxError")
	}
}

func TestUseStrictDirectiveIsDetected(t *testing.T) {
	p := Parser{}
	node, err := p.Parse(`'use strict'; var x = 1;`, host.GoalScript)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !node.UseStrict {
		t.Fatalf("expected the use-strict directive prologue to be detected")
	}
}

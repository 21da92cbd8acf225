// Package host declares the narrow collaborator contracts spec.md §6
// names for the parser, compiler, and VM: "parse a string into a Script
// Parse Node"; "compile a Parse Node into an Executable"; "evaluate an
// Executable on the VM and return a completion". These three concerns
// are explicitly out of scope for the core (spec.md §1) — this package
// only fixes the shape of the boundary. internal/host/miniscript
// supplies one small concrete implementation sufficient for the CLI and
// integration tests; a real parser/bytecode compiler/opcode-dispatch VM
// can implement the same interfaces without the core changing at all.
package host

import "github.com/novabit/ecmacore/internal/runtime"

// ParseGoal distinguishes the two grammar entry points ECMA-262 parses
// source text under (ECMA-262 16).
type ParseGoal uint8

const (
	GoalScript ParseGoal = iota
	GoalModule
)

// FunctionDecl is a var-scoped function declaration as
// EvalDeclarationInstantiation needs to see it: a name and an opaque
// body payload the Compiler/VM understand, no parameter list or
// closure details the core's declaration-instantiation logic cares
// about.
type FunctionDecl struct {
	Name string
	Body any
}

// LexicalDecl is a top-level let/const/class declaration.
type LexicalDecl struct {
	Name    string
	IsConst bool
}

// ParseNode is the Script Parse Node spec.md §6's Parser produces: just
// enough structure for EvalDeclarationInstantiation's hoisting and
// conflict-check algorithm (spec.md §4.6), plus an opaque Body the
// Compiler/VM round-trip without the core inspecting it.
type ParseNode struct {
	Source          string
	UseStrict       bool
	VarNames        []string
	FunctionDecls   []FunctionDecl // every declaration in source order; a name may repeat (EvalDeclarationInstantiation keeps the last)
	LexicalDecls    []LexicalDecl
	Body            any
}

// Parser implements "parse a string into a Script Parse Node".
type Parser interface {
	Parse(source string, goal ParseGoal) (*ParseNode, error)
}

// Compiler implements "compile a Parse Node into an Executable". The
// returned value becomes an ExecutableData.Payload (runtime/heap.go);
// the core stores and forwards it without inspecting it. Execution
// itself is not part of this package's contract — it goes through
// agent.Agent.Call / agent.VM.Execute, the same path a script function
// call takes, so eval'd code and declared functions share one
// execution seam.
type Compiler interface {
	CompileEvalBody(node *ParseNode) (*runtime.ExecutableData, error)
}

package miniscript

import (
	"github.com/novabit/ecmacore/internal/host"
	"github.com/novabit/ecmacore/internal/runtime"
)

// Compiler implements host.Compiler. There is no bytecode stage here
// (opcode dispatch is explicitly out of this core's scope) so
// "compiling" just wraps the already-parsed AST as the opaque
// Executable payload the VM tree-walks directly.
type Compiler struct{}

func (Compiler) CompileEvalBody(node *host.ParseNode) (*runtime.ExecutableData, error) {
	return &runtime.ExecutableData{Payload: node.Body}, nil
}

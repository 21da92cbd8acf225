package miniscript

import (
	"fmt"
	"strings"

	"github.com/novabit/ecmacore/internal/host"
)

// Parser implements host.Parser: it tokenizes and parses source text
// into a *host.ParseNode, computing the var/function/lexical hoisting
// lists EvalDeclarationInstantiation (internal/eval) needs directly
// from the AST — this package is both parser and compiler, since a
// tree-walking VM has no separate bytecode stage to hoist against.
type Parser struct{}

func (Parser) Parse(source string, goal host.ParseGoal) (*host.ParseNode, error) {
	p := newParser(source)
	prog, errs := p.parseProgram()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	node := &host.ParseNode{
		Source:    source,
		UseStrict: hasUseStrictDirective(prog),
		Body:      prog,
	}
	collectVarNames(prog.Body, &node.VarNames, true)
	for _, stmt := range prog.Body {
		switch s := stmt.(type) {
		case *FunctionDeclStmt:
			node.FunctionDecls = append(node.FunctionDecls, host.FunctionDecl{Name: s.Name, Body: s})
		case *VarDeclStmt:
			if s.Kind == LET || s.Kind == CONST {
				node.LexicalDecls = append(node.LexicalDecls, host.LexicalDecl{Name: s.Name, IsConst: s.Kind == CONST})
			}
		}
	}
	return node, nil
}

func hasUseStrictDirective(prog *Program) bool {
	if len(prog.Body) == 0 {
		return false
	}
	es, ok := prog.Body[0].(*ExprStmt)
	if !ok {
		return false
	}
	lit, ok := es.Expr.(*StringLit)
	return ok && lit.Value == "use strict"
}

// collectVarNames walks stmt, recording every `var`-declared name
// reachable without crossing into a nested function body (`var` is
// function-scoped, so a nested FunctionDeclStmt/FunctionExpr's own body
// hoists to that function's own call, never to this eval body). topLevel
// is unused structurally but documents that callers start at the outer
// statement list.
func collectVarNames(stmts []Node, out *[]string, topLevel bool) {
	for _, stmt := range stmts {
		collectVarNamesIn(stmt, out)
	}
}

func collectVarNamesIn(n Node, out *[]string) {
	switch s := n.(type) {
	case *VarDeclStmt:
		if s.Kind == VAR {
			*out = append(*out, s.Name)
		}
	case *BlockStmt:
		collectVarNames(s.Body, out, false)
	case *IfStmt:
		collectVarNamesIn(s.Then, out)
		if s.Else != nil {
			collectVarNamesIn(s.Else, out)
		}
	case *WhileStmt:
		collectVarNamesIn(s.Body, out)
	case *ForStmt:
		if s.Init != nil {
			collectVarNamesIn(s.Init, out)
		}
		collectVarNamesIn(s.Body, out)
	case *ForInStmt:
		if s.DeclKind == VAR {
			*out = append(*out, s.Name)
		}
		collectVarNamesIn(s.Body, out)
	case *ForOfStmt:
		if s.DeclKind == VAR {
			*out = append(*out, s.Name)
		}
		collectVarNamesIn(s.Body, out)
	}
}

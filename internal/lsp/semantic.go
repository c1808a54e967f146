package lsp

import (
	"tplverify/internal/ast"
)

// SemanticToken is a single LSP semantic token entry. Line and StartChar
// are 0-based; TokenType indexes SemanticTokenTypes and TokenModifiers is
// a bitmask over SemanticTokenModifiers.
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int
	TokenModifiers int
}

func collectSemanticTokens(prog *ast.Program) []SemanticToken {
	var tokens []SemanticToken
	if prog == nil {
		return tokens
	}

	for _, fn := range prog.Functions {
		tokens = append(tokens, makeToken(fn.Pos, fn.Name, "function", declMod)...)
		for _, p := range fn.Params {
			tokens = append(tokens, makeToken(p.Pos, p.Name, "parameter", declMod)...)
		}
		if fn.Precondition != nil {
			tokens = append(tokens, walkExpr(fn.Precondition.Expr)...)
		}
		if fn.Postcondition != nil {
			tokens = append(tokens, walkExpr(fn.Postcondition.Expr)...)
		}
		tokens = append(tokens, walkStmts(fn.Body)...)
	}

	return tokens
}

func walkStmts(stmts []ast.Stmt) []SemanticToken {
	var tokens []SemanticToken
	for _, s := range stmts {
		switch v := s.(type) {
		case *ast.DeclStmt:
			tokens = append(tokens, makeToken(v.Pos, v.Name, "variable", declMod)...)
		case *ast.AssignStmt:
			tokens = append(tokens, makeToken(v.Pos, v.Name, "variable", 0)...)
			tokens = append(tokens, walkExpr(v.Value)...)
		case *ast.AssumeStmt:
			tokens = append(tokens, walkExpr(v.Cond)...)
		case *ast.IfStmt:
			tokens = append(tokens, walkExpr(v.Cond)...)
			tokens = append(tokens, walkStmts(v.Then)...)
			tokens = append(tokens, walkStmts(v.Else)...)
		case *ast.WhileStmt:
			tokens = append(tokens, walkExpr(v.Cond)...)
			if v.Invariant != nil {
				tokens = append(tokens, walkExpr(v.Invariant.Expr)...)
			}
			tokens = append(tokens, walkStmts(v.Body)...)
		case *ast.ReturnStmt:
			tokens = append(tokens, walkExpr(v.Value)...)
		case *ast.AnnotationStmt:
			tokens = append(tokens, walkExpr(v.Expr)...)
		}
	}
	return tokens
}

func walkExpr(e ast.Expr) []SemanticToken {
	var tokens []SemanticToken
	switch v := e.(type) {
	case *ast.IntLit:
		tokens = append(tokens, makeToken(v.Pos, "", "number", 0)...)
	case *ast.VarExpr:
		tokens = append(tokens, makeToken(v.Pos, v.Name, "variable", 0)...)
	case *ast.ReturnVarExpr:
		tokens = append(tokens, makeToken(v.Pos, ast.ReturnVarName, "keyword", 0)...)
	case *ast.UnaryExpr:
		tokens = append(tokens, walkExpr(v.Value)...)
	case *ast.BinaryExpr:
		tokens = append(tokens, walkExpr(v.Left)...)
		tokens = append(tokens, walkExpr(v.Right)...)
	}
	return tokens
}

const declMod = 1 // bit 0: "declaration" (first entry of SemanticTokenModifiers)

func makeToken(pos ast.Position, name, tokenType string, modifiers int) []SemanticToken {
	length := len(name)
	if length == 0 {
		length = 1
	}
	return []SemanticToken{{
		Line:           uint32(pos.Line - 1),
		StartChar:      uint32(pos.Column - 1),
		Length:         uint32(length),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: modifiers,
	}}
}

func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return -1
}

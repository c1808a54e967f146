package check

import (
	"tplverify/internal/ast"
	"tplverify/internal/errors"
)

// checkReturnCoverage verifies that every syntactic path through fn's body
// ends in a RETURN. A WHILE loop never guarantees return on its own (its
// body may execute zero times), so the statement list after a WHILE is
// still required to cover return on its own.
func checkReturnCoverage(fn *ast.Function) []errors.CompilerError {
	if stmtsReturn(fn.Body) {
		return nil
	}
	return []errors.CompilerError{mkErr(errors.ErrorMissingReturnStatement,
		"function \""+fn.Name+"\" has a syntactic path with no RETURN statement", fn.Pos)}
}

// stmtsReturn reports whether every path through stmts ends in a RETURN.
func stmtsReturn(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		switch v := s.(type) {
		case *ast.ReturnStmt:
			return true
		case *ast.IfStmt:
			if stmtsReturn(v.Then) && stmtsReturn(v.Else) {
				return true
			}
		}
	}
	return false
}

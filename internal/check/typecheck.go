package check

import (
	"fmt"

	"tplverify/internal/ast"
	"tplverify/internal/errors"
)

// resolveTypes threads a symbol table through a function's annotations and
// body, assigning a resolved DataType to every VarExpr/ReturnVarExpr node
// and validating that every operator's operands match its signature
// (InvalidExpressionType on mismatch). This is the single place DataType
// gets attached to a variable reference; the parser leaves it UNTYPED.
func resolveTypes(fn *ast.Function) []errors.CompilerError {
	syms := ast.SymbolTable{}
	for _, p := range fn.Params {
		syms[p.Name] = p.Type
	}

	var errs []errors.CompilerError
	if fn.Precondition != nil {
		_, e := resolveExpr(fn.Precondition.Expr, syms, fn)
		errs = append(errs, e...)
	}
	if fn.Postcondition != nil {
		_, e := resolveExpr(fn.Postcondition.Expr, syms, fn)
		errs = append(errs, e...)
	}
	errs = append(errs, resolveStmts(fn.Body, syms, fn)...)
	return errs
}

func cloneSyms(syms ast.SymbolTable) ast.SymbolTable {
	out := make(ast.SymbolTable, len(syms))
	for k, v := range syms {
		out[k] = v
	}
	return out
}

func resolveStmts(stmts []ast.Stmt, syms ast.SymbolTable, fn *ast.Function) []errors.CompilerError {
	var errs []errors.CompilerError

	for _, s := range stmts {
		switch v := s.(type) {
		case *ast.DeclStmt:
			syms[v.Name] = v.Type

		case *ast.AssignStmt:
			declared := syms.Lookup(v.Name)
			valType, e := resolveExpr(v.Value, syms, fn)
			errs = append(errs, e...)
			if declared == ast.UNTYPED {
				errs = append(errs, mkErr(errors.ErrorInvalidExpressionType,
					fmt.Sprintf("assignment to undeclared variable %q", v.Name), v.Pos))
			} else if valType != ast.UNTYPED && valType != declared {
				errs = append(errs, mkErr(errors.ErrorInvalidExpressionType,
					fmt.Sprintf("cannot assign %s value to %s variable %q", valType, declared, v.Name), v.Pos))
			}

		case *ast.AssumeStmt:
			t, e := resolveExpr(v.Cond, syms, fn)
			errs = append(errs, e...)
			if t != ast.BOOL && t != ast.UNTYPED {
				errs = append(errs, mkErr(errors.ErrorInvalidExpressionType, "ASSUME requires a BOOL expression", v.Pos))
			}

		case *ast.IfStmt:
			t, e := resolveExpr(v.Cond, syms, fn)
			errs = append(errs, e...)
			if t != ast.BOOL && t != ast.UNTYPED {
				errs = append(errs, mkErr(errors.ErrorInvalidExpressionType, "IF condition must be BOOL", v.Pos))
			}
			errs = append(errs, resolveStmts(v.Then, cloneSyms(syms), fn)...)
			errs = append(errs, resolveStmts(v.Else, cloneSyms(syms), fn)...)

		case *ast.WhileStmt:
			t, e := resolveExpr(v.Cond, syms, fn)
			errs = append(errs, e...)
			if t != ast.BOOL && t != ast.UNTYPED {
				errs = append(errs, mkErr(errors.ErrorInvalidExpressionType, "WHILE condition must be BOOL", v.Pos))
			}
			if v.Invariant != nil {
				it, ie := resolveExpr(v.Invariant.Expr, syms, fn)
				errs = append(errs, ie...)
				if it != ast.BOOL && it != ast.UNTYPED {
					errs = append(errs, mkErr(errors.ErrorLoopAnnotation, "@LOOP invariant must be BOOL", v.Invariant.Pos))
				}
			}
			errs = append(errs, resolveStmts(v.Body, cloneSyms(syms), fn)...)

		case *ast.ReturnStmt:
			t, e := resolveExpr(v.Value, syms, fn)
			errs = append(errs, e...)
			if t != ast.UNTYPED && t != fn.ReturnType {
				errs = append(errs, mkErr(errors.ErrorInvalidExpressionType,
					fmt.Sprintf("RETURN expression has type %s, function returns %s", t, fn.ReturnType), v.Pos))
			}
		}
	}

	return errs
}

func resolveExpr(e ast.Expr, syms ast.SymbolTable, fn *ast.Function) (ast.DataType, []errors.CompilerError) {
	switch v := e.(type) {
	case *ast.IntLit:
		return ast.INT, nil

	case *ast.BoolLit:
		return ast.BOOL, nil

	case *ast.VarExpr:
		t := syms.Lookup(v.Name)
		var errs []errors.CompilerError
		if t == ast.UNTYPED {
			errs = append(errs, mkErr(errors.ErrorInvalidExpressionType,
				fmt.Sprintf("undeclared variable %q", v.Name), v.Pos))
		}
		v.Type = t
		return t, errs

	case *ast.ReturnVarExpr:
		v.Type = fn.ReturnType
		return fn.ReturnType, nil

	case *ast.UnaryExpr:
		vt, errs := resolveExpr(v.Value, syms, fn)
		switch v.Op {
		case "-":
			if vt != ast.INT && vt != ast.UNTYPED {
				errs = append(errs, mkErr(errors.ErrorInvalidExpressionType, "unary '-' requires an INT operand", v.Pos))
			}
			return ast.INT, errs
		case "!":
			if vt != ast.BOOL && vt != ast.UNTYPED {
				errs = append(errs, mkErr(errors.ErrorInvalidExpressionType, "'!' requires a BOOL operand", v.Pos))
			}
			return ast.BOOL, errs
		default:
			return ast.UNTYPED, errs
		}

	case *ast.BinaryExpr:
		lt, lerrs := resolveExpr(v.Left, syms, fn)
		rt, rerrs := resolveExpr(v.Right, syms, fn)
		errs := append(lerrs, rerrs...)

		switch {
		case ast.IsArithmeticOp(v.Op):
			if (lt != ast.INT && lt != ast.UNTYPED) || (rt != ast.INT && rt != ast.UNTYPED) {
				errs = append(errs, mkErr(errors.ErrorInvalidExpressionType,
					fmt.Sprintf("'%s' requires INT operands", v.Op), v.Pos))
			}
			return ast.INT, errs

		case ast.IsComparisonOp(v.Op):
			if lt != ast.UNTYPED && rt != ast.UNTYPED && lt != rt {
				errs = append(errs, mkErr(errors.ErrorInvalidExpressionType,
					fmt.Sprintf("'%s' requires operands of the same type, got %s and %s", v.Op, lt, rt), v.Pos))
			}
			return ast.BOOL, errs

		case ast.IsBooleanOp(v.Op), ast.IsImpliesOp(v.Op):
			if (lt != ast.BOOL && lt != ast.UNTYPED) || (rt != ast.BOOL && rt != ast.UNTYPED) {
				errs = append(errs, mkErr(errors.ErrorInvalidExpressionType,
					fmt.Sprintf("'%s' requires BOOL operands", v.Op), v.Pos))
			}
			return ast.BOOL, errs

		default:
			return ast.UNTYPED, errs
		}

	case *ast.BadExpr:
		return ast.UNTYPED, nil

	default:
		return ast.UNTYPED, nil
	}
}

package check

import (
	"fmt"

	"tplverify/internal/ast"
	"tplverify/internal/errors"
)

// checkAnnotations extracts the header precondition/postcondition pair,
// attaches every loop's preceding @LOOP annotation as its invariant, and
// rejects any annotation found outside those two positions.
func checkAnnotations(fn *ast.Function) []errors.CompilerError {
	var errs []errors.CompilerError

	i := 0
	for i < len(fn.Body) {
		if _, ok := fn.Body[i].(*ast.DeclStmt); !ok {
			break
		}
		i++
	}

	if i >= len(fn.Body) {
		return append(errs, mkErr(errors.ErrorPreCondition, "missing precondition", fn.Pos))
	}
	pre, ok := fn.Body[i].(*ast.AnnotationStmt)
	if !ok || pre.Kind != ast.Pre {
		return append(errs, mkErr(errors.ErrorPreCondition, "missing precondition", fn.Body[i].NodePos()))
	}
	i++

	if i >= len(fn.Body) {
		return append(errs, mkErr(errors.ErrorPostConditionMissing, "missing postcondition", fn.Pos))
	}
	post, ok := fn.Body[i].(*ast.AnnotationStmt)
	if !ok || post.Kind != ast.Post {
		return append(errs, mkErr(errors.ErrorPostConditionMissing, "missing postcondition", fn.Body[i].NodePos()))
	}
	i++

	fn.Precondition = pre
	fn.Postcondition = post

	errs = append(errs, validateAnnotationScope(pre, fn, false)...)
	errs = append(errs, validateAnnotationScope(post, fn, true)...)

	leadingDecls := fn.Body[:i-2]
	rest, loopErrs := attachLoopInvariants(fn.Body[i:])
	errs = append(errs, loopErrs...)

	fn.Body = append(append([]ast.Stmt{}, leadingDecls...), rest...)

	return errs
}

// attachLoopInvariants walks one statement list (recursing into If/While
// bodies), extracting each @LOOP annotation that immediately precedes a
// WHILE and attaching it as that WHILE's invariant. Any other annotation
// found here — another @LOOP with no following WHILE, or a stray @PRE/@POST
// — is a structural error.
func attachLoopInvariants(stmts []ast.Stmt) ([]ast.Stmt, []errors.CompilerError) {
	var out []ast.Stmt
	var errs []errors.CompilerError

	idx := 0
	for idx < len(stmts) {
		s := stmts[idx]

		if ann, ok := s.(*ast.AnnotationStmt); ok {
			switch ann.Kind {
			case ast.Loop:
				if idx+1 < len(stmts) {
					if w, ok2 := stmts[idx+1].(*ast.WhileStmt); ok2 {
						body, bodyErrs := attachLoopInvariants(w.Body)
						errs = append(errs, bodyErrs...)
						w.Body = body
						w.Invariant = ann
						out = append(out, w)
						idx += 2
						continue
					}
				}
				errs = append(errs, mkErr(errors.ErrorAnnotationWithNoWhileLoop,
					"@LOOP annotation is not immediately followed by a WHILE loop", ann.Pos))
				idx++
				continue
			case ast.Pre:
				errs = append(errs, mkErr(errors.ErrorPreCondition,
					"precondition may only appear once, at the start of the function", ann.Pos))
				idx++
				continue
			case ast.Post:
				errs = append(errs, mkErr(errors.ErrorPostCondition,
					"postcondition may only appear once, immediately after the precondition", ann.Pos))
				idx++
				continue
			}
		}

		if w, ok := s.(*ast.WhileStmt); ok {
			errs = append(errs, mkErr(errors.ErrorWhileLoopWithNoAnnotation,
				"WHILE loop with no preceding @LOOP annotation", w.Pos))
			body, bodyErrs := attachLoopInvariants(w.Body)
			errs = append(errs, bodyErrs...)
			w.Body = body
			out = append(out, w)
			idx++
			continue
		}

		if iff, ok := s.(*ast.IfStmt); ok {
			thenBody, thenErrs := attachLoopInvariants(iff.Then)
			elseBody, elseErrs := attachLoopInvariants(iff.Else)
			errs = append(errs, thenErrs...)
			errs = append(errs, elseErrs...)
			iff.Then = thenBody
			iff.Else = elseBody
			out = append(out, iff)
			idx++
			continue
		}

		out = append(out, s)
		idx++
	}

	return out, errs
}

// validateAnnotationScope enforces that pre/post conditions reference only
// the function's formal parameters (post may additionally reference rv;
// pre may not reference rv at all).
func validateAnnotationScope(ann *ast.AnnotationStmt, fn *ast.Function, allowReturnVar bool) []errors.CompilerError {
	allowed := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		allowed[p.Name] = true
	}

	code := errors.ErrorPreCondition
	if allowReturnVar {
		code = errors.ErrorPostCondition
	}

	var errs []errors.CompilerError
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		switch v := e.(type) {
		case *ast.VarExpr:
			if !allowed[v.Name] {
				errs = append(errs, mkErr(code,
					fmt.Sprintf("%s references out-of-scope variable %q", ann.Kind, v.Name), v.Pos))
			}
		case *ast.ReturnVarExpr:
			if !allowReturnVar {
				errs = append(errs, mkErr(errors.ErrorPreCondition, "precondition must not reference rv", v.Pos))
			}
		case *ast.UnaryExpr:
			walk(v.Value)
		case *ast.BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		}
	}
	walk(ann.Expr)
	return errs
}

func mkErr(code, message string, pos ast.Position) errors.CompilerError {
	return errors.CompilerError{Level: errors.Error, Code: code, Message: message, Position: pos}
}

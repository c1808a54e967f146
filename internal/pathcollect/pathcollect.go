// Package pathcollect enumerates the basic paths of a well-formed function:
// straight-line fragments that begin and end on an annotation (the
// function's precondition/postcondition or a loop invariant), with nothing
// but Assign/Assume statements in between.
package pathcollect

import (
	"fmt"

	"tplverify/internal/ast"
	"tplverify/internal/errors"
)

// Path is a basic path: Elements[0] and Elements[len-1] are always
// *ast.AnnotationStmt; everything in between is *ast.AssignStmt or
// *ast.AssumeStmt (or, at the second-to-last position, *ast.ReturnStmt —
// the VC generator rewrites it before use).
type Path struct {
	Elements []ast.Stmt
}

// Precondition returns the annotation that opens the path.
func (p Path) Precondition() *ast.AnnotationStmt {
	return p.Elements[0].(*ast.AnnotationStmt)
}

// Postcondition returns the annotation that closes the path.
func (p Path) Postcondition() *ast.AnnotationStmt {
	return p.Elements[len(p.Elements)-1].(*ast.AnnotationStmt)
}

// context tracks two things threaded through the recursion: closing, what
// an empty statement list closes onto (the enclosing loop's invariant
// inside a while body, the function's postcondition otherwise), and
// fnPost, the function's postcondition itself — constant throughout the
// whole traversal, since a Return always closes onto it regardless of how
// deeply nested inside while bodies it is.
type context struct {
	closing *ast.AnnotationStmt
	fnPost  *ast.AnnotationStmt
}

// Collect enumerates every basic path through fn's body. fn must already
// have passed the well-formedness checker: Precondition/Postcondition are
// set and every WhileStmt carries its Invariant.
func Collect(fn *ast.Function) ([]Path, []errors.CompilerError) {
	start := Path{Elements: []ast.Stmt{fn.Precondition}}
	ctx := context{closing: fn.Postcondition, fnPost: fn.Postcondition}
	return walk(start, fn.Body, ctx)
}

func cloneAppend(path Path, stmts ...ast.Stmt) Path {
	out := make([]ast.Stmt, len(path.Elements), len(path.Elements)+len(stmts))
	copy(out, path.Elements)
	out = append(out, stmts...)
	return Path{Elements: out}
}

func concatTail(head []ast.Stmt, tail []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(head)+len(tail))
	out = append(out, head...)
	out = append(out, tail...)
	return out
}

func negate(e ast.Expr) ast.Expr {
	return &ast.UnaryExpr{Pos: e.NodePos(), EndPos: e.NodeEndPos(), Op: "!", Value: e}
}

// walk recursively consumes remaining, extending path, until it is closed
// by an annotation (the cut point reached at the end of this straight-line
// fragment). It returns every completed path discovered along the way.
func walk(path Path, remaining []ast.Stmt, ctx context) ([]Path, []errors.CompilerError) {
	if len(remaining) == 0 {
		return []Path{cloneAppend(path, ctx.closing)}, nil
	}

	head, tail := remaining[0], remaining[1:]

	switch s := head.(type) {
	case *ast.DeclStmt:
		return walk(path, tail, ctx)

	case *ast.AssignStmt, *ast.AssumeStmt:
		return walk(cloneAppend(path, s), tail, ctx)

	case *ast.IfStmt:
		thenPath := cloneAppend(path, &ast.AssumeStmt{Pos: s.Cond.NodePos(), Cond: s.Cond})
		elsePath := cloneAppend(path, &ast.AssumeStmt{Pos: s.Cond.NodePos(), Cond: negate(s.Cond)})

		thenPaths, thenErrs := walk(thenPath, concatTail(s.Then, tail), ctx)
		elsePaths, elseErrs := walk(elsePath, concatTail(s.Else, tail), ctx)

		paths := append(thenPaths, elsePaths...)
		errs := append(thenErrs, elseErrs...)
		return paths, errs

	case *ast.WhileStmt:
		entry := cloneAppend(path, s.Invariant)

		bodySeed := Path{Elements: []ast.Stmt{s.Invariant, &ast.AssumeStmt{Pos: s.Cond.NodePos(), Cond: s.Cond}}}
		bodyCtx := context{closing: s.Invariant, fnPost: ctx.fnPost}
		bodyPaths, bodyErrs := walk(bodySeed, s.Body, bodyCtx)

		exitSeed := Path{Elements: []ast.Stmt{s.Invariant, &ast.AssumeStmt{Pos: s.Cond.NodePos(), Cond: negate(s.Cond)}}}
		exitPaths, exitErrs := walk(exitSeed, tail, ctx)

		paths := append([]Path{entry}, bodyPaths...)
		paths = append(paths, exitPaths...)
		errs := append(bodyErrs, exitErrs...)
		return paths, errs

	case *ast.ReturnStmt:
		return []Path{cloneAppend(path, s, ctx.fnPost)}, nil

	case *ast.AnnotationStmt:
		return nil, []errors.CompilerError{{
			Level:    errors.Error,
			Code:     errors.ErrorAnnotationWithNoWhileLoop,
			Message:  fmt.Sprintf("unexpected %s annotation mid-path", s.Kind),
			Position: s.Pos,
		}}

	default:
		return nil, nil
	}
}

// Package vcgen turns a basic path into a single verification condition by
// walking the path backward, threading a post-formula through each
// Assign (capture-free functional substitution) and Assume (implication)
// it crosses.
package vcgen

import (
	"fmt"

	"tplverify/internal/ast"
	"tplverify/internal/pathcollect"
)

// VC is one basic path's verification condition: Formula is the closed
// boolean expression whose validity (UNSAT of its negation) certifies the
// path. Path is kept alongside for diagnostics/tracing.
type VC struct {
	Path    pathcollect.Path
	Formula ast.Expr
}

// Generate produces the VC for a single basic path, per spec.md §4.3.
// Elements[0] is the opening annotation, Elements[len-1] the closing one;
// everything strictly between is Assign/Assume, except that the element
// immediately before the close may be a Return, which is rewritten to an
// assignment to rv before the backward walk begins.
func Generate(p pathcollect.Path) (VC, error) {
	elems := p.Elements
	if len(elems) < 2 {
		return VC{}, fmt.Errorf("vcgen: path has fewer than two elements")
	}

	body := make([]ast.Stmt, len(elems)-2)
	copy(body, elems[1:len(elems)-1])

	if len(body) > 0 {
		if ret, ok := body[len(body)-1].(*ast.ReturnStmt); ok {
			body[len(body)-1] = &ast.AssignStmt{
				Pos: ret.Pos, EndPos: ret.EndPos,
				Name:  ast.ReturnVarName,
				Value: ret.Value,
			}
		}
	}

	phi := p.Postcondition().Expr

	for i := len(body) - 1; i >= 0; i-- {
		switch s := body[i].(type) {
		case *ast.AssignStmt:
			phi = substitute(phi, s.Name, s.Value)
		case *ast.AssumeStmt:
			phi = &ast.BinaryExpr{Op: "=>", Left: s.Cond, Right: phi}
		default:
			return VC{}, fmt.Errorf("vcgen: unexpected %T inside basic path body", s)
		}
	}

	vc := &ast.BinaryExpr{Op: "=>", Left: p.Precondition().Expr, Right: phi}
	return VC{Path: p, Formula: vc}, nil
}

// GenerateAll runs Generate over every path, collecting the first error
// (a malformed path is a bug in the collector, not a verification
// failure, so it aborts rather than being folded into a verdict).
func GenerateAll(paths []pathcollect.Path) ([]VC, error) {
	vcs := make([]VC, 0, len(paths))
	for _, p := range paths {
		vc, err := Generate(p)
		if err != nil {
			return nil, err
		}
		vcs = append(vcs, vc)
	}
	return vcs, nil
}

// substitute returns a new expression tree equal to e with every free
// occurrence of variable name (as a VarExpr, or as ReturnVarExpr when name
// is "rv") replaced by replacement. It never mutates e: every BinaryExpr/
// UnaryExpr node on the substitution path is rebuilt, matching the
// persistent-construction mandate — the source path's statements remain
// reusable across every other basic path's VC.
func substitute(e ast.Expr, name string, replacement ast.Expr) ast.Expr {
	switch v := e.(type) {
	case *ast.IntLit, *ast.BoolLit:
		return e

	case *ast.VarExpr:
		if v.Name == name {
			return replacement
		}
		return e

	case *ast.ReturnVarExpr:
		if name == ast.ReturnVarName {
			return replacement
		}
		return e

	case *ast.UnaryExpr:
		return &ast.UnaryExpr{Pos: v.Pos, EndPos: v.EndPos, Op: v.Op, Value: substitute(v.Value, name, replacement)}

	case *ast.BinaryExpr:
		return &ast.BinaryExpr{
			Pos: v.Pos, EndPos: v.EndPos, Op: v.Op,
			Left:  substitute(v.Left, name, replacement),
			Right: substitute(v.Right, name, replacement),
		}

	default:
		return e
	}
}

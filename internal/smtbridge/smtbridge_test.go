package smtbridge

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"tplverify/internal/ast"
)

func TestSerializeExprOperators(t *testing.T) {
	plus := &ast.BinaryExpr{Op: "+", Left: &ast.IntLit{Value: 1}, Right: &ast.IntLit{Value: 2}}
	assert.Equal(t, "(+ 1 2)", serializeExpr(plus))

	eq := &ast.BinaryExpr{Op: "==", Left: &ast.IntLit{Value: 1}, Right: &ast.IntLit{Value: 2}}
	assert.Equal(t, "(= 1 2)", serializeExpr(eq))

	neq := &ast.BinaryExpr{Op: "!=", Left: &ast.IntLit{Value: 1}, Right: &ast.IntLit{Value: 2}}
	assert.Equal(t, "(not (= 1 2))", serializeExpr(neq))

	and := &ast.BinaryExpr{Op: "^", Left: &ast.BoolLit{Value: true}, Right: &ast.BoolLit{Value: false}}
	assert.Equal(t, "(and true false)", serializeExpr(and))

	or := &ast.BinaryExpr{Op: "v", Left: &ast.BoolLit{Value: true}, Right: &ast.BoolLit{Value: false}}
	assert.Equal(t, "(or true false)", serializeExpr(or))

	implies := &ast.BinaryExpr{Op: "=>", Left: &ast.BoolLit{Value: true}, Right: &ast.BoolLit{Value: false}}
	assert.Equal(t, "(=> true false)", serializeExpr(implies))

	neg := &ast.UnaryExpr{Op: "-", Value: &ast.IntLit{Value: 5}}
	assert.Equal(t, "(- 5)", serializeExpr(neg))

	not := &ast.UnaryExpr{Op: "!", Value: &ast.BoolLit{Value: true}}
	assert.Equal(t, "(not true)", serializeExpr(not))
}

func TestCollectDeclsGathersVarsAndReturnVar(t *testing.T) {
	e := &ast.BinaryExpr{
		Op:   "==",
		Left: &ast.ReturnVarExpr{Type: ast.INT},
		Right: &ast.BinaryExpr{
			Op:    "+",
			Left:  &ast.VarExpr{Name: "a", Type: ast.INT},
			Right: &ast.VarExpr{Name: "b", Type: ast.INT},
		},
	}
	decls := make(map[string]ast.DataType)
	collectDecls(e, decls)

	assert.Equal(t, ast.INT, decls["rv"])
	assert.Equal(t, ast.INT, decls["a"])
	assert.Equal(t, ast.INT, decls["b"])
	assert.Len(t, decls, 3)
}

func TestSerializeQueryDeclaresAndNegates(t *testing.T) {
	formula := &ast.BinaryExpr{Op: ">=", Left: &ast.VarExpr{Name: "x", Type: ast.INT}, Right: &ast.IntLit{Value: 0}}
	script := serializeQuery(formula)

	assert.Contains(t, script, "(declare-const x Int)")
	assert.Contains(t, script, "(assert (not (>= x 0)))")
	assert.Contains(t, script, "(check-sat)")
	assert.Contains(t, script, "(get-model)")
}

func TestParseResponseUnsatIsValid(t *testing.T) {
	v := parseResponse("unsat\n")
	assert.True(t, v.Valid)
	assert.Nil(t, v.Model)
}

func TestParseResponseSatExtractsModel(t *testing.T) {
	output := "sat\n((define-fun x () Int (- 3))\n (define-fun rv () Int 0))\n"
	v := parseResponse(output)
	assert.False(t, v.Valid)
	assert.Equal(t, "-3", v.Model["x"])
	assert.Equal(t, "0", v.Model["rv"])
}

func TestParseResponseUnknownIsInvalidWithNoModel(t *testing.T) {
	v := parseResponse("unknown\n")
	assert.False(t, v.Valid)
	assert.Nil(t, v.Model)
}

func TestDecideRunsAgainstRealZ3IfAvailable(t *testing.T) {
	if _, err := exec.LookPath("z3"); err != nil {
		t.Skip("z3 binary not available in this environment")
	}

	formula := &ast.BinaryExpr{
		Op:   "=>",
		Left: &ast.BinaryExpr{Op: ">=", Left: &ast.VarExpr{Name: "x", Type: ast.INT}, Right: &ast.VarExpr{Name: "x", Type: ast.INT}},
		Right: &ast.BinaryExpr{
			Op:    "==",
			Left:  &ast.VarExpr{Name: "x", Type: ast.INT},
			Right: &ast.VarExpr{Name: "x", Type: ast.INT},
		},
	}

	v, err := Decide(context.Background(), DefaultConfig(), formula)
	assert.NoError(t, err)
	assert.True(t, v.Valid, "x == x is a tautology regardless of x")
}

package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"tplverify/internal/ast"
	"tplverify/internal/errors"
	"tplverify/internal/parser"
)

func parseOK(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, parseErrs, scanErrs := parser.ParseSource("test.tpl", source)
	assert.Empty(t, scanErrs)
	assert.Empty(t, parseErrs)
	return prog
}

func TestCheckValidAbsFunction(t *testing.T) {
	source := `INT FUNCTION abs(INT x) {
		@PRE TRUE;
		@POST rv >= 0;
		IF (x < 0) {
			RETURN -x;
		} ELSE {
			RETURN x;
		}
	}`
	p := parseOK(t, source)
	errs := Check(p, "test.tpl")
	assert.Empty(t, errs)
}

func TestCheckMissingPostconditionIsFatal(t *testing.T) {
	source := `INT FUNCTION f() {
		@PRE TRUE;
		RETURN 0;
	}`
	p := parseOK(t, source)
	errs := Check(p, "test.tpl")
	assert.NotEmpty(t, errs)
	assert.Equal(t, errors.ErrorPostConditionMissing, errs[0].Code)
}

func TestCheckMissingReturnOnOnePath(t *testing.T) {
	source := `INT FUNCTION f(INT x) {
		@PRE TRUE;
		@POST TRUE;
		IF (x > 0) {
			RETURN x;
		} ELSE {
			x := 0;
		}
	}`
	p := parseOK(t, source)
	errs := Check(p, "test.tpl")
	assert.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if e.Code == errors.ErrorMissingReturnStatement {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckLoopAnnotationAttachment(t *testing.T) {
	source := `INT FUNCTION sum(INT n) {
		DECLARE(INT i, INT s);
		@PRE n >= 0;
		@POST rv >= 0;
		i := 0;
		s := 0;
		@LOOP s >= 0;
		WHILE (i < n) {
			s := s + i;
			i := i + 1;
		}
		RETURN s;
	}`
	p := parseOK(t, source)
	errs := Check(p, "test.tpl")
	assert.Empty(t, errs)

	decl0, ok := p.Functions[0].Body[0].(*ast.DeclStmt)
	assert.True(t, ok, "DECLARE-block locals must survive annotation extraction")
	assert.Equal(t, "i", decl0.Name)
}

func TestCheckLoopWithNoAnnotationIsError(t *testing.T) {
	source := `INT FUNCTION f(INT n) {
		@PRE n >= 0;
		@POST TRUE;
		WHILE (n > 0) {
			n := n - 1;
		}
		RETURN n;
	}`
	p := parseOK(t, source)
	errs := Check(p, "test.tpl")
	assert.NotEmpty(t, errs)
	assert.Equal(t, errors.ErrorWhileLoopWithNoAnnotation, errs[0].Code)
}

func TestCheckTypeMismatchInAssignment(t *testing.T) {
	source := `INT FUNCTION f(INT x, BOOL b) {
		@PRE TRUE;
		@POST TRUE;
		x := b;
		RETURN x;
	}`
	p := parseOK(t, source)
	errs := Check(p, "test.tpl")
	assert.NotEmpty(t, errs)
	assert.Equal(t, errors.ErrorInvalidExpressionType, errs[0].Code)
}

func TestCheckPreconditionCannotReferenceRv(t *testing.T) {
	source := `INT FUNCTION f() {
		@PRE rv >= 0;
		@POST rv >= 0;
		RETURN 0;
	}`
	p := parseOK(t, source)
	errs := Check(p, "test.tpl")
	assert.NotEmpty(t, errs)
}

func TestCheckDuplicateFunctionNames(t *testing.T) {
	source := `INT FUNCTION f() {
		@PRE TRUE;
		@POST TRUE;
		RETURN 0;
	}
	INT FUNCTION f() {
		@PRE TRUE;
		@POST TRUE;
		RETURN 1;
	}`
	p := parseOK(t, source)
	errs := Check(p, "test.tpl")
	assert.NotEmpty(t, errs)
	assert.Equal(t, errors.ErrorAnnotationFunc, errs[0].Code)
}

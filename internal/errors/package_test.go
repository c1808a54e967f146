package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"tplverify/internal/ast"
)

func TestFormatErrorIncludesCodeAndCaret(t *testing.T) {
	source := "INT FUNCTION f() {\n  RETURN 0;\n}\n"
	reporter := NewErrorReporter("test.tpl", source)

	err := CompilerError{
		Level:    Error,
		Code:     ErrorMissingReturnStatement,
		Message:  "missing return",
		Position: ast.Position{Line: 2, Column: 3},
	}

	out := reporter.FormatError(err)
	assert.Contains(t, out, ErrorMissingReturnStatement)
	assert.Contains(t, out, "missing return")
	assert.Contains(t, out, "test.tpl:2:3")
	assert.Contains(t, out, "^")
}

func TestFormatVerdictValid(t *testing.T) {
	reporter := NewErrorReporter("test.tpl", "")
	out := reporter.FormatVerdict("abs", "(x >= 0) => (x >= 0)", true, nil)
	assert.Contains(t, out, "valid")
	assert.Contains(t, out, "abs")
	assert.NotContains(t, out, "counter-model")
}

func TestFormatVerdictInvalidShowsModel(t *testing.T) {
	reporter := NewErrorReporter("test.tpl", "")
	out := reporter.FormatVerdict("abs", "(x >= 0) => (x >= 0)", false, map[string]string{"x": "-3"})
	assert.Contains(t, out, "invalid")
	assert.Contains(t, out, "counter-model")
	assert.True(t, strings.Contains(out, "x = -3"))
}

func TestErrorCodeCategories(t *testing.T) {
	assert.Equal(t, "Loop Annotation", GetErrorCategory(ErrorLoopAnnotation))
	assert.Equal(t, "Annotation Placement", GetErrorCategory(ErrorPreCondition))
	assert.Equal(t, "Return Coverage / Typing", GetErrorCategory(ErrorMissingReturnStatement))
	assert.Equal(t, "Syntax", GetErrorCategory(ErrorParse))
}

func TestGetErrorDescriptionKnownAndUnknown(t *testing.T) {
	assert.NotEqual(t, "unknown error code", GetErrorDescription(ErrorInvalidExpressionType))
	assert.Equal(t, "unknown error code", GetErrorDescription("E9999"))
}

// Package check implements the well-formedness checker: structural and
// scope validation of a parsed Program before it is handed to the path
// collector. It runs three independent passes in order, matching the
// design in the annotation-placement and return-coverage rules: top-level
// shape, annotation placement (including loop-invariant attachment,
// followed by type resolution), and return coverage. Any pass producing
// errors is fatal for the whole file.
package check

import (
	"fmt"

	"tplverify/internal/ast"
	"tplverify/internal/errors"
)

// Check runs all three well-formedness passes over prog and returns every
// structural error found. A non-empty result means prog must not be
// passed to the path collector.
func Check(prog *ast.Program, filename string) []errors.CompilerError {
	var errs []errors.CompilerError

	errs = append(errs, checkTopLevelShape(prog)...)
	if len(errs) > 0 {
		return errs
	}

	for _, fn := range prog.Functions {
		errs = append(errs, checkAnnotations(fn)...)
	}
	if len(errs) > 0 {
		return errs
	}

	for _, fn := range prog.Functions {
		errs = append(errs, resolveTypes(fn)...)
	}
	if len(errs) > 0 {
		return errs
	}

	for _, fn := range prog.Functions {
		errs = append(errs, checkReturnCoverage(fn)...)
	}

	return errs
}

func checkTopLevelShape(prog *ast.Program) []errors.CompilerError {
	var errs []errors.CompilerError
	seen := make(map[string]bool, len(prog.Functions))

	for _, fn := range prog.Functions {
		if seen[fn.Name] {
			errs = append(errs, errors.CompilerError{
				Level:    errors.Error,
				Code:     errors.ErrorAnnotationFunc,
				Message:  fmt.Sprintf("duplicate function declaration %q", fn.Name),
				Position: fn.Pos,
			})
			continue
		}
		seen[fn.Name] = true
	}

	return errs
}

// Package verifier is the orchestrator: for each function, in declaration
// order, it runs the well-formedness checker, the path collector, the VC
// generator, and the SMT bridge, then aggregates per-path verdicts into a
// per-function and overall program verdict.
package verifier

import (
	"context"
	"fmt"

	"tplverify/internal/ast"
	"tplverify/internal/check"
	"tplverify/internal/errors"
	"tplverify/internal/pathcollect"
	"tplverify/internal/smtbridge"
	"tplverify/internal/vcgen"
)

// PathResult is one basic path's verification outcome.
type PathResult struct {
	Path  pathcollect.Path
	VC    ast.Expr
	Valid bool
	Model map[string]string
}

// FunctionResult aggregates every path of one function: the function is
// Valid iff every one of its paths is valid.
type FunctionResult struct {
	Name  string
	Paths []PathResult
	Valid bool
}

// ProgramResult aggregates every function of one file: the program is
// Valid iff every function is valid and well-formedness produced no
// structural errors.
type ProgramResult struct {
	Functions []FunctionResult
	Valid     bool
}

// VerifyProgram runs the full pipeline over prog: well-formedness first,
// then, only if that succeeds, path collection, VC generation, and SMT
// discharge for every function in declaration order. A non-empty error
// slice means well-formedness failed and no verification was attempted —
// the well-formedness phase is fatal for the whole file, per spec.md §7.
// Each call runs against freshly parsed state, so there is no global
// symbol-table or checker state to reset between files.
func VerifyProgram(ctx context.Context, prog *ast.Program, filename string, cfg smtbridge.Config) (ProgramResult, []errors.CompilerError) {
	if structuralErrs := check.Check(prog, filename); len(structuralErrs) > 0 {
		return ProgramResult{}, structuralErrs
	}

	var allErrs []errors.CompilerError
	result := ProgramResult{Valid: true}

	for _, fn := range prog.Functions {
		fnResult, errs := verifyFunction(ctx, fn, cfg)
		allErrs = append(allErrs, errs...)
		result.Functions = append(result.Functions, fnResult)
		if !fnResult.Valid {
			result.Valid = false
		}
	}

	return result, allErrs
}

func verifyFunction(ctx context.Context, fn *ast.Function, cfg smtbridge.Config) (FunctionResult, []errors.CompilerError) {
	fr := FunctionResult{Name: fn.Name, Valid: true}

	paths, pathErrs := pathcollect.Collect(fn)
	if len(pathErrs) > 0 {
		fr.Valid = false
		return fr, pathErrs
	}

	vcs, err := vcgen.GenerateAll(paths)
	if err != nil {
		fr.Valid = false
		return fr, []errors.CompilerError{{
			Level:    errors.Error,
			Code:     errors.ErrorParse,
			Message:  fmt.Sprintf("VC generation failed for function %q: %v", fn.Name, err),
			Position: fn.Pos,
		}}
	}

	for _, vc := range vcs {
		verdict, err := smtbridge.Decide(ctx, cfg, vc.Formula)
		if err != nil {
			fr.Valid = false
			fr.Paths = append(fr.Paths, PathResult{Path: vc.Path, VC: vc.Formula, Valid: false})
			continue
		}
		if !verdict.Valid {
			fr.Valid = false
		}
		fr.Paths = append(fr.Paths, PathResult{
			Path:  vc.Path,
			VC:    vc.Formula,
			Valid: verdict.Valid,
			Model: verdict.Model,
		})
	}

	return fr, nil
}

// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"tplverify/internal/ast"
	"tplverify/internal/errors"
	"tplverify/internal/parser"
	"tplverify/internal/smtbridge"
	"tplverify/internal/verifier"
)

func main() {
	z3Path := flag.String("z3-path", "z3", "path to the z3 binary")
	timeout := flag.Duration("timeout", 5*time.Second, "per-query timeout passed to the oracle")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tplverify [flags] <path-to-file.tpl>")
		os.Exit(1)
	}

	path := args[0]
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "tpl" {
		color.Red("input error: %q does not have a .tpl extension", path)
		os.Exit(1)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("input error: failed to read %s: %s", path, err)
		os.Exit(1)
	}

	os.Exit(run(path, string(source), smtbridge.Config{Z3Path: *z3Path, Timeout: *timeout}))
}

func run(path, source string, cfg smtbridge.Config) int {
	reporter := errors.NewErrorReporter(path, source)

	prog, parseErrs, scanErrs := parser.ParseSource(path, source)
	if len(scanErrs) > 0 || len(parseErrs) > 0 {
		for _, e := range scanErrs {
			fmt.Print(reporter.FormatError(errors.CompilerError{
				Level: errors.Error, Code: errors.ErrorParse, Message: e.Message, Position: toASTPosition(path, e.Position),
			}))
		}
		for _, e := range parseErrs {
			fmt.Print(reporter.FormatError(errors.CompilerError{
				Level: errors.Error, Code: errors.ErrorParse, Message: e.Message, Position: toASTPosition(path, e.Position),
			}))
		}
		return 1
	}

	result, structuralErrs := verifier.VerifyProgram(context.Background(), prog, path, cfg)
	if len(structuralErrs) > 0 {
		for _, e := range structuralErrs {
			fmt.Print(reporter.FormatError(e))
		}
		return 1
	}

	for _, fn := range result.Functions {
		for _, p := range fn.Paths {
			for _, s := range p.Path.Elements {
				fmt.Println(s.String())
			}
			fmt.Print(reporter.FormatVerdict(fn.Name, p.VC.String(), p.Valid, p.Model))
		}
	}

	if !result.Valid {
		return 1
	}
	return 0
}

func toASTPosition(filename string, p parser.Position) ast.Position {
	return ast.Position{Filename: filename, Offset: p.Offset, Line: p.Line, Column: p.Column}
}

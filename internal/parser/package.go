package parser

import "tplverify/internal/ast"

// ParseSource scans and parses one source file into a Program. Either
// error slice being non-empty means the returned Program must not be
// passed to the checker: syntax errors are fatal for the whole file.
func ParseSource(path string, source string) (*ast.Program, []ParseError, []ScanError) {
	scanner := NewScanner(source)
	tokens := scanner.ScanTokens()

	p := NewParser(path, tokens)
	program := p.ParseProgram()

	return program, p.errors, scanner.errors
}

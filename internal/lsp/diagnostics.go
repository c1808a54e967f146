package lsp

import (
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"tplverify/internal/errors"
	"tplverify/internal/parser"
	"tplverify/internal/verifier"
)

// ConvertParseErrors transforms parser errors into LSP diagnostics for IDE display.
func ConvertParseErrors(parseErrors []parser.ParseError) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, e := range parseErrors {
		diagnostics = append(diagnostics, positionDiagnostic(e.Position.Line, e.Position.Column, 6,
			protocol.DiagnosticSeverityError, "tplverify-parser", e.Message))
	}
	return diagnostics
}

// ConvertScanErrors transforms scanner errors into LSP diagnostics for IDE display.
func ConvertScanErrors(scanErrors []parser.ScanError) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, e := range scanErrors {
		length := e.Length
		if length == 0 {
			length = 4
		}
		diagnostics = append(diagnostics, positionDiagnostic(e.Position.Line, e.Position.Column, length,
			protocol.DiagnosticSeverityError, "tplverify-scanner", e.Message))
	}
	return diagnostics
}

// ConvertStructuralErrors transforms well-formedness errors (the fatal
// structural channel: AnnotationFuncError, LoopAnnotationError, and so on)
// into LSP diagnostics.
func ConvertStructuralErrors(structuralErrors []errors.CompilerError) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, e := range structuralErrors {
		message := e.Message
		if e.Code != "" {
			message = fmt.Sprintf("%s: %s", e.Code, message)
		}
		diagnostics = append(diagnostics, positionDiagnostic(e.Position.Line, e.Position.Column, 6,
			protocol.DiagnosticSeverityError, "tplverify-check", message))
	}
	return diagnostics
}

// FunctionPosition is the source position of a function's declaration,
// used to anchor verdict diagnostics (a VC has no source span of its own).
type FunctionPosition struct {
	Line, Column int
}

// ConvertVerdicts surfaces every Invalid basic path as a warning
// diagnostic anchored at its owning function's declaration. Valid paths
// produce no diagnostic: verdicts are not a fatal error channel, they are
// reported so the editor shows counter-examples without blocking on them.
func ConvertVerdicts(positions map[string]FunctionPosition, result verifier.ProgramResult) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, fn := range result.Functions {
		pos, ok := positions[fn.Name]
		if !ok {
			continue
		}
		for i, p := range fn.Paths {
			if p.Valid {
				continue
			}
			message := fmt.Sprintf("%s: path %d is invalid: %s", fn.Name, i+1, p.VC.String())
			if len(p.Model) > 0 {
				message += " (counter-model: " + formatModel(p.Model) + ")"
			}
			diagnostics = append(diagnostics, positionDiagnostic(pos.Line, pos.Column, 6,
				protocol.DiagnosticSeverityWarning, "tplverify-verify", message))
		}
	}
	return diagnostics
}

func positionDiagnostic(line, column, span int, severity protocol.DiagnosticSeverity, source, message string) protocol.Diagnostic {
	sev := severity
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line - 1), Character: uint32(column - 1)},
			End:   protocol.Position{Line: uint32(line - 1), Character: uint32(column - 1 + span)},
		},
		Severity: &sev,
		Source:   ptrString(source),
		Message:  message,
	}
}

func formatModel(model map[string]string) string {
	parts := make([]string, 0, len(model))
	for name, value := range model {
		parts = append(parts, name+"="+value)
	}
	return strings.Join(parts, ", ")
}

func ptrString(s string) *string {
	return &s
}

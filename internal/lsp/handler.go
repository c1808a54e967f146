package lsp

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"tplverify/internal/ast"
	"tplverify/internal/parser"
	"tplverify/internal/smtbridge"
	"tplverify/internal/verifier"
)

// Semantic token types and modifiers advertised by the server; indices
// into these slices are encoded into the wire-format token data.
var SemanticTokenTypes = []string{
	"namespace",
	"type",
	"typeParameter",
	"function",
	"variable",
	"parameter",
	"property",
	"keyword",
	"number",
	"operator",
	"modifier",
}

var SemanticTokenModifiers = []string{
	"declaration",
	"definition",
	"readonly",
	"static",
	"deprecated",
	"abstract",
}

// Handler implements the LSP server handlers: it parses, checks, and
// verifies a document on open/change, and reports both structural errors
// and per-path Invalid verdicts as diagnostics.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	asts    map[string]*ast.Program
	cfg     smtbridge.Config
}

// NewHandler creates a Handler that discharges verification conditions
// with cfg.
func NewHandler(cfg smtbridge.Config) *Handler {
	return &Handler{
		content: make(map[string]string),
		asts:    make(map[string]*ast.Program),
		cfg:     cfg,
	}
}

// Initialize responds to the client's initialize request and advertises
// the server's capabilities.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("tplverify-lsp Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("tplverify-lsp Initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("tplverify-lsp Shutdown")
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	diagnostics, err := h.refresh(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to verify document: %w", err)
	}
	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.asts, path)
	return nil
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	diagnostics, err := h.refresh(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to verify document: %w", err)
	}
	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.RLock()
	prog, ok := h.asts[path]
	h.mu.RUnlock()
	if !ok {
		return &protocol.SemanticTokens{}, nil
	}

	tokens := collectSemanticTokens(prog)

	var data []uint32
	var prevLine, prevStart uint32
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}
		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))
		prevLine = token.Line
		prevStart = token.StartChar
	}

	return &protocol.SemanticTokens{Data: data}, nil
}

// refresh re-parses, re-checks, and re-verifies the document at uri,
// replacing any cached AST, and returns the full diagnostic set:
// scanner/parser, structural, and verdict diagnostics are mutually
// exclusive — each later phase only runs once the earlier ones produced no
// errors.
func (h *Handler) refresh(rawURI protocol.DocumentUri) ([]protocol.Diagnostic, error) {
	path, err := uriToPath(rawURI)
	if err != nil {
		return nil, fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	prog, parseErrs, scanErrs := parser.ParseSource(path, string(content))
	if len(scanErrs) > 0 || len(parseErrs) > 0 {
		h.forget(path)
		return append(ConvertScanErrors(scanErrs), ConvertParseErrors(parseErrs)...), nil
	}

	h.mu.Lock()
	h.content[path] = string(content)
	h.asts[path] = prog
	h.mu.Unlock()

	// VerifyProgram runs the well-formedness checker itself and returns its
	// structural errors; checking prog a second time would fail, because
	// the first check strips the header annotations from every body.
	result, verifyErrs := verifier.VerifyProgram(context.Background(), prog, path, h.cfg)
	if len(verifyErrs) > 0 {
		return ConvertStructuralErrors(verifyErrs), nil
	}

	positions := make(map[string]FunctionPosition, len(prog.Functions))
	for _, fn := range prog.Functions {
		positions[fn.Name] = FunctionPosition{Line: fn.Pos.Line, Column: fn.Pos.Column}
	}

	return ConvertVerdicts(positions, result), nil
}

func (h *Handler) forget(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.asts, path)
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}

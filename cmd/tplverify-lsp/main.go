// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
	"tplverify/internal/lsp"
	"tplverify/internal/smtbridge"
)

const lsName = "tplverify"

var (
	version = "0.0.1"
	handler protocol.Handler
)

func main() {
	z3Path := flag.String("z3-path", "z3", "path to the z3 binary")
	timeout := flag.Duration("timeout", 5*time.Second, "per-query timeout passed to the oracle")
	flag.Parse()

	commonlog.Configure(1, nil)

	h := lsp.NewHandler(smtbridge.Config{Z3Path: *z3Path, Timeout: *timeout})

	handler = protocol.Handler{
		Initialize:                     h.Initialize,
		Initialized:                    h.Initialized,
		Shutdown:                       h.Shutdown,
		TextDocumentDidOpen:            h.TextDocumentDidOpen,
		TextDocumentDidClose:           h.TextDocumentDidClose,
		TextDocumentDidChange:          h.TextDocumentDidChange,
		TextDocumentSemanticTokensFull: h.TextDocumentSemanticTokensFull,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Printf("Starting tplverify LSP server (v%s)...\n", version)
	if err := s.RunStdio(); err != nil {
		log.Println("Error starting tplverify LSP server:", err)
		os.Exit(1)
	}
}

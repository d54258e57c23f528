package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

// DocumentationMethod answers like textDocument/hover but leaves out the
// signature block.
const DocumentationMethod = "tshover/documentation"

type Server interface {
	Initialize(context.Context, *ParamInitialize) (*InitializeResult, error)
	Initialized(context.Context, *InitializedParams) error
	SetTrace(context.Context, *SetTraceParams) error
	Shutdown(context.Context) error
	Exit(context.Context) error
	DidOpen(context.Context, *DidOpenTextDocumentParams) error
	DidChange(context.Context, *DidChangeTextDocumentParams) error
	DidClose(context.Context, *DidCloseTextDocumentParams) error
	Hover(context.Context, *HoverParams) (*Hover, error)
	Documentation(context.Context, *HoverParams) (*Hover, error)
}

func buildServerDispatchMap(server Server) handler.Map {
	return handler.Map{
		"$/cancelRequest":        createEmptyResultHandler(cancelRequest),
		"$/setTrace":             createEmptyResultHandler(server.SetTrace),
		"exit":                   createEmptyHandler(server.Exit),
		"initialize":             createHandler(server.Initialize),
		"initialized":            createEmptyResultHandler(server.Initialized),
		"shutdown":               createEmptyHandler(server.Shutdown),
		"textDocument/didChange": createEmptyResultHandler(server.DidChange),
		"textDocument/didClose":  createEmptyResultHandler(server.DidClose),
		"textDocument/didOpen":   createEmptyResultHandler(server.DidOpen),
		"textDocument/hover":     createHandler(server.Hover),
		DocumentationMethod:      createHandler(server.Documentation),
	}
}

// cancelRequest is accepted and ignored; hover requests finish quickly.
func cancelRequest(ctx context.Context, params *CancelParams) error {
	return nil
}

// NewServerServer builds a jrpc2 server dispatching to server. Every request
// context derives from ctx so handlers inherit its logger.
func NewServerServer(ctx context.Context, server Server, opts *jrpc2.ServerOptions) *jrpc2.Server {
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}

	opts.AllowPush = true
	opts.NewContext = func() context.Context {
		return ctx
	}

	return jrpc2.NewServer(buildServerDispatchMap(server), opts)
}

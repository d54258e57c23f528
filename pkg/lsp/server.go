// Package lsp serves hover information over the language server protocol.
package lsp

import (
	"context"
	"sync"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tshover/pkg/document"
	"github.com/walteh/tshover/pkg/hover"
	"github.com/walteh/tshover/pkg/lsp/protocol"
	"github.com/walteh/tshover/pkg/position"
)

var _ protocol.Server = (*Server)(nil)

// DocumentSyncer is implemented by engines that need to see the editor's
// buffer contents rather than what is on disk.
type DocumentSyncer interface {
	OpenFile(ctx context.Context, file, content string) error
	CloseFile(ctx context.Context, file string) error
}

type Server struct {
	id        string
	documents *document.Registry
	provider  *hover.Provider
	syncer    DocumentSyncer
	onExit    func()
	version   string

	mu          sync.Mutex
	initialized bool
	shutdown    bool
	clientName  string
}

type Option func(*Server)

func WithDocumentSyncer(syncer DocumentSyncer) Option {
	return func(s *Server) {
		s.syncer = syncer
	}
}

// WithExitFunc sets what runs when the client sends exit.
func WithExitFunc(f func()) Option {
	return func(s *Server) {
		s.onExit = f
	}
}

func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

func NewServer(documents *document.Registry, provider *hover.Provider, opts ...Option) *Server {
	s := &Server{
		id:        xid.New().String(),
		documents: documents,
		provider:  provider,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (me *Server) ID() string {
	return me.id
}

func (me *Server) Documents() *document.Registry {
	return me.documents
}

func (me *Server) Initialize(ctx context.Context, params *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	me.mu.Lock()
	defer me.mu.Unlock()

	if params.ClientInfo != nil {
		me.clientName = params.ClientInfo.Name
	}

	zerolog.Ctx(ctx).Debug().
		Str("server_id", me.id).
		Str("client", me.clientName).
		Int32("client_pid", params.ProcessID).
		Msg("initializing server")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.Incremental,
			},
			HoverProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "tshover",
			Version: me.version,
		},
	}, nil
}

func (me *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	me.mu.Lock()
	me.initialized = true
	me.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Msg("server initialized")
	return nil
}

func (me *Server) SetTrace(ctx context.Context, params *protocol.SetTraceParams) error {
	zerolog.Ctx(ctx).Debug().Str("value", params.Value).Msg("trace level requested")
	return nil
}

func (me *Server) Shutdown(ctx context.Context) error {
	me.mu.Lock()
	me.shutdown = true
	me.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Msg("server shutting down")
	return nil
}

func (me *Server) Exit(ctx context.Context) error {
	me.mu.Lock()
	clean := me.shutdown
	me.mu.Unlock()

	if !clean {
		zerolog.Ctx(ctx).Warn().Msg("exit received before shutdown")
	}

	if me.onExit != nil {
		// the handler must return before the server can stop
		go me.onExit()
	}
	return nil
}

func (me *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument
	snap := document.NewSnapshot(string(item.URI), item.LanguageID, item.Version, item.Text)
	me.documents.Store(snap)

	zerolog.Ctx(ctx).Debug().Str("uri", string(item.URI)).Int32("version", item.Version).Msg("document opened")

	if me.syncer == nil {
		return nil
	}
	if err := me.syncer.OpenFile(ctx, me.documents.EngineFileID(snap), snap.Text); err != nil {
		return errors.Errorf("syncing opened document %s: %w", item.URI, err)
	}
	return nil
}

func (me *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	snap, ok := me.documents.Get(uri)
	if !ok {
		return errors.Errorf("document not found: %s", uri)
	}

	for _, change := range params.ContentChanges {
		snap = snap.ApplyChange(params.TextDocument.Version, toRange(change.Range), change.Text)
	}
	me.documents.Store(snap)

	zerolog.Ctx(ctx).Trace().
		Str("uri", uri).
		Int32("version", snap.Version).
		Int("changes", len(params.ContentChanges)).
		Msg("document changed")

	if me.syncer == nil {
		return nil
	}
	if err := me.syncer.OpenFile(ctx, me.documents.EngineFileID(snap), snap.Text); err != nil {
		return errors.Errorf("syncing changed document %s: %w", uri, err)
	}
	return nil
}

func (me *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	snap, ok := me.documents.Get(uri)
	me.documents.Delete(uri)

	zerolog.Ctx(ctx).Debug().Str("uri", uri).Msg("document closed")

	if me.syncer == nil || !ok {
		return nil
	}
	if err := me.syncer.CloseFile(ctx, me.documents.EngineFileID(snap)); err != nil {
		return errors.Errorf("syncing closed document %s: %w", uri, err)
	}
	return nil
}

func (me *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	return me.hoverAt(ctx, params, false), nil
}

// Documentation is Hover without the signature block.
func (me *Server) Documentation(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	return me.hoverAt(ctx, params, true), nil
}

func (me *Server) hoverAt(ctx context.Context, params *protocol.HoverParams, documentationOnly bool) *protocol.Hover {
	pos := position.Position{
		Line:      params.Position.Line,
		Character: params.Position.Character,
	}

	res, ok := me.provider.Hover(ctx, string(params.TextDocument.URI), pos, documentationOnly)
	if !ok {
		return nil
	}

	rng := fromRange(res.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKind(res.Content.Kind),
			Value: res.Content.Value,
		},
		Range: &rng,
	}
}

func toRange(r *protocol.Range) *position.Range {
	if r == nil {
		return nil
	}
	return &position.Range{
		Start: position.Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   position.Position{Line: r.End.Line, Character: r.End.Character},
	}
}

func fromRange(r position.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   protocol.Position{Line: r.End.Line, Character: r.End.Character},
	}
}

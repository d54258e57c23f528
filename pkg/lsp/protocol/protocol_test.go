package protocol_test

import (
	"context"
	"sync"
	"testing"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/tshover/pkg/lsp/protocol"
)

type recordingServer struct {
	mu     sync.Mutex
	calls  []string
	opened []protocol.TextDocumentItem
	hover  *protocol.Hover
}

func (me *recordingServer) record(name string) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.calls = append(me.calls, name)
}

func (me *recordingServer) Initialize(ctx context.Context, params *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	me.record("initialize")
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{HoverProvider: true},
	}, nil
}

func (me *recordingServer) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	me.record("initialized")
	return nil
}

func (me *recordingServer) SetTrace(ctx context.Context, params *protocol.SetTraceParams) error {
	me.record("setTrace")
	return nil
}

func (me *recordingServer) Shutdown(ctx context.Context) error {
	me.record("shutdown")
	return nil
}

func (me *recordingServer) Exit(ctx context.Context) error {
	me.record("exit")
	return nil
}

func (me *recordingServer) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	me.mu.Lock()
	me.opened = append(me.opened, params.TextDocument)
	me.mu.Unlock()
	me.record("didOpen")
	return nil
}

func (me *recordingServer) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	me.record("didChange")
	return nil
}

func (me *recordingServer) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	me.record("didClose")
	return nil
}

func (me *recordingServer) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	me.record("hover")
	return me.hover, nil
}

func (me *recordingServer) Documentation(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	me.record("documentation")
	return me.hover, nil
}

func connect(t *testing.T, server protocol.Server) (*protocol.ServerClient, *jrpc2.Client) {
	t.Helper()

	cch, sch := channel.Direct()
	srv := protocol.NewServerServer(context.Background(), server, &jrpc2.ServerOptions{
		RPCLog: &protocol.RPCLogger{Params: true},
	}).Start(sch)
	cli := jrpc2.NewClient(cch, nil)

	t.Cleanup(func() {
		cli.Close()
		srv.Wait()
	})

	return protocol.NewServerClient(cli), cli
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	rec := &recordingServer{}
	client, _ := connect(t, rec)

	res, err := client.Initialize(ctx, &protocol.ParamInitialize{ProcessID: 1})
	require.NoError(t, err)
	assert.True(t, res.Capabilities.HoverProvider)

	require.NoError(t, client.Initialized(ctx, &protocol.InitializedParams{}))
	require.NoError(t, client.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///a.ts", LanguageID: "typescript", Version: 1, Text: "let a = 1"},
	}))

	// requests are answered in order after earlier notifications are handled
	hov, err := client.Hover(ctx, protocol.NewHoverParams("file:///a.ts", protocol.Position{Line: 0, Character: 4}))
	require.NoError(t, err)
	assert.Nil(t, hov)

	require.NoError(t, client.Shutdown(ctx))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"initialize", "initialized", "didOpen", "hover", "shutdown"}, rec.calls)
	require.Len(t, rec.opened, 1)
	assert.Equal(t, "let a = 1", rec.opened[0].Text)
}

func TestHoverResultShape(t *testing.T) {
	ctx := context.Background()
	rec := &recordingServer{hover: &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: "docs"},
		Range:    &protocol.Range{Start: protocol.Position{Line: 1, Character: 2}, End: protocol.Position{Line: 1, Character: 5}},
	}}
	client, cli := connect(t, rec)

	params := protocol.NewHoverParams("file:///a.ts", protocol.Position{Line: 1, Character: 3})

	hov, err := client.Documentation(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, rec.hover, hov)

	rsp, err := cli.Call(ctx, "textDocument/hover", params)
	require.NoError(t, err)
	assert.JSONEq(t, `{"contents":{"kind":"markdown","value":"docs"},"range":{"start":{"line":1,"character":2},"end":{"line":1,"character":5}}}`, rsp.ResultString())
}

func TestMalformedParamsIsParseError(t *testing.T) {
	ctx := context.Background()
	_, cli := connect(t, &recordingServer{})

	_, err := cli.Call(ctx, "textDocument/hover", []int{1, 2})
	require.Error(t, err)

	var rerr *jrpc2.Error
	require.ErrorAs(t, err, &rerr)
	assert.EqualValues(t, -32700, rerr.Code)
}

func TestCancelRequestIsAccepted(t *testing.T) {
	ctx := context.Background()
	rec := &recordingServer{}
	_, cli := connect(t, rec)

	require.NoError(t, cli.Notify(ctx, "$/cancelRequest", &protocol.CancelParams{ID: 3}))
	_, err := cli.Call(ctx, "shutdown", nil)
	require.NoError(t, err)
}

func TestParseMessageTypeFromZerolog(t *testing.T) {
	tests := []struct {
		level string
		want  protocol.MessageType
	}{
		{"error", protocol.Error},
		{"fatal", protocol.Error},
		{"warn", protocol.Warning},
		{"info", protocol.Info},
		{"debug", protocol.Debug},
		{"trace", protocol.Log},
		{"", protocol.Log},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, protocol.ParseMessageTypeFromZerolog(tt.level))
		})
	}
}

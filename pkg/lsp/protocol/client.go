package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
)

var _ Callbacker = (*ServerClient)(nil)

// ServerClient calls a Server over a jrpc2 client connection.
type ServerClient struct {
	client *jrpc2.Client
}

func NewServerClient(client *jrpc2.Client) *ServerClient {
	return &ServerClient{client: client}
}

func (c *ServerClient) Notify(ctx context.Context, method string, params interface{}) error {
	return c.client.Notify(ctx, method, params)
}

func (c *ServerClient) Callback(ctx context.Context, method string, params interface{}) (*jrpc2.Response, error) {
	return c.client.Call(ctx, method, params)
}

func (c *ServerClient) Initialize(ctx context.Context, params *ParamInitialize) (*InitializeResult, error) {
	var result InitializeResult
	if err := createCallback(ctx, c, "initialize", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *ServerClient) Initialized(ctx context.Context, params *InitializedParams) error {
	return createNotify(ctx, c, "initialized", params)
}

func (c *ServerClient) Shutdown(ctx context.Context) error {
	return createEmptyCallback(ctx, c, "shutdown")
}

func (c *ServerClient) Exit(ctx context.Context) error {
	return createEmptyNotify(ctx, c, "exit")
}

func (c *ServerClient) DidOpen(ctx context.Context, params *DidOpenTextDocumentParams) error {
	return createNotify(ctx, c, "textDocument/didOpen", params)
}

func (c *ServerClient) DidChange(ctx context.Context, params *DidChangeTextDocumentParams) error {
	return createNotify(ctx, c, "textDocument/didChange", params)
}

func (c *ServerClient) DidClose(ctx context.Context, params *DidCloseTextDocumentParams) error {
	return createNotify(ctx, c, "textDocument/didClose", params)
}

// Hover returns nil when the server has nothing for the position.
func (c *ServerClient) Hover(ctx context.Context, params *HoverParams) (*Hover, error) {
	return c.hover(ctx, "textDocument/hover", params)
}

func (c *ServerClient) Documentation(ctx context.Context, params *HoverParams) (*Hover, error) {
	return c.hover(ctx, DocumentationMethod, params)
}

func (c *ServerClient) hover(ctx context.Context, method string, params *HoverParams) (*Hover, error) {
	var result *Hover
	if err := createCallback(ctx, c, method, params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Package hover provides functionality for generating hover information.
package hover

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/tshover/pkg/document"
	"github.com/walteh/tshover/pkg/position"
	"github.com/walteh/tshover/pkg/previewer"
	"github.com/walteh/tshover/pkg/quickinfo"
)

const MarkupKindMarkdown = "markdown"

// MarkupContent is a tagged rich-text value.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Result is the information to be displayed in a hover tooltip
type Result struct {
	Content MarkupContent  `json:"contents"`
	Range   position.Range `json:"range"`
}

// Documents is the slice of the document registry hover needs.
type Documents interface {
	Resolve(ctx context.Context, uri string) (*document.Snapshot, bool)
	EngineFileID(snap *document.Snapshot) string
	CallerResource(path string) string
}

// Renderer turns documentation and tags into markdown. It returns false
// when there is nothing to render.
type Renderer interface {
	Render(documentation []quickinfo.DisplayPart, tags []quickinfo.Tag, resolve previewer.LinkResolver) (string, bool)
}

// Provider builds hover results. It holds no per-request state and is safe
// for concurrent use.
type Provider struct {
	documents     Documents
	engine        quickinfo.Engine
	renderer      Renderer
	fenceLanguage string
}

type Option func(*Provider)

// WithFenceLanguage sets the language tag on the signature code fence.
func WithFenceLanguage(lang string) Option {
	return func(p *Provider) {
		p.fenceLanguage = lang
	}
}

func WithRenderer(r Renderer) Option {
	return func(p *Provider) {
		p.renderer = r
	}
}

func NewProvider(documents Documents, engine quickinfo.Engine, opts ...Option) *Provider {
	p := &Provider{
		documents:     documents,
		engine:        engine,
		renderer:      previewer.Markdown{},
		fenceLanguage: "typescript",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hover returns false when the document is unknown or the engine has nothing
// to say about the position. A result with empty content is still a result.
func (me *Provider) Hover(ctx context.Context, uri string, pos position.Position, documentationOnly bool) (*Result, bool) {
	snap, ok := me.documents.Resolve(ctx, uri)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("uri", uri).Msg("hover requested for unknown document")
		return nil, false
	}

	file := me.documents.EngineFileID(snap)
	offset := snap.PositionToOffset(pos)

	info := me.quickInfo(ctx, file, offset)
	if info == nil {
		return nil, false
	}

	parts := make([]string, 0, 2)

	if sig := info.Signature(); sig != "" && !documentationOnly {
		parts = append(parts, fmt.Sprintf("```%s\n%s\n```", me.fenceLanguage, sig))
	}

	if doc, ok := me.renderer.Render(info.DocumentationParts(), info.TagList(), me.documents.CallerResource); ok {
		parts = append(parts, doc)
	}

	return &Result{
		Content: MarkupContent{
			Kind:  MarkupKindMarkdown,
			Value: strings.Join(parts, "\n\n"),
		},
		Range: snap.SpanToRange(info.TextSpan),
	}, true
}

// quickInfo queries the engine and folds any failure, including a panic,
// into "no information".
func (me *Provider) quickInfo(ctx context.Context, file string, offset position.Offset) (info *quickinfo.QuickInfo) {
	logger := zerolog.Ctx(ctx).With().Str("file", file).Int("offset", int(offset)).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Debug().Interface("panic", r).Msg("quick info query panicked")
			info = nil
		}
	}()

	res, err := me.engine.QuickInfoAt(ctx, file, offset)
	if err != nil {
		logger.Debug().Err(err).Msg("quick info query failed")
		return nil
	}

	if res == nil {
		logger.Trace().Msg("no quick info at offset")
	}

	return res
}

// Package setup assembles the document registry, quick-info engine and hover
// provider from a configuration.
package setup

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tshover/pkg/config"
	"github.com/walteh/tshover/pkg/debug"
	"github.com/walteh/tshover/pkg/document"
	"github.com/walteh/tshover/pkg/engine/tsserver"
	"github.com/walteh/tshover/pkg/hover"
	"github.com/walteh/tshover/pkg/quickinfo"
)

// Engine is a quick-info engine that tracks open buffers and owns resources.
type Engine interface {
	quickinfo.Engine
	OpenFile(ctx context.Context, file, content string) error
	CloseFile(ctx context.Context, file string) error
	Close() error
}

type EngineFactory func(ctx context.Context, cfg *config.Config) (Engine, error)

var _ EngineFactory = StartTSServer

// StartTSServer launches the tsserver described by cfg.
func StartTSServer(ctx context.Context, cfg *config.Config) (Engine, error) {
	client, err := tsserver.Start(ctx, tsserver.Options{
		Command: cfg.TSServer.Command,
		Args:    cfg.TSServer.Args,
		Timeout: cfg.TSServer.TimeoutDuration(),
	})
	if err != nil {
		return nil, errors.Errorf("starting tsserver: %w", err)
	}
	return client, nil
}

// LoadConfig reads path, or the default file in the working directory when
// path is empty. Only the default file may be missing.
func LoadConfig(fs afero.Fs, path string) (*config.Config, error) {
	if path == "" {
		return config.Load(fs, config.DefaultFileName, true)
	}
	return config.Load(fs, path, false)
}

// Logger builds the console logger for cfg. A non-empty level overrides the
// configured one.
func Logger(cfg *config.Config, w io.Writer, level string) (zerolog.Logger, error) {
	if level == "" {
		level = cfg.Log.Level
	}
	return debug.NewLogger(w, debug.LoggerOptions{
		Level:   level,
		Console: true,
		Color:   cfg.Log.Color,
	})
}

type Stack struct {
	Config    *config.Config
	Documents *document.Registry
	Engine    Engine
	Provider  *hover.Provider
}

func New(ctx context.Context, fs afero.Fs, cfg *config.Config, factory EngineFactory) (*Stack, error) {
	var (
		docs   *document.Registry
		engine Engine
	)

	// documents read from disk are opened in the engine so it can answer
	// for files outside any open project
	openOnLoad := func(ctx context.Context, snap *document.Snapshot) {
		file := docs.EngineFileID(snap)
		if err := engine.OpenFile(ctx, file, snap.Text); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("file", file).Msg("opening disk document in engine")
		}
	}

	docs, err := document.NewRegistry(
		document.WithFilesystemFallback(fs, cfg.Include, cfg.Exclude),
		document.WithDefaultLanguage("typescript"),
		document.WithDiskLoadHook(openOnLoad),
	)
	if err != nil {
		return nil, errors.Errorf("creating document registry: %w", err)
	}

	engine, err = factory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Strs("include", cfg.Include).
		Strs("exclude", cfg.Exclude).
		Str("fence_language", cfg.FenceLanguage).
		Msg("hover stack ready")

	return &Stack{
		Config:    cfg,
		Documents: docs,
		Engine:    engine,
		Provider:  hover.NewProvider(docs, engine, hover.WithFenceLanguage(cfg.FenceLanguage)),
	}, nil
}

func (me *Stack) Close() error {
	if err := me.Engine.Close(); err != nil {
		return errors.Errorf("closing engine: %w", err)
	}
	return nil
}

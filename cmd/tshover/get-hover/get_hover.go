package get_hover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/tshover/pkg/document"
	"github.com/walteh/tshover/pkg/position"
	"github.com/walteh/tshover/pkg/setup"
)

type Handler struct {
	line              uint32
	character         uint32
	documentationOnly bool
	format            string
	configPath        string
	tsserver          string
	logLevel          string

	fs        afero.Fs
	newEngine setup.EngineFactory
}

func NewGetHoverCommand() *cobra.Command {
	return newCommand(&Handler{fs: afero.NewOsFs(), newEngine: setup.StartTSServer})
}

func newCommand(me *Handler) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-hover <file>",
		Short: "print the hover for a zero-based line and character in a file",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().Uint32Var(&me.line, "line", 0, "zero-based line")
	cmd.Flags().Uint32Var(&me.character, "character", 0, "zero-based UTF-16 character in the line")
	cmd.Flags().BoolVar(&me.documentationOnly, "documentation-only", false, "leave out the signature block")
	cmd.Flags().StringVar(&me.format, "format", "markdown", "output format: markdown or json")
	cmd.Flags().StringVar(&me.configPath, "config", "", "path to a tshover.hcl file")
	cmd.Flags().StringVar(&me.tsserver, "tsserver", "", "tsserver command, overriding the config file")
	cmd.Flags().StringVar(&me.logLevel, "log-level", "", "log level, overriding the config file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, file string, out, logOut io.Writer) (err error) {
	if me.format != "markdown" && me.format != "json" {
		return errors.Errorf("unknown format %q", me.format)
	}

	cfg, err := setup.LoadConfig(me.fs, me.configPath)
	if err != nil {
		return err
	}
	if me.tsserver != "" {
		cfg.TSServer.Command = me.tsserver
	}

	logger, err := setup.Logger(cfg, logOut, me.logLevel)
	if err != nil {
		return err
	}
	ctx = logger.WithContext(ctx)

	path, err := filepath.Abs(file)
	if err != nil {
		return errors.Errorf("resolving %s: %w", file, err)
	}

	content, err := afero.ReadFile(me.fs, path)
	if err != nil {
		return errors.Errorf("reading %s: %w", path, err)
	}

	stack, err := setup.New(ctx, me.fs, cfg, me.newEngine)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, stack.Close())
	}()

	snap := document.NewSnapshot(document.FileURI(path), "typescript", 1, string(content))
	stack.Documents.Store(snap)

	if err := stack.Engine.OpenFile(ctx, stack.Documents.EngineFileID(snap), snap.Text); err != nil {
		return errors.Errorf("opening %s in engine: %w", path, err)
	}

	res, ok := stack.Provider.Hover(ctx, snap.URI, position.Position{Line: me.line, Character: me.character}, me.documentationOnly)

	switch me.format {
	case "json":
		var v any
		if ok {
			v = res
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return errors.Errorf("marshaling hover: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	default:
		if !ok || res.Content.Value == "" {
			return nil
		}
		_, err = fmt.Fprintln(out, res.Content.Value)
		return err
	}
}

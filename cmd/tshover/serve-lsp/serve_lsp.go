package serve_lsp

import (
	"context"
	"os"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/tshover/pkg/lsp"
	"github.com/walteh/tshover/pkg/lsp/protocol"
	"github.com/walteh/tshover/pkg/setup"
)

type Handler struct {
	debug      bool
	clientLogs bool
	configPath string
	tsserver   string
}

func NewServeLSPCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server on stdio",
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&me.clientLogs, "client-logs", false, "send logs to the client as window/logMessage instead of stderr")
	cmd.Flags().StringVar(&me.configPath, "config", "", "path to a tshover.hcl file")
	cmd.Flags().StringVar(&me.tsserver, "tsserver", "", "tsserver command, overriding the config file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.Root().Version)
	}

	return cmd
}

// maxPendingNotifications bounds what lateNotifier holds before the server
// is attached.
const maxPendingNotifications = 256

type pendingNotification struct {
	ctx    context.Context
	method string
	params any
}

// lateNotifier lets the logger exist before the server it reports through.
// Notifications sent before attach are held and delivered once the server is
// running.
type lateNotifier struct {
	mu      sync.Mutex
	target  lsp.Notifier
	pending []pendingNotification
	dropped int
}

func (me *lateNotifier) Notify(ctx context.Context, method string, params any) error {
	me.mu.Lock()
	target := me.target
	if target == nil {
		if len(me.pending) < maxPendingNotifications {
			me.pending = append(me.pending, pendingNotification{ctx: ctx, method: method, params: params})
		} else {
			me.dropped++
		}
		me.mu.Unlock()
		return nil
	}
	me.mu.Unlock()

	return target.Notify(ctx, method, params)
}

// attach delivers held notifications to target in order and sends every
// later one straight through. It returns how many were dropped while held.
func (me *lateNotifier) attach(target lsp.Notifier) (int, error) {
	me.mu.Lock()
	defer me.mu.Unlock()

	var errs error
	for _, p := range me.pending {
		errs = multierr.Append(errs, target.Notify(p.ctx, p.method, p.params))
	}

	dropped := me.dropped
	me.pending = nil
	me.dropped = 0
	me.target = target

	return dropped, errs
}

func (me *Handler) Run(ctx context.Context, version string) (err error) {
	cfg, err := setup.LoadConfig(afero.NewOsFs(), me.configPath)
	if err != nil {
		return err
	}
	if me.tsserver != "" {
		cfg.TSServer.Command = me.tsserver
	}

	level := ""
	if me.debug {
		level = "debug"
	}
	logger, err := setup.Logger(cfg, os.Stderr, level)
	if err != nil {
		return err
	}
	ctx = logger.WithContext(ctx)

	notifier := &lateNotifier{}
	if me.clientLogs {
		ctx = lsp.ApplyLSPWriter(ctx, notifier)
	}

	stack, err := setup.New(ctx, afero.NewOsFs(), cfg, setup.StartTSServer)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, stack.Close())
	}()

	var srv *jrpc2.Server
	server := lsp.NewServer(stack.Documents, stack.Provider,
		lsp.WithDocumentSyncer(stack.Engine),
		lsp.WithVersion(version),
		lsp.WithExitFunc(func() { srv.Stop() }),
	)

	srv = protocol.NewServerServer(ctx, server, &jrpc2.ServerOptions{
		RPCLog: &protocol.RPCLogger{Params: me.debug},
	})
	srv.Start(channel.LSP(os.Stdin, os.Stdout))

	dropped, err := notifier.attach(srv)
	if err != nil {
		logger.Warn().Err(err).Msg("delivering early log messages to the client")
	}
	if dropped > 0 {
		logger.Warn().Int("dropped", dropped).Msg("early log messages dropped before the client connected")
	}

	zerolog.Ctx(ctx).Info().Str("server_id", server.ID()).Str("tsserver", cfg.TSServer.Command).Msg("starting language server")

	if err := srv.Wait(); err != nil {
		return errors.Errorf("error running language server: %w", err)
	}

	return nil
}

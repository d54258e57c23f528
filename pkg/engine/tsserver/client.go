// Package tsserver answers quick-info queries by driving a TypeScript
// tsserver subprocess.
package tsserver

import (
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/tshover/pkg/position"
	"github.com/walteh/tshover/pkg/quickinfo"
)

const noContentMessage = "No content available."

var _ quickinfo.Engine = (*Client)(nil)

type Options struct {
	// Command defaults to "tsserver" on PATH.
	Command string
	Args    []string
	// Timeout bounds every request. Zero means no bound beyond the caller's context.
	Timeout time.Duration
}

// ResponseError is a response tsserver marked as unsuccessful.
type ResponseError struct {
	Command string
	Message string
}

func (e *ResponseError) Error() string {
	return "tsserver " + e.Command + ": " + e.Message
}

// Client talks to one tsserver process. Requests go out as one JSON object
// per line; responses and events come back Content-Length framed.
type Client struct {
	send    channel.Channel
	recv    channel.Channel
	cmd     *exec.Cmd
	timeout time.Duration
	logger  zerolog.Logger

	seq     atomic.Int64
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[int64]chan *message

	done    chan struct{}
	readErr error
}

// Start launches tsserver and configures it to keep documentation as
// display parts.
func Start(ctx context.Context, opts Options) (*Client, error) {
	command := opts.Command
	if command == "" {
		command = "tsserver"
	}

	logger := zerolog.Ctx(ctx).With().Str("name", "tsserver").Logger()

	cmd := exec.CommandContext(ctx, command, opts.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Errorf("getting stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Errorf("getting stdout pipe: %w", err)
	}
	cmd.Stderr = logger.With().Str("stream", "stderr").Logger()

	if err := cmd.Start(); err != nil {
		return nil, errors.Errorf("starting %s: %w", command, err)
	}

	logger.Debug().Int("pid", cmd.Process.Pid).Str("command", command).Msg("tsserver started")

	c := NewClient(logger.WithContext(ctx), stdout, stdin, opts)
	c.cmd = cmd

	if err := c.Configure(ctx, map[string]any{"displayPartsForJSDoc": true}); err != nil {
		return nil, multierr.Combine(errors.Errorf("configuring tsserver: %w", err), c.Close())
	}

	return c, nil
}

// NewClient wraps an already running tsserver connection.
func NewClient(ctx context.Context, r io.Reader, w io.WriteCloser, opts Options) *Client {
	c := &Client{
		send:    channel.Line(nil, w),
		recv:    channel.LSP(r, nil),
		timeout: opts.Timeout,
		logger:  *zerolog.Ctx(ctx),
		pending: make(map[int64]chan *message),
		done:    make(chan struct{}),
	}

	go c.readLoop()

	return c
}

func (me *Client) readLoop() {
	defer close(me.done)

	for {
		data, err := me.recv.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				me.logger.Warn().Err(err).Msg("reading from tsserver")
			}
			me.readErr = err
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			me.logger.Warn().Err(err).Msg("skipping malformed tsserver message")
			continue
		}

		switch msg.Type {
		case "response":
			me.pendingMu.Lock()
			ch, ok := me.pending[msg.RequestSeq]
			delete(me.pending, msg.RequestSeq)
			me.pendingMu.Unlock()

			if !ok {
				me.logger.Trace().Int64("request_seq", msg.RequestSeq).Str("command", msg.Command).Msg("dropping unclaimed response")
				continue
			}
			ch <- &msg
		case "event":
			me.logger.Trace().Str("event", msg.Event).Msg("tsserver event")
		default:
			me.logger.Debug().Str("type", msg.Type).Msg("unknown tsserver message type")
		}
	}
}

func (me *Client) write(req request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return errors.Errorf("marshaling %s request: %w", req.Command, err)
	}

	me.writeMu.Lock()
	defer me.writeMu.Unlock()

	if err := me.send.Send(data); err != nil {
		return errors.Errorf("sending %s request: %w", req.Command, err)
	}
	return nil
}

// notify sends a command without waiting for its response.
func (me *Client) notify(command string, args any) error {
	return me.write(request{
		Seq:       me.seq.Add(1),
		Type:      "request",
		Command:   command,
		Arguments: args,
	})
}

func (me *Client) call(ctx context.Context, command string, args any, result any) error {
	seq := me.seq.Add(1)
	ch := make(chan *message, 1)

	me.pendingMu.Lock()
	me.pending[seq] = ch
	me.pendingMu.Unlock()

	defer func() {
		me.pendingMu.Lock()
		delete(me.pending, seq)
		me.pendingMu.Unlock()
	}()

	if err := me.write(request{Seq: seq, Type: "request", Command: command, Arguments: args}); err != nil {
		return err
	}

	if me.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, me.timeout)
		defer cancel()
	}

	start := time.Now()

	select {
	case msg := <-ch:
		me.logger.Trace().Str("command", command).Dur("took", time.Since(start)).Bool("success", msg.Success).Msg("tsserver response")
		if !msg.Success {
			return &ResponseError{Command: command, Message: msg.Message}
		}
		if result != nil && len(msg.Body) > 0 {
			if err := json.Unmarshal(msg.Body, result); err != nil {
				return errors.Errorf("unmarshaling %s response: %w", command, err)
			}
		}
		return nil
	case <-ctx.Done():
		return errors.Errorf("waiting for %s response: %w", command, ctx.Err())
	case <-me.done:
		return errors.Errorf("tsserver stopped before answering %s: %w", command, me.stopErr())
	}
}

func (me *Client) stopErr() error {
	if me.readErr != nil {
		return me.readErr
	}
	return io.EOF
}

func (me *Client) Configure(ctx context.Context, preferences map[string]any) error {
	return me.call(ctx, "configure", configureArgs{Preferences: preferences}, nil)
}

// OpenFile tells tsserver the current text of file. Opening an already open
// file replaces its content.
func (me *Client) OpenFile(ctx context.Context, file, content string) error {
	me.logger.Debug().Str("file", file).Msg("opening file in tsserver")
	if err := me.notify("close", fileArgs{File: file}); err != nil {
		return err
	}
	return me.notify("open", openArgs{File: file, FileContent: content})
}

func (me *Client) CloseFile(ctx context.Context, file string) error {
	me.logger.Debug().Str("file", file).Msg("closing file in tsserver")
	return me.notify("close", fileArgs{File: file})
}

// QuickInfoAt returns nil, nil when tsserver has nothing for the offset.
func (me *Client) QuickInfoAt(ctx context.Context, file string, offset position.Offset) (*quickinfo.QuickInfo, error) {
	var body *wireQuickInfo

	err := me.call(ctx, "quickinfo-full", positionArgs{File: file, Position: int(offset)}, &body)
	if err != nil {
		var rerr *ResponseError
		if errors.As(err, &rerr) && rerr.Message == noContentMessage {
			return nil, nil
		}
		return nil, errors.Errorf("quick info for %s@%d: %w", file, offset, err)
	}

	if body == nil {
		return nil, nil
	}

	return body.toQuickInfo(), nil
}

// Close asks tsserver to exit and waits for the process when this client
// started it.
func (me *Client) Close() error {
	var errs error

	if err := me.notify("exit", nil); err != nil {
		errs = multierr.Append(errs, err)
	}

	if err := me.send.Close(); err != nil {
		errs = multierr.Append(errs, errors.Errorf("closing tsserver stdin: %w", err))
	}

	if me.cmd != nil {
		if err := me.cmd.Wait(); err != nil {
			errs = multierr.Append(errs, errors.Errorf("waiting for tsserver: %w", err))
		}
	}

	return errs
}

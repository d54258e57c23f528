package lsp

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/walteh/tshover/pkg/debug"
	"github.com/walteh/tshover/pkg/lsp/protocol"
)

// Notifier is the part of a jrpc2 server used to push messages to the client.
type Notifier interface {
	Notify(ctx context.Context, method string, params any) error
}

// LSPWriter forwards zerolog JSON lines to the client as window/logMessage.
type LSPWriter struct {
	mu       sync.Mutex
	notifier Notifier
	ctx      context.Context
}

func NewLSPWriter(ctx context.Context, notifier Notifier) *LSPWriter {
	return &LSPWriter{
		notifier: notifier,
		ctx:      ctx,
	}
}

// ApplyLSPWriter returns ctx with a logger that sends its lines to the client,
// keeping the level of the logger already in ctx.
func ApplyLSPWriter(ctx context.Context, notifier Notifier) context.Context {
	level := zerolog.Ctx(ctx).GetLevel()

	return zerolog.New(NewLSPWriter(ctx, notifier)).
		Level(level).
		Hook(debug.CustomTimeHook{}).
		Hook(debug.CustomCallerHook{WithColor: false}).
		WithContext(ctx)
}

func (w *LSPWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err != nil {
		// not ours to fail on
		return len(p), nil
	}

	level, _ := entry["level"].(string)
	msg, _ := entry["message"].(string)
	delete(entry, "level")
	delete(entry, "message")

	if len(entry) > 0 {
		extra, err := json.Marshal(entry)
		if err == nil {
			msg += " " + string(extra)
		}
	}

	if err := w.notifier.Notify(w.ctx, "window/logMessage", &protocol.LogMessageParams{
		Type:    protocol.ParseMessageTypeFromZerolog(level),
		Message: msg,
	}); err != nil {
		return 0, err
	}

	return len(p), nil
}

package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
)

func ApplyRequestToZerolog(ctx context.Context, req *jrpc2.Request) context.Context {
	ctx = zerolog.Ctx(ctx).With().Str("rpc_method", req.Method()).Str("rpc_id", req.ID()).Logger().WithContext(ctx)
	return ctx
}

// ParseMessageTypeFromZerolog converts zerolog level to LSP MessageType
func ParseMessageTypeFromZerolog(level string) MessageType {
	switch level {
	case "error", "fatal", "panic":
		return Error
	case "warn":
		return Warning
	case "info":
		return Info
	case "debug":
		return Debug
	default:
		return Log
	}
}

var _ jrpc2.RPCLogger = (*RPCLogger)(nil)

// RPCLogger traces every request and response through the logger carried by
// the server's base context.
type RPCLogger struct {
	// Params includes request params and response results in the trace.
	Params bool
}

func (me *RPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	evt := zerolog.Ctx(ctx).Trace().
		Str("rpc_method", req.Method()).
		Str("rpc_id", req.ID()).
		Bool("notification", req.IsNotification())
	if me.Params {
		evt = evt.Str("params", req.ParamString())
	}
	evt.Msg("rpc request")
}

func (me *RPCLogger) LogResponse(ctx context.Context, rsp *jrpc2.Response) {
	evt := zerolog.Ctx(ctx).Trace().Str("rpc_id", rsp.ID())
	if err := rsp.Error(); err != nil {
		evt = evt.Int32("code", int32(err.Code)).Str("error", err.Message)
	} else if me.Params {
		evt = evt.Str("result", rsp.ResultString())
	}
	evt.Msg("rpc response")
}

package ipc

import (
	"context"
	"errors"
	"log/slog"
)

// ErrDone ends the read loop after the handler's reply, if any, is sent.
var ErrDone = errors.New("session finished")

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection represents one game session with the engine bridge.
type Connection struct {
	transport Transport
	handlers  map[string]Handler
	validator *Validator
	Game      string
}

func NewConnection(t Transport, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		transport: t,
		handlers:  handlers,
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

// SetValidator enables schema checks on inbound payloads.
func (c *Connection) SetValidator(v *Validator) { c.validator = v }

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.transport.Write(env)
}

// ReadLoop blocks until the connection closes, a handler returns ErrDone, or
// ctx is cancelled. It owns the transport lifetime so callers don't need to
// track cleanup.
func (c *Connection) ReadLoop(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { c.transport.Close() })
	defer stop()
	defer c.transport.Close()

	for {
		env, err := c.transport.Read()
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("connection closed on shutdown", "game", c.Game)
				return
			}
			slog.Info("connection read ended", "game", c.Game, "error", err)
			return
		}

		handler, ok := c.handlers[env.Type]
		if !ok {
			slog.Warn("no handler for message type", "type", env.Type)
			continue
		}

		if c.validator != nil {
			if err := c.validator.Validate(env); err != nil {
				slog.Error("invalid message", "type", env.Type, "error", err)
				continue
			}
		}

		resp, err := handler(env)
		done := errors.Is(err, ErrDone)
		if err != nil && !done {
			slog.Error("handler error", "type", env.Type, "error", err)
			continue
		}

		if resp != nil {
			if err := c.transport.Write(*resp); err != nil {
				slog.Error("failed to send response", "type", resp.Type, "error", err)
				return
			}
			slog.Debug("sent response", "type", resp.Type, "game", c.Game)
		}
		if done {
			slog.Info("session finished", "game", c.Game)
			return
		}
	}
}

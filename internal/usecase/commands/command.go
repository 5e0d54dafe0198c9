package commands

import (
	"context"
	"fmt"

	"droidBot/internal/domain"
)

type Command interface {
	Name() string
	// Usage devuelve la sintaxis sin el prefijo, p. ej. "get <url> <start> <length>".
	Usage() string
	Handle(ctx context.Context, c *Context) error
}

type Context struct {
	Message domain.Message
	Out     domain.OutgoingMessagePort

	Prefix string
	Raw    string
	Args   []string
	Depth  int

	cmd    Command
	router *Router
}

// Reply responde por el mismo camino por el que llegó el mensaje.
func (c *Context) Reply(ctx context.Context, text string) error {
	if c.Message.IsPrivate {
		return c.Out.SendToUser(ctx, c.Message.Platform, c.Message.Sender(), text)
	}
	return c.Out.SendMessage(ctx, c.Message.Platform, c.Message.ChannelID, text)
}

func (c *Context) ReplyPrivate(ctx context.Context, text string) error {
	return c.Out.SendToUser(ctx, c.Message.Platform, c.Message.Sender(), text)
}

// Usage responde con la sintaxis del comando en curso.
func (c *Context) Usage(ctx context.Context) error {
	if c.cmd == nil {
		return nil
	}
	return c.Reply(ctx, "usage: "+c.Prefix+c.cmd.Usage())
}

// Run ejecuta otro comando interno con el mismo mensaje.
func (c *Context) Run(ctx context.Context, name string, args ...string) error {
	if c.router == nil || !c.router.Run(ctx, c.Message, name, args, c.Depth) {
		return fmt.Errorf("commands: %s is not registered", name)
	}
	return nil
}

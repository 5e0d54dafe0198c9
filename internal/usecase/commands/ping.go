package commands

import "context"

type PingCommand struct{}

func NewPingCommand() *PingCommand {
	return &PingCommand{}
}

func (c *PingCommand) Name() string {
	return "ping"
}

func (c *PingCommand) Usage() string {
	return "ping"
}

func (c *PingCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if len(cmdCtx.Args) != 0 {
		return cmdCtx.Usage(ctx)
	}
	return cmdCtx.Reply(ctx, "Pong!")
}

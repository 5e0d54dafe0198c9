package commands

import (
	"context"
	"strings"
)

type HelpCommand struct {
	router *Router
}

func NewHelpCommand(router *Router) *HelpCommand {
	return &HelpCommand{router: router}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Usage() string {
	return "help"
}

func (c *HelpCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if len(cmdCtx.Args) != 0 {
		return cmdCtx.Usage(ctx)
	}

	catalog := c.router.Catalog()
	rows := make([][]string, 0, len(catalog))
	for _, d := range catalog {
		rows = append(rows, []string{d.Usage, d.Description})
	}
	return cmdCtx.Reply(ctx, strings.TrimRight("commands:\n"+formatTable(nil, rows), "\n"))
}

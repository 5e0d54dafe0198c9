package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type AliasCommand struct {
	manager *AliasManager
}

func NewAliasCommand(manager *AliasManager) *AliasCommand {
	return &AliasCommand{manager: manager}
}

func (c *AliasCommand) Name() string {
	return "alias"
}

func (c *AliasCommand) Usage() string {
	return "alias <name> <action...>"
}

func (c *AliasCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if len(cmdCtx.Args) < 2 {
		return cmdCtx.Usage(ctx)
	}

	name := strings.TrimPrefix(cmdCtx.Args[0], cmdCtx.Prefix)
	action := strings.Join(cmdCtx.Args[1:], " ")

	created, err := c.manager.Create(ctx, name, action, cmdCtx.Message.Username)
	switch {
	case errors.Is(err, ErrReservedName):
		return cmdCtx.Reply(ctx, fmt.Sprintf("`%s` is a built-in command", normalizeCommandName(name)))
	case errors.Is(err, ErrInvalidAlias):
		return cmdCtx.Usage(ctx)
	case err != nil:
		return err
	}

	if !created {
		return cmdCtx.Reply(ctx, fmt.Sprintf("alias `%s` already exists", normalizeCommandName(name)))
	}
	return cmdCtx.Reply(ctx, fmt.Sprintf("alias `%s` saved", normalizeCommandName(name)))
}

type DelAliasCommand struct {
	manager *AliasManager
}

func NewDelAliasCommand(manager *AliasManager) *DelAliasCommand {
	return &DelAliasCommand{manager: manager}
}

func (c *DelAliasCommand) Name() string {
	return "delalias"
}

func (c *DelAliasCommand) Usage() string {
	return "delalias <name>"
}

func (c *DelAliasCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if len(cmdCtx.Args) != 1 {
		return cmdCtx.Usage(ctx)
	}

	name := normalizeCommandName(strings.TrimPrefix(cmdCtx.Args[0], cmdCtx.Prefix))
	n, err := c.manager.Delete(ctx, name)
	if errors.Is(err, ErrInvalidAlias) {
		return cmdCtx.Usage(ctx)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return cmdCtx.Reply(ctx, fmt.Sprintf("no alias `%s`", name))
	}
	return cmdCtx.Reply(ctx, fmt.Sprintf("alias `%s` deleted", name))
}

type AliasesCommand struct {
	manager *AliasManager
}

func NewAliasesCommand(manager *AliasManager) *AliasesCommand {
	return &AliasesCommand{manager: manager}
}

func (c *AliasesCommand) Name() string {
	return "aliases"
}

func (c *AliasesCommand) Usage() string {
	return "aliases"
}

func (c *AliasesCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if len(cmdCtx.Args) != 0 {
		return cmdCtx.Usage(ctx)
	}

	list, err := c.manager.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return cmdCtx.Reply(ctx, "no aliases yet")
	}

	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{a.CommandName, a.Action, a.Author, formatTimestamp(a.Timestamp)})
	}
	table := formatTable([]string{"NAME", "ACTION", "AUTHOR", "CREATED"}, rows)
	return cmdCtx.Reply(ctx, strings.TrimRight(table, "\n"))
}

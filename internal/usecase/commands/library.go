package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"droidBot/internal/domain"
)

type StatsCommand struct {
	links  domain.LinkRepository
	sounds domain.SoundRepository
}

func NewStatsCommand(links domain.LinkRepository, sounds domain.SoundRepository) *StatsCommand {
	return &StatsCommand{links: links, sounds: sounds}
}

func (c *StatsCommand) Name() string {
	return "stats"
}

func (c *StatsCommand) Usage() string {
	return "stats"
}

func (c *StatsCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if len(cmdCtx.Args) != 0 {
		return cmdCtx.Usage(ctx)
	}

	links, err := c.links.CountLinks(ctx)
	if err != nil {
		return err
	}
	sounds, err := c.sounds.CountSounds(ctx)
	if err != nil {
		return err
	}
	return cmdCtx.Reply(ctx, fmt.Sprintf("links: %d, sounds: %d", links, sounds))
}

var leadIns = []string{
	"check this out:",
	"remember this one?",
	"from the archives:",
	"someone posted this:",
	"here you go:",
	"blast from the past:",
}

type LinkCommand struct {
	links domain.LinkRepository
	pick  func(n int) int
}

func NewLinkCommand(links domain.LinkRepository) *LinkCommand {
	return &LinkCommand{links: links, pick: rand.IntN}
}

func (c *LinkCommand) Name() string {
	return "link"
}

func (c *LinkCommand) Usage() string {
	return "link"
}

func (c *LinkCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if len(cmdCtx.Args) != 0 {
		return cmdCtx.Usage(ctx)
	}

	link, err := c.links.RandomLink(ctx)
	if err != nil {
		return err
	}
	if link == nil {
		return cmdCtx.Reply(ctx, "no links yet")
	}

	lead := leadIns[c.pick(len(leadIns))]
	return cmdCtx.Reply(ctx, fmt.Sprintf("%s %s (from %s)", lead, link.Dest, link.Author))
}

type SoundsCommand struct {
	sounds domain.SoundRepository
}

func NewSoundsCommand(sounds domain.SoundRepository) *SoundsCommand {
	return &SoundsCommand{sounds: sounds}
}

func (c *SoundsCommand) Name() string {
	return "sounds"
}

func (c *SoundsCommand) Usage() string {
	return "sounds"
}

func (c *SoundsCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if len(cmdCtx.Args) != 0 {
		return cmdCtx.Usage(ctx)
	}

	list, err := c.sounds.ListSounds(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return cmdCtx.Reply(ctx, "no sounds yet")
	}

	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{s.Name, s.Author, formatTimestamp(s.Timestamp)})
	}
	table := formatTable([]string{"NAME", "AUTHOR", "ADDED"}, rows)
	return cmdCtx.Reply(ctx, strings.TrimRight(table, "\n"))
}

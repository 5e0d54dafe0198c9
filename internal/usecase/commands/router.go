package commands

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"droidBot/internal/domain"
	"droidBot/internal/telemetry"
)

type Outcome int

const (
	Ignored Outcome = iota
	Handled
	Rewrite
	Unknown
)

func (o Outcome) String() string {
	switch o {
	case Handled:
		return "handled"
	case Rewrite:
		return "rewrite"
	case Unknown:
		return "unknown"
	default:
		return "ignored"
	}
}

// Invocation es un comando ya separado en nombre y argumentos.
type Invocation struct {
	Name  string
	Args  []string
	Raw   string
	Depth int
}

type Result struct {
	Outcome Outcome
	Action  string
}

type AliasResolver interface {
	Resolve(ctx context.Context, name string) (Resolution, error)
}

type Router struct {
	prefix   string
	cmdIndex map[string]Command
	order    []Command
	aliases  AliasResolver
	out      domain.OutgoingMessagePort
	logger   *zap.Logger
}

func NewRouter(prefix string, out domain.OutgoingMessagePort, aliases AliasResolver, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		prefix:   prefix,
		cmdIndex: make(map[string]Command),
		aliases:  aliases,
		out:      out,
		logger:   logger.Named("commands"),
	}
}

func (r *Router) Prefix() string {
	return r.prefix
}

func (r *Router) Register(cmd Command) {
	key := strings.ToLower(cmd.Name())
	if _, exists := r.cmdIndex[key]; !exists {
		r.order = append(r.order, cmd)
	}
	r.cmdIndex[key] = cmd
}

// IsBuiltin indica si el nombre pertenece a un comando interno.
func (r *Router) IsBuiltin(name string) bool {
	_, ok := r.cmdIndex[normalizeCommandName(strings.TrimPrefix(strings.TrimSpace(name), r.prefix))]
	return ok
}

func (r *Router) Commands() []Command {
	return append([]Command(nil), r.order...)
}

// Parse separa el texto en comando y argumentos. ok=false si no empieza por el prefijo.
func (r *Router) Parse(text string) (Invocation, bool) {
	text = strings.TrimSpace(text)
	if text == "" || !strings.HasPrefix(text, r.prefix) {
		return Invocation{}, false
	}

	withoutPrefix := strings.TrimPrefix(text, r.prefix)
	parts := strings.Fields(withoutPrefix)
	if len(parts) == 0 {
		return Invocation{}, false
	}

	return Invocation{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
		Raw:  withoutPrefix,
	}, true
}

// Dispatch busca primero en los comandos internos y luego en los alias guardados.
func (r *Router) Dispatch(ctx context.Context, msg domain.Message, inv Invocation) Result {
	if inv.Name == "" {
		return Result{Outcome: Ignored}
	}

	if cmd, ok := r.cmdIndex[inv.Name]; ok {
		r.execute(ctx, msg, cmd, inv)
		telemetry.IncCommand(Handled.String())
		return Result{Outcome: Handled}
	}

	if r.aliases != nil {
		res, err := r.aliases.Resolve(ctx, inv.Name)
		if err != nil {
			r.logger.Error("alias lookup failed", zap.String("command", inv.Name), zap.Error(err))
			r.reply(ctx, msg, fmt.Sprintf("sorry, `%s%s` failed", r.prefix, inv.Name))
			telemetry.IncCommand(Handled.String())
			return Result{Outcome: Handled}
		}
		if res.Kind == Found {
			telemetry.IncCommand(Rewrite.String())
			return Result{Outcome: Rewrite, Action: res.Action}
		}
	}

	r.logger.Debug("unknown command",
		zap.String("command", inv.Name),
		zap.String("platform", string(msg.Platform)),
		zap.String("user", msg.Username),
	)
	if err := r.out.SendToUser(ctx, msg.Platform, msg.Sender(), fmt.Sprintf("unknown command `%s`", inv.Name)); err != nil {
		r.logger.Warn("reply failed", zap.Error(err))
	}
	telemetry.IncCommand(Unknown.String())
	return Result{Outcome: Unknown}
}

// Run ejecuta un comando interno por nombre; los alias no se consultan.
func (r *Router) Run(ctx context.Context, msg domain.Message, name string, args []string, depth int) bool {
	name = normalizeCommandName(name)
	cmd, ok := r.cmdIndex[name]
	if !ok {
		return false
	}
	raw := strings.TrimSpace(name + " " + strings.Join(args, " "))
	r.execute(ctx, msg, cmd, Invocation{Name: name, Args: args, Raw: raw, Depth: depth})
	return true
}

func (r *Router) execute(ctx context.Context, msg domain.Message, cmd Command, inv Invocation) {
	cmdCtx := &Context{
		Message: msg,
		Out:     r.out,
		Prefix:  r.prefix,
		Raw:     inv.Raw,
		Args:    inv.Args,
		Depth:   inv.Depth,
		cmd:     cmd,
		router:  r,
	}

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		return cmd.Handle(ctx, cmdCtx)
	}()
	if err == nil {
		return
	}

	telemetry.IncCommandFailure(cmd.Name())
	r.logger.Error("command failed",
		zap.String("command", cmd.Name()),
		zap.Strings("args", inv.Args),
		zap.String("user", msg.Username),
		zap.Error(err),
	)
	r.reply(ctx, msg, fmt.Sprintf("sorry, `%s%s` failed", r.prefix, cmd.Name()))
}

func (r *Router) reply(ctx context.Context, msg domain.Message, text string) {
	var err error
	if msg.IsPrivate {
		err = r.out.SendToUser(ctx, msg.Platform, msg.Sender(), text)
	} else {
		err = r.out.SendMessage(ctx, msg.Platform, msg.ChannelID, text)
	}
	if err != nil {
		r.logger.Warn("reply failed", zap.Error(err))
	}
}

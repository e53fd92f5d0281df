// Package dispatch parses bot commands and maps each one to its handler.
// The command set is a closed enumeration: adding a command means extending
// the enum, the command table and the switch in Handle.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"github.com/polyntsov/tg-compiler-explorer/internal/godbolt"
	"github.com/polyntsov/tg-compiler-explorer/internal/message"
	"github.com/polyntsov/tg-compiler-explorer/internal/render"
)

// Command enumerates every command the bot understands.
type Command int

const (
	CmdUnknown Command = iota
	CmdHelp
	CmdPing
	CmdCompile
	CmdRun
	CmdLanguages
	CmdCompilers
)

// commandSpec describes one command for parsing and the /help listing.
type commandSpec struct {
	Cmd         Command
	Name        string
	Aliases     []string
	Args        string
	Description string
}

// commands is the single source of truth for names, aliases and help text.
var commands = []commandSpec{
	{Cmd: CmdHelp, Name: "help", Description: "display this text."},
	{Cmd: CmdPing, Name: "ping", Description: "pong."},
	{Cmd: CmdCompile, Name: "compile", Aliases: []string{"c"}, Description: "compile the code from the message."},
	{Cmd: CmdRun, Name: "run", Aliases: []string{"r"}, Description: "compile and execute the code from the message."},
	{Cmd: CmdLanguages, Name: "languages", Aliases: []string{"ls"}, Description: "list all supported languages."},
	{Cmd: CmdCompilers, Name: "compilers", Args: "<language> [filter]", Description: "list all supported compilers, specific language id can be specified."},
}

// ParseCommand recognizes a leading /command token, stripping any @botname
// suffix, and returns the rest of the text as the argument string. Text
// that is not a recognized command yields CmdUnknown.
func ParseCommand(text string) (Command, string) {
	if !strings.HasPrefix(text, "/") {
		return CmdUnknown, ""
	}

	rest := text[1:]
	name, args := rest, ""
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, args = rest[:i], rest[i+1:]
	}
	if j := strings.IndexByte(name, '@'); j >= 0 {
		name = name[:j]
	}
	name = strings.ToLower(name)

	for _, c := range commands {
		if c.Name == name {
			return c.Cmd, args
		}
		for _, alias := range c.Aliases {
			if alias == name {
				return c.Cmd, args
			}
		}
	}
	return CmdUnknown, ""
}

// HelpText lists every command with its aliases and description. Built from
// the command table so the listing stays in sync with the parser.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Compiler Explorer (godbolt.org) bot. These commands are supported:\n")
	for _, c := range commands {
		b.WriteString("\n/" + c.Name)
		for _, alias := range c.Aliases {
			b.WriteString(", /" + alias)
		}
		if c.Args != "" {
			b.WriteString(" " + c.Args)
		}
		b.WriteString(" - " + c.Description)
	}
	return b.String()
}

// CommandInfo describes one command for the Telegram command menu.
type CommandInfo struct {
	Name        string
	Description string
}

// Commands returns the primary name and description of every command, in
// listing order.
func Commands() []CommandInfo {
	infos := make([]CommandInfo, 0, len(commands))
	for _, c := range commands {
		infos = append(infos, CommandInfo{Name: c.Name, Description: c.Description})
	}
	return infos
}

// MarkupMode selects how Telegram should parse an outgoing message.
type MarkupMode int

const (
	MarkupNone MarkupMode = iota
	MarkupMarkdownV2
)

// Sender delivers one reply to a chat. Implemented by the telegram
// transport; fakes stand in for it in tests.
type Sender interface {
	Send(chatID int64, text string, mode MarkupMode) error
}

// API is the slice of the Compiler Explorer client the dispatcher needs.
type API interface {
	Languages(ctx context.Context) ([]godbolt.Language, error)
	Compilers(ctx context.Context, languageID string) ([]godbolt.Compiler, error)
	Compile(ctx context.Context, compilerID, code string) (godbolt.CompileResult, error)
	Execute(ctx context.Context, compilerID, code, stdin string) (godbolt.ExecResult, error)
}

// Dispatcher routes parsed commands to the API and renders replies. It is
// stateless; every message is handled independently.
type Dispatcher struct {
	api    API
	sender Sender
	logger *slog.Logger
}

// New creates a dispatcher.
func New(api API, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{api: api, sender: sender, logger: logger}
}

// Handle processes one incoming message. Text that is not a recognized
// command is ignored. A returned error means no reply was sent and the
// transport should surface its generic failure message.
func (d *Dispatcher) Handle(ctx context.Context, msg message.Incoming) error {
	cmd, args := ParseCommand(msg.Text)
	if cmd == CmdUnknown {
		return nil
	}

	logger := d.logger.With(
		"request_id", uuid.NewString(),
		"chat_id", msg.ChatID,
	)
	logger.Info("handling command", "command", commandName(cmd))

	switch cmd {
	case CmdHelp:
		return d.sender.Send(msg.ChatID, HelpText(), MarkupNone)
	case CmdPing:
		return d.sender.Send(msg.ChatID, "Pong", MarkupNone)
	case CmdLanguages:
		return d.languages(ctx, msg.ChatID)
	case CmdCompilers:
		return d.compilers(ctx, msg.ChatID, args)
	case CmdCompile:
		return d.compile(ctx, logger, msg)
	case CmdRun:
		return d.run(ctx, logger, msg)
	case CmdUnknown:
	}
	return nil
}

func (d *Dispatcher) languages(ctx context.Context, chatID int64) error {
	langs, err := d.api.Languages(ctx)
	if err != nil {
		return fmt.Errorf("listing languages: %w", err)
	}
	return d.sendPre(chatID, render.FormatLanguages(langs))
}

func (d *Dispatcher) compilers(ctx context.Context, chatID int64, args string) error {
	languageID, filter := message.SplitArg(args)

	compilers, err := d.api.Compilers(ctx, languageID)
	if err != nil {
		return fmt.Errorf("listing compilers for %q: %w", languageID, err)
	}

	var filtered []godbolt.Compiler
	for _, c := range compilers {
		if strings.Contains(c.Name, filter) {
			filtered = append(filtered, c)
		}
	}

	if len(filtered) == 0 {
		return d.sender.Send(chatID, render.FormatCompilers(nil), MarkupNone)
	}
	return d.sendPre(chatID, render.FormatCompilers(filtered))
}

func (d *Dispatcher) compile(ctx context.Context, logger *slog.Logger, msg message.Incoming) error {
	req, ferr := extractRequest(msg)
	if ferr != "" {
		return d.sender.Send(msg.ChatID, ferr, MarkupNone)
	}

	res, err := d.api.Compile(ctx, req.CompilerID, req.Code)
	if err != nil {
		return fmt.Errorf("compiling with %s: %w", req.CompilerID, err)
	}

	switch res.Kind {
	case godbolt.CompileAssembly:
		logger.Debug("compilation produced assembly", "compiler", req.CompilerID, "length", len(res.Text))
		return d.sendPre(msg.ChatID, res.Text)
	case godbolt.CompileDiagnostics:
		logger.Debug("compilation produced diagnostics", "compiler", req.CompilerID, "length", len(res.Text))
		return d.sendPre(msg.ChatID, ansi.Strip(res.Text))
	}
	return nil
}

func (d *Dispatcher) run(ctx context.Context, logger *slog.Logger, msg message.Incoming) error {
	req, ferr := extractRequest(msg)
	if ferr != "" {
		return d.sender.Send(msg.ChatID, ferr, MarkupNone)
	}

	res, err := d.api.Execute(ctx, req.CompilerID, req.Code, "")
	if err != nil {
		return fmt.Errorf("executing with %s: %w", req.CompilerID, err)
	}

	switch res.Kind {
	case godbolt.ExecBuildFailure:
		logger.Debug("execution build failed", "compiler", req.CompilerID)
		return d.sendPre(msg.ChatID, ansi.Strip(res.Text))
	case godbolt.ExecRunSuccess:
		logger.Debug("execution finished", "compiler", req.CompilerID, "exit_code", res.ExitCode)
		return d.sendPre(msg.ChatID, formatRun(res))
	case godbolt.ExecProtocolAnomaly:
		logger.Warn("execution returned no result", "compiler", req.CompilerID, "detail", res.Text)
		return d.sender.Send(msg.ChatID, "No execution result returned.", MarkupNone)
	}
	return nil
}

// extractRequest adapts extraction failures into the plain-text reply the
// user receives verbatim. An empty string means extraction succeeded.
func extractRequest(msg message.Incoming) (message.CompileRequest, string) {
	req, err := message.ExtractCompileRequest(msg)
	if err != nil {
		var ferr *message.FormatError
		if errors.As(err, &ferr) {
			return message.CompileRequest{}, ferr.Reason
		}
		return message.CompileRequest{}, "Invalid format."
	}
	return req, ""
}

// sendPre wraps text as an escaped preformatted block, bounds it to the
// platform message size and delivers it as MarkdownV2.
func (d *Dispatcher) sendPre(chatID int64, text string) error {
	return d.sender.Send(chatID, render.TrimMessage(render.WrapPre(text)), MarkupMarkdownV2)
}

func formatRun(res godbolt.ExecResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "exit code: %d\n", res.ExitCode)
	if res.Stdout != "" {
		b.WriteString("\nstdout:\n")
		b.WriteString(res.Stdout)
		b.WriteByte('\n')
	}
	if res.Stderr != "" {
		b.WriteString("\nstderr:\n")
		b.WriteString(ansi.Strip(res.Stderr))
		b.WriteByte('\n')
	}
	return b.String()
}

func commandName(cmd Command) string {
	for _, c := range commands {
		if c.Cmd == cmd {
			return c.Name
		}
	}
	return "unknown"
}

// Package telegram wraps the gotgbot transport: long polling, entity
// adaptation and message delivery.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"

	"github.com/polyntsov/tg-compiler-explorer/internal/dispatch"
	"github.com/polyntsov/tg-compiler-explorer/internal/message"
)

// Handler processes one incoming message. A returned error means the
// handler sent no reply; the bot then sends its generic failure message.
type Handler func(ctx context.Context, msg message.Incoming) error

// Bot wraps the Telegram bot functionality.
type Bot struct {
	bot       *gotgbot.Bot
	updater   *ext.Updater
	allowlist map[int64]bool
	handler   Handler
	logger    *slog.Logger
}

// New creates a new Telegram bot. An empty allowlist means the bot answers
// everyone.
func New(token string, allowlist []int64, logger *slog.Logger) (*Bot, error) {
	// Longer timeout than the default to accommodate long-polling
	httpClient := http.Client{
		Timeout: 60 * time.Second,
	}

	bot, err := gotgbot.NewBot(token, &gotgbot.BotOpts{
		BotClient: &gotgbot.BaseBotClient{
			Client: httpClient,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating bot: %w", err)
	}

	allowMap := make(map[int64]bool, len(allowlist))
	for _, id := range allowlist {
		allowMap[id] = true
	}

	return &Bot{
		bot:       bot,
		allowlist: allowMap,
		logger:    logger,
	}, nil
}

// SetHandler sets the message handler function.
func (b *Bot) SetHandler(h Handler) {
	b.handler = h
}

// Start begins polling for updates and blocks until the context is
// cancelled.
func (b *Bot) Start(ctx context.Context) error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(bot *gotgbot.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			b.logger.Error("dispatcher error", "error", err)
			return ext.DispatcherActionNoop
		},
	})

	b.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewMessage(nil, b.handleMessage))

	err := b.updater.StartPolling(b.bot, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout: 30,
			AllowedUpdates: []string{
				"message",
			},
			RequestOpts: &gotgbot.RequestOpts{
				Timeout: 60 * time.Second,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("starting polling: %w", err)
	}

	b.logger.Info("telegram bot started",
		"username", b.bot.Username,
		"allowlist_count", len(b.allowlist),
	)

	<-ctx.Done()

	b.updater.Stop()
	b.logger.Info("telegram bot stopped")

	return nil
}

// handleMessage adapts one incoming update and hands it to the handler.
func (b *Bot) handleMessage(bot *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if msg == nil || msg.Text == "" {
		return nil
	}

	chatID := msg.Chat.Id
	if len(b.allowlist) > 0 && (msg.From == nil || !b.allowlist[msg.From.Id]) {
		b.logger.Debug("ignoring message from non-allowed user", "chat_id", chatID)
		return nil
	}

	b.logger.Info("processing message",
		"chat_id", chatID,
		"text_length", len(msg.Text),
	)

	if b.handler == nil {
		return nil
	}

	stopTyping := b.TypingLoop(chatID)
	defer stopTyping()

	incoming := message.Incoming{
		ChatID: chatID,
		Text:   msg.Text,
		Spans:  spansFromEntities(msg),
	}

	if err := b.handler(context.Background(), incoming); err != nil {
		b.logger.Error("command failed", "chat_id", chatID, "error", err)
		if sendErr := b.Send(chatID, "Sorry, something went wrong. Please try again.", dispatch.MarkupNone); sendErr != nil {
			b.logger.Error("failed to send failure notice", "chat_id", chatID, "error", sendErr)
		}
	}

	return nil
}

// spansFromEntities reduces Telegram message entities to the transport
// agnostic span model. Entity offsets are UTF-16 based; ParseEntities
// resolves each one to the text it covers.
func spansFromEntities(msg *gotgbot.Message) []message.Span {
	parsed := msg.ParseEntities()
	if len(parsed) == 0 {
		return nil
	}
	spans := make([]message.Span, 0, len(parsed))
	for _, e := range parsed {
		spans = append(spans, message.Span{Kind: spanKind(e.Type), Text: e.Text})
	}
	return spans
}

func spanKind(entityType string) message.SpanKind {
	switch entityType {
	case "code":
		return message.SpanCode
	case "pre":
		return message.SpanPre
	default:
		return message.SpanOther
	}
}

// Send delivers one message to a chat. Implements dispatch.Sender. The text
// must already fit Telegram's message size limit.
func (b *Bot) Send(chatID int64, text string, mode dispatch.MarkupMode) error {
	var opts *gotgbot.SendMessageOpts
	if mode == dispatch.MarkupMarkdownV2 {
		opts = &gotgbot.SendMessageOpts{ParseMode: "MarkdownV2"}
	}
	if _, err := b.bot.SendMessage(chatID, text, opts); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// RegisterCommands publishes the command menu to Telegram.
func (b *Bot) RegisterCommands(cmds []dispatch.CommandInfo) error {
	botCmds := make([]gotgbot.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		botCmds = append(botCmds, gotgbot.BotCommand{
			Command:     c.Name,
			Description: c.Description,
		})
	}
	if _, err := b.bot.SetMyCommands(botCmds, nil); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}
	return nil
}

// startTyping sends a single typing indicator.
func (b *Bot) startTyping(chatID int64) {
	_, _ = b.bot.SendChatAction(chatID, "typing", nil)
}

// TypingLoop starts a goroutine that refreshes the typing indicator every 4
// seconds. Returns a cancel function to stop the loop.
func (b *Bot) TypingLoop(chatID int64) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(4 * time.Second)
		defer ticker.Stop()

		b.startTyping(chatID)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.startTyping(chatID)
			}
		}
	}()

	return cancel
}

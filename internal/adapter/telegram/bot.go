// Package telegram binds the service to the Telegram Bot API: it maps
// inbound updates to triggers and implements the outbound transport.
package telegram

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/synopticdata/station-bot/internal/config"
	"github.com/synopticdata/station-bot/internal/domain"
	"github.com/synopticdata/station-bot/internal/nav"
)

// TriggerHandler consumes the triggers this adapter produces.
type TriggerHandler interface {
	HandleCommand(ctx context.Context, trig domain.Trigger)
	HandleCallback(ctx context.Context, trig domain.Trigger)
}

// Bot wraps a telebot instance. It implements service.Transport.
type Bot struct {
	bot     *tele.Bot
	handler TriggerHandler
	logger  *slog.Logger

	// root context for handler invocations; Telegram handlers themselves
	// carry no context.
	ctx context.Context
}

// NewBot connects to the Telegram Bot API with long polling.
func NewBot(cfg *config.Config, handler TriggerHandler, logger *slog.Logger) (*Bot, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
	})
	if err != nil {
		return nil, err
	}

	bot := &Bot{bot: b, handler: handler, logger: logger, ctx: context.Background()}
	bot.register()
	return bot, nil
}

func (b *Bot) register() {
	for _, cmd := range []string{"start", "help", "report", "user", "users_count", "reload"} {
		name := cmd
		b.bot.Handle("/"+name, func(c tele.Context) error {
			b.handler.HandleCommand(b.ctx, b.commandTrigger(c, name))
			return nil
		})
	}

	b.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		// Acknowledge immediately so the client stops its spinner even if
		// the trigger is later debounced.
		if err := c.Respond(); err != nil {
			b.logger.Debug("callback ack failed", "error", err)
		}
		b.handler.HandleCallback(b.ctx, b.callbackTrigger(c))
		return nil
	})
}

func (b *Bot) commandTrigger(c tele.Context, name string) domain.Trigger {
	return domain.Trigger{
		Kind:           domain.TriggerCommand,
		ConversationID: c.Chat().ID,
		UserID:         c.Sender().ID,
		DisplayName:    displayName(c.Sender()),
		Command:        name,
		Args:           c.Args(),
	}
}

func (b *Bot) callbackTrigger(c tele.Context) domain.Trigger {
	trig := domain.Trigger{
		Kind:           domain.TriggerCallback,
		ConversationID: c.Chat().ID,
		UserID:         c.Sender().ID,
		DisplayName:    displayName(c.Sender()),
		Payload:        strings.TrimPrefix(c.Callback().Data, "\f"),
	}
	if c.Message() != nil {
		trig.MessageID = c.Message().ID
	}
	return trig
}

func displayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Start begins long polling and blocks until Stop is called. The given
// context is attached to every trigger the poller produces.
func (b *Bot) Start(ctx context.Context) {
	b.ctx = ctx
	b.logger.Info("telegram bot starting", "username", b.bot.Me.Username)
	b.bot.Start()
}

// Stop terminates long polling.
func (b *Bot) Stop() {
	b.bot.Stop()
}

// Send delivers a new message with an optional inline keyboard.
func (b *Bot) Send(_ context.Context, conversationID int64, text string, keyboard [][]nav.Button) error {
	_, err := b.bot.Send(tele.ChatID(conversationID), text, markup(keyboard))
	return err
}

// Edit replaces an existing message's text and keyboard in place. Telegram
// rejects edits that change nothing; that outcome is treated as success.
func (b *Bot) Edit(_ context.Context, conversationID int64, messageID int, text string, keyboard [][]nav.Button) error {
	ref := &tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    conversationID,
	}
	_, err := b.bot.Edit(ref, text, markup(keyboard))
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

// SendDocument uploads an in-memory file to the conversation.
func (b *Bot) SendDocument(_ context.Context, conversationID int64, filename string, data []byte) error {
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: filename,
	}
	_, err := b.bot.Send(tele.ChatID(conversationID), doc)
	return err
}

// markup converts menu rows into a telebot inline keyboard.
func markup(keyboard [][]nav.Button) *tele.ReplyMarkup {
	rows := make([][]tele.InlineButton, 0, len(keyboard))
	for _, row := range keyboard {
		btns := make([]tele.InlineButton, 0, len(row))
		for _, btn := range row {
			btns = append(btns, tele.InlineButton{Text: btn.Label, Data: btn.Payload})
		}
		rows = append(rows, btns)
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

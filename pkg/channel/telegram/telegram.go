package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"vkcommands/pkg/bus"
	"vkcommands/pkg/channel"
	"vkcommands/pkg/config"
	"vkcommands/pkg/peer"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const channelName = "telegram"

// Adapter bridges Telegram updates into inbound events and sends replies.
//
// Telegram chat ids are used as peer ids unchanged. Their ranges differ from VK's (private
// chat ids can exceed peer.ChatThreshold), so the kind comes from the chat type.
type Adapter struct {
	cfg       config.TelegramConfig
	allowFrom map[string]struct{}
	log       *slog.Logger
	bot       *telego.Bot
	seq       *channel.Sequence
}

// NewAdapter validates Telegram configuration and constructs an adapter instance.
func NewAdapter(cfg config.TelegramConfig, log *slog.Logger) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("channels.telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	return &Adapter{
		cfg:       cfg,
		allowFrom: channel.AllowFromSet(cfg.AllowFrom),
		log:       log.With("component", "channel.telegram"),
		bot:       bot,
		seq:       channel.NewSequence(time.Now()),
	}, nil
}

// Name returns the channel identifier used in events and logs.
func (a *Adapter) Name() string {
	return channelName
}

// SelfID is zero: Telegram mentions are @username entities, not id tokens.
func (a *Adapter) SelfID() int64 {
	return 0
}

// RandomID returns a dedup token. Telegram ignores it; it is kept for log correlation.
func (a *Adapter) RandomID() int64 {
	return a.seq.Next()
}

// Send posts a text message. Fields Telegram has no equivalent for are dropped.
func (a *Adapter) Send(ctx context.Context, msg bus.OutboundMessage) (int64, error) {
	params, err := sendParams(msg)
	if err != nil {
		return 0, err
	}
	if len(msg.Attachments) > 0 || len(msg.ForwardMessages) > 0 || len(msg.Template) > 0 {
		a.log.Debug("Dropping unsupported outbound fields", "peer_id", msg.PeerID, "random_id", msg.RandomID)
	}

	sent, err := a.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, err
	}

	return int64(sent.MessageID), nil
}

// Run starts Telegram long polling and forwards messages through the shared channel handler.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	updates, err := a.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	a.log.Info("Telegram channel started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			message := update.Message
			if message == nil {
				continue
			}
			if message.From == nil {
				a.log.Debug("Ignoring message without sender")
				continue
			}

			senderID := strconv.FormatInt(message.From.ID, 10)
			if !channel.SenderAllowed(a.allowFrom, senderID) {
				a.log.Debug("Ignoring message from unauthorized sender", "sender_id", senderID)
				continue
			}

			event := inboundEvent(message, time.Now().UTC())
			a.log.Debug("Received message", "peer_id", message.Chat.ID, "sender_id", senderID, "content", channel.PreviewText(message.Text))

			if err := handler(ctx, a, event); err != nil {
				a.log.Error("Failed to accept inbound message", "error", err)
			}
		}
	}
}

// inboundEvent maps a Telegram message; captions act as the fallback body.
func inboundEvent(message *telego.Message, receivedAt time.Time) bus.InboundEvent {
	msg := &bus.Message{
		ID:   int64(message.MessageID),
		Text: message.Text,
		Body: message.Caption,
	}
	if message.Chat.ID != 0 {
		msg.PeerID = bus.Int64(message.Chat.ID)
	}
	if message.From != nil {
		msg.FromID = bus.Int64(message.From.ID)
	}
	if message.Date != 0 {
		msg.Date = time.Unix(message.Date, 0).UTC()
	}
	if len(message.Photo) > 0 {
		msg.Attachments = append(msg.Attachments, bus.Attachment{Type: "photo", Ref: message.Photo[len(message.Photo)-1].FileID})
	}
	if message.Document != nil {
		msg.Attachments = append(msg.Attachments, bus.Attachment{Type: "doc", Ref: message.Document.FileID})
	}

	return bus.InboundEvent{
		Channel:    channelName,
		Message:    msg,
		PeerKind:   chatKind(message.Chat.Type),
		ReceivedAt: receivedAt,
	}
}

// chatKind maps a chat type: private chats are users, groups and supergroups are
// multi-user chats, channels are broadcast communities.
func chatKind(chatType string) peer.Kind {
	switch chatType {
	case "private":
		return peer.KindUser
	case "group", "supergroup":
		return peer.KindChat
	case "channel":
		return peer.KindGroup
	default:
		return peer.KindUnknown
	}
}

// sendParams builds sendMessage parameters. Keyboards must be Telegram inline keyboard JSON.
func sendParams(msg bus.OutboundMessage) (*telego.SendMessageParams, error) {
	params := tu.Message(tu.ID(msg.PeerID), msg.Text)

	if msg.ReplyTo != nil {
		params.ReplyParameters = &telego.ReplyParameters{MessageID: int(*msg.ReplyTo)}
	}
	if msg.DontParseLinks {
		params.LinkPreviewOptions = &telego.LinkPreviewOptions{IsDisabled: true}
	}
	if len(msg.Keyboard) > 0 {
		var keyboard telego.InlineKeyboardMarkup
		if err := json.Unmarshal(msg.Keyboard, &keyboard); err != nil {
			return nil, fmt.Errorf("decode inline keyboard: %w", err)
		}
		params.ReplyMarkup = &keyboard
	}

	return params, nil
}

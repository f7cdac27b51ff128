// Package vk connects a VK community to the dispatcher through the Bots Long Poll API.
package vk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/SevereCloud/vksdk/v2/api"
	"github.com/SevereCloud/vksdk/v2/events"
	longpoll "github.com/SevereCloud/vksdk/v2/longpoll-bot"

	"vkcommands/pkg/bus"
	"vkcommands/pkg/channel"
	"vkcommands/pkg/config"
)

const channelName = "vk"

// Adapter receives message_new events from a community and sends replies with messages.send.
type Adapter struct {
	cfg       config.VKConfig
	allowFrom map[string]struct{}
	log       *slog.Logger
	vk        *api.VK
	seq       *channel.Sequence
}

// NewAdapter validates VK configuration and constructs an adapter instance.
func NewAdapter(cfg config.VKConfig, log *slog.Logger) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("channels.vk.token is required")
	}
	if cfg.GroupID <= 0 {
		return nil, errors.New("channels.vk.group_id must be a positive community id")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg:       cfg,
		allowFrom: channel.AllowFromSet(cfg.AllowFrom),
		log:       log.With("component", "channel.vk"),
		vk:        api.NewVK(token),
		seq:       channel.NewSequence(time.Now()),
	}, nil
}

func (a *Adapter) Name() string {
	return channelName
}

// SelfID is the community's peer id; communities are mentioned as [club<id>|name].
func (a *Adapter) SelfID() int64 {
	return -a.cfg.GroupID
}

func (a *Adapter) RandomID() int64 {
	return a.seq.Next()
}

// Send calls messages.send. The SDK call cannot be interrupted, so a canceled ctx abandons
// the pending request and returns ctx.Err().
func (a *Adapter) Send(ctx context.Context, msg bus.OutboundMessage) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	type result struct {
		id  int
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := a.vk.MessagesSend(sendParams(msg))
		done <- result{id: id, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-done:
		return int64(r.id), r.err
	}
}

// Run starts community long polling and forwards new messages to handler until ctx ends.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	lp, err := longpoll.NewLongPoll(a.vk, int(a.cfg.GroupID))
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	lp.MessageNew(func(_ context.Context, obj events.MessageNewObject) {
		event := inboundEvent(obj, time.Now().UTC())
		senderID := strconv.Itoa(obj.Message.FromID)
		if !channel.SenderAllowed(a.allowFrom, senderID) {
			a.log.Debug("Ignoring message from unauthorized sender", "sender_id", senderID)
			return
		}

		a.log.Debug("Received message", "peer_id", int64(obj.Message.PeerID), "sender_id", senderID, "content", channel.PreviewText(obj.Message.Text))
		if err := handler(ctx, a, event); err != nil {
			a.log.Error("Failed to accept inbound message", "error", err)
		}
	})

	go func() {
		<-ctx.Done()
		lp.Shutdown()
	}()

	a.log.Info("VK channel started", "group_id", a.cfg.GroupID)
	if err := lp.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("long polling: %w", err)
	}

	return nil
}

// inboundEvent maps a message_new object into the transport-neutral event.
func inboundEvent(obj events.MessageNewObject, receivedAt time.Time) bus.InboundEvent {
	msg := obj.Message

	attachments := make([]bus.Attachment, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		attachments = append(attachments, bus.Attachment{Type: string(att.Type)})
	}

	var date time.Time
	if msg.Date != 0 {
		date = time.Unix(int64(msg.Date), 0).UTC()
	}

	return bus.InboundEvent{
		Channel: channelName,
		Message: &bus.Message{
			ID:                    int64(msg.ID),
			ConversationMessageID: int64(msg.ConversationMessageID),
			PeerID:                optionalID(msg.PeerID),
			FromID:                optionalID(msg.FromID),
			Text:                  msg.Text,
			Attachments:           attachments,
			Payload:               msg.Payload,
			Date:                  date,
		},
		ClientInfo: &bus.ClientInfo{
			ButtonActions:  obj.ClientInfo.ButtonActions,
			Keyboard:       bool(obj.ClientInfo.Keyboard),
			InlineKeyboard: bool(obj.ClientInfo.InlineKeyboard),
			Carousel:       bool(obj.ClientInfo.Carousel),
			LangID:         obj.ClientInfo.LangID,
		},
		ReceivedAt: receivedAt,
	}
}

// sendParams renders messages.send parameters, omitting unset optional fields.
func sendParams(msg bus.OutboundMessage) api.Params {
	params := api.Params{
		"peer_id":   msg.PeerID,
		"random_id": msg.RandomID,
	}

	if msg.Text != "" {
		params["message"] = msg.Text
	}
	if len(msg.Attachments) > 0 {
		params["attachment"] = strings.Join(msg.Attachments, ",")
	}
	if len(msg.Keyboard) > 0 {
		params["keyboard"] = string(msg.Keyboard)
	}
	if len(msg.Template) > 0 {
		params["template"] = string(msg.Template)
	}
	if msg.ReplyTo != nil {
		params["reply_to"] = *msg.ReplyTo
	}
	if len(msg.ForwardMessages) > 0 {
		ids := make([]string, 0, len(msg.ForwardMessages))
		for _, id := range msg.ForwardMessages {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		params["forward_messages"] = strings.Join(ids, ",")
	}
	if msg.DontParseLinks {
		params["dont_parse_links"] = 1
	}
	if msg.DisableMentions {
		params["disable_mentions"] = 1
	}
	if msg.Intent != "" {
		params["intent"] = msg.Intent
	}
	if msg.SubscribeID != nil {
		params["subscribe_id"] = int(*msg.SubscribeID)
	}

	return params
}

func optionalID(id int) *int64 {
	if id == 0 {
		return nil
	}

	return bus.Int64(int64(id))
}

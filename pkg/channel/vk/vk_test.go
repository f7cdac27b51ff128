package vk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SevereCloud/vksdk/v2/events"
	"github.com/SevereCloud/vksdk/v2/object"
	"github.com/stretchr/testify/require"

	"vkcommands/pkg/bus"
	"vkcommands/pkg/config"
)

func TestNewAdapterValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := NewAdapter(config.VKConfig{GroupID: 1}, nil)
	require.Error(t, err)

	_, err = NewAdapter(config.VKConfig{Token: "token"}, nil)
	require.Error(t, err)

	adapter, err := NewAdapter(config.VKConfig{Token: "token", GroupID: 45}, nil)
	require.NoError(t, err)
	require.Equal(t, "vk", adapter.Name())
	require.Equal(t, int64(-45), adapter.SelfID())
	require.Less(t, adapter.RandomID(), adapter.RandomID())
}

func TestInboundEventMapping(t *testing.T) {
	t.Parallel()

	received := time.Unix(1700000000, 0).UTC()
	obj := events.MessageNewObject{
		Message: object.MessagesMessage{
			ID:                    10,
			ConversationMessageID: 3,
			PeerID:                2000000001,
			FromID:                123,
			Text:                  "[club45|Bot] ping",
			Date:                  1699999999,
			Payload:               `{"command":"start"}`,
		},
		ClientInfo: object.ClientInfo{
			ButtonActions: []string{"text"},
			Keyboard:      true,
			LangID:        0,
		},
	}

	event := inboundEvent(obj, received)
	require.Equal(t, "vk", event.Channel)
	require.Equal(t, received, event.ReceivedAt)
	require.Equal(t, int64(10), event.Message.ID)
	require.Equal(t, int64(3), event.Message.ConversationMessageID)
	require.Equal(t, int64(2000000001), *event.Message.PeerID)
	require.Equal(t, int64(123), *event.Message.FromID)
	require.Equal(t, "[club45|Bot] ping", event.Message.Text)
	require.Equal(t, `{"command":"start"}`, event.Message.Payload)
	require.Equal(t, time.Unix(1699999999, 0).UTC(), event.Message.Date)
	require.True(t, event.ClientInfo.Keyboard)
	require.Equal(t, []string{"text"}, event.ClientInfo.ButtonActions)
}

func TestInboundEventLeavesMissingIDsUnset(t *testing.T) {
	t.Parallel()

	event := inboundEvent(events.MessageNewObject{Message: object.MessagesMessage{Text: "hi"}}, time.Now())
	require.Nil(t, event.Message.PeerID)
	require.Nil(t, event.Message.FromID)
	require.True(t, event.Message.Date.IsZero())
}

func TestSendParams(t *testing.T) {
	t.Parallel()

	subscribe := uint8(4)
	params := sendParams(bus.OutboundMessage{
		PeerID:          -45,
		Text:            "pong",
		Attachments:     []string{"photo1_2", "doc3_4"},
		Keyboard:        []byte(`{"buttons":[]}`),
		ReplyTo:         bus.Int64(99),
		ForwardMessages: []int64{1, 2},
		DontParseLinks:  true,
		DisableMentions: true,
		Intent:          "default",
		SubscribeID:     &subscribe,
		RandomID:        777,
	})

	require.Equal(t, int64(-45), params["peer_id"])
	require.Equal(t, int64(777), params["random_id"])
	require.Equal(t, "pong", params["message"])
	require.Equal(t, "photo1_2,doc3_4", params["attachment"])
	require.Equal(t, `{"buttons":[]}`, params["keyboard"])
	require.Equal(t, int64(99), params["reply_to"])
	require.Equal(t, "1,2", params["forward_messages"])
	require.Equal(t, 1, params["dont_parse_links"])
	require.Equal(t, 1, params["disable_mentions"])
	require.Equal(t, "default", params["intent"])
	require.Equal(t, 4, params["subscribe_id"])
	_, hasTemplate := params["template"]
	require.False(t, hasTemplate)
}

func TestSendParamsMinimal(t *testing.T) {
	t.Parallel()

	params := sendParams(bus.OutboundMessage{PeerID: 5, RandomID: 1})
	require.Len(t, params, 2)
}

func TestSendCanceledContext(t *testing.T) {
	t.Parallel()

	adapter, err := NewAdapter(config.VKConfig{Token: "token", GroupID: 45}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = adapter.Send(ctx, bus.OutboundMessage{PeerID: 5, Text: "hi"})
	require.True(t, errors.Is(err, context.Canceled))
}

func TestRunRequiresHandler(t *testing.T) {
	t.Parallel()

	adapter, err := NewAdapter(config.VKConfig{Token: "token", GroupID: 45}, nil)
	require.NoError(t, err)
	require.Error(t, adapter.Run(context.Background(), nil))
}

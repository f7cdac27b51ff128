package bus

import (
	"encoding/json"
	"time"

	"vkcommands/pkg/peer"
)

// Message is one platform message in a transport-neutral shape.
//
// PeerID and FromID are optional; adapters leave them nil when the platform omits them.
type Message struct {
	ID                    int64        `json:"id,omitempty"`
	ConversationMessageID int64        `json:"conversation_message_id,omitempty"`
	PeerID                *int64       `json:"peer_id,omitempty"`
	FromID                *int64       `json:"from_id,omitempty"`
	Text                  string       `json:"text,omitempty"`
	Body                  string       `json:"body,omitempty"`
	Attachments           []Attachment `json:"attachments,omitempty"`
	Payload               string       `json:"payload,omitempty"`
	Date                  time.Time    `json:"date,omitempty"`
}

// Attachment references one media item carried by a message.
type Attachment struct {
	Type string `json:"type"`
	Ref  string `json:"ref,omitempty"`
}

// ClientInfo describes what the sender's client can render.
type ClientInfo struct {
	ButtonActions  []string `json:"button_actions,omitempty"`
	Keyboard       bool     `json:"keyboard"`
	InlineKeyboard bool     `json:"inline_keyboard"`
	Carousel       bool     `json:"carousel"`
	LangID         int      `json:"lang_id"`
}

// InboundEvent is one accepted "new message" event from a channel adapter.
//
// PeerKind is set by transports whose peer ids do not follow the VK ranges; the zero value
// leaves classification to the peer id.
type InboundEvent struct {
	Channel    string      `json:"channel"`
	Message    *Message    `json:"message"`
	ClientInfo *ClientInfo `json:"client_info,omitempty"`
	PeerKind   peer.Kind   `json:"peer_kind,omitempty"`
	ReceivedAt time.Time   `json:"received_at"`
}

// OutboundMessage carries messages.send parameters to a transport.
type OutboundMessage struct {
	PeerID          int64           `json:"peer_id"`
	Text            string          `json:"message,omitempty"`
	Attachments     []string        `json:"attachment,omitempty"`
	Keyboard        json.RawMessage `json:"keyboard,omitempty"`
	Template        json.RawMessage `json:"template,omitempty"`
	ReplyTo         *int64          `json:"reply_to,omitempty"`
	ForwardMessages []int64         `json:"forward_messages,omitempty"`
	DontParseLinks  bool            `json:"dont_parse_links,omitempty"`
	DisableMentions bool            `json:"disable_mentions,omitempty"`
	Intent          string          `json:"intent,omitempty"`
	SubscribeID     *uint8          `json:"subscribe_id,omitempty"`
	RandomID        int64           `json:"random_id"`
}

// Int64 returns a pointer to v, for optional id fields.
func Int64(v int64) *int64 {
	return &v
}

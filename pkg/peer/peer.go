package peer

import (
	"errors"
	"fmt"
)

// ChatThreshold is the first peer id that belongs to a multi-user chat.
const ChatThreshold int64 = 2_000_000_000

// ErrOutOfRange reports a peer id that no platform peer can have.
var ErrOutOfRange = errors.New("peer id out of range")

// Kind classifies a conversation peer.
type Kind int

const (
	KindUnknown Kind = iota
	KindGroup
	KindUser
	KindChat
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindUser:
		return "user"
	case KindChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Classify maps a signed peer id to its conversation kind.
//
// Negative ids are communities, ids below ChatThreshold are users and the rest are chats.
// Zero is never a valid peer and yields ErrOutOfRange.
func Classify(id int64) (Kind, error) {
	switch {
	case id < 0:
		return KindGroup, nil
	case id == 0:
		return KindUnknown, fmt.Errorf("classify peer %d: %w", id, ErrOutOfRange)
	case id < ChatThreshold:
		return KindUser, nil
	default:
		return KindChat, nil
	}
}

package lark

import (
	"context"

	"github.com/garyjia/signage-ops/internal/application/port"
)

// ReceiveIDTypeChat addresses a group chat
const ReceiveIDTypeChat = "chat_id"

// Broadcaster posts management feed messages to one Lark group chat
type Broadcaster struct {
	sender port.LarkMessageSender
	chatID string
}

// NewBroadcaster creates a feed broadcaster for chatID
func NewBroadcaster(sender port.LarkMessageSender, chatID string) *Broadcaster {
	return &Broadcaster{
		sender: sender,
		chatID: chatID,
	}
}

// Broadcast sends text to the management chat
func (b *Broadcaster) Broadcast(ctx context.Context, text string) error {
	return b.sender.SendText(ctx, ReceiveIDTypeChat, b.chatID, text)
}

var _ port.FeedBroadcaster = (*Broadcaster)(nil)

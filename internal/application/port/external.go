package port

import "context"

// LarkMessageSender sends plain-text Lark messages
type LarkMessageSender interface {
	// SendText delivers text to receiveID, interpreted per receiveIDType
	// (chat_id, open_id, user_id)
	SendText(ctx context.Context, receiveIDType, receiveID, text string) error
}

// FeedBroadcaster posts a plain-text message to the management channel
type FeedBroadcaster interface {
	Broadcast(ctx context.Context, text string) error
}

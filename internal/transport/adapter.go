// Package transport bridges participant chat platforms (Discord, Slack) to
// the intake engine and campaign dispatcher.
package transport

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must
// satisfy. Each adapter handles connection management and message exchange
// for a single chat platform.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage represents a message received from the chat platform.
// A message carries either text or one media attachment, never both; the
// adapter splits multi-attachment posts into one InboundMessage per item,
// all sharing the same BatchID.
type InboundMessage struct {
	Platform  string    // e.g. "slack", "discord"
	ChannelID string    // platform-specific channel identifier
	UserID    string    // platform-specific user identifier
	UserName  string    // human-readable username
	Text      string    // raw message text
	MediaKey  string    // object-store key of an attached photo or video
	MediaKind string    // "photo" or "video" when MediaKey is set
	BatchID   string    // platform grouping id for media sent together
	Timestamp time.Time // when the message was sent
}

// OutboundMessage represents a message to be sent to the chat platform.
type OutboundMessage struct {
	ChannelID string   // target channel
	UserID    string   // target user, for platforms that DM participants
	Text      string   // message text (platform-native formatting)
	Options   []string // quick-reply choices rendered as buttons/keyboard
}

// BotUserIDer is an optional interface that adapters can implement to
// expose the bot's own user ID. This enables self-message filtering.
type BotUserIDer interface {
	BotUserID() string
}

// Package chat ingests live chat messages from Twitch IRC.
package chat

import (
	"context"
	"fmt"
	"time"

	"chatpulse/internal/core/domain"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"go.uber.org/zap"
)

// TwitchIngest connects to a channel's IRC chat and turns every
// message into a domain chat message on the output channel.
type TwitchIngest struct {
	channel  string
	client   *twitch.Client
	messages chan *domain.ChatMessage
	logger   *zap.SugaredLogger
}

func NewTwitchIngest(channel, botUsername, oauthToken string, logger *zap.SugaredLogger) *TwitchIngest {
	ingest := &TwitchIngest{
		channel:  channel,
		client:   twitch.NewClient(botUsername, oauthToken),
		messages: make(chan *domain.ChatMessage, 100),
		logger:   logger,
	}

	ingest.client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		sentAt := msg.Time
		if sentAt.IsZero() {
			sentAt = time.Now().UTC()
		}

		chatMsg := &domain.ChatMessage{
			MessageID:   msg.ID,
			StreamID:    msg.RoomID,
			Broadcaster: domain.StreamerID(msg.Channel),
			Chatter:     msg.User.Name,
			Text:        msg.Message,
			SentAt:      sentAt,
		}

		select {
		case ingest.messages <- chatMsg:
		default:
			// The pipeline is behind; dropping beats blocking the IRC
			// read loop.
			logger.Warnw("dropping chat message, pipeline backlogged",
				"message_id", msg.ID,
				"channel", msg.Channel,
			)
		}
	})

	return ingest
}

// Messages is the stream of ingested chat messages.
func (i *TwitchIngest) Messages() <-chan *domain.ChatMessage {
	return i.messages
}

// Run connects and blocks until ctx is cancelled or the connection
// fails.
func (i *TwitchIngest) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		i.client.Disconnect()
	}()

	i.client.Join(i.channel)
	i.logger.Infow("connecting to chat", "channel", i.channel)

	if err := i.client.Connect(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("chat connection failed: %w", err)
	}
	return nil
}

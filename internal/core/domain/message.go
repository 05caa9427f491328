package domain

import "time"

// ChatMessage is one raw chat line as received from the chat ingest.
type ChatMessage struct {
	MessageID   string     `json:"message_id"`
	StreamID    string     `json:"stream_id"`
	Broadcaster StreamerID `json:"broadcaster_user_login"`
	Chatter     string     `json:"chatter_user_login"`
	Text        string     `json:"message_text"`
	SentAt      time.Time  `json:"timestamp"`
}

// ClassifiedMessage is a chat message after sentiment analysis.
type ClassifiedMessage struct {
	ChatMessage
	Classification string  `json:"nlp_classification"`
	Score          float64 `json:"-"`
	Magnitude      float64 `json:"-"`
}

// Sentiment labels, from most negative to most positive.
const (
	SentimentVeryNegative     = "Very Negative"
	SentimentNegative         = "Negative"
	SentimentSlightlyNegative = "Slightly Negative"
	SentimentNeutral          = "Neutral"
	SentimentSlightlyPositive = "Slightly Positive"
	SentimentPositive         = "Positive"
	SentimentVeryPositive     = "Very Positive"
)

// EnvelopeTypeProcessedMessage is the type tag of the frame pushed to
// registered connections.
const EnvelopeTypeProcessedMessage = "nlp_processed_message"

// Envelope wraps a payload pushed over a registered connection.
type Envelope struct {
	Type string            `json:"type"`
	Data ClassifiedMessage `json:"data"`
}

// MessageFilter narrows a message history query. Zero values mean
// "no constraint".
type MessageFilter struct {
	Broadcaster StreamerID
	StreamID    string
	Chatter     string
	Start       time.Time
	End         time.Time
}

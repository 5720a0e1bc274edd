package publisher

import (
	"encoding/json"
	"time"
)

// Publisher represents a service for publishing price events
type Publisher interface {
	// Publish publishes a message; messages with the same key land on the same stream
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}

// Event statuses
const (
	StatusRecorded = "recorded"
	StatusFailed   = "failed"
)

// PriceEvent is published after every recorded tracking attempt
type PriceEvent struct {
	URL          string    `json:"url"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	Title        string    `json:"title,omitempty"`
	Price        string    `json:"price,omitempty"`
	DisplayPrice string    `json:"display_price,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Previous     string    `json:"previous_price,omitempty"`
	Delta        string    `json:"delta,omitempty"`
	Percent      string    `json:"percent,omitempty"`
	Direction    string    `json:"direction,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

// Encode marshals the event for Publish
func (e PriceEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/postboard/internal/domain"
)

type MessageType string

const (
	// Server to Client
	MessageTypePostCreated MessageType = MessageType(domain.PostCreated)
	MessageTypePostUpdated MessageType = MessageType(domain.PostUpdated)
	MessageTypePostDeleted MessageType = MessageType(domain.PostDeleted)
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type PostEventPayload struct {
	PostID   string `json:"postId"`
	AuthorID string `json:"authorId"`
}

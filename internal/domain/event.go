package domain

import (
	"time"

	"github.com/google/uuid"
)

type PostEventType string

const (
	PostCreated PostEventType = "post.created"
	PostUpdated PostEventType = "post.updated"
	PostDeleted PostEventType = "post.deleted"
)

// PostEvent announces a committed post mutation.
type PostEvent struct {
	Type     PostEventType `json:"type"`
	PostID   uuid.UUID     `json:"postId"`
	AuthorID uuid.UUID     `json:"authorId"`
	At       time.Time     `json:"at"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title     string    `json:"title" gorm:"not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Published bool      `json:"published" gorm:"not null"`
	AuthorID  uuid.UUID `json:"authorId" gorm:"type:uuid;not null;index"`
	Author    *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostInput carries the client-settable fields of a new post. The author is
// never taken from input.
type PostInput struct {
	Title     string
	Content   string
	Published *bool
}

// PostPatch holds a partial update; nil fields are left untouched.
type PostPatch struct {
	Title     *string
	Content   *string
	Published *bool
}

func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Published == nil
}

// CanMutate reports whether the acting user may update or delete the post.
// Only the author may.
func CanMutate(post *Post, actingUserID uuid.UUID) bool {
	return post != nil && post.AuthorID == actingUserID
}

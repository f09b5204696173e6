package repository

import (
	"context"

	"github.com/dom/postboard/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// PostRepository lists posts newest first, with the author's public fields
// attached.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetAll(ctx context.Context) ([]*domain.Post, error)
	GetByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.PostPatch) (*domain.Post, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type Repositories struct {
	User UserRepository
	Post PostRepository
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dom/postboard/internal/domain"
	"github.com/dom/postboard/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrPostNotFound = fmt.Errorf("post not found: %w", domain.ErrNotFound)
	ErrNotPostOwner = fmt.Errorf("post belongs to another user: %w", domain.ErrForbidden)
)

// EventPublisher receives an event after every committed mutation.
type EventPublisher interface {
	PublishPostEvent(event domain.PostEvent)
}

// PostService composes the post store with the ownership rule. Concurrent
// updates to the same post are not coordinated; the last write wins.
type PostService struct {
	postRepo repository.PostRepository
	events   EventPublisher
	now      func() time.Time
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{
		postRepo: postRepo,
		now:      time.Now,
	}
}

func (s *PostService) SetPublisher(p EventPublisher) {
	s.events = p
}

func (s *PostService) Create(ctx context.Context, input domain.PostInput, callerID uuid.UUID) (*domain.Post, error) {
	if input.Title == "" || input.Content == "" {
		return nil, fmt.Errorf("%w: title and content required", domain.ErrValidation)
	}

	published := true
	if input.Published != nil {
		published = *input.Published
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	post := &domain.Post{
		ID:        uuid.New(),
		Title:     input.Title,
		Content:   input.Content,
		Published: published,
		AuthorID:  callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.publish(domain.PostCreated, post)
	return post, nil
}

func (s *PostService) ListAll(ctx context.Context) ([]*domain.Post, error) {
	return s.postRepo.GetAll(ctx)
}

func (s *PostService) ListMine(ctx context.Context, callerID uuid.UUID) ([]*domain.Post, error) {
	return s.postRepo.GetByAuthor(ctx, callerID)
}

func (s *PostService) GetOne(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return s.find(ctx, id)
}

// Update checks existence first and ownership second, so a caller probing an
// unknown id always gets ErrPostNotFound.
func (s *PostService) Update(ctx context.Context, id uuid.UUID, patch domain.PostPatch, callerID uuid.UUID) (*domain.Post, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	post, err := s.authorize(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	updated, err := s.postRepo.Update(ctx, post.ID, patch)
	if err != nil {
		return nil, s.notFound(err)
	}

	s.publish(domain.PostUpdated, updated)
	return updated, nil
}

// Delete uses the same check order as Update. Removal is permanent.
func (s *PostService) Delete(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error {
	post, err := s.authorize(ctx, id, callerID)
	if err != nil {
		return err
	}

	removed, err := s.postRepo.Delete(ctx, post.ID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrPostNotFound
	}

	s.publish(domain.PostDeleted, post)
	return nil
}

func (s *PostService) authorize(ctx context.Context, id, callerID uuid.UUID) (*domain.Post, error) {
	post, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutate(post, callerID) {
		return nil, ErrNotPostOwner
	}
	return post, nil
}

func (s *PostService) find(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.notFound(err)
	}
	return post, nil
}

func (s *PostService) notFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrPostNotFound
	}
	return err
}

func (s *PostService) publish(t domain.PostEventType, post *domain.Post) {
	if s.events == nil {
		return
	}
	s.events.PublishPostEvent(domain.PostEvent{
		Type:     t,
		PostID:   post.ID,
		AuthorID: post.AuthorID,
		At:       s.now().UTC(),
	})
}

func validatePatch(patch domain.PostPatch) error {
	if patch.Title != nil && *patch.Title == "" {
		return fmt.Errorf("%w: title must not be empty", domain.ErrValidation)
	}
	if patch.Content != nil && *patch.Content == "" {
		return fmt.Errorf("%w: content must not be empty", domain.ErrValidation)
	}
	return nil
}

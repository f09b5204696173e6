package postgres

import (
	"context"

	"github.com/dom/postboard/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *postRepository {
	return &postRepository{db: db}
}

// publicAuthor restricts the preloaded author to the columns that may leave
// the server.
func publicAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "email", "first_name", "last_name")
}

func (r *postRepository) withAuthor(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Author", publicAuthor)
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(post).Error; err != nil {
		return translateError(err)
	}

	var author domain.User
	if err := publicAuthor(r.db.WithContext(ctx)).First(&author, "id = ?", post.AuthorID).Error; err != nil {
		return translateError(err)
	}
	post.Author = &author
	return nil
}

func (r *postRepository) GetAll(ctx context.Context) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := r.withAuthor(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) GetByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := r.withAuthor(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var post domain.Post
	err := r.withAuthor(ctx).First(&post, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

// Update writes only the fields present in the patch and returns the
// refreshed row.
func (r *postRepository) Update(ctx context.Context, id uuid.UUID, patch domain.PostPatch) (*domain.Post, error) {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.Published != nil {
		updates["published"] = *patch.Published
	}

	if len(updates) > 0 {
		result := r.db.WithContext(ctx).
			Model(&domain.Post{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			return nil, translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, domain.ErrNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Post{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

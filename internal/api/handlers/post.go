package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dom/postboard/internal/api/middleware"
	"github.com/dom/postboard/internal/api/respond"
	"github.com/dom/postboard/internal/domain"
	"github.com/dom/postboard/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// MutationRecorder counts post mutations by outcome.
type MutationRecorder interface {
	RecordMutation(op, result string)
}

type PostHandler struct {
	postService *service.PostService
	recorder    MutationRecorder
}

func NewPostHandler(postService *service.PostService, recorder MutationRecorder) *PostHandler {
	return &PostHandler{postService: postService, recorder: recorder}
}

// CreatePostRequest has no author field; unknown fields such as authorId
// are dropped by the decoder.
type CreatePostRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published *bool  `json:"published"`
}

type UpdatePostRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

type AuthorResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type PostResponse struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Published bool            `json:"published"`
	AuthorID  string          `json:"authorId"`
	Author    *AuthorResponse `json:"author,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toPostResponse(p *domain.Post) PostResponse {
	resp := PostResponse{
		ID:        p.ID.String(),
		Title:     p.Title,
		Content:   p.Content,
		Published: p.Published,
		AuthorID:  p.AuthorID.String(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Author != nil {
		resp.Author = &AuthorResponse{
			ID:        p.Author.ID.String(),
			Email:     p.Author.Email,
			FirstName: p.Author.FirstName,
			LastName:  p.Author.LastName,
		}
	}
	return resp
}

func toPostResponses(posts []*domain.Post) []PostResponse {
	resp := make([]PostResponse, len(posts))
	for i, p := range posts {
		resp[i] = toPostResponse(p)
	}
	return resp
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ListAll(r.Context())
	if err != nil {
		respond.Error(w, r, "posts.List", err)
		return
	}
	respond.JSON(w, http.StatusOK, toPostResponses(posts))
}

func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respond.Message(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	posts, err := h.postService.ListMine(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, "posts.ListMine", err)
		return
	}
	respond.JSON(w, http.StatusOK, toPostResponses(posts))
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	post, err := h.postService.GetOne(r.Context(), id)
	if err != nil {
		respond.Error(w, r, "posts.Get", err)
		return
	}
	respond.JSON(w, http.StatusOK, toPostResponse(post))
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respond.Message(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), domain.PostInput{
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
	}, userID)
	h.record("create", err)
	if err != nil {
		respond.Error(w, r, "posts.Create", err)
		return
	}
	respond.JSON(w, http.StatusCreated, toPostResponse(post))
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respond.Message(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.postService.Update(r.Context(), id, domain.PostPatch{
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
	}, userID)
	h.record("update", err)
	if err != nil {
		respond.Error(w, r, "posts.Update", err)
		return
	}
	respond.JSON(w, http.StatusOK, toPostResponse(post))
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respond.Message(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	err := h.postService.Delete(r.Context(), id, userID)
	h.record("delete", err)
	if err != nil {
		respond.Error(w, r, "posts.Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// postID parses the {id} path parameter. A malformed id cannot name an
// existing post, so it is reported as not found.
func (h *PostHandler) postID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, "posts.postID", service.ErrPostNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h *PostHandler) record(op string, err error) {
	if h.recorder == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidation):
		result = "invalid"
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	case errors.Is(err, domain.ErrForbidden):
		result = "forbidden"
	default:
		result = "error"
	}
	h.recorder.RecordMutation(op, result)
}

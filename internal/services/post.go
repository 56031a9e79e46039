package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// PostRepository defines persistence operations for feed posts.
type PostRepository interface {
	List(ctx context.Context, viewerID, offset, limit int) ([]types.Post, int, error)
	Get(ctx context.Context, viewerID int, id int64) (types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
	Delete(ctx context.Context, id int64) error
	Like(ctx context.Context, postID int64, userID int) error
	Unlike(ctx context.Context, postID int64, userID int) error
	ListComments(ctx context.Context, postID int64, offset, limit int) ([]types.Comment, int, error)
	CreateComment(ctx context.Context, comment types.Comment) (types.Comment, error)
	GetComment(ctx context.Context, id int64) (types.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// PostService encapsulates feed use-cases.
type PostService struct {
	repo PostRepository
}

func NewPostService(repo PostRepository) *PostService {
	return &PostService{repo: repo}
}

func (s *PostService) List(ctx context.Context, viewerID, offset, limit int) ([]types.Post, int, error) {
	return s.repo.List(ctx, viewerID, offset, limit)
}

func (s *PostService) Get(ctx context.Context, viewerID int, id int64) (types.Post, error) {
	return s.repo.Get(ctx, viewerID, id)
}

func (s *PostService) Create(ctx context.Context, authorID int, body string) (types.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return types.Post{}, errors.New("post body is required")
	}
	return s.repo.Create(ctx, types.Post{AuthorID: authorID, Body: body})
}

// Update edits a post body. Only the author may edit; staff remove
// content instead of rewriting it.
func (s *PostService) Update(ctx context.Context, editorID int, id int64, body string) (types.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return types.Post{}, errors.New("post body is required")
	}

	post, err := s.repo.Get(ctx, editorID, id)
	if err != nil {
		return types.Post{}, err
	}
	if post.AuthorID != editorID {
		return types.Post{}, ErrNotOwner
	}

	post.Body = body
	return s.repo.Update(ctx, post)
}

// ErrNotOwner is returned when a mutation targets a record the actor
// does not own. Handlers decide whether a staff override applies.
var ErrNotOwner = errors.New("not owner")

// Delete removes a post when the actor is the author or staffOverride is
// set by the handler after a rank check.
func (s *PostService) Delete(ctx context.Context, actorID int, id int64, staffOverride bool) error {
	post, err := s.repo.Get(ctx, actorID, id)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID && !staffOverride {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, id)
}

// ToggleLike likes an unliked post and unlikes a liked one, returning
// the resulting state.
func (s *PostService) ToggleLike(ctx context.Context, userID int, postID int64) (liked bool, err error) {
	post, err := s.repo.Get(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if post.Liked {
		return false, s.repo.Unlike(ctx, postID, userID)
	}
	return true, s.repo.Like(ctx, postID, userID)
}

func (s *PostService) ListComments(ctx context.Context, postID int64, offset, limit int) ([]types.Comment, int, error) {
	return s.repo.ListComments(ctx, postID, offset, limit)
}

func (s *PostService) AddComment(ctx context.Context, authorID int, postID int64, body string) (types.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return types.Comment{}, errors.New("comment body is required")
	}

	// The post must still exist; comments on removed posts 404.
	if _, err := s.repo.Get(ctx, authorID, postID); err != nil {
		return types.Comment{}, err
	}
	return s.repo.CreateComment(ctx, types.Comment{PostID: postID, AuthorID: authorID, Body: body})
}

// DeleteComment removes a comment when the actor authored it or
// staffOverride is set.
func (s *PostService) DeleteComment(ctx context.Context, actorID int, commentID int64, staffOverride bool) error {
	comment, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != actorID && !staffOverride {
		return ErrNotOwner
	}
	if err := s.repo.DeleteComment(ctx, commentID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

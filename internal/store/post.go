package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// PostRepository handles persistence for feed posts, comments, and likes.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// List returns the feed newest first. viewerID marks posts the viewer
// has liked; pass 0 for anonymous views.
func (r *PostRepository) List(ctx context.Context, viewerID, offset, limit int) ([]types.Post, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM posts`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT p.id, p.author_id, p.body,
		       (SELECT COUNT(1) FROM post_likes l WHERE l.post_id = p.id),
		       (SELECT COUNT(1) FROM comments c WHERE c.post_id = p.id),
		       EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $1),
		       p.created_at, p.updated_at
		FROM posts p
		ORDER BY p.created_at DESC, p.id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, viewerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := make([]types.Post, 0, limit)
	for rows.Next() {
		var post types.Post
		if err := rows.Scan(
			&post.ID,
			&post.AuthorID,
			&post.Body,
			&post.LikeCount,
			&post.CommentCount,
			&post.Liked,
			&post.CreatedAt,
			&post.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepository) Get(ctx context.Context, viewerID int, id int64) (types.Post, error) {
	const query = `
		SELECT p.id, p.author_id, p.body,
		       (SELECT COUNT(1) FROM post_likes l WHERE l.post_id = p.id),
		       (SELECT COUNT(1) FROM comments c WHERE c.post_id = p.id),
		       EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $1),
		       p.created_at, p.updated_at
		FROM posts p
		WHERE p.id = $2`
	var post types.Post
	err := r.db.QueryRowContext(ctx, query, viewerID, id).Scan(
		&post.ID,
		&post.AuthorID,
		&post.Body,
		&post.LikeCount,
		&post.CommentCount,
		&post.Liked,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	const query = `
		INSERT INTO posts (author_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		post.AuthorID,
		post.Body,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&post.ID); err != nil {
		return types.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) Update(ctx context.Context, post types.Post) (types.Post, error) {
	post.UpdatedAt = time.Now()

	const query = `
		UPDATE posts
		SET body = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, post.Body, post.UpdatedAt, post.ID)
	if err != nil {
		return types.Post{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Post{}, err
	}
	if affected == 0 {
		return types.Post{}, ErrNotFound
	}
	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM posts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Like records a like; duplicate likes are absorbed by the primary key.
func (r *PostRepository) Like(ctx context.Context, postID int64, userID int) error {
	const query = `
		INSERT INTO post_likes (post_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, postID, userID, time.Now())
	return err
}

// Unlike removes a like. Removing an absent like is not an error.
func (r *PostRepository) Unlike(ctx context.Context, postID int64, userID int) error {
	const query = `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, postID, userID)
	return err
}

func (r *PostRepository) ListComments(ctx context.Context, postID int64, offset, limit int) ([]types.Comment, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM comments WHERE post_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, postID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, post_id, author_id, body, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at, id
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, postID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments := make([]types.Comment, 0, limit)
	for rows.Next() {
		var comment types.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.PostID,
			&comment.AuthorID,
			&comment.Body,
			&comment.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *PostRepository) CreateComment(ctx context.Context, comment types.Comment) (types.Comment, error) {
	comment.CreatedAt = time.Now()

	const query = `
		INSERT INTO comments (post_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		comment.PostID,
		comment.AuthorID,
		comment.Body,
		comment.CreatedAt,
	).Scan(&comment.ID); err != nil {
		return types.Comment{}, err
	}
	return comment, nil
}

func (r *PostRepository) GetComment(ctx context.Context, id int64) (types.Comment, error) {
	const query = `
		SELECT id, post_id, author_id, body, created_at
		FROM comments
		WHERE id = $1`
	var comment types.Comment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&comment.Body,
		&comment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Comment{}, ErrNotFound
		}
		return types.Comment{}, err
	}
	return comment, nil
}

func (r *PostRepository) DeleteComment(ctx context.Context, id int64) error {
	const query = `DELETE FROM comments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

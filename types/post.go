package types

import "time"

// Post represents an entry in the community feed.
type Post struct {
	// ID is the unique identifier of the post.
	ID int64 `json:"id" db:"id"`

	// AuthorID identifies the user who wrote the post.
	AuthorID int `json:"author_id" db:"author_id"`

	// Body is the text content of the post.
	Body string `json:"body" db:"body"`

	// LikeCount is the number of likes the post has received.
	LikeCount int `json:"like_count" db:"like_count"`

	// CommentCount is the number of comments on the post.
	CommentCount int `json:"comment_count" db:"comment_count"`

	// Liked is true when the requesting user has liked the post.
	// Only populated for authenticated list/get views.
	Liked bool `json:"liked" db:"liked"`

	// CreatedAt is the timestamp when the post was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent edit.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Comment represents a reply attached to a post.
type Comment struct {
	// ID is the unique identifier of the comment.
	ID int64 `json:"id" db:"id"`

	// PostID identifies the post the comment belongs to.
	PostID int64 `json:"post_id" db:"post_id"`

	// AuthorID identifies the user who wrote the comment.
	AuthorID int `json:"author_id" db:"author_id"`

	// Body is the text content of the comment.
	Body string `json:"body" db:"body"`

	// CreatedAt is the timestamp when the comment was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

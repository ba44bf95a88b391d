package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Media types accepted on posts.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// MediaItem is one uploaded file attached to a post.
type MediaItem struct {
	URL  string `json:"url" bson:"url"`
	Type string `json:"type" bson:"type"`
}

// Reply is a second-level comment, embedded under its parent comment.
type Reply struct {
	ID        primitive.ObjectID `json:"id" bson:"id"`
	AuthorID  uint               `json:"author_id" bson:"author_id"`
	Text      string             `json:"text" bson:"text"`
	Likes     []uint             `json:"likes" bson:"likes"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Comment is embedded in its post document, with its own like set and replies.
type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"id"`
	AuthorID  uint               `json:"author_id" bson:"author_id"`
	Text      string             `json:"text" bson:"text"`
	Likes     []uint             `json:"likes" bson:"likes"`
	Replies   []Reply            `json:"replies" bson:"replies"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Post is a content document stored in MongoDB. Comments and replies are
// embedded so comment mutations and their counter effects land in a single
// document write. A reshare is a new Post pointing back at the original.
type Post struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        uint                `json:"user_id" bson:"user_id"`
	Caption       string              `json:"caption" bson:"caption"`
	Media         []MediaItem         `json:"media,omitempty" bson:"media,omitempty"`
	LikesCount    int                 `json:"likes_count" bson:"likes_count"`
	CommentsCount int                 `json:"comments_count" bson:"comments_count"`
	ReshareCount  int                 `json:"reshare_count" bson:"reshare_count"`
	IsReshare     bool                `json:"is_reshare" bson:"is_reshare"`
	OriginalPost  *primitive.ObjectID `json:"original_post,omitempty" bson:"original_post,omitempty"`
	Comments      []Comment           `json:"comments" bson:"comments"`
	CreatedAt     time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" bson:"updated_at"`
}

// CreateCommentRequest defines the request body for commenting on a post.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

// CreateReplyRequest defines the request body for replying to a comment.
type CreateReplyRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

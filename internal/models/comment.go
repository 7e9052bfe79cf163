package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Comment is append-only; "unread" is derived per viewer from CommentRead
// marks, never stored on the comment itself.
type Comment struct {
	bun.BaseModel `bun:"table:comments"`

	ID          string    `bun:"id,pk" json:"id"`
	OrderID     string    `bun:"order_id,notnull" json:"orderId"`
	UserID      string    `bun:"user_id,notnull" json:"userId"`
	Message     string    `bun:"message,notnull" json:"message"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	IsFromAdmin bool      `bun:"is_from_admin,notnull" json:"isFromAdmin"`
}

// CommentRead records when a viewer last acknowledged an order's comments.
type CommentRead struct {
	bun.BaseModel `bun:"table:comment_reads"`

	OrderID    string    `bun:"order_id,pk" json:"orderId"`
	UserID     string    `bun:"user_id,pk" json:"userId"`
	LastReadAt time.Time `bun:"last_read_at,notnull" json:"lastReadAt"`
}

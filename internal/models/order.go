package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID            string     `bun:"id,pk" json:"id"`
	UserID        string     `bun:"user_id,notnull" json:"userId"`
	Kind          OrderKind  `bun:"kind,notnull" json:"kind"`
	SourceURL     string     `bun:"source_url,notnull" json:"sourceUrl"`
	TargetURL     string     `bun:"target_url,notnull" json:"targetUrl"`
	AnchorText    string     `bun:"anchor_text,notnull" json:"anchorText"`
	TextEdit      string     `bun:"text_edit,nullzero" json:"textEdit,omitempty"`
	Notes         string     `bun:"notes,nullzero" json:"notes,omitempty"`
	Title         string     `bun:"title,nullzero" json:"title,omitempty"`
	Price         float64    `bun:"price,notnull" json:"price"`
	Status        string     `bun:"status,notnull" json:"status"`
	DateOrdered   time.Time  `bun:"date_ordered,notnull,default:current_timestamp" json:"dateOrdered"`
	DateCompleted *time.Time `bun:"date_completed,nullzero" json:"dateCompleted,omitempty"`

	// Derived per viewer, never stored.
	UnreadComments int `bun:"-" json:"unreadComments"`
}

// OrderPatch carries the updatable order fields. Nil pointers leave the
// stored value untouched.
type OrderPatch struct {
	SourceURL  *string  `json:"sourceUrl"`
	TargetURL  *string  `json:"targetUrl"`
	AnchorText *string  `json:"anchorText"`
	TextEdit   *string  `json:"textEdit"`
	Notes      *string  `json:"notes"`
	Title      *string  `json:"title"`
	Price      *float64 `json:"price"`
}

func (p OrderPatch) Apply(o *Order) {
	if p.SourceURL != nil {
		o.SourceURL = *p.SourceURL
	}
	if p.TargetURL != nil {
		o.TargetURL = *p.TargetURL
	}
	if p.AnchorText != nil {
		o.AnchorText = *p.AnchorText
	}
	if p.TextEdit != nil {
		o.TextEdit = *p.TextEdit
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.Title != nil {
		o.Title = *p.Title
	}
	if p.Price != nil {
		o.Price = *p.Price
	}
}

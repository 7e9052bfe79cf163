package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"linkdesk/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// GetOrderByID → fetch one order by its ID
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByUser → fetch a client's own orders, newest first
func (d *DB) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("date_ordered DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// ListAllOrders → fetch every order, newest first (admin view)
func (d *DB) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Order("date_ordered DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// CreateOrder → insert new order
func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	return err
}

// UpdateOrder → update allowed fields
func (d *DB) UpdateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewUpdate().
		Model(order).
		Column("source_url", "target_url", "anchor_text", "text_edit", "notes", "title", "price", "status", "date_completed").
		Where("id = ?", order.ID).
		Exec(ctx)
	return err
}

// DeleteOrder → hard delete an order and its comment thread
func (d *DB) DeleteOrder(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Comment)(nil)).
			Where("order_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.CommentRead)(nil)).
			Where("order_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.Order)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
}

// ---------------- COMMENTS ----------------

// AddComment → append to an order's thread
func (d *DB) AddComment(ctx context.Context, comment *models.Comment) error {
	_, err := d.Bun.NewInsert().Model(comment).Exec(ctx)
	return err
}

// ListComments → fetch an order's thread, oldest first
func (d *DB) ListComments(ctx context.Context, orderID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := d.Bun.NewSelect().
		Model(&comments).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// MarkCommentsRead → upsert the viewer's read mark for an order
func (d *DB) MarkCommentsRead(ctx context.Context, orderID, userID string, at time.Time) error {
	mark := &models.CommentRead{
		OrderID:    orderID,
		UserID:     userID,
		LastReadAt: at,
	}
	_, err := d.Bun.NewInsert().
		Model(mark).
		On("CONFLICT (order_id, user_id) DO UPDATE").
		Set("last_read_at = EXCLUDED.last_read_at").
		Exec(ctx)
	return err
}

// UnreadCounts → per-order count of counterpart comments newer than the
// viewer's read mark. Admin viewers count client comments on every order;
// client viewers count admin comments on their own orders only.
func (d *DB) UnreadCounts(ctx context.Context, userID string, admin bool) (map[string]int, error) {
	query := d.Bun.NewSelect().
		Model((*models.Comment)(nil)).
		Column("comment.order_id").
		ColumnExpr("count(*) AS unread").
		Join("JOIN orders AS o ON o.id = comment.order_id").
		Join("LEFT JOIN comment_reads AS cr ON cr.order_id = comment.order_id AND cr.user_id = ?", userID).
		Where("comment.is_from_admin = ?", !admin).
		Where("cr.last_read_at IS NULL OR comment.created_at > cr.last_read_at").
		Group("comment.order_id")
	if !admin {
		query = query.Where("o.user_id = ?", userID)
	}

	var rows []struct {
		OrderID string `bun:"order_id"`
		Unread  int    `bun:"unread"`
	}
	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.OrderID] = row.Unread
	}
	return counts, nil
}

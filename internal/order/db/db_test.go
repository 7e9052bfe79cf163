package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"linkdesk/internal/models"
	"linkdesk/internal/order/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { sqldb.Close() })

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Order)(nil),
		(*models.Comment)(nil),
		(*models.CommentRead)(nil),
	} {
		if err := bunDB.ResetModel(ctx, model); err != nil {
			t.Fatalf("Failed to reset model: %v", err)
		}
	}

	return &db.DB{Bun: bunDB}
}

func sampleOrder(id, userID string, ordered time.Time) models.Order {
	return models.Order{
		ID:          id,
		UserID:      userID,
		Kind:        models.KindGuestPost,
		SourceURL:   models.NotApplicableURL,
		TargetURL:   "https://client.example/page",
		AnchorText:  "example anchor",
		Title:       "Sample guest post",
		Price:       150.0,
		Status:      models.StatusInProgress,
		DateOrdered: ordered.Round(time.Second),
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder("order-1", "user-1", time.Now())
	if err := d.CreateOrder(ctx, &order); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}

	got, err := d.GetOrderByID(ctx, "order-1")
	if err != nil {
		t.Fatalf("Failed to get order: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("Expected user ID user-1, got %s", got.UserID)
	}
	if got.Status != models.StatusInProgress {
		t.Errorf("Expected status %q, got %q", models.StatusInProgress, got.Status)
	}
	if got.DateCompleted != nil {
		t.Errorf("Expected nil completion date, got %v", got.DateCompleted)
	}

	if _, err := d.GetOrderByID(ctx, "missing"); err == nil {
		t.Error("Expected error for missing order, got nil")
	}
}

func TestListOrders(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	older := sampleOrder("order-old", "user-1", time.Now().Add(-time.Hour))
	newer := sampleOrder("order-new", "user-1", time.Now())
	other := sampleOrder("order-other", "user-2", time.Now().Add(-time.Minute))
	for _, o := range []models.Order{older, newer, other} {
		o := o
		if err := d.CreateOrder(ctx, &o); err != nil {
			t.Fatalf("Failed to create order: %v", err)
		}
	}

	mine, err := d.ListOrdersByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("Failed to list orders: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("Expected 2 orders, got %d", len(mine))
	}
	if mine[0].ID != "order-new" {
		t.Errorf("Expected newest order first, got %s", mine[0].ID)
	}

	all, err := d.ListAllOrders(ctx)
	if err != nil {
		t.Fatalf("Failed to list all orders: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 orders, got %d", len(all))
	}

	none, err := d.ListOrdersByUser(ctx, "user-3")
	if err != nil {
		t.Fatalf("Failed to list orders: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("Expected empty slice for unknown user, got %v", none)
	}
}

func TestUpdateOrder(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder("order-1", "user-1", time.Now())
	if err := d.CreateOrder(ctx, &order); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}

	completed := time.Now().Round(time.Second)
	order.Status = models.StatusCompleted
	order.DateCompleted = &completed
	order.AnchorText = "updated anchor"
	if err := d.UpdateOrder(ctx, &order); err != nil {
		t.Fatalf("Failed to update order: %v", err)
	}

	got, err := d.GetOrderByID(ctx, "order-1")
	if err != nil {
		t.Fatalf("Failed to get order: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("Expected status %q, got %q", models.StatusCompleted, got.Status)
	}
	if got.AnchorText != "updated anchor" {
		t.Errorf("Expected updated anchor, got %q", got.AnchorText)
	}
	if got.DateCompleted == nil {
		t.Error("Expected completion date to be set")
	}
}

func TestDeleteOrderCascades(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder("order-1", "user-1", time.Now())
	if err := d.CreateOrder(ctx, &order); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	comment := models.Comment{
		ID:        "c1",
		OrderID:   "order-1",
		UserID:    "admin-1",
		Message:   "working on it",
		CreatedAt: time.Now(),
	}
	if err := d.AddComment(ctx, &comment); err != nil {
		t.Fatalf("Failed to add comment: %v", err)
	}
	if err := d.MarkCommentsRead(ctx, "order-1", "user-1", time.Now()); err != nil {
		t.Fatalf("Failed to mark comments read: %v", err)
	}

	if err := d.DeleteOrder(ctx, "order-1"); err != nil {
		t.Fatalf("Failed to delete order: %v", err)
	}

	if _, err := d.GetOrderByID(ctx, "order-1"); err == nil {
		t.Error("Expected order to be gone")
	}
	comments, err := d.ListComments(ctx, "order-1")
	if err != nil {
		t.Fatalf("Failed to list comments: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("Expected comments to be gone, got %d", len(comments))
	}
}

func TestCommentsOrdering(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder("order-1", "user-1", time.Now())
	if err := d.CreateOrder(ctx, &order); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}

	base := time.Now().Round(time.Second)
	for i, msg := range []string{"first", "second", "third"} {
		c := models.Comment{
			ID:        msg,
			OrderID:   "order-1",
			UserID:    "user-1",
			Message:   msg,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := d.AddComment(ctx, &c); err != nil {
			t.Fatalf("Failed to add comment: %v", err)
		}
	}

	comments, err := d.ListComments(ctx, "order-1")
	if err != nil {
		t.Fatalf("Failed to list comments: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("Expected 3 comments, got %d", len(comments))
	}
	if comments[0].Message != "first" || comments[2].Message != "third" {
		t.Errorf("Expected oldest-first ordering, got %s..%s", comments[0].Message, comments[2].Message)
	}
}

func TestUnreadCounts(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	mine := sampleOrder("order-mine", "user-1", time.Now())
	theirs := sampleOrder("order-theirs", "user-2", time.Now())
	for _, o := range []models.Order{mine, theirs} {
		o := o
		if err := d.CreateOrder(ctx, &o); err != nil {
			t.Fatalf("Failed to create order: %v", err)
		}
	}

	base := time.Now().Round(time.Second)
	addComment := func(id, orderID string, fromAdmin bool, at time.Time) {
		t.Helper()
		c := models.Comment{
			ID:          id,
			OrderID:     orderID,
			UserID:      "whoever",
			Message:     "msg " + id,
			CreatedAt:   at,
			IsFromAdmin: fromAdmin,
		}
		if err := d.AddComment(ctx, &c); err != nil {
			t.Fatalf("Failed to add comment: %v", err)
		}
	}

	// Two admin comments on user-1's order, one on user-2's, plus a client
	// comment which must never count for a client viewer.
	addComment("a1", "order-mine", true, base)
	addComment("a2", "order-mine", true, base.Add(time.Minute))
	addComment("a3", "order-theirs", true, base)
	addComment("c1", "order-mine", false, base.Add(2*time.Minute))

	counts, err := d.UnreadCounts(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("Failed to get unread counts: %v", err)
	}
	if counts["order-mine"] != 2 {
		t.Errorf("Expected 2 unread on own order, got %d", counts["order-mine"])
	}
	if _, ok := counts["order-theirs"]; ok {
		t.Error("Client viewer must not see counts for another user's order")
	}

	// Admin viewers count client comments across all orders.
	adminCounts, err := d.UnreadCounts(ctx, "admin-1", true)
	if err != nil {
		t.Fatalf("Failed to get admin unread counts: %v", err)
	}
	if adminCounts["order-mine"] != 1 {
		t.Errorf("Expected 1 unread client comment for admin, got %d", adminCounts["order-mine"])
	}

	// A read mark hides everything at or before it.
	if err := d.MarkCommentsRead(ctx, "order-mine", "user-1", base.Add(time.Minute)); err != nil {
		t.Fatalf("Failed to mark comments read: %v", err)
	}
	counts, err = d.UnreadCounts(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("Failed to get unread counts: %v", err)
	}
	if counts["order-mine"] != 0 {
		t.Errorf("Expected 0 unread after read mark, got %d", counts["order-mine"])
	}

	// A newer admin comment becomes unread again, and upserting the read
	// mark forward clears it.
	addComment("a4", "order-mine", true, base.Add(3*time.Minute))
	counts, err = d.UnreadCounts(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("Failed to get unread counts: %v", err)
	}
	if counts["order-mine"] != 1 {
		t.Errorf("Expected 1 unread after new comment, got %d", counts["order-mine"])
	}
	if err := d.MarkCommentsRead(ctx, "order-mine", "user-1", base.Add(3*time.Minute)); err != nil {
		t.Fatalf("Failed to upsert read mark: %v", err)
	}
	counts, err = d.UnreadCounts(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("Failed to get unread counts: %v", err)
	}
	if counts["order-mine"] != 0 {
		t.Errorf("Expected 0 unread after upserted mark, got %d", counts["order-mine"])
	}
}

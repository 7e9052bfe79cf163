package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkdesk/internal/logger"
	"linkdesk/internal/models"
	"linkdesk/internal/order/kafka"
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAllOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id string) error
	AddComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, orderID string) ([]models.Comment, error)
	MarkCommentsRead(ctx context.Context, orderID, userID string, at time.Time) error
	UnreadCounts(ctx context.Context, userID string, admin bool) (map[string]int, error)
}

type ActionLock interface {
	Acquire(ctx context.Context, resource, id, action, owner string) (bool, error)
	Release(ctx context.Context, resource, id, action, owner string) error
}

type UnreadCache interface {
	GetUnreadCounts(ctx context.Context, userID string) (map[string]int, bool, error)
	SetUnreadCounts(ctx context.Context, userID string, counts map[string]int, ttl time.Duration) error
	InvalidateUnreadCounts(ctx context.Context, userID string) error
}

type EventPublisher interface {
	PublishOrderEvent(event string, order models.Order) error
	PublishCommentAdded(comment models.Comment) error
}

var (
	ErrNotFound         = errors.New("order not found")
	ErrInvalidKind      = errors.New("unknown order kind")
	ErrNotOwner         = errors.New("order belongs to another user")
	ErrInvalidStatus    = errors.New("status not valid for this order kind")
	ErrCancelNotAllowed = errors.New("only in-progress orders can be cancelled")
	ErrActionInFlight   = errors.New("another action on this order is in flight")
	ErrEmptyMessage     = errors.New("comment message cannot be empty")
	ErrMissingFields    = errors.New("required order fields are missing")
)

// Actor identifies who is performing an operation.
type Actor struct {
	UserID string
	Admin  bool
}

type OrderService struct {
	DB     DBLayer
	Lock   ActionLock
	Unread UnreadCache
	Events EventPublisher
	Logger *logger.Logger
}

func NewOrderService(db DBLayer, lock ActionLock, unread UnreadCache, events EventPublisher, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Lock: lock, Unread: unread, Events: events, Logger: log}
}

// ---------------- ORDERS ----------------

// PlaceOrder creates a new order for the actor. The kind is backfilled from
// the legacy structural inference when the caller didn't send one; an
// explicit kind outside the known set is rejected so the order's status set
// is always well defined. Every new order starts in progress.
func (s *OrderService) PlaceOrder(ctx context.Context, actor Actor, order models.Order) (*models.Order, error) {
	if order.TargetURL == "" || order.AnchorText == "" {
		return nil, ErrMissingFields
	}

	order.ID = uuid.NewString()
	if order.UserID == "" || !actor.Admin {
		order.UserID = actor.UserID
	}
	if order.Kind == "" {
		order.Kind = models.InferKind(order.SourceURL, order.Title)
	} else if !order.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	if order.Kind == models.KindGuestPost && order.SourceURL == "" {
		order.SourceURL = models.NotApplicableURL
	}
	order.Status = models.StatusInProgress
	order.DateOrdered = time.Now()
	order.DateCompleted = nil

	s.Logger.LogOrder("CREATE", order.ID, fmt.Sprintf("kind=%s user=%s", order.Kind, order.UserID))

	if err := s.DB.CreateOrder(ctx, &order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.publish(kafka.EventOrderCreated, order)
	return &order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	order, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns the actor's own orders.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor) ([]models.Order, error) {
	orders, err := s.DB.ListOrdersByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.attachUnread(ctx, actor, orders), nil
}

// ListAllOrders returns every order; the handler gates this to admins.
func (s *OrderService) ListAllOrders(ctx context.Context, actor Actor) ([]models.Order, error) {
	orders, err := s.DB.ListAllOrders(ctx)
	if err != nil {
		return nil, err
	}
	return s.attachUnread(ctx, actor, orders), nil
}

// UpdateOrder applies a field patch under the order's update lock.
func (s *OrderService) UpdateOrder(ctx context.Context, actor Actor, id string, patch models.OrderPatch) (*models.Order, error) {
	if err := s.acquire(ctx, "order", id, "update", actor.UserID); err != nil {
		return nil, err
	}
	defer s.release(ctx, "order", id, "update", actor.UserID)

	order, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(order)
	if err := s.DB.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.publish(kafka.EventOrderUpdated, *order)
	return order, nil
}

// UpdateStatus performs a status-only transition. Admins may move an order
// anywhere within its kind's status set; clients may only cancel their own
// order while it is still in progress.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id, status string) (*models.Order, error) {
	if err := s.acquire(ctx, "order", id, "status", actor.UserID); err != nil {
		return nil, err
	}
	defer s.release(ctx, "order", id, "status", actor.UserID)

	order, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !models.ValidStatus(order.Kind, status) {
		return nil, ErrInvalidStatus
	}
	if !actor.Admin {
		if status != models.StatusCancelled || order.Status != models.StatusInProgress {
			return nil, ErrCancelNotAllowed
		}
	}

	order.Status = status
	if status == models.StatusCompleted {
		now := time.Now()
		order.DateCompleted = &now
	} else {
		order.DateCompleted = nil
	}

	if err := s.DB.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}

	event := kafka.EventOrderStatusChanged
	if status == models.StatusCancelled {
		event = kafka.EventOrderCancelled
	}
	s.publish(event, *order)
	return order, nil
}

// DeleteOrder hard-deletes an order; the handler gates this to admins.
func (s *OrderService) DeleteOrder(ctx context.Context, actor Actor, id string) error {
	if err := s.acquire(ctx, "order", id, "delete", actor.UserID); err != nil {
		return err
	}
	defer s.release(ctx, "order", id, "delete", actor.UserID)

	order, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.DB.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}

	s.publish(kafka.EventOrderDeleted, *order)
	return nil
}

// ---------------- COMMENTS ----------------

// AddComment appends to an order's thread. Whitespace-only messages are
// rejected before anything touches storage.
func (s *OrderService) AddComment(ctx context.Context, actor Actor, orderID, message string) (*models.Comment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	if err := s.acquire(ctx, "order", orderID, "comment", actor.UserID); err != nil {
		return nil, err
	}
	defer s.release(ctx, "order", orderID, "comment", actor.UserID)

	order, err := s.loadOwned(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:          uuid.NewString(),
		OrderID:     order.ID,
		UserID:      actor.UserID,
		Message:     message,
		CreatedAt:   time.Now(),
		IsFromAdmin: actor.Admin,
	}
	if err := s.DB.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	// The counterpart's cached unread map is now stale.
	s.invalidateUnread(ctx, order.UserID)

	if s.Events != nil {
		if err := s.Events.PublishCommentAdded(*comment); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish comment_added for order %s: %v", order.ID, err))
		}
	}
	return comment, nil
}

func (s *OrderService) ListComments(ctx context.Context, actor Actor, orderID string) ([]models.Comment, error) {
	if _, err := s.loadOwned(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.DB.ListComments(ctx, orderID)
}

// MarkCommentsRead resets the viewer's unread counter for an order.
func (s *OrderService) MarkCommentsRead(ctx context.Context, actor Actor, orderID string) error {
	if _, err := s.loadOwned(ctx, actor, orderID); err != nil {
		return err
	}
	if err := s.DB.MarkCommentsRead(ctx, orderID, actor.UserID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark comments read: %w", err)
	}
	s.invalidateUnread(ctx, actor.UserID)
	return nil
}

// UnreadCounts returns the viewer's per-order unread map, served from the
// short-TTL redis cache when fresh.
func (s *OrderService) UnreadCounts(ctx context.Context, actor Actor) (map[string]int, error) {
	if s.Unread != nil {
		if counts, hit, err := s.Unread.GetUnreadCounts(ctx, actor.UserID); err == nil && hit {
			return counts, nil
		}
	}

	counts, err := s.DB.UnreadCounts(ctx, actor.UserID, actor.Admin)
	if err != nil {
		return nil, err
	}

	if s.Unread != nil {
		if err := s.Unread.SetUnreadCounts(ctx, actor.UserID, counts, 0); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("cache unread counts for %s: %v", actor.UserID, err))
		}
	}
	return counts, nil
}

// ---------------- HELPERS ----------------

// loadOwned fetches an order and enforces ownership for non-admin actors.
func (s *OrderService) loadOwned(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("order %s not found: %w", id, err)
	}
	if !actor.Admin && order.UserID != actor.UserID {
		return nil, ErrNotOwner
	}
	// Legacy rows predate the explicit kind column.
	if order.Kind == "" {
		order.Kind = models.InferKind(order.SourceURL, order.Title)
	}
	return order, nil
}

func (s *OrderService) attachUnread(ctx context.Context, actor Actor, orders []models.Order) []models.Order {
	counts, err := s.UnreadCounts(ctx, actor)
	if err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("unread counts unavailable: %v", err))
		return orders
	}
	for i := range orders {
		if orders[i].Kind == "" {
			orders[i].Kind = models.InferKind(orders[i].SourceURL, orders[i].Title)
		}
		orders[i].UnreadComments = counts[orders[i].ID]
	}
	return orders
}

func (s *OrderService) acquire(ctx context.Context, resource, id, action, owner string) error {
	if s.Lock == nil {
		return nil
	}
	ok, err := s.Lock.Acquire(ctx, resource, id, action, owner)
	if err != nil {
		return fmt.Errorf("action lock error: %w", err)
	}
	if !ok {
		return ErrActionInFlight
	}
	return nil
}

func (s *OrderService) release(ctx context.Context, resource, id, action, owner string) {
	if s.Lock == nil {
		return
	}
	if err := s.Lock.Release(ctx, resource, id, action, owner); err != nil {
		s.Logger.Error("LOCK", fmt.Sprintf("release %s:%s:%s: %v", resource, id, action, err))
	}
}

func (s *OrderService) invalidateUnread(ctx context.Context, userID string) {
	if s.Unread == nil {
		return
	}
	if err := s.Unread.InvalidateUnreadCounts(ctx, userID); err != nil {
		s.Logger.Warn("REDIS", fmt.Sprintf("invalidate unread counts for %s: %v", userID, err))
	}
}

func (s *OrderService) publish(event string, order models.Order) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishOrderEvent(event, order); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish %s for order %s: %v", event, order.ID, err))
	}
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"linkdesk/internal/csvcodec"
	"linkdesk/internal/models"
)

// API bundles the cache and mutator behind typed calls for the resources the
// views (and the CLI) consume.
type API struct {
	Client  *Client
	Cache   *Cache
	Mutator *Mutator
}

func NewAPI(c *Client, notify Notifier) *API {
	cache := NewCache(c)
	return &API{
		Client:  c,
		Cache:   cache,
		Mutator: NewMutator(cache, notify, c.Logger),
	}
}

// Login establishes the cookie session; the jar keeps it for later calls.
func (a *API) Login(ctx context.Context, username, password string) error {
	_, err := a.Client.Request(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	return err
}

func (a *API) Logout(ctx context.Context) error {
	_, err := a.Client.Request(ctx, http.MethodPost, "/api/auth/logout", nil)
	a.Cache.Clear()
	return err
}

// ListOrders returns the session user's own orders.
func (a *API) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := a.Cache.GetInto(ctx, Key{"orders"}, &orders)
	return orders, err
}

// ListAllOrders returns every order; the server rejects non-admins.
func (a *API) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := a.Cache.GetInto(ctx, Key{"orders", "all"}, &orders)
	return orders, err
}

func (a *API) ListDomains(ctx context.Context) ([]models.Domain, error) {
	var domains []models.Domain
	err := a.Cache.GetInto(ctx, Key{"domains"}, &domains)
	return domains, err
}

func (a *API) ListComments(ctx context.Context, orderID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := a.Cache.GetInto(ctx, Key{"orders", orderID, "comments"}, &comments)
	return comments, err
}

// UnreadCounts maps order id to the viewer's unread comment count.
func (a *API) UnreadCounts(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	err := a.Cache.GetInto(ctx, Key{"orders", "unread-comments"}, &counts)
	return counts, err
}

func (a *API) CreateOrder(ctx context.Context, order models.Order) error {
	key := MutationKey{Resource: "order", ID: "new", Action: "create"}
	return a.Mutator.Do(ctx, key, []Key{{"orders"}}, func(ctx context.Context) error {
		_, err := a.Client.Request(ctx, http.MethodPost, "/api/orders", order)
		return err
	})
}

func (a *API) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	key := MutationKey{Resource: "order", ID: orderID, Action: "status"}
	return a.Mutator.Do(ctx, key, []Key{{"orders"}}, func(ctx context.Context) error {
		_, err := a.Client.Request(ctx, http.MethodPatch, "/api/orders/"+orderID+"/status", map[string]string{"status": status})
		return err
	})
}

func (a *API) DeleteOrder(ctx context.Context, orderID string) error {
	key := MutationKey{Resource: "order", ID: orderID, Action: "delete"}
	return a.Mutator.Do(ctx, key, []Key{{"orders"}}, func(ctx context.Context) error {
		_, err := a.Client.Request(ctx, http.MethodDelete, "/api/orders/"+orderID, nil)
		return err
	})
}

// AddComment rejects whitespace-only messages before any request is made.
func (a *API) AddComment(ctx context.Context, orderID, message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	key := MutationKey{Resource: "order", ID: orderID, Action: "comment"}
	invalidates := []Key{{"orders", orderID, "comments"}, {"orders", "unread-comments"}}
	return a.Mutator.Do(ctx, key, invalidates, func(ctx context.Context) error {
		_, err := a.Client.Request(ctx, http.MethodPost, "/api/orders/"+orderID+"/comments", map[string]string{"message": message})
		return err
	})
}

func (a *API) MarkCommentsRead(ctx context.Context, orderID string) error {
	key := MutationKey{Resource: "order", ID: orderID, Action: "read"}
	invalidates := []Key{{"orders", "unread-comments"}}
	return a.Mutator.Do(ctx, key, invalidates, func(ctx context.Context) error {
		_, err := a.Client.Request(ctx, http.MethodPost, "/api/orders/"+orderID+"/comments/read", nil)
		return err
	})
}

// ImportDomains commits a parsed preview: the explicit second phase of the
// two-phase import.
func (a *API) ImportDomains(ctx context.Context, preview *csvcodec.ImportPreview) (int, error) {
	var result struct {
		Imported int `json:"imported"`
	}
	key := MutationKey{Resource: "domains", ID: "inventory", Action: "import"}
	err := a.Mutator.Do(ctx, key, []Key{{"domains"}}, func(ctx context.Context) error {
		data, err := a.Client.Request(ctx, http.MethodPost, "/api/domains/import", map[string]any{"domains": preview.Rows})
		if err != nil {
			return err
		}
		return decodeInto(data, &result)
	})
	return result.Imported, err
}

// ExportDomainsCSV fetches the raw CSV download.
func (a *API) ExportDomainsCSV(ctx context.Context) ([]byte, error) {
	data, err := a.Client.Request(ctx, http.MethodGet, "/api/domains/export", nil)
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func decodeInto(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package listquery

import (
	"testing"
	"time"

	"linkdesk/internal/models"
)

func price(v float64) *float64 { return &v }

func TestSortOrdersInvolution(t *testing.T) {
	orders := sampleOrders()
	original := make([]string, len(orders))
	for i, o := range orders {
		original[i] = o.ID
	}

	// Sorting twice with the direction flipped both times restores the
	// original arrangement (stable sort).
	SortOrders(orders, OrderSortDateOrdered, true)
	SortOrders(orders, OrderSortDateOrdered, false)
	for i, id := range original {
		if orders[i].ID != id {
			t.Errorf("position %d after desc+asc: got %s, want %s", i, orders[i].ID, id)
		}
	}

	byDate := sampleOrders()
	SortOrders(byDate, OrderSortDateOrdered, false)
	for i := 1; i < len(byDate); i++ {
		if byDate[i].DateOrdered.Before(byDate[i-1].DateOrdered) {
			t.Errorf("ascending date sort out of order at %d", i)
		}
	}
}

func TestSortOrdersByDate(t *testing.T) {
	orders := []models.Order{
		{ID: "late", DateOrdered: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "early", DateOrdered: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "mid", DateOrdered: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	SortOrders(orders, OrderSortDateOrdered, true)
	want := []string{"late", "mid", "early"}
	for i, id := range want {
		if orders[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, orders[i].ID, id)
		}
	}
}

func TestSortDomainsNotApplicableClustersAtTail(t *testing.T) {
	domains := []models.Domain{
		{WebsiteURL: "ne-only.com", Type: models.DomainNicheEdit, NicheEditPrice: price(280)},
		{WebsiteURL: "cheap.com", Type: models.DomainBoth, GuestPostPrice: price(100)},
		{WebsiteURL: "pricey.com", Type: models.DomainGuestPost, GuestPostPrice: price(500)},
		{WebsiteURL: "unpriced.com", Type: models.DomainBoth},
	}

	SortDomains(domains, DomainSortGuestPostPrice, false)
	if domains[0].WebsiteURL != "cheap.com" || domains[1].WebsiteURL != "pricey.com" {
		t.Errorf("ascending: priced domains misordered: %s, %s", domains[0].WebsiteURL, domains[1].WebsiteURL)
	}
	for _, d := range domains[2:] {
		if d.Type.AcceptsGuestPost() && d.GuestPostPrice != nil {
			t.Errorf("ascending: applicable domain %s sorted into the tail", d.WebsiteURL)
		}
	}

	// Flipping direction keeps the not-applicable rows at the tail.
	SortDomains(domains, DomainSortGuestPostPrice, true)
	if domains[0].WebsiteURL != "pricey.com" || domains[1].WebsiteURL != "cheap.com" {
		t.Errorf("descending: priced domains misordered: %s, %s", domains[0].WebsiteURL, domains[1].WebsiteURL)
	}
	for _, d := range domains[2:] {
		if d.Type.AcceptsGuestPost() && d.GuestPostPrice != nil {
			t.Errorf("descending: applicable domain %s sorted into the tail", d.WebsiteURL)
		}
	}
}

func TestSortDomainsByRating(t *testing.T) {
	domains := []models.Domain{
		{WebsiteURL: "b.com", DomainRating: 68},
		{WebsiteURL: "a.com", DomainRating: 75},
		{WebsiteURL: "c.com", DomainRating: 40},
	}

	SortDomains(domains, DomainSortDomainRating, true)
	want := []int{75, 68, 40}
	for i, dr := range want {
		if domains[i].DomainRating != dr {
			t.Errorf("position %d: got DR %d, want %d", i, domains[i].DomainRating, dr)
		}
	}
}

func TestSortDomainsByNameLocaleAware(t *testing.T) {
	domains := []models.Domain{
		{WebsiteName: "zeta"},
		{WebsiteName: "Alpha"},
		{WebsiteName: "beta"},
	}

	SortDomains(domains, DomainSortWebsiteName, false)
	want := []string{"Alpha", "beta", "zeta"}
	for i, name := range want {
		if domains[i].WebsiteName != name {
			t.Errorf("position %d: got %s, want %s", i, domains[i].WebsiteName, name)
		}
	}
}

package listquery

import (
	"math"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"linkdesk/internal/models"
)

// collator compares string fields locale-aware, the way the views sort
// website names and anchor texts.
var collator = collate.New(language.English, collate.IgnoreCase)

// Order sort fields.
const (
	OrderSortDateOrdered = "dateOrdered"
	OrderSortPrice       = "price"
	OrderSortStatus      = "status"
	OrderSortAnchorText  = "anchorText"
	OrderSortSourceURL   = "sourceUrl"
	OrderSortTargetURL   = "targetUrl"
)

// Domain sort fields.
const (
	DomainSortWebsiteName    = "websiteName"
	DomainSortWebsiteURL     = "websiteUrl"
	DomainSortDomainRating   = "domainRating"
	DomainSortWebsiteTraffic = "websiteTraffic"
	DomainSortGuestPostPrice = "guestPostPrice"
	DomainSortNicheEditPrice = "nicheEditPrice"
)

// SortOrders sorts in place by field and direction. Unknown fields fall back
// to date ordered. The sort is stable so flipping direction twice restores
// the original arrangement.
func SortOrders(orders []models.Order, field string, desc bool) {
	sort.SliceStable(orders, func(i, j int) bool {
		c := compareOrders(orders[i], orders[j], field)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareOrders(a, b models.Order, field string) int {
	switch field {
	case OrderSortPrice:
		return compareFloats(a.Price, b.Price)
	case OrderSortStatus:
		return collator.CompareString(a.Status, b.Status)
	case OrderSortAnchorText:
		return collator.CompareString(a.AnchorText, b.AnchorText)
	case OrderSortSourceURL:
		return collator.CompareString(a.SourceURL, b.SourceURL)
	case OrderSortTargetURL:
		return collator.CompareString(a.TargetURL, b.TargetURL)
	default:
		switch {
		case a.DateOrdered.Before(b.DateOrdered):
			return -1
		case a.DateOrdered.After(b.DateOrdered):
			return 1
		}
		return 0
	}
}

// SortDomains sorts in place by field and direction. Price fields a domain's
// type excludes (and nil prices) take an extreme sentinel chosen per
// direction so not-applicable rows cluster at the tail either way.
func SortDomains(domains []models.Domain, field string, desc bool) {
	sort.SliceStable(domains, func(i, j int) bool {
		c := compareDomains(domains[i], domains[j], field, desc)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareDomains(a, b models.Domain, field string, desc bool) int {
	switch field {
	case DomainSortWebsiteName:
		return collator.CompareString(a.WebsiteName, b.WebsiteName)
	case DomainSortWebsiteURL:
		return collator.CompareString(a.WebsiteURL, b.WebsiteURL)
	case DomainSortDomainRating:
		return compareInts(a.DomainRating, b.DomainRating)
	case DomainSortWebsiteTraffic:
		return compareInts(a.WebsiteTraffic, b.WebsiteTraffic)
	case DomainSortGuestPostPrice:
		return compareFloats(guestPostSortKey(a, desc), guestPostSortKey(b, desc))
	case DomainSortNicheEditPrice:
		return compareFloats(nicheEditSortKey(a, desc), nicheEditSortKey(b, desc))
	default:
		return collator.CompareString(a.WebsiteName, b.WebsiteName)
	}
}

// guestPostSortKey returns the price, or a direction-aware sentinel when the
// domain does not sell guest posts.
func guestPostSortKey(d models.Domain, desc bool) float64 {
	if !d.Type.AcceptsGuestPost() || d.GuestPostPrice == nil {
		return notApplicableSentinel(desc)
	}
	return *d.GuestPostPrice
}

func nicheEditSortKey(d models.Domain, desc bool) float64 {
	if !d.Type.AcceptsNicheEdit() || d.NicheEditPrice == nil {
		return notApplicableSentinel(desc)
	}
	return *d.NicheEditPrice
}

func notApplicableSentinel(desc bool) float64 {
	if desc {
		return float64(math.MinInt64)
	}
	return float64(math.MaxInt64)
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

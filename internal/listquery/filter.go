// Package listquery holds the pure list-management logic shared by the order
// and domain views: filter predicates, sort comparators and pagination.
package listquery

import (
	"strconv"
	"strings"
	"time"

	"linkdesk/internal/models"
)

// OrderFilter is a conjunction of criteria; zero values mean "no constraint".
type OrderFilter struct {
	Status string
	Query  string
	From   time.Time
	To     time.Time
	UserID string
	Kind   models.OrderKind
}

// MatchOrder reports whether the order satisfies every set criterion.
// Text search is a case-insensitive substring match across source URL,
// target URL, anchor text, notes and title. The date range is inclusive on
// From and inclusive through the end of day on To.
func MatchOrder(o models.Order, f OrderFilter) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.UserID != "" && o.UserID != f.UserID {
		return false
	}
	if f.Kind != "" && o.Kind != f.Kind {
		return false
	}
	if f.Query != "" && !matchesText(f.Query, o.SourceURL, o.TargetURL, o.AnchorText, o.Notes, o.Title) {
		return false
	}
	if !f.From.IsZero() && o.DateOrdered.Before(f.From) {
		return false
	}
	if !f.To.IsZero() {
		endOfDay := time.Date(f.To.Year(), f.To.Month(), f.To.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), f.To.Location())
		if o.DateOrdered.After(endOfDay) {
			return false
		}
	}
	return true
}

// DomainFilter mirrors the inventory view's controls.
type DomainFilter struct {
	Query         string
	Niche         string
	Type          models.DomainType
	RatingBucket  string
	TrafficBucket string
}

// RatingBuckets are the domain-rating filter options offered by the inventory view.
var RatingBuckets = []Bucket{
	{Label: "0-30", Lower: 0, Upper: 30, First: true},
	{Label: "31-50", Lower: 31, Upper: 50},
	{Label: "51-70", Lower: 51, Upper: 70},
	{Label: "71+", Lower: 71, Last: true},
}

// TrafficBuckets are the monthly-traffic filter options.
var TrafficBuckets = []Bucket{
	{Label: "0-10K", Lower: 0, Upper: 10000, First: true},
	{Label: "10K-50K", Lower: 10000, Upper: 50000},
	{Label: "50K-100K", Lower: 50000, Upper: 100000},
	{Label: "100K+", Lower: 100000, Last: true},
}

// MatchDomain reports whether the domain satisfies every set criterion. A
// "both" domain matches either requested type.
func MatchDomain(d models.Domain, f DomainFilter) bool {
	if f.Query != "" && !matchesText(f.Query, d.WebsiteURL, d.WebsiteName, d.Niche) {
		return false
	}
	if f.Niche != "" && !strings.EqualFold(d.Niche, f.Niche) {
		return false
	}
	if f.Type != "" && f.Type != models.DomainBoth {
		if d.Type != f.Type && d.Type != models.DomainBoth {
			return false
		}
	}
	if f.RatingBucket != "" && !MatchBucket(d.DomainRating, RatingBuckets, f.RatingBucket) {
		return false
	}
	if f.TrafficBucket != "" && !MatchBucket(d.WebsiteTraffic, TrafficBuckets, f.TrafficBucket) {
		return false
	}
	return true
}

// Bucket is one numeric-range filter option. Boundary semantics are
// deliberately asymmetric for compatibility with the existing views:
// the first bucket matches value <= Upper, middle buckets match
// Lower < value <= Upper, and the last bucket matches value > Lower.
type Bucket struct {
	Label string
	Lower int
	Upper int
	First bool
	Last  bool
}

func (b Bucket) contains(value int) bool {
	switch {
	case b.First:
		return value <= b.Upper
	case b.Last:
		return value > b.Lower
	default:
		return value > b.Lower && value <= b.Upper
	}
}

// MatchBucket reports whether value falls in the bucket named label.
// An unknown label matches nothing.
func MatchBucket(value int, buckets []Bucket, label string) bool {
	for _, b := range buckets {
		if b.Label == label {
			return b.contains(value)
		}
	}
	return false
}

// FilterOrders retains orders matching the filter, preserving input order.
// An empty filter returns the input unchanged.
func FilterOrders(orders []models.Order, f OrderFilter) []models.Order {
	if f == (OrderFilter{}) {
		return orders
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if MatchOrder(o, f) {
			out = append(out, o)
		}
	}
	return out
}

// FilterDomains retains domains matching the filter, preserving input order.
func FilterDomains(domains []models.Domain, f DomainFilter) []models.Domain {
	if f == (DomainFilter{}) {
		return domains
	}
	out := make([]models.Domain, 0, len(domains))
	for _, d := range domains {
		if MatchDomain(d, f) {
			out = append(out, d)
		}
	}
	return out
}

func matchesText(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// ParseBuckets builds buckets from labels of the form "a-b" or "a+". Labels
// that fail to parse are skipped. Used by callers that take bucket sets from
// configuration rather than the built-in ones.
func ParseBuckets(labels []string) []Bucket {
	buckets := make([]Bucket, 0, len(labels))
	for i, label := range labels {
		if n, ok := strings.CutSuffix(label, "+"); ok {
			lower, err := strconv.Atoi(n)
			if err != nil {
				continue
			}
			buckets = append(buckets, Bucket{Label: label, Lower: lower, Last: true})
			continue
		}
		lo, hi, ok := strings.Cut(label, "-")
		if !ok {
			continue
		}
		lower, err1 := strconv.Atoi(lo)
		upper, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			continue
		}
		buckets = append(buckets, Bucket{Label: label, Lower: lower, Upper: upper, First: i == 0})
	}
	return buckets
}

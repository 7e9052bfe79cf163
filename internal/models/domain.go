package models

import "github.com/uptrace/bun"

// DomainType says which order flows a domain accepts.
type DomainType string

const (
	DomainGuestPost DomainType = "guest_post"
	DomainNicheEdit DomainType = "niche_edit"
	DomainBoth      DomainType = "both"
)

func (t DomainType) Valid() bool {
	switch t {
	case DomainGuestPost, DomainNicheEdit, DomainBoth:
		return true
	}
	return false
}

// AcceptsGuestPost reports whether guest-post orders can be placed on the domain.
func (t DomainType) AcceptsGuestPost() bool {
	return t == DomainGuestPost || t == DomainBoth
}

func (t DomainType) AcceptsNicheEdit() bool {
	return t == DomainNicheEdit || t == DomainBoth
}

type Domain struct {
	bun.BaseModel `bun:"table:domains"`

	ID             string     `bun:"id,pk" json:"id"`
	WebsiteURL     string     `bun:"website_url,unique,notnull" json:"websiteUrl"`
	WebsiteName    string     `bun:"website_name,notnull" json:"websiteName"`
	DomainRating   int        `bun:"domain_rating,notnull" json:"domainRating"`
	WebsiteTraffic int        `bun:"website_traffic,notnull" json:"websiteTraffic"`
	Niche          string     `bun:"niche,nullzero" json:"niche,omitempty"`
	Type           DomainType `bun:"type,notnull" json:"type"`
	GuestPostPrice *float64   `bun:"guest_post_price,nullzero" json:"guestPostPrice,omitempty"`
	NicheEditPrice *float64   `bun:"niche_edit_price,nullzero" json:"nicheEditPrice,omitempty"`
	GuestPostTAT   *int       `bun:"guest_post_tat,nullzero" json:"guestPostTat,omitempty"`
	NicheEditTAT   *int       `bun:"niche_edit_tat,nullzero" json:"nicheEditTat,omitempty"`
	Guidelines     string     `bun:"guidelines,nullzero" json:"guidelines,omitempty"`
}

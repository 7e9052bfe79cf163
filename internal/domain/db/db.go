package db

import (
	"context"

	"github.com/uptrace/bun"

	"linkdesk/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetDomainByID → fetch one domain
func (d *DB) GetDomainByID(ctx context.Context, id string) (*models.Domain, error) {
	var domain models.Domain
	err := d.Bun.NewSelect().
		Model(&domain).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

// ListDomains → full inventory, alphabetical by site name
func (d *DB) ListDomains(ctx context.Context) ([]models.Domain, error) {
	var domains []models.Domain
	err := d.Bun.NewSelect().
		Model(&domains).
		Order("website_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if domains == nil {
		domains = []models.Domain{}
	}
	return domains, nil
}

// CountByURL → used for duplicate checks before bulk import
func (d *DB) CountByURL(ctx context.Context, urls []string) (int, error) {
	if len(urls) == 0 {
		return 0, nil
	}
	return d.Bun.NewSelect().
		Model((*models.Domain)(nil)).
		Where("website_url IN (?)", bun.In(urls)).
		Count(ctx)
}

// CreateDomain → insert new domain
func (d *DB) CreateDomain(ctx context.Context, domain *models.Domain) error {
	_, err := d.Bun.NewInsert().Model(domain).Exec(ctx)
	return err
}

// UpdateDomain → full-record update
func (d *DB) UpdateDomain(ctx context.Context, domain *models.Domain) error {
	_, err := d.Bun.NewUpdate().
		Model(domain).
		Column("website_url", "website_name", "domain_rating", "website_traffic",
			"niche", "type", "guest_post_price", "niche_edit_price",
			"guest_post_tat", "niche_edit_tat", "guidelines").
		Where("id = ?", domain.ID).
		Exec(ctx)
	return err
}

// DeleteDomain → hard delete
func (d *DB) DeleteDomain(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Domain)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// BulkInsert → insert a whole batch inside one transaction. Any failure,
// including a unique website_url violation, rolls the whole batch back.
func (d *DB) BulkInsert(ctx context.Context, domains []models.Domain) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i := range domains {
			if _, err := tx.NewInsert().Model(&domains[i]).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

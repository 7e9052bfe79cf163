package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"linkdesk/internal/logger"
	"linkdesk/internal/models"
)

type DBLayer interface {
	GetDomainByID(ctx context.Context, id string) (*models.Domain, error)
	ListDomains(ctx context.Context) ([]models.Domain, error)
	CountByURL(ctx context.Context, urls []string) (int, error)
	CreateDomain(ctx context.Context, domain *models.Domain) error
	UpdateDomain(ctx context.Context, domain *models.Domain) error
	DeleteDomain(ctx context.Context, id string) error
	BulkInsert(ctx context.Context, domains []models.Domain) error
}

var (
	ErrNotFound     = errors.New("domain not found")
	ErrInvalidInput = errors.New("domain fields are invalid")
	ErrDuplicateURL = errors.New("duplicate website url")
	ErrEmptyImport  = errors.New("import batch is empty")
)

type DomainService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewDomainService(db DBLayer, log *logger.Logger) *DomainService {
	return &DomainService{DB: db, Logger: log}
}

func (s *DomainService) List(ctx context.Context) ([]models.Domain, error) {
	return s.DB.ListDomains(ctx)
}

func (s *DomainService) Get(ctx context.Context, id string) (*models.Domain, error) {
	domain, err := s.DB.GetDomainByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("domain %s not found: %w", id, err)
	}
	return domain, nil
}

func (s *DomainService) Create(ctx context.Context, domain models.Domain) (*models.Domain, error) {
	if err := normalize(&domain); err != nil {
		return nil, err
	}
	domain.ID = uuid.NewString()

	if err := s.DB.CreateDomain(ctx, &domain); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateURL
		}
		return nil, fmt.Errorf("failed to create domain: %w", err)
	}

	s.Logger.Info("DOMAIN", fmt.Sprintf("created %s (%s)", domain.WebsiteURL, domain.ID))
	return &domain, nil
}

func (s *DomainService) Update(ctx context.Context, id string, domain models.Domain) (*models.Domain, error) {
	if err := normalize(&domain); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	domain.ID = id

	if err := s.DB.UpdateDomain(ctx, &domain); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateURL
		}
		return nil, fmt.Errorf("failed to update domain %s: %w", id, err)
	}
	return &domain, nil
}

func (s *DomainService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.DB.DeleteDomain(ctx, id); err != nil {
		return fmt.Errorf("failed to delete domain %s: %w", id, err)
	}
	s.Logger.Info("DOMAIN", fmt.Sprintf("deleted %s", id))
	return nil
}

// BulkImport commits a confirmed import batch. All or nothing: a duplicate
// website URL, whether inside the batch or already in the catalog, fails the
// whole import and nothing is written.
func (s *DomainService) BulkImport(ctx context.Context, domains []models.Domain) (int, error) {
	if len(domains) == 0 {
		return 0, ErrEmptyImport
	}

	seen := make(map[string]bool, len(domains))
	urls := make([]string, 0, len(domains))
	for i := range domains {
		if err := normalize(&domains[i]); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		url := domains[i].WebsiteURL
		if seen[url] {
			return 0, fmt.Errorf("%w: %s appears twice in the batch", ErrDuplicateURL, url)
		}
		seen[url] = true
		urls = append(urls, url)
		domains[i].ID = uuid.NewString()
	}

	existing, err := s.DB.CountByURL(ctx, urls)
	if err != nil {
		return 0, fmt.Errorf("failed to check for existing domains: %w", err)
	}
	if existing > 0 {
		return 0, fmt.Errorf("%w: %d of the batch already exist", ErrDuplicateURL, existing)
	}

	if err := s.DB.BulkInsert(ctx, domains); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateURL
		}
		return 0, fmt.Errorf("bulk import failed: %w", err)
	}

	s.Logger.Info("DOMAIN", fmt.Sprintf("imported %d domains", len(domains)))
	return len(domains), nil
}

// normalize applies the import defaults and validates the record.
func normalize(d *models.Domain) error {
	d.WebsiteURL = strings.TrimSpace(d.WebsiteURL)
	if d.WebsiteURL == "" {
		return fmt.Errorf("%w: website url is required", ErrInvalidInput)
	}
	if d.WebsiteName == "" {
		d.WebsiteName = d.WebsiteURL
	}
	if d.Type == "" {
		d.Type = models.DomainBoth
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, d.Type)
	}
	if d.DomainRating < 0 || d.DomainRating > 100 {
		return fmt.Errorf("%w: domain rating must be 0-100", ErrInvalidInput)
	}
	if d.WebsiteTraffic < 0 {
		return fmt.Errorf("%w: website traffic cannot be negative", ErrInvalidInput)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

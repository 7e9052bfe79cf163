package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkdesk/internal/domain"
	"linkdesk/internal/logger"
	"linkdesk/internal/models"
)

type MockDomainDB struct {
	domains      map[string]*models.Domain
	byURL        map[string]string
	shouldFailOn string
	errorMsg     string
}

func NewMockDomainDB() *MockDomainDB {
	return &MockDomainDB{
		domains: make(map[string]*models.Domain),
		byURL:   make(map[string]string),
	}
}

func (m *MockDomainDB) fail(op string) error {
	if m.shouldFailOn == op {
		return errors.New(m.errorMsg)
	}
	return nil
}

func (m *MockDomainDB) GetDomainByID(_ context.Context, id string) (*models.Domain, error) {
	if err := m.fail("GetDomainByID"); err != nil {
		return nil, err
	}
	d, ok := m.domains[id]
	if !ok {
		return nil, errors.New("domain not found")
	}
	cp := *d
	return &cp, nil
}

func (m *MockDomainDB) ListDomains(_ context.Context) ([]models.Domain, error) {
	if err := m.fail("ListDomains"); err != nil {
		return nil, err
	}
	out := []models.Domain{}
	for _, d := range m.domains {
		out = append(out, *d)
	}
	return out, nil
}

func (m *MockDomainDB) CountByURL(_ context.Context, urls []string) (int, error) {
	if err := m.fail("CountByURL"); err != nil {
		return 0, err
	}
	n := 0
	for _, url := range urls {
		if _, ok := m.byURL[url]; ok {
			n++
		}
	}
	return n, nil
}

func (m *MockDomainDB) CreateDomain(_ context.Context, d *models.Domain) error {
	if err := m.fail("CreateDomain"); err != nil {
		return err
	}
	if _, ok := m.byURL[d.WebsiteURL]; ok {
		return errors.New("UNIQUE constraint failed: domains.website_url")
	}
	cp := *d
	m.domains[d.ID] = &cp
	m.byURL[d.WebsiteURL] = d.ID
	return nil
}

func (m *MockDomainDB) UpdateDomain(_ context.Context, d *models.Domain) error {
	if err := m.fail("UpdateDomain"); err != nil {
		return err
	}
	old, ok := m.domains[d.ID]
	if !ok {
		return errors.New("domain not found")
	}
	delete(m.byURL, old.WebsiteURL)
	cp := *d
	m.domains[d.ID] = &cp
	m.byURL[d.WebsiteURL] = d.ID
	return nil
}

func (m *MockDomainDB) DeleteDomain(_ context.Context, id string) error {
	if err := m.fail("DeleteDomain"); err != nil {
		return err
	}
	if d, ok := m.domains[id]; ok {
		delete(m.byURL, d.WebsiteURL)
		delete(m.domains, id)
	}
	return nil
}

func (m *MockDomainDB) BulkInsert(_ context.Context, domains []models.Domain) error {
	if err := m.fail("BulkInsert"); err != nil {
		return err
	}
	// All or nothing, like the real transaction.
	for _, d := range domains {
		if _, ok := m.byURL[d.WebsiteURL]; ok {
			return errors.New("UNIQUE constraint failed: domains.website_url")
		}
	}
	for i := range domains {
		d := domains[i]
		m.domains[d.ID] = &d
		m.byURL[d.WebsiteURL] = d.ID
	}
	return nil
}

func newTestService() (*domain.DomainService, *MockDomainDB) {
	db := NewMockDomainDB()
	return domain.NewDomainService(db, logger.NewDiscardLogger()), db
}

func TestCreateDomainDefaults(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), models.Domain{
		WebsiteURL:   "https://techblog.example",
		DomainRating: 55,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "https://techblog.example", created.WebsiteName, "name defaults to URL")
	assert.Equal(t, models.DomainBoth, created.Type, "type defaults to both")
}

func TestCreateDomainValidation(t *testing.T) {
	svc, _ := newTestService()

	cases := []models.Domain{
		{WebsiteURL: ""},
		{WebsiteURL: "https://x.example", Type: "something_else"},
		{WebsiteURL: "https://x.example", DomainRating: 101},
		{WebsiteURL: "https://x.example", WebsiteTraffic: -1},
	}
	for _, c := range cases {
		_, err := svc.Create(context.Background(), c)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestCreateDomainDuplicateURL(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), models.Domain{WebsiteURL: "https://dup.example"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), models.Domain{WebsiteURL: "https://dup.example"})
	assert.ErrorIs(t, err, domain.ErrDuplicateURL)
}

func TestUpdateDomain(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), models.Domain{
		WebsiteURL:   "https://techblog.example",
		WebsiteName:  "Tech Blog",
		DomainRating: 55,
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, models.Domain{
		WebsiteURL:   "https://techblog.example",
		WebsiteName:  "Tech Blog (renamed)",
		DomainRating: 60,
		Type:         models.DomainGuestPost,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Tech Blog (renamed)", updated.WebsiteName)

	_, err = svc.Update(context.Background(), "missing-id", models.Domain{WebsiteURL: "https://y.example"})
	assert.Error(t, err)
}

func TestDeleteDomain(t *testing.T) {
	svc, db := newTestService()

	created, err := svc.Create(context.Background(), models.Domain{WebsiteURL: "https://gone.example"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	if _, ok := db.domains[created.ID]; ok {
		t.Error("Expected domain to be deleted")
	}
}

func TestBulkImport(t *testing.T) {
	svc, db := newTestService()

	n, err := svc.BulkImport(context.Background(), []models.Domain{
		{WebsiteURL: "https://a.example", DomainRating: 40},
		{WebsiteURL: "https://b.example", DomainRating: 70},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, db.domains, 2)
}

func TestBulkImportEmpty(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.BulkImport(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyImport)
}

func TestBulkImportDuplicateInBatch(t *testing.T) {
	svc, db := newTestService()

	_, err := svc.BulkImport(context.Background(), []models.Domain{
		{WebsiteURL: "https://a.example"},
		{WebsiteURL: "https://a.example"},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateURL)
	assert.Empty(t, db.domains, "nothing written on failure")
}

func TestBulkImportDuplicateInCatalog(t *testing.T) {
	svc, db := newTestService()

	_, err := svc.Create(context.Background(), models.Domain{WebsiteURL: "https://existing.example"})
	require.NoError(t, err)

	_, err = svc.BulkImport(context.Background(), []models.Domain{
		{WebsiteURL: "https://new.example"},
		{WebsiteURL: "https://existing.example"},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateURL)
	assert.Len(t, db.domains, 1, "the whole batch is rejected")
}

//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"posintake/internal/application/models"
	"posintake/internal/application/store"
	"posintake/internal/catalog"
	"posintake/pkg/platform/sentinel"
	"posintake/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "applications", "notification_log")
	s.Require().NoError(err)
}

func newApplication(ref string) *models.Application {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Application{
		ID:          uuid.New(),
		ReferenceNo: ref,
		AccessToken: uuid.NewString(),
		Variant:     catalog.VariantStandard,
		Fields:      map[string]string{"company_name": "Acme " + ref, "email": "a@b.c"},
		Status:      models.StatusReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *PostgresStoreSuite) TestCreateFindRoundTrip() {
	ctx := context.Background()
	app := newApplication("POS-202608-00001")
	docs := []models.Document{
		{ApplicationID: app.ID, Type: "vergi_levhasi", Label: "Tax Plate", Locator: "loc1", Mandatory: true, Status: models.DocumentUploaded, UploadedAt: app.CreatedAt},
	}
	s.Require().NoError(s.store.CreateApplication(ctx, app, docs))

	got, err := s.store.FindByReference(ctx, app.ReferenceNo)
	s.Require().NoError(err)
	s.Equal(app.ID, got.ID)
	s.Equal(app.Fields, got.Fields)
	s.Equal(catalog.VariantStandard, got.Variant)

	listed, err := s.store.ListDocuments(ctx, app.ID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(catalog.DocumentType("vergi_levhasi"), listed[0].Type)
	s.True(listed[0].Mandatory)
}

func (s *PostgresStoreSuite) TestDuplicateReferenceConflicts() {
	ctx := context.Background()
	app := newApplication("POS-202608-00002")
	s.Require().NoError(s.store.CreateApplication(ctx, app, nil))

	dup := newApplication("POS-202608-00002")
	s.ErrorIs(s.store.CreateApplication(ctx, dup, nil), sentinel.ErrConflict)
}

// TestConcurrentReferenceClaim verifies that exactly one of many concurrent
// creates with the same reference number wins; the rest see ErrConflict and
// no partial rows remain.
func (s *PostgresStoreSuite) TestConcurrentReferenceClaim() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var created, conflicted atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app := newApplication("POS-202608-00099")
			err := s.store.CreateApplication(ctx, app, []models.Document{
				{ApplicationID: app.ID, Type: "vergi_levhasi", Status: models.DocumentUploaded},
			})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicted.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load(), "exactly one create should win")
	s.Equal(int32(goroutines-1), conflicted.Load())

	winner, err := s.store.FindByReference(ctx, "POS-202608-00099")
	s.Require().NoError(err)
	docs, err := s.store.ListDocuments(ctx, winner.ID)
	s.Require().NoError(err)
	s.Len(docs, 1, "losing transactions must leave no document rows")
}

func (s *PostgresStoreSuite) TestConcurrentDocumentUpsert() {
	ctx := context.Background()
	app := newApplication("POS-202608-00003")
	s.Require().NoError(s.store.CreateApplication(ctx, app, nil))

	const goroutines = 30
	var wg sync.WaitGroup
	var successCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := s.store.UpsertDocument(ctx, models.Document{
				ApplicationID: app.ID,
				Type:          "vergi_levhasi",
				Locator:       uuid.NewString(),
				Status:        models.DocumentUploaded,
				UploadedAt:    time.Now(),
			})
			if err == nil {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(goroutines), successCount.Load(), "all upserts should succeed")
	docs, err := s.store.ListDocuments(ctx, app.ID)
	s.Require().NoError(err)
	s.Len(docs, 1, "upserts on the same type must converge to one row")
}

func (s *PostgresStoreSuite) TestListWithFiltersAndCounts() {
	ctx := context.Background()
	a := newApplication("POS-202608-00010")
	b := newApplication("POS-202608-00011")
	b.Fields["company_name"] = "Bodrum Balik"
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	b.UpdatedAt = b.CreatedAt
	s.Require().NoError(s.store.CreateApplication(ctx, a, []models.Document{
		{ApplicationID: a.ID, Type: "vergi_levhasi", Status: models.DocumentDeficient},
		{ApplicationID: a.ID, Type: "kimlik_fotokopisi", Status: models.DocumentUploaded},
	}))
	s.Require().NoError(s.store.CreateApplication(ctx, b, nil))
	s.Require().NoError(s.store.UpdateStatus(ctx, b.ID, models.StatusApproved, "", time.Now()))

	all, err := s.store.List(ctx, store.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(b.ID, all[0].Application.ID, "newest first")

	received, err := s.store.List(ctx, store.Filter{Status: models.StatusReceived})
	s.Require().NoError(err)
	s.Require().Len(received, 1)
	s.Equal(2, received[0].DocumentCount)
	s.Equal(1, received[0].DeficientCount)

	search, err := s.store.List(ctx, store.Filter{Search: "balik"})
	s.Require().NoError(err)
	s.Require().Len(search, 1)
	s.Equal(b.ID, search[0].Application.ID)

	counts, err := s.store.CountByStatus(ctx)
	s.Require().NoError(err)
	s.Equal(1, counts[models.StatusReceived])
	s.Equal(1, counts[models.StatusApproved])
}

func (s *PostgresStoreSuite) TestNotesRoundTrip() {
	ctx := context.Background()
	app := newApplication("POS-202608-00020")
	s.Require().NoError(s.store.CreateApplication(ctx, app, nil))

	note := models.Note{ID: uuid.New(), ApplicationID: app.ID, Author: "reviewer@bank", Text: "called merchant", CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.store.AddNote(ctx, note))

	notes, err := s.store.ListNotes(ctx, app.ID)
	s.Require().NoError(err)
	s.Require().Len(notes, 1)
	s.Equal("called merchant", notes[0].Text)

	err = s.store.AddNote(ctx, models.Note{ID: uuid.New(), ApplicationID: uuid.New(), Author: "x", Text: "y", CreatedAt: time.Now()})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

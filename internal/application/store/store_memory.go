package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"posintake/internal/application/models"
	"posintake/pkg/platform/sentinel"
)

// MemoryStore keeps everything in maps. It favors clarity over performance
// and backs unit tests plus single-process deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	apps      map[uuid.UUID]models.Application
	byRef     map[string]uuid.UUID
	byToken   map[string]uuid.UUID
	documents map[uuid.UUID][]models.Document
	notes     map[uuid.UUID][]models.Note
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		apps:      make(map[uuid.UUID]models.Application),
		byRef:     make(map[string]uuid.UUID),
		byToken:   make(map[string]uuid.UUID),
		documents: make(map[uuid.UUID][]models.Document),
		notes:     make(map[uuid.UUID][]models.Note),
	}
}

func (s *MemoryStore) CreateApplication(_ context.Context, app *models.Application, docs []models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byRef[app.ReferenceNo]; taken {
		return sentinel.ErrConflict
	}
	if _, taken := s.byToken[app.AccessToken]; taken {
		return sentinel.ErrConflict
	}
	s.apps[app.ID] = cloneApp(*app)
	s.byRef[app.ReferenceNo] = app.ID
	s.byToken[app.AccessToken] = app.ID
	for _, d := range docs {
		d.ApplicationID = app.ID
		s.documents[app.ID] = append(s.documents[app.ID], d)
	}
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneApp(app)
	return &out, nil
}

func (s *MemoryStore) FindByAccessToken(_ context.Context, accessToken string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byToken[accessToken]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneApp(s.apps[id])
	return &out, nil
}

func (s *MemoryStore) FindByReference(_ context.Context, referenceNo string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byRef[referenceNo]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneApp(s.apps[id])
	return &out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.Status, note string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	app.Status = status
	app.StatusNote = note
	app.UpdatedAt = updatedAt
	s.apps[id] = app
	return nil
}

func (s *MemoryStore) UpsertDocument(_ context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[doc.ApplicationID]; !ok {
		return sentinel.ErrNotFound
	}
	docs := s.documents[doc.ApplicationID]
	for i, d := range docs {
		if d.Type == doc.Type {
			docs[i] = doc
			return nil
		}
	}
	s.documents[doc.ApplicationID] = append(docs, doc)
	return nil
}

func (s *MemoryStore) ListDocuments(_ context.Context, applicationID uuid.UUID) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.documents[applicationID]
	out := make([]models.Document, len(docs))
	copy(out, docs)
	return out, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []Summary
	for id, app := range s.apps {
		if f.Status != "" && app.Status != f.Status {
			continue
		}
		if f.Search != "" && !matchesSearch(app, f.Search) {
			continue
		}
		row := Summary{Application: cloneApp(app)}
		for _, d := range s.documents[id] {
			row.DocumentCount++
			if d.Status == models.DocumentDeficient {
				row.DeficientCount++
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Application.CreatedAt.After(rows[j].Application.CreatedAt)
	})
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	return paginate(rows, f.Offset, limit), nil
}

func (s *MemoryStore) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int)
	for _, app := range s.apps {
		counts[app.Status]++
	}
	return counts, nil
}

func (s *MemoryStore) AddNote(_ context.Context, note models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[note.ApplicationID]; !ok {
		return sentinel.ErrNotFound
	}
	s.notes[note.ApplicationID] = append(s.notes[note.ApplicationID], note)
	return nil
}

func (s *MemoryStore) ListNotes(_ context.Context, applicationID uuid.UUID) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notes := s.notes[applicationID]
	out := make([]models.Note, len(notes))
	copy(out, notes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func matchesSearch(app models.Application, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(app.ReferenceNo), needle) ||
		strings.Contains(strings.ToLower(app.CompanyName()), needle)
}

func paginate(rows []Summary, offset, limit int) []Summary {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func cloneApp(app models.Application) models.Application {
	fields := make(map[string]string, len(app.Fields))
	for k, v := range app.Fields {
		fields[k] = v
	}
	app.Fields = fields
	return app
}

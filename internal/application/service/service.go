// Package service orchestrates the intake workflow: submission, staff
// review transitions, deficiency rounds and token-scoped resubmission.
// Stores stay pure I/O; every workflow rule lives here.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"posintake/internal/application/metrics"
	"posintake/internal/application/models"
	"posintake/internal/application/store"
	"posintake/internal/blob"
	"posintake/internal/catalog"
	"posintake/internal/notify"
	"posintake/internal/token"
)

// Dispatcher is the outbound notification port. Dispatch must not block on
// delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs ...notify.Message)
}

// Service implements the intake workflow operations.
type Service struct {
	store      store.Store
	blobs      blob.Store
	cat        *catalog.Catalog
	tokens     *token.Issuer
	notifier   Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	baseURL    string
	staffEmail string
	locks      keyedMutex
	now        func() time.Time
	randInt    func(n int) int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithStaffEmail(email string) Option {
	return func(s *Service) { s.staffEmail = email }
}

// WithClock overrides time.Now. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs the workflow service. baseURL is the public origin used in
// applicant-facing links.
func New(st store.Store, blobs blob.Store, cat *catalog.Catalog, tokens *token.Issuer, notifier Dispatcher, baseURL string, opts ...Option) *Service {
	s := &Service{
		store:    st,
		blobs:    blobs,
		cat:      cat,
		tokens:   tokens,
		notifier: notifier,
		logger:   slog.Default(),
		tracer:   otel.Tracer("posintake/application"),
		baseURL:  baseURL,
		now:      time.Now,
		randInt:  rand.Intn,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// keyedMutex serializes mutating operations per application. Two staff
// actions on different applications never contend; two on the same one do.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id uuid.UUID) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uuid.UUID]*entry)
	}
	e, ok := k.locks[id]
	if !ok {
		e = &entry{}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

// referenceNo formats POS-YYYYMM-NNNNN, e.g. POS-202608-00042.
func (s *Service) referenceNo() string {
	now := s.now()
	return fmt.Sprintf("POS-%04d%02d-%05d", now.Year(), int(now.Month()), s.randInt(100000))
}

func (s *Service) statusURL(accessToken string) string {
	return s.baseURL + "/api/pos/status/" + accessToken
}

func (s *Service) resubmissionURL(tok string) string {
	return s.baseURL + "/api/pos/resubmission?token=" + tok
}

// applicantMessages builds the email and, when a phone is on file, SMS
// renditions of one template for the applicant.
func (s *Service) applicantMessages(app *models.Application, template string, data notify.TemplateData) []notify.Message {
	data.ReferenceNo = app.ReferenceNo
	data.CompanyName = app.CompanyName()
	data.StatusURL = s.statusURL(app.AccessToken)

	subject, body, err := notify.Render(template, data)
	if err != nil {
		s.logger.Error("render notification", "template", template, "error", err)
		return nil
	}
	msgs := []notify.Message{{
		ApplicationID: app.ID,
		Channel:       notify.ChannelEmail,
		Recipient:     app.Email(),
		Template:      template,
		Subject:       subject,
		Body:          body,
	}}
	if phone := app.Phone(); phone != "" {
		msgs = append(msgs, notify.Message{
			ApplicationID: app.ID,
			Channel:       notify.ChannelSMS,
			Recipient:     phone,
			Template:      template,
			Subject:       subject,
			Body:          subject,
		})
	}
	return msgs
}

func (s *Service) staffMessage(app *models.Application, template string, data notify.TemplateData) []notify.Message {
	if s.staffEmail == "" {
		return nil
	}
	data.ReferenceNo = app.ReferenceNo
	data.CompanyName = app.CompanyName()

	subject, body, err := notify.Render(template, data)
	if err != nil {
		s.logger.Error("render notification", "template", template, "error", err)
		return nil
	}
	return []notify.Message{{
		ApplicationID: app.ID,
		Channel:       notify.ChannelEmail,
		Recipient:     s.staffEmail,
		Template:      template,
		Subject:       subject,
		Body:          body,
	}}
}

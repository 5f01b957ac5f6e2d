/*
Package service holds the write operations of the back office.

Every operation:
  - takes the acting user and checks the capability it needs
  - resolves referenced records through the actor's visible snapshot, so a
    record of another company looks exactly like a missing one
  - runs its reads and writes inside one Store.WithTx

Derivations (overdue fee, calendar, settlement report, access filtering)
live in package rental and are pure; this package only sequences them
against a Store.
*/
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/forklift-rental/importer"
	"github.com/warp/forklift-rental/metrics"
	"github.com/warp/forklift-rental/rental"
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Calculator rental.Calculator
	Location   *time.Location
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Importer   *importer.Importer
	Now        func() time.Time
	NewID      func() string
}

type Service struct {
	store    rental.Store
	runs     rental.RunLog
	calc     rental.Calculator
	loc      *time.Location
	log      *zap.Logger
	metrics  *metrics.Metrics
	importer *importer.Importer
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// New creates a Service over store. runs may be nil, in which case
// reconciliation runs are not recorded.
func New(store rental.Store, runs rental.RunLog, opts Options) *Service {
	s := &Service{
		store:    store,
		runs:     runs,
		calc:     opts.Calculator,
		loc:      opts.Location,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		importer: opts.Importer,
		validate: validator.New(),
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.calc.AnnualRate.IsZero() {
		s.calc = rental.DefaultCalculator()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.importer == nil {
		s.importer = importer.New(s.now)
	}
	return s
}

// Today is the current calendar day in the configured time zone.
func (s *Service) Today() rental.Date {
	return rental.DateOf(s.now().In(s.loc))
}

func (s *Service) Calculator() rental.Calculator { return s.calc }

// View returns the part of the current snapshot actor may see.
func (s *Service) View(ctx context.Context, actor *rental.User) (*rental.Snapshot, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return rental.VisibleSnapshot(actor, snap), nil
}

// Actor resolves a user id to the stored user.
func (s *Service) Actor(ctx context.Context, userID string) (*rental.User, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	u, ok := snap.User(userID)
	if !ok {
		return nil, &rental.NotFoundError{Entity: "user", ID: userID}
	}
	return &u, nil
}

// ActorByEmail resolves a login email to the stored user.
func (s *Service) ActorByEmail(ctx context.Context, email string) (*rental.User, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	u, ok := snap.UserByEmail(email)
	if !ok {
		return nil, &rental.NotFoundError{Entity: "user", ID: email}
	}
	return &u, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func authorize(actor *rental.User, capability rental.Capability) error {
	if !rental.Can(actor, capability) {
		return fmt.Errorf("%w: %s", rental.ErrForbidden, capability)
	}
	return nil
}

// owningCompany decides which company a new record belongs to. Admins name
// it explicitly; everyone else writes into their own company.
func owningCompany(snap *rental.Snapshot, actor *rental.User, requested string) (string, error) {
	if actor.Role != rental.RoleAdmin {
		if actor.RentalCompanyID == "" {
			return "", fmt.Errorf("%w: user has no rental company", rental.ErrForbidden)
		}
		if requested != "" && requested != actor.RentalCompanyID {
			return "", &rental.NotFoundError{Entity: "rental company", ID: requested}
		}
		return actor.RentalCompanyID, nil
	}
	if requested == "" {
		return "", &rental.ValidationError{Field: "rental_company_id", Reason: "is required"}
	}
	if _, ok := snap.Company(requested); !ok {
		return "", &rental.NotFoundError{Entity: "rental company", ID: requested}
	}
	return requested, nil
}

func requireText(field, value string) error {
	if value == "" {
		return &rental.ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}

func (s *Service) snapshot(ctx context.Context, tx rental.Store) (*rental.Snapshot, error) {
	snap, err := tx.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

func (s *Service) countTransition(entity, action string) {
	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(entity, action).Inc()
	}
}

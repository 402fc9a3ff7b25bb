package tracker

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
	"duetrack/internal/ports"
)

// ErrInvalidInput marks caller mistakes the domain package does not own
// (blank names, unknown ids in filters, bad flags).
var ErrInvalidInput = errors.New("invalid input")

// Options carries the tracker.* configuration the usecases depend on.
type Options struct {
	DefaultIntervalWeeks       int
	LookaheadWeeks             int
	DefaultPolicy              recurrence.AdvancePolicy
	BlockDeleteWithCompletions bool
	Location                   *time.Location
}

type Service struct {
	repo      ports.TrackerRepository
	uow       ports.UnitOfWork
	cache     ports.Cache
	publisher ports.EventPublisher
	opts      Options

	now   func() time.Time
	newID func() string
}

// NewService wires tracker usecases. cache and publisher are optional.
func NewService(repo ports.TrackerRepository, uow ports.UnitOfWork, cache ports.Cache, publisher ports.EventPublisher, opts Options) *Service {
	if opts.DefaultIntervalWeeks < 1 {
		opts.DefaultIntervalWeeks = 52
	}
	if opts.LookaheadWeeks < 0 {
		opts.LookaheadWeeks = 0
	}
	if opts.DefaultPolicy == "" {
		opts.DefaultPolicy = recurrence.PolicyDueDate
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		repo:      repo,
		uow:       uow,
		cache:     cache,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *Service) Options() Options {
	return s.opts
}

// Today is the clock's calendar date in the configured location.
func (s *Service) Today() civil.Date {
	return civil.DateOf(s.now().In(s.opts.Location))
}

func (s *Service) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return errors.New("tracker repository is required")
	}
	if s.uow == nil {
		return errors.New("tracker unit of work is required")
	}
	return nil
}

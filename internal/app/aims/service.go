package aims

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/livingsystems/orient/internal/domain"
	"github.com/livingsystems/orient/internal/observability"
)

// Service holds aim lifecycle logic. Supersession is delegated to the
// store so it happens inside a single atomic write.
type Service struct {
	store domain.AimStore
	now   func() time.Time
}

func NewService(store domain.AimStore) *Service {
	return &Service{store: store, now: time.Now}
}

type CreateInput struct {
	HeartWish            string
	Statement            string
	StartDate            string // defaults to the given fallback date
	EndDate              string
	AccountabilityPerson string
}

// Create inserts a new active aim, superseding any prior active aim in the
// same store operation. A concurrent "current aim" reader observes exactly
// one active aim throughout.
func (s *Service) Create(ctx context.Context, in CreateInput, fallbackDate string) (*domain.Aim, error) {
	start := in.StartDate
	if start == "" {
		start = fallbackDate
	}

	aim, err := s.store.CreateAim(ctx, &domain.Aim{
		ID:                   domain.AimID(uuid.NewString()),
		HeartWish:            in.HeartWish,
		Statement:            in.Statement,
		StartDate:            start,
		EndDate:              in.EndDate,
		AccountabilityPerson: in.AccountabilityPerson,
		Status:               domain.AimActive,
		CreatedAt:            s.now(),
	})
	if err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info("aim created", "aim_id", aim.ID, "start_date", aim.StartDate)
	return aim, nil
}

func (s *Service) Update(ctx context.Context, id domain.AimID, fields domain.AimUpdate) error {
	return s.store.UpdateAim(ctx, id, fields)
}

// Current returns the single active aim, or nil when there is none.
func (s *Service) Current(ctx context.Context) (*domain.Aim, error) {
	return s.store.CurrentAim(ctx)
}

func (s *Service) History(ctx context.Context, limit int) ([]*domain.Aim, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.ListAims(ctx, limit)
}

// Reflect appends a reflection for the aim. Multiple reflections on the
// same date are all retained.
func (s *Service) Reflect(ctx context.Context, id domain.AimID, date, reflection string, practiceHappened bool) (*domain.AimReflection, error) {
	return s.store.AddAimReflection(ctx, &domain.AimReflection{
		AimID:            id,
		Date:             date,
		Reflection:       reflection,
		PracticeHappened: practiceHappened,
		CreatedAt:        s.now(),
	})
}

func (s *Service) Reflections(ctx context.Context, id domain.AimID, limit int) ([]*domain.AimReflection, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.store.ListAimReflections(ctx, id, limit)
}

package synthesis

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/livingsystems/orient/internal/domain"
	"github.com/livingsystems/orient/internal/observability"
)

// scoreWindowDays is the trailing window used for pattern analysis.
const scoreWindowDays = 14

// Inputs is everything the synthesizer managed to gather for one date.
// Every field may be empty or nil; rendering treats absence explicitly.
type Inputs struct {
	Date string
	Now  time.Time

	Events          []domain.CalendarEvent
	Unread          []domain.Email
	Starred         []domain.Email
	Biometrics      *domain.BiometricSummary
	Snapshot        *domain.Snapshot
	TrackedItems    []*domain.TrackedItem
	Scores          []*domain.ScoreEntry
	Aim             *domain.Aim
	Orientation     string
	PreviousSummary string
}

// NeedsAimFormation derives the aim-formation flag for these inputs.
func (in *Inputs) NeedsAimFormation() bool {
	return domain.NeedsAimFormation(in.Aim, in.Date)
}

type Deps struct {
	Calendar    domain.CalendarSource
	Email       domain.EmailSource
	Biometrics  domain.BiometricSource
	Snapshots   domain.SnapshotStore
	Tracked     domain.TrackedItemStore
	Scores      domain.ScoreStore
	Aims        domain.AimStore
	Orientation domain.OrientationStore
	Sessions    domain.SessionStore
}

// Builder assembles the per-day context document. Adapter reads fan out
// concurrently and degrade independently: a failed source becomes an absent
// section, never an error for the caller.
type Builder struct {
	deps Deps
	loc  *time.Location
	now  func() time.Time
}

func NewBuilder(deps Deps, loc *time.Location) *Builder {
	return &Builder{
		deps: deps,
		loc:  loc,
		now:  time.Now,
	}
}

// WithClock fixes the builder's clock. Tests use this to make rendering
// fully deterministic.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build gathers all sources for the date and renders the context block.
func (b *Builder) Build(ctx context.Context, date string) (string, *Inputs) {
	in := b.Gather(ctx, date)
	return Render(in), in
}

// Gather issues every adapter and store read concurrently and collects
// whatever subset succeeded.
func (b *Builder) Gather(ctx context.Context, date string) *Inputs {
	log := observability.LoggerFromContext(ctx).With("date", date)

	in := &Inputs{
		Date: date,
		Now:  b.now().In(b.loc),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if b.deps.Calendar != nil {
			in.Events = b.deps.Calendar.FetchEvents(gctx, date)
		}
		return nil
	})
	g.Go(func() error {
		if b.deps.Email != nil {
			in.Unread = b.deps.Email.FetchUnread(gctx)
			in.Starred = b.deps.Email.FetchStarred(gctx)
		}
		return nil
	})
	g.Go(func() error {
		if b.deps.Biometrics != nil {
			in.Biometrics = b.deps.Biometrics.FetchDaily(gctx, date)
		}
		return nil
	})
	g.Go(func() error {
		snap, err := b.deps.Snapshots.LatestSnapshot(gctx)
		if err != nil {
			log.Warn("snapshot read failed", "error", err)
			return nil
		}
		in.Snapshot = snap
		return nil
	})
	g.Go(func() error {
		items, err := b.deps.Tracked.ListUnresolvedItems(gctx)
		if err != nil {
			log.Warn("tracked items read failed", "error", err)
			return nil
		}
		in.TrackedItems = items
		return nil
	})
	g.Go(func() error {
		scores, err := b.deps.Scores.ListScores(gctx, scoreWindowDays)
		if err != nil {
			log.Warn("scores read failed", "error", err)
			return nil
		}
		in.Scores = scores
		return nil
	})
	g.Go(func() error {
		aim, err := b.deps.Aims.CurrentAim(gctx)
		if err != nil {
			log.Warn("aim read failed", "error", err)
			return nil
		}
		in.Aim = aim
		return nil
	})
	g.Go(func() error {
		o, err := b.deps.Orientation.GetOrientation(gctx)
		if err != nil {
			log.Warn("orientation read failed", "error", err)
			return nil
		}
		if o != nil {
			in.Orientation = o.Content
		}
		return nil
	})
	g.Go(func() error {
		recent, err := b.deps.Sessions.ListRecentSessions(gctx, 7)
		if err != nil {
			log.Warn("recent sessions read failed", "error", err)
			return nil
		}
		for _, s := range recent {
			if s.Date < date && s.Summary != "" {
				in.PreviousSummary = s.Summary
				break
			}
		}
		return nil
	})

	// Goroutines never return errors; Wait only synchronises the fan-out.
	_ = g.Wait()

	return in
}

// Package league is the orchestration layer of the scoring engine. It loads what the
// pure scoring package needs from the store, runs the computation and writes the
// outcome back, all inside one transaction per request. It also owns the lock
// transition and the announcements that follow it, plus season administration.
package league

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/trentd187/league-scoring/internal/metrics"
	"github.com/trentd187/league-scoring/internal/models"
	"github.com/trentd187/league-scoring/internal/notify"
	"github.com/trentd187/league-scoring/internal/scoring"
	"github.com/trentd187/league-scoring/internal/store"
)

// Options configures a Service. Store is required; everything else has a default.
type Options struct {
	Store     store.Store
	Notifier  notify.Notifier
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	AppOrigin string // Base URL used for links in notifications
}

// Service implements every league operation on top of a Store.
type Service struct {
	store     store.Store
	notifier  notify.Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	appOrigin string
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		store:     opts.Store,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		appOrigin: opts.AppOrigin,
	}
	if s.notifier == nil {
		s.notifier = notify.Discard{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.appOrigin == "" {
		s.appOrigin = "http://localhost:3000"
	}
	return s
}

// invalidf builds a ValidationError from a format string.
func invalidf(format string, args ...any) error {
	return &scoring.ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// rules resolves the season's rules, falling back to the defaults when the season
// has no rules row.
func rules(ctx context.Context, st store.Store, seasonID uuid.UUID) (scoring.Rules, error) {
	row, err := st.Rules(ctx, seasonID)
	if errors.Is(err, store.ErrNotFound) {
		return scoring.DefaultRules(), nil
	}
	if err != nil {
		return scoring.Rules{}, err
	}
	return scoring.RulesFromModel(row), nil
}

// aggregate builds the season standings from the roster and every locked result.
func aggregate(ctx context.Context, st store.Store, seasonID uuid.UUID, r scoring.Rules, exclude ...models.Category) ([]scoring.Standing, error) {
	players, err := st.SeasonPlayers(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	rows, err := st.LockedSeasonResults(ctx, seasonID)
	if err != nil {
		return nil, err
	}

	members := make([]scoring.Member, 0, len(players))
	for _, p := range players {
		members = append(members, scoring.Member{
			SeasonPlayerID: p.ID,
			PersonID:       p.PersonID,
			Name:           p.Person.Name,
			AvatarURL:      p.Person.AvatarURL,
		})
	}
	results := make([]scoring.ScoredResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, scoring.ScoredResult{
			SeasonPlayerID: row.SeasonPlayerID,
			EventID:        row.EventID,
			Category:       row.Event.Category,
			Locked:         row.Event.Locked,
			DidNotPlay:     row.DidNotPlay,
			Points:         row.Points,
		})
	}
	return scoring.Aggregate(members, results, r, exclude...), nil
}

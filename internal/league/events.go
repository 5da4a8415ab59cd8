package league

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trentd187/league-scoring/internal/metrics"
	"github.com/trentd187/league-scoring/internal/models"
	"github.com/trentd187/league-scoring/internal/scoring"
	"github.com/trentd187/league-scoring/internal/store"
)

// SaveRequest is one admin save of an event's results.
type SaveRequest struct {
	Entries []scoring.Entry
	Lock    bool // lock the event after a successful save
	Unlock  bool // unlock only; entries are ignored and nothing is recomputed

	// ExpectedVersion, when set, must match the event's stored version or the save
	// fails with store.ErrVersionConflict.
	ExpectedVersion *int
}

// TeamSaveRequest is an admin save of a team event, expressed as team sheets.
type TeamSaveRequest struct {
	Teams []scoring.TeamSheet
	// Lock, when set, puts the event in that lock state after the save.
	Lock            *bool
	ExpectedVersion *int
}

// SaveResult reports what a save wrote.
type SaveResult struct {
	Event    models.Event
	Outcomes []scoring.Outcome
	Seeds    map[uuid.UUID]int // Final only
	// LockedNow is true when this save moved the event from unlocked to locked.
	LockedNow bool
}

type saveOptions struct {
	entries    []scoring.Entry
	lockTo     *bool
	unlockOnly bool
	expected   *int
	category   models.Category // when set, the event must be of this category
}

// ComputeEvent scores an event from the submitted entries and persists the results.
// Reading, scoring, writing and the optional lock happen in one transaction, so a
// failure at any step leaves the event as it was.
func (s *Service) ComputeEvent(ctx context.Context, eventID uuid.UUID, req SaveRequest) (*SaveResult, error) {
	opts := saveOptions{
		entries:    req.Entries,
		unlockOnly: req.Unlock,
		expected:   req.ExpectedVersion,
	}
	if req.Lock {
		lock := true
		opts.lockTo = &lock
	}
	return s.save(ctx, eventID, opts)
}

// SaveTeams scores a team event from team sheets. Empty teams are ignored, a team with
// players needs a score and nobody may appear twice.
func (s *Service) SaveTeams(ctx context.Context, eventID uuid.UUID, req TeamSaveRequest) (*SaveResult, error) {
	entries, err := scoring.EntriesFromTeams(req.Teams)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, eventID, saveOptions{
		entries:  entries,
		lockTo:   req.Lock,
		expected: req.ExpectedVersion,
		category: models.CategoryTeam,
	})
}

func (s *Service) save(ctx context.Context, eventID uuid.UUID, opts saveOptions) (*SaveResult, error) {
	started := time.Now()
	category := "unknown"

	var res *SaveResult
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		event, err := tx.Event(ctx, eventID)
		if err != nil {
			return err
		}
		category = string(event.Category)
		if !event.Category.Valid() {
			return invalidf("unknown event category %q", event.Category)
		}
		if opts.category != "" && event.Category != opts.category {
			return invalidf("event %s is not a %s event", event.ID, opts.category)
		}
		if opts.expected != nil && *opts.expected != event.Version {
			return store.ErrVersionConflict
		}

		if opts.unlockOnly {
			if event.Locked {
				if err := tx.SetEventLocked(ctx, event.ID, false); err != nil {
					return err
				}
				event.Locked = false
			}
			res = &SaveResult{Event: *event}
			return nil
		}

		outcomes, seeds, err := s.score(ctx, tx, event, opts.entries)
		if err != nil {
			return err
		}
		if event.Version, err = tx.BumpEventVersion(ctx, event.ID, opts.expected); err != nil {
			return err
		}

		res = &SaveResult{Outcomes: outcomes, Seeds: seeds}
		if opts.lockTo != nil && *opts.lockTo != event.Locked {
			if err := tx.SetEventLocked(ctx, event.ID, *opts.lockTo); err != nil {
				return err
			}
			res.LockedNow = *opts.lockTo
			event.Locked = *opts.lockTo
		}
		res.Event = *event
		return nil
	})

	s.metrics.ObserveCompute(category, outcomeLabel(err), started)
	if err != nil {
		s.logger.WarnContext(ctx, "event save failed", "event_id", eventID, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "event saved",
		"event_id", eventID,
		"category", category,
		"results", len(res.Outcomes),
		"version", res.Event.Version,
		"locked", res.Event.Locked,
	)
	if res.LockedNow {
		s.metrics.Locked()
		s.announce(ctx, eventID)
	}
	return res, nil
}

// score runs the computation for one event inside tx and upserts the results.
func (s *Service) score(ctx context.Context, tx store.Store, event *models.Event, entries []scoring.Entry) ([]scoring.Outcome, map[uuid.UUID]int, error) {
	r, err := rules(ctx, tx, event.SeasonID)
	if err != nil {
		return nil, nil, err
	}
	points, err := tx.PointsRows(ctx, event.SeasonID, &event.Category)
	if err != nil {
		return nil, nil, err
	}
	players, err := tx.SeasonPlayers(ctx, event.SeasonID)
	if err != nil {
		return nil, nil, err
	}

	handicaps := make(map[uuid.UUID]float64, len(players))
	for _, p := range players {
		handicaps[p.ID] = p.Hcp
	}
	for _, e := range entries {
		if e.SeasonPlayerID == uuid.Nil {
			continue // reported by Compute as a validation error
		}
		if _, ok := handicaps[e.SeasonPlayerID]; !ok {
			return nil, nil, &store.NotFoundError{What: "season player", ID: e.SeasonPlayerID.String()}
		}
	}

	var seeds map[uuid.UUID]int
	if event.Category == models.CategoryFinal {
		if seeds, err = s.rebuildSeeds(ctx, tx, event, r); err != nil {
			return nil, nil, err
		}
	}

	outcomes, err := scoring.Compute(scoring.Input{
		Category:  event.Category,
		Rules:     r,
		Points:    scoring.NewPointsTable(event.Category, points),
		Handicaps: handicaps,
		Seeds:     seeds,
		Entries:   entries,
	})
	if err != nil {
		return nil, nil, err
	}

	rows := make([]models.Result, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, models.Result{
			EventID:         event.ID,
			SeasonPlayerID:  o.SeasonPlayerID,
			GrossStrokes:    o.GrossStrokes,
			DidNotPlay:      o.DidNotPlay,
			OverridePlacing: o.OverridePlacing,
			TeamNumber:      o.TeamNumber,
			TeamScore:       o.TeamScore,
			HcpStrokes:      o.HcpStrokes,
			NetStrokes:      o.NetStrokes,
			AdjustedScore:   o.AdjustedScore,
			Placing:         o.Placing,
			Points:          o.Points,
		})
	}
	if err := tx.UpsertResults(ctx, rows); err != nil {
		return nil, nil, err
	}
	return outcomes, seeds, nil
}

// RebuildFinalSeeds recomputes the Final's start scores from the current standings.
func (s *Service) RebuildFinalSeeds(ctx context.Context, eventID uuid.UUID) (map[uuid.UUID]int, error) {
	var seeds map[uuid.UUID]int
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		event, err := tx.Event(ctx, eventID)
		if err != nil {
			return err
		}
		if event.Category != models.CategoryFinal {
			return invalidf("event %s is not a final", event.ID)
		}
		r, err := rules(ctx, tx, event.SeasonID)
		if err != nil {
			return err
		}
		seeds, err = s.rebuildSeeds(ctx, tx, event, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return seeds, nil
}

// rebuildSeeds replaces every start score of the Final with a fresh set taken from the
// standings (Final excluded). Players outside the top FinalFieldSize get no seed.
func (s *Service) rebuildSeeds(ctx context.Context, tx store.Store, event *models.Event, r scoring.Rules) (map[uuid.UUID]int, error) {
	if err := tx.DeleteStartScores(ctx, event.ID); err != nil {
		return nil, err
	}
	standings, err := aggregate(ctx, tx, event.SeasonID, r)
	if err != nil {
		return nil, err
	}

	seeds := scoring.SeedFinal(standings, r)
	rows := make([]models.EventStartScore, 0, len(seeds))
	byPlayer := make(map[uuid.UUID]int, len(seeds))
	for _, seed := range seeds {
		rows = append(rows, models.EventStartScore{
			EventID:        event.ID,
			SeasonPlayerID: seed.SeasonPlayerID,
			StartScore:     seed.StartScore,
		})
		byPlayer[seed.SeasonPlayerID] = seed.StartScore
	}
	if err := tx.UpsertStartScores(ctx, rows); err != nil {
		return nil, err
	}
	s.metrics.SeedsRebuilt()
	return byPlayer, nil
}

// ToggleLock flips the event's lock. Locking recomputes from the stored result rows
// first (and reseeds a Final), so the points that start counting are current.
// It returns the lock state before and after.
func (s *Service) ToggleLock(ctx context.Context, eventID uuid.UUID) (before, after bool, err error) {
	event, err := s.store.Event(ctx, eventID)
	if err != nil {
		return false, false, err
	}
	before = event.Locked
	if before {
		res, err := s.save(ctx, eventID, saveOptions{unlockOnly: true})
		if err != nil {
			return before, before, err
		}
		return before, res.Event.Locked, nil
	}

	res, err := s.Recompute(ctx, eventID, true)
	if err != nil {
		return before, before, err
	}
	return before, res.Event.Locked, nil
}

// Recompute scores an event again from its stored result rows, picking up changed
// rules, points tables or (for a Final) standings. With lock set the event is locked
// afterwards; otherwise its lock is left alone.
func (s *Service) Recompute(ctx context.Context, eventID uuid.UUID, lock bool) (*SaveResult, error) {
	rows, err := s.store.EventResults(ctx, eventID)
	if err != nil {
		return nil, err
	}
	opts := saveOptions{entries: entriesFromResults(rows)}
	if lock {
		opts.lockTo = &lock
	}
	return s.save(ctx, eventID, opts)
}

// entriesFromResults turns stored rows back into the inputs that produced them.
func entriesFromResults(rows []models.Result) []scoring.Entry {
	entries := make([]scoring.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, scoring.Entry{
			SeasonPlayerID:  r.SeasonPlayerID,
			GrossStrokes:    r.GrossStrokes,
			DidNotPlay:      r.DidNotPlay,
			OverridePlacing: r.OverridePlacing,
			TeamNumber:      r.TeamNumber,
			TeamScore:       r.TeamScore,
		})
	}
	return entries
}

// EventResults returns the stored results of an event with the players preloaded.
func (s *Service) EventResults(ctx context.Context, eventID uuid.UUID) (*models.Event, []models.Result, error) {
	event, err := s.store.Event(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.store.EventResults(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return event, rows, nil
}

func outcomeLabel(err error) string {
	var invalid *scoring.ValidationError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &invalid):
		return metrics.OutcomeInvalid
	case errors.Is(err, store.ErrVersionConflict):
		return metrics.OutcomeConflict
	}
	return metrics.OutcomeError
}

package league

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/trentd187/league-scoring/internal/models"
	"github.com/trentd187/league-scoring/internal/notify"
	"github.com/trentd187/league-scoring/internal/scoring"
)

// Standings returns the season leaderboard. The Final and any excluded category are
// left out of the totals.
func (s *Service) Standings(ctx context.Context, seasonID uuid.UUID, exclude ...models.Category) ([]scoring.Standing, error) {
	if _, err := s.store.Season(ctx, seasonID); err != nil {
		return nil, err
	}
	r, err := rules(ctx, s.store, seasonID)
	if err != nil {
		return nil, err
	}
	standings, err := aggregate(ctx, s.store, seasonID, r, exclude...)
	if err != nil {
		return nil, err
	}
	s.metrics.StandingsServed()
	return standings, nil
}

// announce sends the notifications for an event that just became locked: the winner
// announcement always, and a leader announcement when the season leader changed.
// Failures are logged and counted; the lock has already been committed.
func (s *Service) announce(ctx context.Context, eventID uuid.UUID) {
	event, rows, err := s.EventResults(ctx, eventID)
	if err != nil {
		s.logger.ErrorContext(ctx, "announce: load event", "event_id", eventID, "error", err)
		return
	}

	s.send(ctx, notify.Notification{
		Kind:  models.NotificationResults,
		Title: resultsTitle(event, rows),
		Body:  "Results published",
		Link:  s.link(fmt.Sprintf("/events/%s", event.ID), event.SeasonID),
	})

	if err := s.announceLeader(ctx, event.SeasonID); err != nil {
		s.logger.ErrorContext(ctx, "announce: leader", "season_id", event.SeasonID, "error", err)
	}
}

func (s *Service) announceLeader(ctx context.Context, seasonID uuid.UUID) error {
	season, err := s.store.Season(ctx, seasonID)
	if err != nil {
		return err
	}
	standings, err := s.Standings(ctx, seasonID)
	if err != nil {
		return err
	}
	if len(standings) == 0 {
		return nil
	}
	leader := standings[0]
	if season.LastNotifiedLeaderPersonID != nil && *season.LastNotifiedLeaderPersonID == leader.PersonID {
		return nil
	}

	s.send(ctx, notify.Notification{
		Kind:  models.NotificationLeader,
		Title: "🚨 New season leader 🚨",
		Body:  leader.Name + " 🔥",
		Link:  s.link("/", seasonID),
	})
	return s.store.SetLastNotifiedLeader(ctx, seasonID, leader.PersonID)
}

func (s *Service) send(ctx context.Context, n notify.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.metrics.Notified(string(n.Kind), "failed")
		s.logger.WarnContext(ctx, "notification failed", "kind", n.Kind, "error", err)
		return
	}
	s.metrics.Notified(string(n.Kind), "sent")
}

func (s *Service) link(path string, seasonID uuid.UUID) string {
	return strings.TrimRight(s.appOrigin, "/") + path + "?season=" + url.QueryEscape(seasonID.String())
}

// resultsTitle names the winner, or both winners of a team event.
func resultsTitle(event *models.Event, rows []models.Result) string {
	limit := 1
	if event.Category == models.CategoryTeam {
		limit = 2
	}
	var names []string
	for _, r := range rows {
		if r.Placing == nil || *r.Placing != 1 || r.SeasonPlayer.Person.Name == "" {
			continue
		}
		if len(names) == limit {
			break
		}
		names = append(names, r.SeasonPlayer.Person.Name)
	}

	winner := "Winner"
	if len(names) > 0 {
		winner = strings.Join(names, " & ")
	}
	course := event.Name
	if event.Course != nil && *event.Course != "" {
		course = *event.Course
	}
	return fmt.Sprintf("🥇 %s wins at %s - %s", winner, course, event.Category.Label())
}

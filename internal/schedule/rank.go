package schedule

import (
	"sort"
	"time"

	"github.com/varoOP/whist/internal/domain"
)

const (
	// weekly-paced shows stay hidden this long after the last watch
	weeklyCooldownDays = 7
	fastSuggestedCount = 2
)

// ShowEpisodes is a tracked show with its cached episodes.
type ShowEpisodes struct {
	Show     *domain.Show
	Episodes []*domain.Episode
}

// SeasonFloor is the highest season holding a watched episode, or 1.
func SeasonFloor(episodes []*domain.Episode) int {
	floor := 1
	for _, e := range episodes {
		if e.Watched && e.SeasonNumber > floor {
			floor = e.SeasonNumber
		}
	}
	return floor
}

// Rank builds today's schedule. Airing shows with aired, unwatched episodes
// come first, then binging shows filtered by pace. Each group is ordered by
// most recent watch (never-watched last), then title. Candidate episodes
// never come from a season below the show's season floor.
func Rank(today time.Time, shows []ShowEpisodes) []*domain.ScheduleCard {
	day := today.Format(time.DateOnly)
	y, m, d := today.Date()
	cutoff := time.Date(y, m, d-weeklyCooldownDays, 0, 0, 0, 0, today.Location())

	var airing, binging []ShowEpisodes
	for _, se := range shows {
		switch se.Show.UserStatus {
		case domain.StatusAiring:
			airing = append(airing, se)
		case domain.StatusBinging:
			binging = append(binging, se)
		}
	}
	byRecency(airing)
	byRecency(binging)

	cards := make([]*domain.ScheduleCard, 0)

	for _, se := range airing {
		pending := candidates(se.Episodes, func(e *domain.Episode) bool {
			return e.AiredBy(day)
		})
		if len(pending) == 0 {
			continue
		}
		cards = append(cards, card(se.Show, pending[0], len(pending), 0))
	}

	for _, se := range binging {
		pace := se.Show.WatchPace
		if pace == "" {
			pace = domain.PaceBinge
		}
		if pace == domain.PaceWeekly && se.Show.LastWatchedAt != nil && !se.Show.LastWatchedAt.Before(cutoff) {
			continue
		}

		pending := candidates(se.Episodes, func(e *domain.Episode) bool {
			return e.AirDate == nil || *e.AirDate == "" || *e.AirDate <= day
		})
		if len(pending) == 0 {
			continue
		}

		suggested := 0
		if pace == domain.PaceFast {
			suggested = fastSuggestedCount
		}
		cards = append(cards, card(se.Show, pending[0], 0, suggested))
	}

	return cards
}

// candidates returns unwatched episodes at or above the season floor that
// pass keep, in (season, episode) order.
func candidates(episodes []*domain.Episode, keep func(*domain.Episode) bool) []*domain.Episode {
	floor := SeasonFloor(episodes)

	var out []*domain.Episode
	for _, e := range episodes {
		if e.Watched || e.SeasonNumber < floor || !keep(e) {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SeasonNumber != out[j].SeasonNumber {
			return out[i].SeasonNumber < out[j].SeasonNumber
		}
		return out[i].EpisodeNumber < out[j].EpisodeNumber
	})

	return out
}

func byRecency(shows []ShowEpisodes) {
	sort.SliceStable(shows, func(i, j int) bool {
		a, b := shows[i].Show, shows[j].Show
		switch {
		case a.LastWatchedAt != nil && b.LastWatchedAt == nil:
			return true
		case a.LastWatchedAt == nil && b.LastWatchedAt != nil:
			return false
		case a.LastWatchedAt != nil && !a.LastWatchedAt.Equal(*b.LastWatchedAt):
			return a.LastWatchedAt.After(*b.LastWatchedAt)
		}
		return a.Title < b.Title
	})
}

func card(show *domain.Show, next *domain.Episode, available, suggested int) *domain.ScheduleCard {
	pace := show.WatchPace
	if pace == "" {
		pace = domain.PaceBinge
	}

	return &domain.ScheduleCard{
		Show: domain.ScheduleShow{
			TmdbID:     show.TmdbID,
			Title:      show.Title,
			PosterPath: show.PosterPath,
			UserStatus: show.UserStatus,
			WatchPace:  pace,
		},
		NextEpisode: domain.EpisodeRef{
			SeasonNumber:  next.SeasonNumber,
			EpisodeNumber: next.EpisodeNumber,
			Title:         next.Title,
			AirDate:       next.AirDate,
		},
		AvailableCount: available,
		SuggestedCount: suggested,
	}
}

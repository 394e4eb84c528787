package store

import (
	"sort"
	"time"

	"quickpoll-backend/models"
)

// DefaultTrendingDecayHours is the recency window when none is configured.
const DefaultTrendingDecayHours = 24

// trendingScore computes votes + likes*2 + recency bonus. A brand-new
// poll gets the full 10 bonus points; one older than the decay window
// gets none.
func trendingScore(p *models.Poll, now time.Time, decayHours float64) float64 {
	hoursOld := now.Sub(p.CreatedAt).Hours()
	bonus := (decayHours - hoursOld) / decayHours * 10
	if bonus < 0 {
		bonus = 0
	}
	return float64(p.TotalVotes) + float64(p.Likes)*2 + bonus
}

// Trending returns up to limit polls ranked by trending score, highest
// first. Expired and private polls are excluded; unlisted polls rank
// alongside public ones. Equal scores keep the snapshot order, so the
// result is stable for an unchanged store.
func (s *Store) Trending(limit int, now time.Time, decayHours int) []*models.Poll {
	if decayHours <= 0 {
		decayHours = DefaultTrendingDecayHours
	}

	polls := s.ListPolls()

	type scored struct {
		poll  *models.Poll
		score float64
	}
	ranked := make([]scored, 0, len(polls))
	for _, p := range polls {
		if p.Expired(now) {
			continue
		}
		if p.Privacy == models.PrivacyPrivate {
			continue
		}
		ranked = append(ranked, scored{poll: p, score: trendingScore(p, now, float64(decayHours))})
	}

	// Ties break on id so repeated calls over an unchanged store rank
	// identically despite map iteration order.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].poll.ID < ranked[j].poll.ID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]*models.Poll, len(ranked))
	for i, r := range ranked {
		out[i] = r.poll
	}
	return out
}

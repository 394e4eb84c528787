package store

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"quickpoll-backend/models"
)

// Limits bounds poll creation input. Zero values are replaced by defaults.
type Limits struct {
	MinOptions     int
	MaxOptions     int
	MinQuestionLen int
	MaxQuestionLen int
	MaxOptionLen   int
}

// DefaultLimits returns the standard creation bounds.
func DefaultLimits() Limits {
	return Limits{
		MinOptions:     2,
		MaxOptions:     10,
		MinQuestionLen: 5,
		MaxQuestionLen: 200,
		MaxOptionLen:   200,
	}
}

// pollEntry couples a poll aggregate with its vote ledger. The mutex
// guards both: every vote serializes {duplicate check, ledger append,
// option counter, total counter} as one unit, and readers copy the poll
// under the same lock so they never see a half-applied vote.
type pollEntry struct {
	mu    sync.Mutex
	poll  *models.Poll
	votes []models.VoteRecord
}

// snapshot copies the poll for use outside the lock. Caller must hold mu.
func (e *pollEntry) snapshot() *models.Poll {
	cp := *e.poll
	cp.Options = make([]models.PollOption, len(e.poll.Options))
	copy(cp.Options, e.poll.Options)
	return &cp
}

// hasVoted reports whether the fingerprint appears in the ledger.
// Caller must hold mu.
func (e *pollEntry) hasVoted(fingerprint string) bool {
	for _, v := range e.votes {
		if v.Fingerprint == fingerprint {
			return true
		}
	}
	return false
}

// Store owns all polls, their vote ledgers, and the per-user like and
// vote indices. Votes on different polls proceed independently; the
// top-level lock only guards map membership.
type Store struct {
	mu     sync.RWMutex
	polls  map[string]*pollEntry
	limits Limits

	// idxMu guards the per-user indices. Lock order is always
	// pollEntry.mu before idxMu, never the reverse.
	idxMu     sync.Mutex
	userLikes map[string]map[string]bool
	userVotes map[string]map[string]string
}

// New creates an empty store with the given creation limits.
func New(limits Limits) *Store {
	def := DefaultLimits()
	if limits.MinOptions <= 0 {
		limits.MinOptions = def.MinOptions
	}
	if limits.MaxOptions <= 0 {
		limits.MaxOptions = def.MaxOptions
	}
	if limits.MinQuestionLen <= 0 {
		limits.MinQuestionLen = def.MinQuestionLen
	}
	if limits.MaxQuestionLen <= 0 {
		limits.MaxQuestionLen = def.MaxQuestionLen
	}
	if limits.MaxOptionLen <= 0 {
		limits.MaxOptionLen = def.MaxOptionLen
	}
	return &Store{
		polls:     make(map[string]*pollEntry),
		limits:    limits,
		userLikes: make(map[string]map[string]bool),
		userVotes: make(map[string]map[string]string),
	}
}

// CreatePoll validates the input and allocates a new poll with zeroed
// counters. Question and option texts are expected to be sanitized by
// the caller; the store only enforces bounds.
func (s *Store) CreatePoll(in models.CreatePollInput) (*models.Poll, error) {
	question := strings.TrimSpace(in.Question)
	// Bounds count characters, not bytes, so multibyte text is not
	// penalized
	if n := utf8.RuneCountInString(question); n < s.limits.MinQuestionLen || n > s.limits.MaxQuestionLen {
		return nil, fmt.Errorf("%w: question must be %d-%d characters", ErrValidation, s.limits.MinQuestionLen, s.limits.MaxQuestionLen)
	}
	if len(in.Options) < s.limits.MinOptions || len(in.Options) > s.limits.MaxOptions {
		return nil, fmt.Errorf("%w: need %d-%d options", ErrValidation, s.limits.MinOptions, s.limits.MaxOptions)
	}

	options := make([]models.PollOption, len(in.Options))
	for i, text := range in.Options {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("%w: option %d is empty", ErrValidation, i+1)
		}
		if utf8.RuneCountInString(text) > s.limits.MaxOptionLen {
			return nil, fmt.Errorf("%w: option %d exceeds %d characters", ErrValidation, i+1, s.limits.MaxOptionLen)
		}
		options[i] = models.PollOption{ID: uuid.NewString(), Text: text}
	}

	privacy := in.Privacy
	if privacy == "" {
		privacy = models.PrivacyPublic
	}
	if !privacy.Valid() {
		return nil, fmt.Errorf("%w: unknown privacy level %q", ErrValidation, in.Privacy)
	}

	now := time.Now()
	var expiresAt *time.Time
	if in.ExpiresInHours != nil {
		t := now.Add(time.Duration(*in.ExpiresInHours) * time.Hour)
		expiresAt = &t
	}

	poll := &models.Poll{
		ID:                   uuid.NewString(),
		Question:             question,
		Options:              options,
		CreatedAt:            now,
		CreatorID:            in.CreatorID,
		ExpiresAt:            expiresAt,
		HideResultsUntilVote: in.HideResultsUntilVote,
		Privacy:              privacy,
	}

	entry := &pollEntry{poll: poll}

	s.mu.Lock()
	s.polls[poll.ID] = entry
	s.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.snapshot(), nil
}

// entry looks up a poll's entry without copying it.
func (s *Store) entry(pollID string) (*pollEntry, bool) {
	s.mu.RLock()
	e, ok := s.polls[pollID]
	s.mu.RUnlock()
	return e, ok
}

// GetPoll returns a consistent snapshot of a poll. When the poll hides
// results until vote and the fingerprint has no vote in the ledger, the
// option counters in the returned view are masked to zero; the real
// totals are untouched.
func (s *Store) GetPoll(pollID, fingerprint string) (*models.Poll, error) {
	e, ok := s.entry(pollID)
	if !ok {
		return nil, ErrPollNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.snapshot()
	if snap.HideResultsUntilVote && !e.hasVoted(fingerprint) {
		for i := range snap.Options {
			snap.Options[i].Votes = 0
		}
	}
	return snap, nil
}

// Snapshot returns an unmasked consistent copy of a poll, for surfaces
// that always show real tallies (export, embed, notifications).
func (s *Store) Snapshot(pollID string) (*models.Poll, error) {
	e, ok := s.entry(pollID)
	if !ok {
		return nil, ErrPollNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(), nil
}

// ListPolls returns snapshots of all polls. Order is not defined.
func (s *Store) ListPolls() []*models.Poll {
	s.mu.RLock()
	entries := make([]*pollEntry, 0, len(s.polls))
	for _, e := range s.polls {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	polls := make([]*models.Poll, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		polls = append(polls, e.snapshot())
		e.mu.Unlock()
	}
	return polls
}

// HasVoted reports whether the fingerprint already voted on the poll.
func (s *Store) HasVoted(pollID, fingerprint string) bool {
	e, ok := s.entry(pollID)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasVoted(fingerprint)
}

// ApplyVote records one vote. The duplicate check, ledger append, and
// both counter increments happen under the poll's lock, so concurrent
// votes on the same poll serialize and no reader observes the total
// without the matching option increment. Returns the post-vote snapshot
// so callers can broadcast or notify after the lock is released.
func (s *Store) ApplyVote(pollID, optionID, fingerprint, userID string) (*models.Poll, error) {
	e, ok := s.entry(pollID)
	if !ok {
		return nil, ErrPollNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.poll.Expired(time.Now()) {
		return nil, ErrPollExpired
	}
	if e.hasVoted(fingerprint) {
		return nil, ErrAlreadyVoted
	}

	idx := -1
	for i := range e.poll.Options {
		if e.poll.Options[i].ID == optionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrInvalidOption
	}

	e.poll.Options[idx].Votes++
	e.poll.TotalVotes++
	e.votes = append(e.votes, models.VoteRecord{
		OptionID:    optionID,
		Fingerprint: fingerprint,
		Timestamp:   time.Now(),
		UserID:      userID,
	})

	if userID != "" {
		s.idxMu.Lock()
		if s.userVotes[userID] == nil {
			s.userVotes[userID] = make(map[string]string)
		}
		s.userVotes[userID][pollID] = optionID
		s.idxMu.Unlock()
	}

	return e.snapshot(), nil
}

// ToggleLike flips the poll's membership in the user's like set and
// adjusts the like counter, clamped at zero. The whole toggle runs under
// the poll's lock so concurrent toggles never lose counter updates.
func (s *Store) ToggleLike(pollID, userID string) (liked bool, totalLikes int64, err error) {
	e, ok := s.entry(pollID)
	if !ok {
		return false, 0, ErrPollNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s.idxMu.Lock()
	set := s.userLikes[userID]
	if set == nil {
		set = make(map[string]bool)
		s.userLikes[userID] = set
	}
	if set[pollID] {
		delete(set, pollID)
		liked = false
	} else {
		set[pollID] = true
		liked = true
	}
	s.idxMu.Unlock()

	if liked {
		e.poll.Likes++
	} else if e.poll.Likes > 0 {
		e.poll.Likes--
	}
	return liked, e.poll.Likes, nil
}

// VotesForUser returns the user's recorded choice per poll. Only votes
// submitted with a user id are tracked here; the fingerprint ledger
// stays authoritative for duplicate detection.
func (s *Store) VotesForUser(userID string) map[string]string {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()

	out := make(map[string]string, len(s.userVotes[userID]))
	for pollID, optionID := range s.userVotes[userID] {
		out[pollID] = optionID
	}
	return out
}

// LikesForUser returns the poll ids the user currently likes.
func (s *Store) LikesForUser(userID string) []string {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()

	out := make([]string, 0, len(s.userLikes[userID]))
	for pollID := range s.userLikes[userID] {
		out = append(out, pollID)
	}
	return out
}

// SetQRCodeURL attaches a rendered QR data URL to the poll. A missing
// poll is ignored; QR rendering is best-effort decoration.
func (s *Store) SetQRCodeURL(pollID, dataURL string) {
	e, ok := s.entry(pollID)
	if !ok {
		return
	}
	e.mu.Lock()
	e.poll.QRCodeURL = dataURL
	e.mu.Unlock()
}

// Stats aggregates dashboard counters. Most-popular selection weighs
// votes and likes by the configured multipliers.
func (s *Store) Stats(now time.Time, voteWeight, likeWeight float64) models.AdminStats {
	polls := s.ListPolls()

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var stats models.AdminStats
	var best float64
	for _, p := range polls {
		stats.TotalPolls++
		stats.TotalVotes += p.TotalVotes
		if !p.CreatedAt.Before(midnight) {
			stats.TotalPollsToday++
		}
		engagement := float64(p.TotalVotes)*voteWeight + float64(p.Likes)*likeWeight
		if engagement > best {
			best = engagement
			stats.MostPopularPoll = &models.PopularPollInfo{
				ID:         p.ID,
				Question:   p.Question,
				TotalVotes: p.TotalVotes,
			}
		}
	}
	return stats
}

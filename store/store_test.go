package store

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickpoll-backend/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(DefaultLimits())
}

func createTestPoll(t *testing.T, s *Store, question string, options ...string) *models.Poll {
	t.Helper()
	if len(options) == 0 {
		options = []string{"Option A", "Option B"}
	}
	poll, err := s.CreatePoll(models.CreatePollInput{
		Question: question,
		Options:  options,
	})
	require.NoError(t, err)
	return poll
}

func TestCreatePoll(t *testing.T) {
	s := newTestStore(t)

	poll := createTestPoll(t, s, "What is your favorite language?", "Go", "Python", "Rust")

	assert.NotEmpty(t, poll.ID)
	assert.Equal(t, "What is your favorite language?", poll.Question)
	assert.Len(t, poll.Options, 3)
	assert.Equal(t, int64(0), poll.TotalVotes)
	assert.Equal(t, models.PrivacyPublic, poll.Privacy)
	assert.Nil(t, poll.ExpiresAt)
	for _, opt := range poll.Options {
		assert.NotEmpty(t, opt.ID)
		assert.Equal(t, int64(0), opt.Votes)
	}
}

func TestCreatePollValidation(t *testing.T) {
	s := newTestStore(t)

	cases := []struct {
		name  string
		input models.CreatePollInput
	}{
		{"question too short", models.CreatePollInput{Question: "Hi?", Options: []string{"A", "B"}}},
		{"question too long", models.CreatePollInput{Question: strings.Repeat("x", 201), Options: []string{"A", "B"}}},
		{"too few options", models.CreatePollInput{Question: "Valid question?", Options: []string{"Only one"}}},
		{"too many options", models.CreatePollInput{Question: "Valid question?", Options: manyOptions(11)}},
		{"empty option", models.CreatePollInput{Question: "Valid question?", Options: []string{"A", "   "}}},
		{"option too long", models.CreatePollInput{Question: "Valid question?", Options: []string{"A", strings.Repeat("x", 201)}}},
		{"bad privacy", models.CreatePollInput{Question: "Valid question?", Options: []string{"A", "B"}, Privacy: "secret"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreatePoll(tc.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreatePollCountsRunesNotBytes(t *testing.T) {
	s := newTestStore(t)

	// 200 runes but 600 bytes: within the character bounds
	poll, err := s.CreatePoll(models.CreatePollInput{
		Question: strings.Repeat("票", 200),
		Options:  []string{strings.Repeat("是", 200), "Other"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, poll.ID)

	_, err = s.CreatePoll(models.CreatePollInput{
		Question: strings.Repeat("票", 201),
		Options:  []string{"A", "B"},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.CreatePoll(models.CreatePollInput{
		Question: "A valid question?",
		Options:  []string{strings.Repeat("是", 201), "B"},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func manyOptions(n int) []string {
	opts := make([]string, n)
	for i := range opts {
		opts[i] = fmt.Sprintf("Option %d", i+1)
	}
	return opts
}

func TestApplyVote(t *testing.T) {
	s := newTestStore(t)
	poll := createTestPoll(t, s, "Tabs or spaces?", "Tabs", "Spaces")

	fp := Fingerprint("1.2.3.4", "test-agent", "user-1")
	updated, err := s.ApplyVote(poll.ID, poll.Options[0].ID, fp, "user-1")
	require.NoError(t, err)

	assert.Equal(t, int64(1), updated.TotalVotes)
	assert.Equal(t, int64(1), updated.Options[0].Votes)
	assert.Equal(t, int64(0), updated.Options[1].Votes)
	assert.True(t, s.HasVoted(poll.ID, fp))

	votes := s.VotesForUser("user-1")
	assert.Equal(t, poll.Options[0].ID, votes[poll.ID])
}

func TestApplyVoteDuplicateRejected(t *testing.T) {
	s := newTestStore(t)
	poll := createTestPoll(t, s, "Tabs or spaces?", "Tabs", "Spaces")

	fp := Fingerprint("1.2.3.4", "test-agent", "")
	_, err := s.ApplyVote(poll.ID, poll.Options[0].ID, fp, "")
	require.NoError(t, err)

	// Second vote with the same fingerprint must not change any counter,
	// even when it targets a different option.
	_, err = s.ApplyVote(poll.ID, poll.Options[1].ID, fp, "")
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	snap, err := s.Snapshot(poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.TotalVotes)
	assert.Equal(t, int64(1), snap.Options[0].Votes)
	assert.Equal(t, int64(0), snap.Options[1].Votes)
}

func TestApplyVoteUnknownPollAndOption(t *testing.T) {
	s := newTestStore(t)
	poll := createTestPoll(t, s, "Tabs or spaces?", "Tabs", "Spaces")

	_, err := s.ApplyVote("no-such-poll", poll.Options[0].ID, "fp", "")
	assert.ErrorIs(t, err, ErrPollNotFound)

	_, err = s.ApplyVote(poll.ID, "no-such-option", "fp", "")
	assert.ErrorIs(t, err, ErrInvalidOption)

	// The failed attempts must leave the ledger untouched
	snap, err := s.Snapshot(poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.TotalVotes)
}

func TestApplyVoteConcurrent(t *testing.T) {
	s := newTestStore(t)
	poll := createTestPoll(t, s, "Concurrent voting test?", "A", "B", "C")

	const voters = 100
	var wg sync.WaitGroup
	wg.Add(voters)
	for i := 0; i < voters; i++ {
		go func(i int) {
			defer wg.Done()
			fp := Fingerprint(fmt.Sprintf("10.0.0.%d", i), "agent", "")
			_, err := s.ApplyVote(poll.ID, poll.Options[i%3].ID, fp, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := s.Snapshot(poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(voters), snap.TotalVotes)

	var optionSum int64
	for _, opt := range snap.Options {
		optionSum += opt.Votes
	}
	assert.Equal(t, snap.TotalVotes, optionSum)
}

func TestApplyVoteConcurrentSameFingerprint(t *testing.T) {
	s := newTestStore(t)
	poll := createTestPoll(t, s, "Duplicate race test?", "A", "B")

	fp := Fingerprint("1.2.3.4", "agent", "")
	const attempts = 50
	var wg sync.WaitGroup
	var accepted int64
	var acceptedMu sync.Mutex

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.ApplyVote(poll.ID, poll.Options[0].ID, fp, ""); err == nil {
				acceptedMu.Lock()
				accepted++
				acceptedMu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), accepted)
	snap, err := s.Snapshot(poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.TotalVotes)
}

func TestPollExpiry(t *testing.T) {
	s := newTestStore(t)

	zero := 0
	poll, err := s.CreatePoll(models.CreatePollInput{
		Question:       "Expires immediately?",
		Options:        []string{"Yes", "No"},
		ExpiresInHours: &zero,
	})
	require.NoError(t, err)
	require.NotNil(t, poll.ExpiresAt)

	time.Sleep(5 * time.Millisecond)
	_, err = s.ApplyVote(poll.ID, poll.Options[0].ID, "fp", "")
	assert.ErrorIs(t, err, ErrPollExpired)

	// An expired poll is still readable
	snap, err := s.GetPoll(poll.ID, "fp")
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.TotalVotes)
}

func TestHideResultsUntilVote(t *testing.T) {
	s := newTestStore(t)
	poll, err := s.CreatePoll(models.CreatePollInput{
		Question:             "Hidden results poll?",
		Options:              []string{"A", "B"},
		HideResultsUntilVote: true,
	})
	require.NoError(t, err)

	voterFP := Fingerprint("1.1.1.1", "agent", "")
	otherFP := Fingerprint("2.2.2.2", "agent", "")
	_, err = s.ApplyVote(poll.ID, poll.Options[0].ID, voterFP, "")
	require.NoError(t, err)

	// Non-voters see masked option counters but the true total
	masked, err := s.GetPoll(poll.ID, otherFP)
	require.NoError(t, err)
	assert.Equal(t, int64(1), masked.TotalVotes)
	assert.Equal(t, int64(0), masked.Options[0].Votes)

	// The voter sees real tallies
	visible, err := s.GetPoll(poll.ID, voterFP)
	require.NoError(t, err)
	assert.Equal(t, int64(1), visible.Options[0].Votes)

	// Masking never touches stored counters
	snap, err := s.Snapshot(poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Options[0].Votes)
}

func TestToggleLike(t *testing.T) {
	s := newTestStore(t)
	poll := createTestPoll(t, s, "Like toggle test?")

	liked, total, err := s.ToggleLike(poll.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{poll.ID}, s.LikesForUser("user-1"))

	liked, total, err = s.ToggleLike(poll.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, s.LikesForUser("user-1"))

	_, _, err = s.ToggleLike("no-such-poll", "user-1")
	assert.ErrorIs(t, err, ErrPollNotFound)
}

func TestToggleLikeConcurrent(t *testing.T) {
	s := newTestStore(t)
	poll := createTestPoll(t, s, "Concurrent like test?")

	const users = 50
	var wg sync.WaitGroup
	wg.Add(users)
	for i := 0; i < users; i++ {
		go func(i int) {
			defer wg.Done()
			_, _, err := s.ToggleLike(poll.ID, fmt.Sprintf("user-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := s.Snapshot(poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(users), snap.Likes)
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStore(t)
	poll := createTestPoll(t, s, "Snapshot isolation test?")

	snap, err := s.Snapshot(poll.ID)
	require.NoError(t, err)
	snap.Options[0].Votes = 999
	snap.TotalVotes = 999

	fresh, err := s.Snapshot(poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.TotalVotes)
	assert.Equal(t, int64(0), fresh.Options[0].Votes)
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	quiet := createTestPoll(t, s, "Quiet poll question?")
	popular := createTestPoll(t, s, "Popular poll question?")
	for i := 0; i < 3; i++ {
		_, err := s.ApplyVote(popular.ID, popular.Options[0].ID, fmt.Sprintf("fp-%d", i), "")
		require.NoError(t, err)
	}
	_, _, err := s.ToggleLike(quiet.ID, "user-1")
	require.NoError(t, err)

	stats := s.Stats(now, 1.0, 0.5)
	assert.Equal(t, int64(2), stats.TotalPolls)
	assert.Equal(t, int64(2), stats.TotalPollsToday)
	assert.Equal(t, int64(3), stats.TotalVotes)
	require.NotNil(t, stats.MostPopularPoll)
	assert.Equal(t, popular.ID, stats.MostPopularPoll.ID)

	// A heavy like weight can flip the most-popular pick
	stats = s.Stats(now, 1.0, 10.0)
	require.NotNil(t, stats.MostPopularPoll)
	assert.Equal(t, quiet.ID, stats.MostPopularPoll.ID)
}

package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/duelo/pkg/logger"
)

// Voter behavior constants.
const (
	// higherRatedWinChance biases judgments toward the higher-rated item,
	// giving the rating walk a consistent signal to converge on.
	higherRatedWinChance = 0.7

	// replayEvery re-submits every Nth vote with the same vote id, to
	// exercise the idempotency path.
	replayEvery = 20
)

// voteCounters aggregates counters across voters.
type voteCounters struct {
	pairs      int64
	submitted  int64
	successful int64
	duplicate  int64
	failed     int64
	skips      int64
	upsets     int64
}

// runVoters spreads NumVotes across concurrent voters, each holding its
// own session id.
func runVoters(ctx context.Context, config *Config, stats *Stats) error {
	logger.Get().Info(ctx, "running voters",
		logger.Int("votes", config.NumVotes),
		logger.Int("voters", config.Voters))

	counters := &voteCounters{}
	votesPerVoter := config.NumVotes / config.Voters
	remainder := config.NumVotes % config.Voters

	var wg sync.WaitGroup
	for i := 0; i < config.Voters; i++ {
		quota := votesPerVoter
		if i < remainder {
			quota++
		}
		if quota == 0 {
			continue
		}

		wg.Add(1)
		go func(voterID, quota int) {
			defer wg.Done()
			v := newVoter(config, voterID)
			v.run(ctx, quota, counters)
		}(i, quota)
	}
	wg.Wait()

	stats.PairsFetched = int(atomic.LoadInt64(&counters.pairs))
	stats.VotesSubmitted = int(atomic.LoadInt64(&counters.submitted))
	stats.VotesSuccessful = int(atomic.LoadInt64(&counters.successful))
	stats.VotesDuplicate = int(atomic.LoadInt64(&counters.duplicate))
	stats.VotesFailed = int(atomic.LoadInt64(&counters.failed))
	stats.SkipsSubmitted = int(atomic.LoadInt64(&counters.skips))
	stats.UpsetsObserved = int(atomic.LoadInt64(&counters.upsets))

	logger.Get().Info(ctx, "voting completed",
		logger.Int("successful", stats.VotesSuccessful),
		logger.Int("duplicate", stats.VotesDuplicate),
		logger.Int("failed", stats.VotesFailed),
		logger.Int("skips", stats.SkipsSubmitted),
		logger.Int("upsets", stats.UpsetsObserved))

	if stats.VotesSuccessful == 0 {
		return fmt.Errorf("no votes were applied")
	}
	return nil
}

// voter fetches pairs and casts judgments under a single session.
type voter struct {
	client    *httpClient
	config    *Config
	sessionID string
	rng       *rand.Rand
}

func newVoter(config *Config, id int) *voter {
	return &voter{
		client:    newHTTPClient(config.Timeout),
		config:    config,
		sessionID: uuid.NewString(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano() + int64(id))), //nolint:gosec // simulation variety, not cryptography
	}
}

func (v *voter) run(ctx context.Context, quota int, counters *voteCounters) {
	pairURL := v.config.BaseURL + "/pair?session_id=" + v.sessionID

	for cast := 0; cast < quota; {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var pair pairResponse
		status, err := v.client.get(ctx, pairURL, &pair)
		if err != nil || status != http.StatusOK {
			atomic.AddInt64(&counters.failed, 1)
			cast++
			continue
		}
		atomic.AddInt64(&counters.pairs, 1)

		if v.rng.Float64() < v.config.SkipRate {
			v.skip(ctx, pair, counters)
			continue
		}

		v.vote(ctx, pair, counters)
		cast++
	}
}

// vote casts one judgment, occasionally replaying it to test idempotency.
func (v *voter) vote(ctx context.Context, pair pairResponse, counters *voteCounters) {
	winner := pair.ItemA.ItemID
	loserSide := pair.ItemB
	if pair.ItemB.Rating > pair.ItemA.Rating {
		winner, loserSide = pair.ItemB.ItemID, pair.ItemA
	}
	// Underdog wins some of the time
	if v.rng.Float64() >= higherRatedWinChance {
		winner = loserSide.ItemID
	}

	req := voteRequest{
		VoteID:    uuid.NewString(),
		Item1ID:   pair.ItemA.ItemID,
		Item2ID:   pair.ItemB.ItemID,
		WinnerID:  winner,
		SessionID: v.sessionID,
	}

	v.submit(ctx, req, counters)

	if atomic.LoadInt64(&counters.submitted)%replayEvery == 0 {
		v.submit(ctx, req, counters)
	}
}

func (v *voter) submit(ctx context.Context, req voteRequest, counters *voteCounters) {
	var result voteResult
	status, err := v.client.post(ctx, v.config.BaseURL+"/votes", req, &result)
	atomic.AddInt64(&counters.submitted, 1)

	switch {
	case err != nil || status != http.StatusOK:
		atomic.AddInt64(&counters.failed, 1)
	case result.Duplicate:
		atomic.AddInt64(&counters.duplicate, 1)
	default:
		atomic.AddInt64(&counters.successful, 1)
		if result.WasUpset {
			atomic.AddInt64(&counters.upsets, 1)
		}
	}
}

func (v *voter) skip(ctx context.Context, pair pairResponse, counters *voteCounters) {
	req := skipRequest{
		Item1ID:   pair.ItemA.ItemID,
		Item2ID:   pair.ItemB.ItemID,
		SessionID: v.sessionID,
	}
	status, err := v.client.post(ctx, v.config.BaseURL+"/skips", req, nil)
	if err == nil && status == http.StatusAccepted {
		atomic.AddInt64(&counters.skips, 1)
	}
}

package selection_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/duelo/internal/adapters/repository"
	"github.com/okian/duelo/internal/domain/model"
	selection "github.com/okian/duelo/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

// fakePool serves a fixed candidate set and canned session history.
type fakePool struct {
	items      []model.Item
	history    map[string][]model.Comparison
	getItemErr error
}

func (p *fakePool) EligibleItems(ctx context.Context, limit int) ([]model.Item, error) {
	var out []model.Item
	for _, item := range p.items {
		if !item.Eligible() {
			continue
		}
		out = append(out, item)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (p *fakePool) RecentComparisons(ctx context.Context, sessionID string, limit int) ([]model.Comparison, error) {
	history := p.history[sessionID]
	if len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (p *fakePool) GetItem(ctx context.Context, id string) (model.Item, error) {
	if p.getItemErr != nil {
		return model.Item{}, p.getItemErr
	}
	for _, item := range p.items {
		if item.ID == id {
			return item, nil
		}
	}
	return model.Item{}, repository.ErrNotFound
}

func makeItems(n, comparisonCount int) []model.Item {
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{
			ID:              fmt.Sprintf("item-%02d", i),
			Title:           fmt.Sprintf("Subject %02d", i),
			ImageURL:        "https://img.example/" + fmt.Sprint(i),
			Rating:          model.DefaultRating,
			ComparisonCount: comparisonCount,
			Wins:            comparisonCount / 2,
			Losses:          comparisonCount - comparisonCount/2,
		}
	}
	return items
}

func TestEngine_SelectPair(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pool of well-voted items", t, func() {
		pool := &fakePool{items: makeItems(10, 25)}
		engine := selection.NewEngine(pool, selection.WithRandSource(rand.NewSource(1)))

		Convey("The two selected items are always distinct", func() {
			for i := 0; i < 10000; i++ {
				a, b, err := engine.SelectPair(ctx, "")
				So(err, ShouldBeNil)
				So(a.ID, ShouldNotEqual, b.ID)
			}
		})
	})

	Convey("Given a pool smaller than two", t, func() {
		engine := selection.NewEngine(&fakePool{items: makeItems(1, 0)})

		Convey("Selection reports an insufficient pool", func() {
			_, _, err := engine.SelectPair(ctx, "")
			So(err, ShouldEqual, selection.ErrInsufficientPool)
		})
	})

	Convey("Given items without image references", t, func() {
		items := makeItems(5, 10)
		for i := range items {
			items[i].ImageURL = ""
		}
		engine := selection.NewEngine(&fakePool{items: items})

		Convey("They never form a pool", func() {
			_, _, err := engine.SelectPair(ctx, "")
			So(err, ShouldEqual, selection.ErrInsufficientPool)
		})
	})

	Convey("Given one never-compared item among settled ones", t, func() {
		items := makeItems(20, 25)
		items[0].ComparisonCount = 0
		items[0].Wins = 0
		items[0].Losses = 0
		pool := &fakePool{items: items}
		engine := selection.NewEngine(pool, selection.WithRandSource(rand.NewSource(7)))

		Convey("The newcomer dominates selection", func() {
			const trials = 2000
			appearances := make(map[string]int)
			for i := 0; i < trials; i++ {
				a, b, err := engine.SelectPair(ctx, "")
				So(err, ShouldBeNil)
				appearances[a.ID]++
				appearances[b.ID]++
			}

			// Weight ratio is 1000:1 by construction, so the zero-vote
			// item should sit in nearly every pair.
			So(appearances["item-00"], ShouldBeGreaterThan, trials*9/10)
			for id, count := range appearances {
				if id == "item-00" {
					continue
				}
				So(count, ShouldBeLessThan, appearances["item-00"])
			}
		})
	})
}

func TestEngine_SessionRecency(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	Convey("Given a session that just saw two of three items", t, func() {
		items := makeItems(3, 25)
		pool := &fakePool{
			items: items,
			history: map[string][]model.Comparison{
				"sess-1": {{
					ID: "c1", Item1ID: "item-00", Item2ID: "item-01",
					WinnerID: "item-00", SessionID: "sess-1", CreatedAt: now,
				}},
			},
		}
		engine := selection.NewEngine(pool, selection.WithRandSource(rand.NewSource(11)))

		Convey("The unseen item appears in almost every pair for that session", func() {
			const trials = 2000
			withFresh := 0
			for i := 0; i < trials; i++ {
				a, b, err := engine.SelectPair(ctx, "sess-1")
				So(err, ShouldBeNil)
				if a.ID == "item-02" || b.ID == "item-02" {
					withFresh++
				}
			}
			// Seen items carry weight 0.1 against 1.0 for the fresh one.
			So(withFresh, ShouldBeGreaterThan, trials*9/10)
		})

		Convey("An anonymous request gets no dampening", func() {
			const trials = 3000
			appearances := make(map[string]int)
			for i := 0; i < trials; i++ {
				a, b, err := engine.SelectPair(ctx, "")
				So(err, ShouldBeNil)
				appearances[a.ID]++
				appearances[b.ID]++
			}
			// All three items carry equal weight; each should appear in
			// roughly two thirds of the pairs.
			for _, count := range appearances {
				So(count, ShouldBeGreaterThan, trials/2)
			}
		})
	})
}

func TestEngine_DiversityPenalty(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	Convey("Given a session that just compared two train stations", t, func() {
		items := []model.Item{
			{ID: "st-1", Title: "North Station", ImageURL: "i1", ComparisonCount: 25},
			{ID: "st-2", Title: "South Station", ImageURL: "i2", ComparisonCount: 25},
			{ID: "st-3", Title: "East Station", ImageURL: "i3", ComparisonCount: 25},
			{ID: "pl-1", Title: "Geranium", ImageURL: "i4", ComparisonCount: 25},
		}
		pool := &fakePool{
			items: items,
			history: map[string][]model.Comparison{
				"sess-2": {{
					ID: "c1", Item1ID: "st-1", Item2ID: "st-2",
					WinnerID: "st-1", SessionID: "sess-2", CreatedAt: now,
				}},
			},
		}
		engine := selection.NewEngine(pool, selection.WithRandSource(rand.NewSource(13)))

		Convey("The station the session has not seen is still dampened by its group", func() {
			const trials = 4000
			appearances := make(map[string]int)
			for i := 0; i < trials; i++ {
				a, b, err := engine.SelectPair(ctx, "sess-2")
				So(err, ShouldBeNil)
				appearances[a.ID]++
				appearances[b.ID]++
			}

			// st-3 was never shown, but shares transportation_station with
			// the two just-seen items: weight 0.28 against 1.0 for the
			// flower. The flower should lead comfortably.
			So(appearances["pl-1"], ShouldBeGreaterThan, appearances["st-3"])
			So(appearances["st-3"], ShouldBeGreaterThan, appearances["st-1"])
		})

		Convey("Zero diversity strength disables the group penalty", func() {
			engine := selection.NewEngine(pool,
				selection.WithRandSource(rand.NewSource(17)),
				selection.WithDiversityStrength(0),
			)
			const trials = 4000
			appearances := make(map[string]int)
			for i := 0; i < trials; i++ {
				a, b, err := engine.SelectPair(ctx, "sess-2")
				So(err, ShouldBeNil)
				appearances[a.ID]++
				appearances[b.ID]++
			}
			// Without the group penalty st-3 and pl-1 are even; allow a
			// generous statistical margin.
			ratio := float64(appearances["st-3"]) / float64(appearances["pl-1"])
			So(ratio, ShouldBeBetween, 0.8, 1.25)
		})
	})
}

func TestEngine_Options(t *testing.T) {
	Convey("Given invalid option values", t, func() {
		pool := &fakePool{items: makeItems(5, 0)}

		Convey("They are ignored and defaults hold", func() {
			engine := selection.NewEngine(pool,
				selection.WithPoolCap(1),
				selection.WithRecencyLookback(-3),
				selection.WithVoteCountTiers(nil),
				selection.WithRecencyTiers([]selection.DecayTier{{MaxAgo: 5, Factor: 2}}),
				selection.WithDiversityStrength(1.7),
			)
			a, b, err := engine.SelectPair(context.Background(), "")
			So(err, ShouldBeNil)
			So(a.ID, ShouldNotEqual, b.ID)
		})
	})
}

func TestEngine_HistoryItemLookup(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	Convey("Given session history referencing a since-deleted item", t, func() {
		pool := &fakePool{
			items: makeItems(3, 25),
			history: map[string][]model.Comparison{
				"sess-3": {{
					ID: "c1", Item1ID: "item-00", Item2ID: "gone",
					WinnerID: "item-00", SessionID: "sess-3", CreatedAt: now,
				}},
			},
		}
		engine := selection.NewEngine(pool, selection.WithRandSource(rand.NewSource(19)))

		Convey("Selection proceeds without the deleted item's group", func() {
			a, b, err := engine.SelectPair(ctx, "sess-3")
			So(err, ShouldBeNil)
			So(a.ID, ShouldNotEqual, b.ID)
		})
	})

	Convey("Given a store that fails title lookups", t, func() {
		storeErr := errors.New("store offline")
		pool := &fakePool{
			items:      makeItems(3, 25),
			getItemErr: storeErr,
			history: map[string][]model.Comparison{
				"sess-4": {{
					ID: "c1", Item1ID: "item-00", Item2ID: "item-01",
					WinnerID: "item-00", SessionID: "sess-4", CreatedAt: now,
				}},
			},
		}
		engine := selection.NewEngine(pool, selection.WithRandSource(rand.NewSource(23)))

		Convey("The failure surfaces instead of being treated as a deletion", func() {
			_, _, err := engine.SelectPair(ctx, "sess-4")
			So(errors.Is(err, storeErr), ShouldBeTrue)
		})

		Convey("Anonymous selection never touches the lookup path", func() {
			a, b, err := engine.SelectPair(ctx, "")
			So(err, ShouldBeNil)
			So(a.ID, ShouldNotEqual, b.ID)
		})
	})
}

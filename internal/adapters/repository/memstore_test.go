package repository

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/duelo/internal/domain/model"
)

func newItem(id, title string, rating float64) model.Item {
	return model.Item{
		ID:        id,
		Title:     title,
		ImageURL:  "https://images.example.com/" + id + ".jpg",
		Rating:    rating,
		CreatedAt: time.Now(),
	}
}

func TestMemoryStoreItems(t *testing.T) {
	convey.Convey("Given a memory store", t, func() {
		ctx := context.Background()
		store := NewMemoryStore()

		convey.Convey("When creating an item", func() {
			err := store.CreateItem(ctx, newItem("a", "Ashford Tower", 1500))
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it should be retrievable by id", func() {
				item, err := store.GetItem(ctx, "a")
				convey.So(err, convey.ShouldBeNil)
				convey.So(item.Title, convey.ShouldEqual, "Ashford Tower")
				convey.So(item.Rating, convey.ShouldEqual, 1500.0)
			})

			convey.Convey("Then the count should reflect it", func() {
				convey.So(store.Count(ctx), convey.ShouldEqual, 1)
			})

			convey.Convey("And a case-insensitive title collision should be rejected", func() {
				err := store.CreateItem(ctx, newItem("b", "ASHFORD TOWER", 1500))
				convey.So(err, convey.ShouldEqual, ErrDuplicateTitle)
				convey.So(store.Count(ctx), convey.ShouldEqual, 1)
			})

			convey.Convey("And a duplicate id should be rejected", func() {
				err := store.CreateItem(ctx, newItem("a", "Another Title", 1500))
				convey.So(err, convey.ShouldEqual, ErrDuplicateTitle)
			})
		})

		convey.Convey("When fetching an unknown item", func() {
			_, err := store.GetItem(ctx, "missing")
			convey.So(err, convey.ShouldEqual, ErrNotFound)
		})
	})
}

func TestMemoryStoreEligibleItems(t *testing.T) {
	convey.Convey("Given items with and without images", t, func() {
		ctx := context.Background()
		store := NewMemoryStore()

		convey.So(store.CreateItem(ctx, newItem("a", "Alpha", 1500)), convey.ShouldBeNil)
		convey.So(store.CreateItem(ctx, newItem("b", "Beta", 1500)), convey.ShouldBeNil)

		bare := model.Item{ID: "c", Title: "Gamma", Rating: 1500}
		convey.So(store.CreateItem(ctx, bare), convey.ShouldBeNil)

		convey.Convey("When listing eligible items", func() {
			items, err := store.EligibleItems(ctx, 10)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then only items carrying an image should appear", func() {
				convey.So(len(items), convey.ShouldEqual, 2)
				for _, item := range items {
					convey.So(item.ID, convey.ShouldNotEqual, "c")
				}
			})
		})

		convey.Convey("When listing with a smaller limit", func() {
			items, err := store.EligibleItems(ctx, 1)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(items), convey.ShouldEqual, 1)
		})

		convey.Convey("When listing with a non-positive limit", func() {
			items, err := store.EligibleItems(ctx, 0)
			convey.So(err, convey.ShouldBeNil)
			convey.So(items, convey.ShouldBeNil)
		})
	})
}

func TestMemoryStoreApplyVote(t *testing.T) {
	convey.Convey("Given two rated items", t, func() {
		ctx := context.Background()
		store := NewMemoryStore()

		convey.So(store.CreateItem(ctx, newItem("w", "Winner", 1500)), convey.ShouldBeNil)
		convey.So(store.CreateItem(ctx, newItem("l", "Loser", 1500)), convey.ShouldBeNil)

		convey.Convey("When applying a vote", func() {
			comparedAt := time.Now()
			err := store.ApplyVote(ctx, VoteDelta{
				WinnerID:        "w",
				LoserID:         "l",
				NewWinnerRating: 1516,
				NewLoserRating:  1484,
				ComparedAt:      comparedAt,
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then both items should carry the new state", func() {
				winner, err := store.GetItem(ctx, "w")
				convey.So(err, convey.ShouldBeNil)
				convey.So(winner.Rating, convey.ShouldEqual, 1516.0)
				convey.So(winner.Wins, convey.ShouldEqual, 1)
				convey.So(winner.Losses, convey.ShouldEqual, 0)
				convey.So(winner.ComparisonCount, convey.ShouldEqual, 1)
				convey.So(winner.LastComparedAt.Equal(comparedAt), convey.ShouldBeTrue)

				loser, err := store.GetItem(ctx, "l")
				convey.So(err, convey.ShouldBeNil)
				convey.So(loser.Rating, convey.ShouldEqual, 1484.0)
				convey.So(loser.Losses, convey.ShouldEqual, 1)
				convey.So(loser.Wins, convey.ShouldEqual, 0)
			})

			convey.Convey("Then the leaderboard should reorder", func() {
				top, err := store.TopN(ctx, 2)
				convey.So(err, convey.ShouldBeNil)
				convey.So(top[0].ItemID, convey.ShouldEqual, "w")
				convey.So(top[1].ItemID, convey.ShouldEqual, "l")
			})
		})

		convey.Convey("When a referenced item is unknown", func() {
			err := store.ApplyVote(ctx, VoteDelta{WinnerID: "w", LoserID: "missing"})
			convey.So(err, convey.ShouldEqual, ErrNotFound)

			convey.Convey("Then no counters should have moved", func() {
				winner, err := store.GetItem(ctx, "w")
				convey.So(err, convey.ShouldBeNil)
				convey.So(winner.ComparisonCount, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestMemoryStoreApplySkip(t *testing.T) {
	convey.Convey("Given two items", t, func() {
		ctx := context.Background()
		store := NewMemoryStore()

		convey.So(store.CreateItem(ctx, newItem("a", "Alpha", 1500)), convey.ShouldBeNil)
		convey.So(store.CreateItem(ctx, newItem("b", "Beta", 1500)), convey.ShouldBeNil)

		convey.Convey("When applying a skip", func() {
			convey.So(store.ApplySkip(ctx, "a", "b"), convey.ShouldBeNil)

			convey.Convey("Then both skip counters should increment without touching ratings", func() {
				a, err := store.GetItem(ctx, "a")
				convey.So(err, convey.ShouldBeNil)
				convey.So(a.SkipCount, convey.ShouldEqual, 1)
				convey.So(a.Rating, convey.ShouldEqual, 1500.0)
				convey.So(a.ComparisonCount, convey.ShouldEqual, 0)

				b, err := store.GetItem(ctx, "b")
				convey.So(err, convey.ShouldBeNil)
				convey.So(b.SkipCount, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When skipping with an unknown item", func() {
			convey.So(store.ApplySkip(ctx, "a", "missing"), convey.ShouldEqual, ErrNotFound)
		})
	})
}

func TestMemoryStoreUpdateScores(t *testing.T) {
	convey.Convey("Given a stored item", t, func() {
		ctx := context.Background()
		store := NewMemoryStore()
		convey.So(store.CreateItem(ctx, newItem("a", "Alpha", 1500)), convey.ShouldBeNil)

		convey.Convey("When updating derived scores", func() {
			convey.So(store.UpdateScores(ctx, "a", 42.5, 0.8), convey.ShouldBeNil)

			item, err := store.GetItem(ctx, "a")
			convey.So(err, convey.ShouldBeNil)
			convey.So(item.FamiliarityScore, convey.ShouldEqual, 42.5)
			convey.So(item.RatingConfidence, convey.ShouldEqual, 0.8)
		})

		convey.Convey("When the item is unknown", func() {
			convey.So(store.UpdateScores(ctx, "missing", 1, 0.1), convey.ShouldEqual, ErrNotFound)
		})
	})
}

func TestMemoryStoreComparisons(t *testing.T) {
	convey.Convey("Given a store with session history", t, func() {
		ctx := context.Background()
		store := NewMemoryStore(WithSessionHistoryLimit(3))

		record := func(i int, session string) {
			c := model.Comparison{
				ID:        fmt.Sprintf("c%d", i),
				Item1ID:   fmt.Sprintf("i%d", i),
				Item2ID:   fmt.Sprintf("j%d", i),
				WinnerID:  fmt.Sprintf("i%d", i),
				SessionID: session,
				CreatedAt: time.Now(),
			}
			convey.So(store.RecordComparison(ctx, c), convey.ShouldBeNil)
		}

		convey.Convey("When recording comparisons for one session", func() {
			for i := 0; i < 5; i++ {
				record(i, "s1")
			}

			convey.Convey("Then recent history should be most-recent-first", func() {
				history, err := store.RecentComparisons(ctx, "s1", 2)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(history), convey.ShouldEqual, 2)
				convey.So(history[0].ID, convey.ShouldEqual, "c4")
				convey.So(history[1].ID, convey.ShouldEqual, "c3")
			})

			convey.Convey("Then retained history should be bounded by the limit", func() {
				history, err := store.RecentComparisons(ctx, "s1", 10)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(history), convey.ShouldEqual, 3)
				convey.So(history[2].ID, convey.ShouldEqual, "c2")
			})
		})

		convey.Convey("When sessions do not mix", func() {
			record(0, "s1")
			record(1, "s2")

			history, err := store.RecentComparisons(ctx, "s2", 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(history), convey.ShouldEqual, 1)
			convey.So(history[0].ID, convey.ShouldEqual, "c1")
		})

		convey.Convey("When querying an empty or unknown session", func() {
			history, err := store.RecentComparisons(ctx, "", 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(history, convey.ShouldBeNil)

			history, err = store.RecentComparisons(ctx, "nobody", 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(history), convey.ShouldEqual, 0)
		})
	})
}

func TestMemoryStoreLeaderboard(t *testing.T) {
	convey.Convey("Given items across the rating range", t, func() {
		ctx := context.Background()
		store := NewMemoryStore()

		ratings := map[string]float64{
			"a": 1700,
			"b": 1600,
			"c": 1600,
			"d": 1400,
		}
		for id, rating := range ratings {
			convey.So(store.CreateItem(ctx, newItem(id, "Item "+id, rating)), convey.ShouldBeNil)
		}

		convey.Convey("When fetching the top entries", func() {
			top, err := store.TopN(ctx, 3)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then ordering should be rating desc with id asc tie-break", func() {
				convey.So(len(top), convey.ShouldEqual, 3)
				convey.So(top[0].ItemID, convey.ShouldEqual, "a")
				convey.So(top[1].ItemID, convey.ShouldEqual, "b")
				convey.So(top[2].ItemID, convey.ShouldEqual, "c")
				for i, entry := range top {
					convey.So(entry.Rank, convey.ShouldEqual, i+1)
				}
			})
		})

		convey.Convey("When asking for more entries than exist", func() {
			top, err := store.TopN(ctx, 50)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(top), convey.ShouldEqual, 4)
		})

		convey.Convey("When asking for a non-positive limit", func() {
			_, err := store.TopN(ctx, 0)
			convey.So(err, convey.ShouldEqual, ErrInvalidLimit)
		})

		convey.Convey("When ranking individual items", func() {
			for id, want := range map[string]int{"a": 1, "b": 2, "c": 3, "d": 4} {
				entry, err := store.Rank(ctx, id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(entry.Rank, convey.ShouldEqual, want)
				convey.So(entry.Rating, convey.ShouldEqual, ratings[id])
			}
		})

		convey.Convey("When ranking an unknown item", func() {
			_, err := store.Rank(ctx, "missing")
			convey.So(err, convey.ShouldEqual, ErrNotFound)
		})
	})
}

func TestMemoryStoreOrderingUnderChurn(t *testing.T) {
	convey.Convey("Given many items receiving random rating updates", t, func() {
		ctx := context.Background()
		store := NewMemoryStore()
		rng := rand.New(rand.NewSource(1)) //nolint:gosec // deterministic test data

		const n = 200
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("item-%03d", i)
			convey.So(store.CreateItem(ctx, newItem(ids[i], "Title "+ids[i], 1500)), convey.ShouldBeNil)
		}

		for i := 0; i < 1000; i++ {
			w := ids[rng.Intn(n)]
			l := ids[rng.Intn(n)]
			if w == l {
				continue
			}
			wi, _ := store.GetItem(ctx, w)
			li, _ := store.GetItem(ctx, l)
			err := store.ApplyVote(ctx, VoteDelta{
				WinnerID:        w,
				LoserID:         l,
				NewWinnerRating: wi.Rating + 16,
				NewLoserRating:  li.Rating - 16,
				ComparedAt:      time.Now(),
			})
			convey.So(err, convey.ShouldBeNil)
		}

		convey.Convey("Then the full leaderboard should match a reference sort", func() {
			top, err := store.TopN(ctx, n)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(top), convey.ShouldEqual, n)

			ref := make([]Entry, len(top))
			copy(ref, top)
			sort.SliceStable(ref, func(i, j int) bool {
				if ref[i].Rating != ref[j].Rating {
					return ref[i].Rating > ref[j].Rating
				}
				return ref[i].ItemID < ref[j].ItemID
			})
			for i := range ref {
				convey.So(top[i].ItemID, convey.ShouldEqual, ref[i].ItemID)
			}

			convey.Convey("And each rank query should agree with its position", func() {
				for i := 0; i < n; i += 17 {
					entry, err := store.Rank(ctx, top[i].ItemID)
					convey.So(err, convey.ShouldBeNil)
					convey.So(entry.Rank, convey.ShouldEqual, i+1)
				}
			})
		})
	})
}

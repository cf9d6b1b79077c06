package rating_test

import (
	"testing"

	rating "github.com/okian/duelo/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestUpdater_Update(t *testing.T) {
	Convey("Given an updater with default configuration", t, func() {
		u := rating.NewUpdater()

		Convey("When two unknown items at 1500 meet and A wins", func() {
			res := u.Update(1500, 1500, true, 0, 0)

			Convey("Then both move by the fast-learning K at expectation 0.5", func() {
				So(res.NewRatingA, ShouldAlmostEqual, 1516, 0.0001)
				So(res.NewRatingB, ShouldAlmostEqual, 1484, 0.0001)
			})
		})

		Convey("When both sides share a K-factor", func() {
			res := u.Update(1620, 1480, false, 0.5, 0.5)

			Convey("Then the rating changes are zero-sum", func() {
				deltaA := res.NewRatingA - 1620
				deltaB := res.NewRatingB - 1480
				So(deltaA+deltaB, ShouldAlmostEqual, 0, 1e-9)
			})
		})

		Convey("When an established item beats a newcomer", func() {
			res := u.Update(1700, 1500, true, 1.0, 0.0)

			Convey("Then the newcomer's rating moves further", func() {
				deltaA := res.NewRatingA - 1700
				deltaB := 1500 - res.NewRatingB
				So(deltaA, ShouldBeGreaterThan, 0)
				So(deltaB, ShouldBeGreaterThan, deltaA)
			})
		})

		Convey("When the favorite wins", func() {
			res := u.Update(1900, 1500, true, 1.0, 1.0)

			Convey("Then ratings barely move", func() {
				So(res.NewRatingA-1900, ShouldBeLessThan, 2)
				So(res.NewRatingA, ShouldBeGreaterThan, 1900)
				So(res.NewRatingB, ShouldBeLessThan, 1500)
			})
		})

		Convey("When the underdog wins", func() {
			res := u.Update(1900, 1500, false, 1.0, 1.0)

			Convey("Then the swing is large", func() {
				So(1900-res.NewRatingA, ShouldBeGreaterThan, 13)
				So(res.NewRatingB-1500, ShouldBeGreaterThan, 13)
			})
		})
	})

	Convey("Given custom K-factors and thresholds", t, func() {
		u := rating.NewUpdater(
			rating.WithKFactors(8, 16, 40),
			rating.WithConfidenceThresholds(0.25, 0.75),
		)

		Convey("When confidence sits exactly on a threshold", func() {
			// 0.75 selects the stable (low) K tier.
			res := u.Update(1500, 1500, true, 0.75, 0.75)

			Convey("Then the boundary belongs to the higher tier", func() {
				So(res.NewRatingA, ShouldAlmostEqual, 1504, 0.0001)
			})
		})

		Convey("When an invalid option set is supplied", func() {
			v := rating.NewUpdater(rating.WithKFactors(-1, 0, 0))
			res := v.Update(1500, 1500, true, 0, 0)

			Convey("Then defaults remain in effect", func() {
				So(res.NewRatingA, ShouldAlmostEqual, 1516, 0.0001)
			})
		})
	})
}

func TestExpectedScore(t *testing.T) {
	Convey("Given the Elo expectation function", t, func() {
		Convey("Equal ratings expect an even match", func() {
			So(rating.ExpectedScore(1500, 1500), ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("A 400-point favorite expects about 0.909", func() {
			So(rating.ExpectedScore(1900, 1500), ShouldAlmostEqual, 10.0/11.0, 1e-9)
		})

		Convey("Expectations are complementary", func() {
			So(rating.ExpectedScore(1650, 1420)+rating.ExpectedScore(1420, 1650), ShouldAlmostEqual, 1, 1e-12)
		})
	})
}

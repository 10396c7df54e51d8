package rules_test

import (
	"testing"
	"time"

	"github.com/willerob90/SubGames-Working/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTable(t *testing.T) {
	Convey("Given the default game catalogue", t, func() {
		table := rules.NewTable(rules.Defaults())

		Convey("Then every default game is present", func() {
			So(table.Games(), ShouldEqual, 5)

			r, ok := table.Lookup("whackAMole")
			So(ok, ShouldBeTrue)
			So(r.MinSeconds, ShouldEqual, 3)
			So(r.MaxSeconds, ShouldEqual, 120)
			So(r.Points, ShouldEqual, 3)
		})

		Convey("Then unknown games are rejected", func() {
			_, ok := table.Lookup("snakeOil")
			So(ok, ShouldBeFalse)
		})

		Convey("Then the timing window converts to durations", func() {
			r, _ := table.Lookup("reactionTap")
			min, max := r.Window()
			So(min, ShouldEqual, time.Second)
			So(max, ShouldEqual, time.Minute)
		})
	})

	Convey("Given a table built from a custom rule map", t, func() {
		src := map[string]rules.Rule{
			"valid":       {MinSeconds: 1, MaxSeconds: 10, Points: 1},
			"zeroPoints":  {MinSeconds: 1, MaxSeconds: 10, Points: 0},
			"inverted":    {MinSeconds: 10, MaxSeconds: 1, Points: 2},
			"negativeMin": {MinSeconds: -1, MaxSeconds: 10, Points: 2},
		}
		table := rules.NewTable(src)

		Convey("Then malformed entries are dropped", func() {
			So(table.Games(), ShouldEqual, 1)
			_, ok := table.Lookup("valid")
			So(ok, ShouldBeTrue)
		})

		Convey("Then mutating the source map does not leak into the table", func() {
			src["valid"] = rules.Rule{MinSeconds: 0, MaxSeconds: 1, Points: 99}
			r, _ := table.Lookup("valid")
			So(r.Points, ShouldEqual, 1)
		})
	})
}

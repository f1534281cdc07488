package crosswalk_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/skillmatch/internal/domain/crosswalk"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPairs(t *testing.T) {
	Convey("Given the crosswalk graph", t, func() {
		Convey("When source and target are the same", func() {
			for _, c := range crosswalk.Classifications() {
				So(crosswalk.Pairs(c, c), ShouldBeEmpty)
				So(crosswalk.Path(c, c), ShouldBeEmpty)
			}
		})

		Convey("When translating anzsco-2013 to noc-2021", func() {
			pairs := crosswalk.Pairs(crosswalk.ANZSCO2013, crosswalk.NOC2021)

			Convey("Then it follows the documented chain", func() {
				So(pairs, ShouldResemble, []crosswalk.Hop{
					{From: "anzsco-2013", To: "isco-2008"},
					{From: "isco-2008", To: "ussoc-2010"},
					{From: "ussoc-2010", To: "ussoc-2018"},
					{From: "ussoc-2018", To: "noc-2016"},
					{From: "noc-2016", To: "noc-2021"},
				})
			})

			Convey("And the path ends at the target without the source", func() {
				path := crosswalk.Path(crosswalk.ANZSCO2013, crosswalk.NOC2021)
				So(path, ShouldResemble, []crosswalk.Classification{
					crosswalk.ISCO2008, crosswalk.USSOC2010, crosswalk.USSOC2018,
					crosswalk.NOC2016, crosswalk.NOC2021,
				})
			})
		})

		Convey("When a direct table exists", func() {
			So(crosswalk.Pairs(crosswalk.UKSOC2010, crosswalk.UKSOC2020), ShouldResemble, []crosswalk.Hop{
				{From: crosswalk.UKSOC2010, To: crosswalk.UKSOC2020},
			})
		})

		Convey("When going the other way round", func() {
			So(crosswalk.Path(crosswalk.NOC2021, crosswalk.ANZSCO2013), ShouldResemble, []crosswalk.Classification{
				crosswalk.NOC2016, crosswalk.USSOC2018, crosswalk.USSOC2010,
				crosswalk.ISCO2008, crosswalk.ANZSCO2013,
			})
		})

		Convey("When every supported pair is resolved", func() {
			for _, from := range crosswalk.Classifications() {
				for _, to := range crosswalk.Classifications() {
					if from == to {
						continue
					}
					pairs := crosswalk.Pairs(from, to)
					So(pairs, ShouldNotBeEmpty)
					So(pairs[0].From, ShouldEqual, from)
					So(pairs[len(pairs)-1].To, ShouldEqual, to)
					for i := 1; i < len(pairs); i++ {
						So(pairs[i].From, ShouldEqual, pairs[i-1].To)
					}
					So(crosswalk.Supported(from, to), ShouldBeTrue)
				}
			}
		})

		Convey("When a scheme is unknown", func() {
			So(crosswalk.Path("esco-1.1", crosswalk.ISCO2008), ShouldBeEmpty)
			So(crosswalk.Pairs(crosswalk.ISCO2008, "esco-1.1"), ShouldBeEmpty)
			So(crosswalk.Supported(crosswalk.ISCO2008, "esco-1.1"), ShouldBeFalse)
			So(crosswalk.Classification("esco-1.1").Valid(), ShouldBeFalse)
		})

		Convey("When the caller mutates a returned path", func() {
			path := crosswalk.Path(crosswalk.ANZSCO2013, crosswalk.ISCO2008)
			path[0] = "mutated"
			So(crosswalk.Path(crosswalk.ANZSCO2013, crosswalk.ISCO2008)[0], ShouldEqual, crosswalk.ISCO2008)
		})
	})
}

func TestOccupationID(t *testing.T) {
	Convey("Given occupation codes", t, func() {
		code := crosswalk.OccupationCode{Classification: crosswalk.USSOC2018, Code: "15-1252", Label: "Software Developers"}

		Convey("Then the id joins scheme and code", func() {
			So(code.ID(), ShouldEqual, "ussoc-2018-15-1252")
		})

		Convey("And parsing the id restores both parts", func() {
			parsed, err := crosswalk.ParseOccupationID(code.ID())
			So(err, ShouldBeNil)
			So(parsed.Classification, ShouldEqual, crosswalk.USSOC2018)
			So(parsed.Code, ShouldEqual, "15-1252")
		})

		Convey("When the scheme is unknown", func() {
			_, err := crosswalk.ParseOccupationID("esco-1.1-1234")
			So(errors.Is(err, crosswalk.ErrUnknownClassification), ShouldBeTrue)
		})

		Convey("When the code is missing", func() {
			_, err := crosswalk.ParseOccupationID("noc-2021-")
			So(errors.Is(err, crosswalk.ErrInvalidCode), ShouldBeTrue)
		})
	})
}

func TestTranslator(t *testing.T) {
	Convey("Given a translator over an in-memory table", t, func() {
		ctx := context.Background()
		table := crosswalk.NewMapTable()
		table.Add(crosswalk.Hop{From: crosswalk.ANZSCO2013, To: crosswalk.ISCO2008}, "261312", "2512", "2514")
		table.Add(crosswalk.Hop{From: crosswalk.ISCO2008, To: crosswalk.USSOC2010}, "2512", "15-1132")
		table.Add(crosswalk.Hop{From: crosswalk.ISCO2008, To: crosswalk.USSOC2010}, "2514", "15-1132", "15-1133")
		tr := crosswalk.NewTranslator(table)

		Convey("When every hop has entries", func() {
			out, err := tr.Translate(ctx, crosswalk.OccupationCode{Classification: crosswalk.ANZSCO2013, Code: "261312"}, crosswalk.USSOC2010)

			Convey("Then codes fan out and are de-duplicated", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []crosswalk.OccupationCode{
					{Classification: crosswalk.USSOC2010, Code: "15-1132"},
					{Classification: crosswalk.USSOC2010, Code: "15-1133"},
				})
			})
		})

		Convey("When a hop has no entry", func() {
			out, err := tr.Translate(ctx, crosswalk.OccupationCode{Classification: crosswalk.ANZSCO2013, Code: "999999"}, crosswalk.USSOC2010)
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
		})

		Convey("When source and target schemes match", func() {
			in := crosswalk.OccupationCode{Classification: crosswalk.ISCO2008, Code: "2512"}
			out, err := tr.Translate(ctx, in, crosswalk.ISCO2008)
			So(err, ShouldBeNil)
			So(out, ShouldResemble, []crosswalk.OccupationCode{in})
		})

		Convey("When no route exists", func() {
			_, err := tr.Translate(ctx, crosswalk.OccupationCode{Classification: "esco-1.1", Code: "1"}, crosswalk.ISCO2008)
			So(errors.Is(err, crosswalk.ErrUnsupportedCrosswalk), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := tr.Translate(cctx, crosswalk.OccupationCode{Classification: crosswalk.ANZSCO2013, Code: "261312"}, crosswalk.USSOC2010)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

package config_test

import (
	"testing"

	"github.com/okian/drought/internal/config"
	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/internal/domain/season"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the threshold ladder runs 0 to -5 by 0.1", func() {
			ladder, err := cfg.Thresholds()
			convey.So(err, convey.ShouldBeNil)
			convey.So(ladder, convey.ShouldHaveLength, 51)
			convey.So(ladder[50], convey.ShouldEqual, -5)
		})

		convey.Convey("Then durations are in steps and winter is excluded from the mode", func() {
			convey.So(cfg.Unit(), convey.ShouldEqual, model.Steps)
			convey.So(cfg.SeasonPolicy(), convey.ShouldResemble, season.ReliefPolicy())
		})

		convey.Convey("Then events are droughts", func() {
			convey.So(cfg.EventDirection(), convey.ShouldEqual, model.Drought)
		})

		convey.Convey("When switched to days and the onset policy", func() {
			cfg.DurationUnit = "days"
			cfg.SeasonAnchor = "onset"
			cfg.SeasonExcludeWinter = false
			convey.So(cfg.Unit(), convey.ShouldEqual, model.Days)
			convey.So(cfg.SeasonPolicy(), convey.ShouldResemble, season.OnsetPolicy())
		})

		convey.Convey("When anchor and winter exclusion are mixed", func() {
			cfg.SeasonExcludeWinter = false
			convey.So(cfg.SeasonPolicy(), convey.ShouldResemble, season.Policy{Anchor: season.Relief})

			cfg.SeasonAnchor = "onset"
			cfg.SeasonExcludeWinter = true
			convey.So(cfg.SeasonPolicy(), convey.ShouldResemble, season.Policy{Anchor: season.Onset, ExcludeWinter: true})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When switched to wet events", func() {
			cfg.Direction = "wet"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.EventDirection(), convey.ShouldEqual, model.Wet)
		})
	})
}

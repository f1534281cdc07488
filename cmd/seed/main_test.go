package main

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/skillmatch/internal/config"
	"github.com/okian/skillmatch/internal/seed"
	"github.com/okian/skillmatch/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func tinySeed() *seed.Config {
	return &seed.Config{
		Tags:          10,
		Categories:    2,
		SubCategories: 2,
		Dimensions:    4,
		Users:         3,
		Opportunities: 2,
		MinTags:       1,
		MaxTags:       3,
		Workers:       2,
		Seed:          3,
		RunBatch:      true,
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a config whose storage driver is not lower case", t, func() {
		cfg := config.New()
		cfg.StorageDriver = "Memory"
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		convey.Convey("Then seeding opens the store and scores the pairs", func() {
			sum, err := run(ctx, cfg, tinySeed())
			convey.So(err, convey.ShouldBeNil)
			convey.So(sum.SkillTags, convey.ShouldEqual, 10)
			convey.So(sum.Batch, convey.ShouldNotBeNil)
			convey.So(sum.Batch.Failed, convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given an invalid seed configuration", t, func() {
		cfg := config.New()
		cfg.StorageDriver = config.DriverMemory
		bad := tinySeed()
		bad.Workers = 0

		convey.Convey("Then run reports the failure", func() {
			_, err := run(ctx, cfg, bad)
			convey.So(errors.Is(err, seed.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an unknown storage driver", t, func() {
		cfg := config.New()
		cfg.StorageDriver = "postgres"

		_, err := run(ctx, cfg, tinySeed())
		convey.So(err, convey.ShouldNotBeNil)
	})
}

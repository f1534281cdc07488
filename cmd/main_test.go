package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/skillmatch/internal/adapters/repository"
	service "github.com/okian/skillmatch/internal/app"
	"github.com/okian/skillmatch/internal/config"
	"github.com/okian/skillmatch/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestConfigLoading(t *testing.T) {
	convey.Convey("Given scorer settings in the environment", t, func() {
		t.Setenv("SKILLMATCH_ADDR", ":8080")
		t.Setenv("SKILLMATCH_QUEUE_SIZE", "1000")
		t.Setenv("SKILLMATCH_WORKER_COUNT", "4")
		t.Setenv("SKILLMATCH_STORAGE_DRIVER", "memory")

		convey.Convey("Then configuration picks them up", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			convey.So(cfg.StorageDriver, convey.ShouldEqual, "memory")
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		t.Setenv("SKILLMATCH_ADDR", "")

		convey.Convey("Then configuration loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given the scorer mux over a started service", t, func() {
		ctx := context.Background()
		svc := service.New(repository.NewMemoryStore(), service.WithSchedule(0, time.Minute))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := newMux(ctx, svc)

		for _, route := range []struct{ method, path string }{
			{http.MethodGet, "/healthz"},
			{http.MethodGet, "/stats"},
			{http.MethodPost, "/batch"},
			{http.MethodGet, "/openapi.yaml"},
			{http.MethodGet, "/api-docs"},
		} {
			req := httptest.NewRequest(route.method, route.path, http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		}

		convey.Convey("Then service gauges update without panicking", func() {
			convey.So(func() { updateServiceMetrics(ctx, svc) }, convey.ShouldNotPanic)
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a memory-backed configuration", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.StorageDriver = config.DriverMemory

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg) }()

			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("run did not return")
				}
			})
		})

		convey.Convey("When the code table path does not exist", func() {
			cfg.CodeTablePath = "does-not-exist.yaml"
			err := run(context.Background(), cfg)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the storage driver is unknown", func() {
			cfg.StorageDriver = "postgres"
			err := run(context.Background(), cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given an updater with an expired context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
	})
}

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/skillmatch/internal/adapters/http/api"
	"github.com/okian/skillmatch/internal/batch"
	"github.com/okian/skillmatch/pkg/metrics"
)

type mockStats struct{}

func (mockStats) GetStats(context.Context) map[string]any {
	return map[string]any{"started": true, "totalScores": 3}
}

type mockRunner struct {
	rep batch.Report
	err error
}

func (m *mockRunner) RunBatch(context.Context) (batch.Report, error) {
	return m.rep, m.err
}

func newMux(runner *mockRunner) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(mockStats{}, runner).Register(mux)
	return mux
}

func serve(mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer(t *testing.T) {
	Convey("Given the ops server", t, func() {
		runner := &mockRunner{rep: batch.Report{Pending: 4, Scored: 3, Skipped: 1}}
		mux := newMux(runner)

		Convey("When GET /healthz", func() {
			metrics.RecordPairScored()
			rec := serve(mux, http.MethodGet, "/healthz")

			Convey("Then it serves the Prometheus exposition", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "skillmatch_scorer_pairs_scored_total")
			})
		})

		Convey("When GET /stats", func() {
			rec := serve(mux, http.MethodGet, "/stats")

			Convey("Then it returns the provider's stats as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				var body map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body["started"], ShouldEqual, true)
				So(body["totalScores"], ShouldEqual, 3)
			})
		})

		Convey("When POST /stats", func() {
			rec := serve(mux, http.MethodPost, "/stats")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(rec.Header().Get("Allow"), ShouldEqual, http.MethodGet)
		})

		Convey("When POST /batch succeeds", func() {
			rec := serve(mux, http.MethodPost, "/batch")

			Convey("Then the run report is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var rep batch.Report
				So(json.Unmarshal(rec.Body.Bytes(), &rep), ShouldBeNil)
				So(rep.Scored, ShouldEqual, 3)
				So(rep.Skipped, ShouldEqual, 1)
			})
		})

		Convey("When a run is already in progress", func() {
			runner.err = batch.ErrRunInProgress
			rec := serve(mux, http.MethodPost, "/batch")
			So(rec.Code, ShouldEqual, http.StatusConflict)
			So(rec.Body.String(), ShouldContainSubstring, "run_in_progress")
		})

		Convey("When the run fails", func() {
			runner.err = errors.New("storage down")
			rec := serve(mux, http.MethodPost, "/batch")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(rec.Body.String(), ShouldContainSubstring, "storage down")
		})

		Convey("When GET /batch", func() {
			rec := serve(mux, http.MethodGet, "/batch")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

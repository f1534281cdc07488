package model_test

import (
	"testing"
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNamespace(t *testing.T) {
	Convey("Given tag namespaces", t, func() {
		So(model.NamespaceSkill.Valid(), ShouldBeTrue)
		So(model.NamespaceInterest.Valid(), ShouldBeTrue)
		So(model.Namespace("hobby").Valid(), ShouldBeFalse)
	})
}

func TestTagDeprecated(t *testing.T) {
	Convey("Given a tag", t, func() {
		tag := model.Tag{ID: "go", Namespace: model.NamespaceSkill}

		Convey("When it has no deprecation time", func() {
			So(tag.Deprecated(), ShouldBeFalse)
		})

		Convey("When it is deprecated", func() {
			now := time.Now()
			tag.DeprecatedAt = &now
			So(tag.Deprecated(), ShouldBeTrue)
		})
	})
}

func TestPairTaskKey(t *testing.T) {
	Convey("Given two pair tasks", t, func() {
		a := model.PairTask{UserProfileID: "u1", ItemProfileID: "i1", Method: model.ScoreMethodRawSimilarity}
		b := model.PairTask{UserProfileID: "i1", ItemProfileID: "u1", Method: model.ScoreMethodRawSimilarity}

		Convey("Then keys are directed", func() {
			So(a.Key(), ShouldEqual, "raw_similarity:u1:i1")
			So(a.Key(), ShouldNotEqual, b.Key())
		})
	})
}

func TestOwnerKind(t *testing.T) {
	Convey("Given owner kinds", t, func() {
		So(model.OwnerUser.Valid(), ShouldBeTrue)
		So(model.OwnerOpportunity.Valid(), ShouldBeTrue)
		So(model.OwnerKind("org").Valid(), ShouldBeFalse)
	})
}

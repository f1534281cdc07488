package distance_test

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/skillmatch/internal/domain/distance"
	"github.com/okian/skillmatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const epsilon = 1e-12

func skill(id, category, sub string, embedding ...float64) model.Tag {
	return model.Tag{
		ID:          id,
		Name:        id,
		Namespace:   model.NamespaceSkill,
		Category:    category,
		SubCategory: sub,
		Embedding:   embedding,
	}
}

// polar builds a unit vector at the given angle in degrees.
func polar(deg float64) []float64 {
	rad := deg * math.Pi / 180
	return []float64{math.Cos(rad), math.Sin(rad)}
}

func randomTag(rng *rand.Rand, i, dims int) model.Tag {
	emb := make([]float64, dims)
	for d := range emb {
		emb[d] = rng.Float64()*2 - 1
	}
	category := fmt.Sprintf("cat-%d", rng.Intn(3))
	return model.Tag{
		ID:          fmt.Sprintf("tag-%03d", rng.Intn(40)+i*1000),
		Namespace:   model.NamespaceSkill,
		Category:    category,
		SubCategory: fmt.Sprintf("%s-sub-%d", category, rng.Intn(3)),
		Embedding:   emb,
	}
}

func randomCollection(rng *rand.Rand, dims int) []model.Tag {
	n := rng.Intn(6) + 1
	out := make([]model.Tag, n)
	for i := range out {
		out[i] = randomTag(rng, i, dims)
	}
	return out
}

func TestCosineSimilarity(t *testing.T) {
	Convey("Given two vectors", t, func() {
		Convey("When they point the same way", func() {
			sim, err := distance.CosineSimilarity([]float64{1, 2, 3}, []float64{2, 4, 6})
			So(err, ShouldBeNil)
			So(sim, ShouldAlmostEqual, 1.0, epsilon)
		})

		Convey("When they are orthogonal", func() {
			sim, err := distance.CosineSimilarity([]float64{1, 0}, []float64{0, 1})
			So(err, ShouldBeNil)
			So(sim, ShouldAlmostEqual, 0.0, epsilon)
		})

		Convey("When they are opposite", func() {
			sim, err := distance.CosineSimilarity([]float64{1, 0}, []float64{-3, 0})
			So(err, ShouldBeNil)
			So(sim, ShouldAlmostEqual, -1.0, epsilon)
		})

		Convey("When rounding would push parallel vectors past 1", func() {
			x := []float64{1, 4, 3}
			for _, y := range [][]float64{{1, 4, 3}, {2, 8, 6}, {0.1, 0.4, 0.3}} {
				sim, err := distance.CosineSimilarity(x, y)
				So(err, ShouldBeNil)
				So(sim, ShouldBeLessThanOrEqualTo, 1)
				So(sim, ShouldAlmostEqual, 1.0, epsilon)

				cd, err := distance.CosineDistance(x, y)
				So(err, ShouldBeNil)
				So(cd, ShouldBeGreaterThanOrEqualTo, 0)
			}
		})

		Convey("When the distance of opposed vectors is taken", func() {
			cd, err := distance.CosineDistance([]float64{1, 0}, []float64{-1, 0})
			So(err, ShouldBeNil)
			So(cd, ShouldEqual, 1)
		})

		Convey("When one of them is the zero vector", func() {
			sim, err := distance.CosineSimilarity([]float64{0, 0}, []float64{1, 1})
			So(err, ShouldBeNil)
			So(sim, ShouldEqual, 0)
		})

		Convey("When their lengths differ", func() {
			_, err := distance.CosineSimilarity([]float64{1, 0}, []float64{1, 0, 0})
			So(errors.Is(err, distance.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestTagDistance(t *testing.T) {
	Convey("Given skill tags", t, func() {
		a := skill("go", "engineering", "backend", polar(0)...)
		b := skill("rust", "engineering", "backend", polar(60)...)
		c := skill("react", "engineering", "frontend", polar(60)...)
		d := skill("figma", "design", "ui", polar(60)...)

		Convey("When a tag is compared with itself", func() {
			got, err := distance.TagDistance(&a, &a)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 0)
		})

		Convey("When ids match but embeddings are noisy", func() {
			noisy := skill("go", "engineering", "backend", polar(45)...)
			got, err := distance.TagDistance(&a, &noisy)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 0)
		})

		Convey("When sub-categories match", func() {
			got, err := distance.TagDistance(&a, &b)
			So(err, ShouldBeNil)
			So(got, ShouldAlmostEqual, 0.5, epsilon)
		})

		Convey("When only categories match", func() {
			got, err := distance.TagDistance(&a, &c)
			So(err, ShouldBeNil)
			So(got, ShouldAlmostEqual, 1.5, epsilon)
		})

		Convey("When nothing matches", func() {
			got, err := distance.TagDistance(&a, &d)
			So(err, ShouldBeNil)
			So(got, ShouldAlmostEqual, 2.5, epsilon)
		})

		Convey("When embeddings point in opposite directions", func() {
			left := skill("left", "engineering", "backend", 1, 0)
			right := skill("right", "engineering", "backend", -1, 0)
			got, err := distance.TagDistance(&left, &right)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 1)

			right.SubCategory = "frontend"
			got, err = distance.TagDistance(&left, &right)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 2)

			right.Category = "design"
			got, err = distance.TagDistance(&left, &right)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 3)
		})

		Convey("When distinct tags share a direction", func() {
			x := skill("x", "engineering", "backend", 1, 4, 3)
			y := skill("y", "engineering", "backend", 2, 8, 6)
			got, err := distance.TagDistance(&x, &y)
			So(err, ShouldBeNil)
			So(got, ShouldBeGreaterThanOrEqualTo, 0)
			So(got, ShouldAlmostEqual, 0, epsilon)

			total, err := distance.CollectionDistance([]model.Tag{x}, []model.Tag{y})
			So(err, ShouldBeNil)
			So(total, ShouldBeGreaterThanOrEqualTo, 0)

			y.SubCategory = "frontend"
			got, err = distance.TagDistance(&x, &y)
			So(err, ShouldBeNil)
			So(got, ShouldBeGreaterThanOrEqualTo, 1)
		})

		Convey("When an embedding is all zeros", func() {
			zero := skill("empty", "engineering", "backend", 0, 0)
			got, err := distance.TagDistance(&a, &zero)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 1)
		})

		Convey("When embeddings have different lengths", func() {
			short := skill("short", "engineering", "backend", 1)
			_, err := distance.TagDistance(&a, &short)
			So(errors.Is(err, distance.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When random tags are compared", func() {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 500; i++ {
				x, y := randomTag(rng, 0, 4), randomTag(rng, 1, 4)
				got, err := distance.TagDistance(&x, &y)
				So(err, ShouldBeNil)
				switch {
				case x.SubCategory == y.SubCategory:
					So(got, ShouldBeBetweenOrEqual, 0, 1+epsilon)
				case x.Category == y.Category:
					So(got, ShouldBeBetweenOrEqual, 1, 2+epsilon)
				default:
					So(got, ShouldBeBetweenOrEqual, 2, 3+epsilon)
				}
				back, err := distance.TagDistance(&y, &x)
				So(err, ShouldBeNil)
				So(back, ShouldEqual, got)
			}
		})
	})
}

func TestCollectionDistance(t *testing.T) {
	Convey("Given tag collections", t, func() {
		Convey("When either side is empty", func() {
			one := []model.Tag{skill("go", "eng", "backend", 1, 0)}

			_, err := distance.CollectionDistance(nil, one)
			So(errors.Is(err, distance.ErrInvalidInput), ShouldBeTrue)

			_, err = distance.CollectionDistance(one, []model.Tag{})
			So(errors.Is(err, distance.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When both sides hold the same single tag", func() {
			tag := skill("go", "eng", "backend", 1, 2, 3)
			got, err := distance.CollectionDistance([]model.Tag{tag}, []model.Tag{tag})
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 0)
		})

		Convey("When two single tags share a sub-category", func() {
			a := []model.Tag{skill("a", "cat", "sub1", polar(10)...)}
			b := []model.Tag{skill("b", "cat", "sub1", polar(70)...)}

			got, err := distance.CollectionDistance(a, b)
			So(err, ShouldBeNil)

			want, err := distance.TagDistance(&a[0], &b[0])
			So(err, ShouldBeNil)
			cd, err := distance.CosineDistance(a[0].Embedding, b[0].Embedding)
			So(err, ShouldBeNil)

			So(got, ShouldEqual, want)
			So(got, ShouldEqual, cd)
			So(got, ShouldBeBetweenOrEqual, 0, 1)
		})

		Convey("When the small side is matched greedily", func() {
			small := []model.Tag{skill("s1", "eng", "backend", polar(0)...)}
			large := []model.Tag{
				skill("l1", "eng", "frontend", polar(0)...),
				skill("l2", "eng", "backend", polar(60)...),
			}

			got, err := distance.CollectionDistance(small, large)
			So(err, ShouldBeNil)
			So(got, ShouldAlmostEqual, 0.5, epsilon)
		})

		Convey("When each large tag can only be used once", func() {
			small := []model.Tag{
				skill("s1", "eng", "backend", polar(0)...),
				skill("s2", "eng", "backend", polar(0)...),
			}
			large := []model.Tag{
				skill("l1", "eng", "backend", polar(0)...),
				skill("l2", "design", "ui", polar(0)...),
				skill("l3", "design", "ui", polar(0)...),
			}

			got, err := distance.CollectionDistance(small, large)
			So(err, ShouldBeNil)
			So(got, ShouldAlmostEqual, 2.0, epsilon)
		})

		Convey("When collections grow the total grows too", func() {
			one := []model.Tag{skill("a", "eng", "backend", polar(0)...)}
			other := []model.Tag{skill("b", "design", "ui", polar(0)...)}
			single, err := distance.CollectionDistance(one, other)
			So(err, ShouldBeNil)

			var many, manyOther []model.Tag
			for i := 0; i < 10; i++ {
				many = append(many, skill(fmt.Sprintf("a%d", i), "eng", "backend", polar(0)...))
				manyOther = append(manyOther, skill(fmt.Sprintf("b%d", i), "design", "ui", polar(0)...))
			}
			ten, err := distance.CollectionDistance(many, manyOther)
			So(err, ShouldBeNil)

			So(single, ShouldAlmostEqual, 2.0, epsilon)
			So(ten, ShouldAlmostEqual, 20.0, 1e-9)
		})

		Convey("When equal-length greedy order would matter", func() {
			// a1 and b2 coincide; iterating either side first gives a
			// different greedy total, so roles must not follow argument order.
			a := []model.Tag{
				skill("a1", "eng", "backend", polar(0)...),
				skill("a2", "eng", "backend", polar(40)...),
			}
			b := []model.Tag{
				skill("b1", "eng", "backend", polar(20)...),
				skill("b2", "eng", "backend", polar(0)...),
			}

			ab, err := distance.CollectionDistance(a, b)
			So(err, ShouldBeNil)
			ba, err := distance.CollectionDistance(b, a)
			So(err, ShouldBeNil)
			So(ab, ShouldEqual, ba)
		})

		Convey("When random collections are compared both ways", func() {
			rng := rand.New(rand.NewSource(42))
			for i := 0; i < 1000; i++ {
				a := randomCollection(rng, 3)
				b := randomCollection(rng, 3)

				ab, err := distance.CollectionDistance(a, b)
				So(err, ShouldBeNil)
				ba, err := distance.CollectionDistance(b, a)
				So(err, ShouldBeNil)
				So(ab, ShouldEqual, ba)
				So(ab, ShouldBeGreaterThanOrEqualTo, 0)
			}
		})

		Convey("When embeddings disagree in length", func() {
			a := []model.Tag{skill("a", "eng", "backend", 1, 0)}
			b := []model.Tag{skill("b", "eng", "backend", 1)}
			_, err := distance.CollectionDistance(a, b)
			So(errors.Is(err, distance.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

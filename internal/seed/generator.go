package seed

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/skillmatch/internal/domain/model"
)

// Spread of a skill around its category centroid.
const embeddingNoise = 0.5

// Assignment is one owner and the tag ids it will point at.
type Assignment struct {
	Kind    model.OwnerKind
	OwnerID string
	TagIDs  []string
}

// generator derives a catalog and owner assignments from a fixed seed.
type generator struct {
	cfg *Config
	rng *rand.Rand
}

func newGenerator(cfg *Config) *generator {
	return &generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// tagID is stable for a given seed, namespace and index.
func (g *generator) tagID(ns model.Namespace, i int) string {
	return g.stableID(string(ns), i)
}

// ownerID is stable for a given seed, owner kind and index, so reseeding
// with the same seed repoints the same owners.
func (g *generator) ownerID(kind model.OwnerKind, i int) string {
	return g.stableID("owner/"+string(kind), i)
}

func (g *generator) stableID(scope string, i int) string {
	name := fmt.Sprintf("skillmatch/%d/%s/%d", g.cfg.Seed, scope, i)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// catalog builds the skill and interest tags. Skills of one category share a
// centroid so their embeddings cluster.
func (g *generator) catalog() []model.Tag {
	centroids := make([][]float64, g.cfg.Categories)
	for c := range centroids {
		centroids[c] = g.unitVector()
	}

	tags := make([]model.Tag, 0, g.cfg.Tags+g.cfg.Interests)
	for i := 0; i < g.cfg.Tags; i++ {
		cat := g.rng.IntN(g.cfg.Categories)
		sub := g.rng.IntN(g.cfg.SubCategories)
		noise := g.unitVector()
		emb := make([]float64, g.cfg.Dimensions)
		for d := range emb {
			emb[d] = centroids[cat][d] + embeddingNoise*noise[d]
		}
		normalize(emb)
		tags = append(tags, model.Tag{
			ID:          g.tagID(model.NamespaceSkill, i),
			Name:        fmt.Sprintf("skill-%d", i),
			Namespace:   model.NamespaceSkill,
			Category:    fmt.Sprintf("category-%d", cat),
			SubCategory: fmt.Sprintf("category-%d/sub-%d", cat, sub),
			Embedding:   emb,
		})
	}
	for i := 0; i < g.cfg.Interests; i++ {
		tags = append(tags, model.Tag{
			ID:        g.tagID(model.NamespaceInterest, i),
			Name:      fmt.Sprintf("interest-%d", i),
			Namespace: model.NamespaceInterest,
		})
	}
	return tags
}

// assignments draws a random tag set per owner. Users may also carry
// interests; opportunities only list skills.
func (g *generator) assignments() []Assignment {
	out := make([]Assignment, 0, g.cfg.Users+g.cfg.Opportunities)
	for i := 0; i < g.cfg.Users; i++ {
		ids := g.pick(model.NamespaceSkill, g.cfg.Tags)
		if g.cfg.Interests > 0 && g.rng.IntN(2) == 0 {
			ids = append(ids, g.tagID(model.NamespaceInterest, g.rng.IntN(g.cfg.Interests)))
		}
		out = append(out, Assignment{Kind: model.OwnerUser, OwnerID: g.ownerID(model.OwnerUser, i), TagIDs: ids})
	}
	for i := 0; i < g.cfg.Opportunities; i++ {
		out = append(out, Assignment{
			Kind:    model.OwnerOpportunity,
			OwnerID: g.ownerID(model.OwnerOpportunity, i),
			TagIDs:  g.pick(model.NamespaceSkill, g.cfg.Tags),
		})
	}
	return out
}

// pick samples between MinTags and MaxTags distinct tag ids from ns.
func (g *generator) pick(ns model.Namespace, pool int) []string {
	n := g.cfg.MinTags
	if span := g.cfg.MaxTags - g.cfg.MinTags; span > 0 {
		n += g.rng.IntN(span + 1)
	}
	n = min(n, pool)
	ids := make([]string, 0, n)
	for _, i := range g.rng.Perm(pool)[:n] {
		ids = append(ids, g.tagID(ns, i))
	}
	return ids
}

func (g *generator) unitVector() []float64 {
	v := make([]float64, g.cfg.Dimensions)
	for i := range v {
		v[i] = g.rng.NormFloat64()
	}
	normalize(v)
	return v
}

func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		v[0] = 1
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}

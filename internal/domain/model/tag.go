// Package model contains domain models passed between layers.
package model

import "time"

// Namespace partitions the tag catalog.
type Namespace string

// Known tag namespaces.
const (
	NamespaceSkill    Namespace = "skill"
	NamespaceInterest Namespace = "interest"
)

// Valid reports whether n is one of the known namespaces.
func (n Namespace) Valid() bool {
	return n == NamespaceSkill || n == NamespaceInterest
}

// Tag is an immutable catalog entry describing a skill or an interest.
// Category, SubCategory and Embedding are only meaningful for skills.
type Tag struct {
	ID           string
	Name         string
	Namespace    Namespace
	Category     string
	SubCategory  string
	Embedding    []float64
	DeprecatedAt *time.Time // soft deprecation; kept for historical scores
}

// Deprecated reports whether the tag has been retired from new profiles.
func (t *Tag) Deprecated() bool {
	return t.DeprecatedAt != nil
}

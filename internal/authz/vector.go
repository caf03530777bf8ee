package authz

import (
	"fmt"
	"hash/fnv"
	"sort"
)

// EntityKind identifies the entity family a vector entry belongs to.
type EntityKind string

const (
	KindMember          EntityKind = "member"
	KindRole            EntityKind = "role"
	KindPermissionGroup EntityKind = "group"
	KindPolicy          EntityKind = "policy"
)

// VectorEntry is one entity's contribution to a decision.
type VectorEntry struct {
	Kind    EntityKind `json:"kind"`
	ID      string     `json:"id"`
	Version int64      `json:"version"`
}

// VersionVector is the set of (entity, version) pairs reachable from a
// (user, workspace) pair. Any mutation to any contributing entity bumps that
// entity's version, changing the vector hash and thereby the decision-cache
// key — entries self-invalidate without any cache-busting calls.
type VersionVector struct {
	Entries []VectorEntry `json:"entries"`
}

// Add records an entity's version. Duplicate (kind, id) pairs are collapsed;
// a shared permission group reached through two roles contributes once.
func (v *VersionVector) Add(kind EntityKind, id string, version int64) {
	for _, e := range v.Entries {
		if e.Kind == kind && e.ID == id {
			return
		}
	}
	v.Entries = append(v.Entries, VectorEntry{Kind: kind, ID: id, Version: version})
}

// Merge folds another vector's entries into this one.
func (v *VersionVector) Merge(other VersionVector) {
	for _, e := range other.Entries {
		v.Add(e.Kind, e.ID, e.Version)
	}
}

// Hash returns a stable digest of the vector, independent of the order in
// which entries were discovered. It is cheap enough to expose to the
// session/token collaborator on every request.
func (v VersionVector) Hash() string {
	entries := make([]VectorEntry, len(v.Entries))
	copy(entries, v.Entries)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind < entries[j].Kind
		}
		return entries[i].ID < entries[j].ID
	})

	h := fnv.New64a()
	for _, e := range entries {
		fmt.Fprintf(h, "%s:%s:%d;", e.Kind, e.ID, e.Version)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

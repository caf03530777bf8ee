package authz

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RoleRef names one role that contributed to a grant set.
type RoleRef struct {
	ID   primitive.ObjectID
	Name string
}

// GrantSet is the complete effective authorization state of a (user,
// workspace) pair: the flat permission union, the ordered policy list, and
// the version vector that fingerprints the entities it was computed from.
type GrantSet struct {
	Permissions  map[string]struct{}
	Policies     []Policy
	Roles        []RoleRef
	SubjectAttrs map[string]interface{}
	SuperAdmin   bool
	Vector       VersionVector

	// NotAfter is the earliest future assignment expiry contributing to
	// this set, zero when nothing expires. Version vectors cannot observe
	// the passage of time, so cached sets carry their own deadline.
	NotAfter time.Time
}

// Has reports whether the flat permission union contains key.
func (g *GrantSet) Has(key string) bool {
	if g.SuperAdmin {
		return true
	}
	_, ok := g.Permissions[key]
	return ok
}

// PermissionList returns the union as a slice, for API responses.
func (g *GrantSet) PermissionList() []string {
	out := make([]string, 0, len(g.Permissions))
	for p := range g.Permissions {
		out = append(out, p)
	}
	return out
}

// Aggregator combines a membership's role assignments into one GrantSet.
type Aggregator struct {
	store    EntityStore
	resolver *Resolver
	log      *zap.Logger
	now      func() time.Time
}

func NewAggregator(store EntityStore, resolver *Resolver, log *zap.Logger) *Aggregator {
	return &Aggregator{store: store, resolver: resolver, log: log, now: time.Now}
}

// Aggregate resolves every live role assignment of the user's membership and
// unions the results. An absent or deactivated membership yields an empty
// grant set with no error: "no access" is an answer, not a failure. Expired
// assignments are skipped. A role whose chain contains a cycle is logged and
// skipped; the user keeps whatever their other roles grant. A super-admin
// role short-circuits permission collection for the remaining assignments,
// but every assignment still contributes to the vector so revocations are
// observed.
func (a *Aggregator) Aggregate(ctx context.Context, userID, workspaceID primitive.ObjectID) (*GrantSet, error) {
	set := &GrantSet{Permissions: make(map[string]struct{})}

	member, err := a.store.GetWorkspaceMember(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return set, nil
		}
		return nil, err
	}

	set.Vector.Add(KindMember, member.ID.Hex(), member.Version)
	if !member.IsActive {
		return set, nil
	}
	set.SubjectAttrs = member.Metadata

	now := a.now()
	for _, assignment := range member.Assignments {
		if assignment.ExpiresAt != nil {
			if !assignment.ExpiresAt.After(now) {
				continue
			}
			if set.NotAfter.IsZero() || assignment.ExpiresAt.Before(set.NotAfter) {
				set.NotAfter = *assignment.ExpiresAt
			}
		}

		if set.SuperAdmin {
			// Permissions are already total; walk only for vector entries.
			// The role still shows up in Roles so grant listings and the
			// access review export stay complete.
			vec, err := a.resolver.VectorForRole(ctx, assignment.RoleID)
			if err != nil {
				var cerr *CycleError
				if errors.As(err, &cerr) {
					a.log.Error("role inheritance cycle", zap.String("roleId", assignment.RoleID.Hex()), zap.Error(cerr))
					continue
				}
				return nil, err
			}
			role, err := a.store.GetRole(ctx, assignment.RoleID)
			if err != nil {
				return nil, err
			}
			set.Roles = append(set.Roles, RoleRef{ID: role.ID, Name: role.Name})
			set.Vector.Merge(vec)
			continue
		}

		res, err := a.resolver.ResolveRole(ctx, assignment.RoleID)
		if err != nil {
			var cerr *CycleError
			if errors.As(err, &cerr) {
				a.log.Error("role inheritance cycle", zap.String("roleId", assignment.RoleID.Hex()), zap.Error(cerr))
				continue
			}
			return nil, err
		}

		role, err := a.store.GetRole(ctx, assignment.RoleID)
		if err != nil {
			return nil, err
		}
		set.Roles = append(set.Roles, RoleRef{ID: role.ID, Name: role.Name})

		for p := range res.Permissions {
			set.Permissions[p] = struct{}{}
		}
		set.Policies = append(set.Policies, res.Policies...)
		set.Vector.Merge(res.Vector)
		if res.SuperAdmin {
			set.SuperAdmin = true
		}
	}

	return set, nil
}

// Vector computes only the version vector for the pair, the cheap walk used
// as the cache key on every check.
func (a *Aggregator) Vector(ctx context.Context, userID, workspaceID primitive.ObjectID) (VersionVector, error) {
	var vec VersionVector

	member, err := a.store.GetWorkspaceMember(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return vec, nil
		}
		return VersionVector{}, err
	}

	vec.Add(KindMember, member.ID.Hex(), member.Version)
	if !member.IsActive {
		return vec, nil
	}

	now := a.now()
	for _, assignment := range member.Assignments {
		if assignment.ExpiresAt != nil && !assignment.ExpiresAt.After(now) {
			continue
		}
		rv, err := a.resolver.VectorForRole(ctx, assignment.RoleID)
		if err != nil {
			var cerr *CycleError
			if errors.As(err, &cerr) {
				continue
			}
			return VersionVector{}, err
		}
		vec.Merge(rv)
	}
	return vec, nil
}

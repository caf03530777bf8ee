package authz

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RoleResolution is the flattened result of one inheritance chain walk.
type RoleResolution struct {
	Permissions map[string]struct{}
	Policies    []Policy
	SuperAdmin  bool
	Vector      VersionVector
}

// Resolver walks role inheritance chains and flattens them into permission
// sets and ordered policy lists.
type Resolver struct {
	store    EntityStore
	maxDepth int
	log      *zap.Logger
}

func NewResolver(store EntityStore, maxDepth int, log *zap.Logger) *Resolver {
	if maxDepth <= 0 {
		maxDepth = 32
	}
	return &Resolver{store: store, maxDepth: maxDepth, log: log}
}

// ResolveRole walks the chain root -> parent -> grandparent and unions every
// reachable permission group, appending policies in chain order (own role's
// policies before inherited ones). A revisited role id aborts with
// *CycleError; so does a chain longer than the depth guard. A disabled role
// at the start of the chain contributes nothing; a disabled ancestor
// terminates the walk there, keeping the permissions collected so far.
func (r *Resolver) ResolveRole(ctx context.Context, roleID primitive.ObjectID) (*RoleResolution, error) {
	res := &RoleResolution{Permissions: make(map[string]struct{})}
	visited := make(map[primitive.ObjectID]struct{})
	chain := make([]primitive.ObjectID, 0, 4)

	current := &roleID
	for current != nil {
		id := *current
		if _, seen := visited[id]; seen {
			return nil, &CycleError{RoleID: roleID, Chain: chain}
		}
		if len(chain) >= r.maxDepth {
			return nil, &CycleError{RoleID: roleID, Chain: chain, DepthExceeded: true}
		}
		visited[id] = struct{}{}
		chain = append(chain, id)

		role, err := r.store.GetRole(ctx, id)
		if err != nil {
			return nil, err
		}
		// A disabled role's version still participates in the vector so
		// that re-enabling it invalidates cached decisions. VectorForRole
		// records the same entry; the two walks must hash identically.
		res.Vector.Add(KindRole, role.ID.Hex(), role.Version)
		if role.Disabled {
			if len(chain) == 1 {
				// The assigned role itself is disabled: whole chain is inert.
				return res, nil
			}
			break
		}

		if role.IsSuperAdmin {
			res.SuperAdmin = true
		}

		for _, gid := range role.PermissionGroupIDs {
			group, err := r.store.GetPermissionGroup(ctx, gid)
			if err != nil {
				return nil, err
			}
			res.Vector.Add(KindPermissionGroup, group.ID.Hex(), group.Version)
			for _, p := range group.Permissions {
				res.Permissions[p] = struct{}{}
			}
		}

		for _, pid := range role.PolicyIDs {
			policy, err := r.store.GetPolicy(ctx, pid)
			if err != nil {
				return nil, err
			}
			res.Vector.Add(KindPolicy, policy.ID.Hex(), policy.Version)
			res.Policies = append(res.Policies, *policy)
		}

		current = role.ParentRoleID
	}

	return res, nil
}

// VectorForRole performs the same walk as ResolveRole but only accumulates
// version entries. Used on the cache read path, where permissions are not
// needed until a miss is established.
func (r *Resolver) VectorForRole(ctx context.Context, roleID primitive.ObjectID) (VersionVector, error) {
	var vec VersionVector
	visited := make(map[primitive.ObjectID]struct{})
	depth := 0

	current := &roleID
	for current != nil {
		id := *current
		if _, seen := visited[id]; seen {
			return VersionVector{}, &CycleError{RoleID: roleID}
		}
		if depth >= r.maxDepth {
			return VersionVector{}, &CycleError{RoleID: roleID, DepthExceeded: true}
		}
		visited[id] = struct{}{}
		depth++

		role, err := r.store.GetRole(ctx, id)
		if err != nil {
			return VersionVector{}, err
		}
		vec.Add(KindRole, role.ID.Hex(), role.Version)
		if role.Disabled {
			break
		}

		for _, gid := range role.PermissionGroupIDs {
			group, err := r.store.GetPermissionGroup(ctx, gid)
			if err != nil {
				return VersionVector{}, err
			}
			vec.Add(KindPermissionGroup, group.ID.Hex(), group.Version)
		}
		for _, pid := range role.PolicyIDs {
			policy, err := r.store.GetPolicy(ctx, pid)
			if err != nil {
				return VersionVector{}, err
			}
			vec.Add(KindPolicy, policy.ID.Hex(), policy.Version)
		}

		current = role.ParentRoleID
	}
	return vec, nil
}

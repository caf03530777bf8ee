package authz

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/stretchr/testify/require"
)

func newTestResolver(store EntityStore, maxDepth int) *Resolver {
	return NewResolver(store, maxDepth, zap.NewNop())
}

// Editor (taskBasics) <- Senior Editor (taskCleanup) fixture.
func editorFixture(store *MemStore) (editorID, seniorID primitive.ObjectID) {
	basics := PermissionGroup{ID: primitive.NewObjectID(), Name: "task-editing", Permissions: []string{"canCreateProject", "canEditDates"}, Version: 1}
	cleanup := PermissionGroup{ID: primitive.NewObjectID(), Name: "task-cleanup", Permissions: []string{"canDeleteTasks"}, Version: 1}
	store.PutPermissionGroup(basics)
	store.PutPermissionGroup(cleanup)

	editorID = primitive.NewObjectID()
	seniorID = primitive.NewObjectID()
	store.PutRole(Role{ID: editorID, Name: "Editor", PermissionGroupIDs: []primitive.ObjectID{basics.ID}, Version: 1})
	store.PutRole(Role{ID: seniorID, Name: "Senior Editor", ParentRoleID: &editorID, PermissionGroupIDs: []primitive.ObjectID{cleanup.ID}, Version: 1})
	return editorID, seniorID
}

func TestResolveRoleUnionsInheritedGroups(t *testing.T) {
	store := NewMemStore()
	editorID, seniorID := editorFixture(store)
	r := newTestResolver(store, 32)

	res, err := r.ResolveRole(context.Background(), seniorID)
	require.NoError(t, err)
	require.Contains(t, res.Permissions, "canDeleteTasks")
	require.Contains(t, res.Permissions, "canCreateProject")
	require.Contains(t, res.Permissions, "canEditDates")

	// The base role alone has no cleanup rights.
	res, err = r.ResolveRole(context.Background(), editorID)
	require.NoError(t, err)
	require.NotContains(t, res.Permissions, "canDeleteTasks")
	require.Contains(t, res.Permissions, "canEditDates")
}

func TestResolveRoleVectorCoversChain(t *testing.T) {
	store := NewMemStore()
	_, seniorID := editorFixture(store)
	r := newTestResolver(store, 32)

	res, err := r.ResolveRole(context.Background(), seniorID)
	require.NoError(t, err)

	kinds := map[EntityKind]int{}
	for _, e := range res.Vector.Entries {
		kinds[e.Kind]++
	}
	require.Equal(t, 2, kinds[KindRole])
	require.Equal(t, 2, kinds[KindPermissionGroup])
}

func TestResolveRoleCycleDetected(t *testing.T) {
	store := NewMemStore()
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()
	store.PutRole(Role{ID: a, Name: "a", ParentRoleID: &b, Version: 1})
	store.PutRole(Role{ID: b, Name: "b", ParentRoleID: &c, Version: 1})
	store.PutRole(Role{ID: c, Name: "c", ParentRoleID: &a, Version: 1})

	r := newTestResolver(store, 32)
	_, err := r.ResolveRole(context.Background(), a)

	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
	require.False(t, cerr.DepthExceeded)
	require.Equal(t, a, cerr.RoleID)

	_, err = r.VectorForRole(context.Background(), a)
	require.ErrorAs(t, err, &cerr)
}

func TestResolveRoleDepthGuard(t *testing.T) {
	store := NewMemStore()

	// Straight chain longer than the guard, no cycle.
	ids := make([]primitive.ObjectID, 6)
	for i := range ids {
		ids[i] = primitive.NewObjectID()
	}
	for i := range ids {
		role := Role{ID: ids[i], Name: "r", Version: 1}
		if i+1 < len(ids) {
			role.ParentRoleID = &ids[i+1]
		}
		store.PutRole(role)
	}

	r := newTestResolver(store, 4)
	_, err := r.ResolveRole(context.Background(), ids[0])

	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
	require.True(t, cerr.DepthExceeded)

	// A guard wider than the chain resolves fine.
	r = newTestResolver(store, 32)
	_, err = r.ResolveRole(context.Background(), ids[0])
	require.NoError(t, err)
}

func TestResolveRoleDisabled(t *testing.T) {
	store := NewMemStore()
	editorID, seniorID := editorFixture(store)

	// Disable the parent: the child keeps its own groups only.
	editor, err := store.GetRole(context.Background(), editorID)
	require.NoError(t, err)
	editor.Disabled = true
	editor.Version++
	store.PutRole(*editor)

	r := newTestResolver(store, 32)
	res, err := r.ResolveRole(context.Background(), seniorID)
	require.NoError(t, err)
	require.Contains(t, res.Permissions, "canDeleteTasks")
	require.NotContains(t, res.Permissions, "canEditDates")

	// The disabled ancestor still versions the vector, and both walks must
	// record it identically or the cache write key diverges from the read key.
	require.Contains(t, res.Vector.Entries, VectorEntry{Kind: KindRole, ID: editorID.Hex(), Version: editor.Version})
	vec, err := r.VectorForRole(context.Background(), seniorID)
	require.NoError(t, err)
	require.Equal(t, res.Vector.Hash(), vec.Hash())

	// Disabled root contributes nothing at all, but still versions the vector.
	res, err = r.ResolveRole(context.Background(), editorID)
	require.NoError(t, err)
	require.Empty(t, res.Permissions)
	require.Len(t, res.Vector.Entries, 1)
}

func TestResolveRoleMissingEntityPropagates(t *testing.T) {
	store := NewMemStore()
	ghost := primitive.NewObjectID()
	id := primitive.NewObjectID()
	store.PutRole(Role{ID: id, Name: "broken", PermissionGroupIDs: []primitive.ObjectID{ghost}, Version: 1})

	r := newTestResolver(store, 32)
	_, err := r.ResolveRole(context.Background(), id)
	require.True(t, errors.Is(err, ErrNotFound))
}

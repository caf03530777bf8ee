package authz

import (
	"context"
	"testing"
	"time"

	"go-taskhub/internal/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, store EntityStore) *Engine {
	t.Helper()
	cfg := &config.Config{MaxRoleDepth: 32, DecisionCacheSize: 128}
	e, err := NewEngine(cfg, store, zap.NewNop())
	require.NoError(t, err)
	return e
}

func TestEngineEditorScenario(t *testing.T) {
	store := NewMemStore()
	editorID, seniorID := editorFixture(store)
	ws := primitive.NewObjectID()

	editorUser := putMember(store, ws, editorID)
	seniorUser := putMember(store, ws, seniorID)

	e := newTestEngine(t, store)
	ctx := context.Background()

	require.True(t, e.Can(ctx, seniorUser, ws, "canDeleteTasks"))
	require.True(t, e.Can(ctx, seniorUser, ws, "canEditDates"))
	require.False(t, e.Can(ctx, editorUser, ws, "canDeleteTasks"))
	require.True(t, e.Can(ctx, editorUser, ws, "canEditDates"))
}

func TestEngineCacheCoherenceAfterGroupEdit(t *testing.T) {
	store := NewMemStore()
	editorID, _ := editorFixture(store)
	ws := primitive.NewObjectID()
	userID := putMember(store, ws, editorID)

	e := newTestEngine(t, store)
	ctx := context.Background()

	require.False(t, e.Can(ctx, userID, ws, "canDeleteTasks"))
	// Warm the cache, then verify a hit happens.
	require.True(t, e.Can(ctx, userID, ws, "canEditDates"))
	require.Greater(t, e.CacheStats().Hits, int64(0))

	// Grow the editor's group. Version bump changes the vector hash, so the
	// very next check misses the cache and sees the new permission.
	editor, err := store.GetRole(ctx, editorID)
	require.NoError(t, err)
	group, err := store.GetPermissionGroup(ctx, editor.PermissionGroupIDs[0])
	require.NoError(t, err)
	group.Permissions = append(group.Permissions, "canDeleteTasks")
	group.Version++
	store.PutPermissionGroup(*group)

	require.True(t, e.Can(ctx, userID, ws, "canDeleteTasks"))
}

func TestEngineCachesThroughDisabledAncestor(t *testing.T) {
	store := NewMemStore()
	editorID, seniorID := editorFixture(store)
	ws := primitive.NewObjectID()
	userID := putMember(store, ws, seniorID)

	ctx := context.Background()
	editor, err := store.GetRole(ctx, editorID)
	require.NoError(t, err)
	editor.Disabled = true
	editor.Version++
	store.PutRole(*editor)

	e := newTestEngine(t, store)
	for i := 0; i < 5; i++ {
		require.True(t, e.Can(ctx, userID, ws, "canDeleteTasks"))
		require.False(t, e.Can(ctx, userID, ws, "canEditDates"))
	}
	// One miss to populate, hits from then on.
	stats := e.CacheStats()
	require.Equal(t, int64(1), stats.Misses)
	require.Equal(t, int64(9), stats.Hits)

	// Re-enabling the ancestor changes the hash, so the next check misses
	// and picks up the inherited permissions.
	editor.Disabled = false
	editor.Version++
	store.PutRole(*editor)
	require.True(t, e.Can(ctx, userID, ws, "canEditDates"))
}

func TestEngineCacheCoherenceAfterRevocation(t *testing.T) {
	store := NewMemStore()
	_, seniorID := editorFixture(store)
	ws := primitive.NewObjectID()
	userID := putMember(store, ws, seniorID)

	e := newTestEngine(t, store)
	ctx := context.Background()

	require.True(t, e.Can(ctx, userID, ws, "canDeleteTasks"))

	// Revoke the role; the membership version bump retires the cache entry.
	m, err := store.GetWorkspaceMember(ctx, userID, ws)
	require.NoError(t, err)
	m.Assignments = nil
	m.Version++
	store.PutMember(*m)

	require.False(t, e.Can(ctx, userID, ws, "canDeleteTasks"))
}

func TestEngineAssignmentExpiryBeatsCache(t *testing.T) {
	store := NewMemStore()
	editorID, _ := editorFixture(store)
	ws := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	expiry := time.Now().Add(time.Hour)
	store.PutMember(Member{
		ID:          primitive.NewObjectID(),
		WorkspaceID: ws,
		UserID:      userID,
		Assignments: []RoleAssignment{{RoleID: editorID, ExpiresAt: &expiry}},
		IsActive:    true,
		Version:     1,
	})

	e := newTestEngine(t, store)
	clock := time.Now()
	e.now = func() time.Time { return clock }
	e.aggregator.now = e.now

	ctx := context.Background()
	require.True(t, e.Can(ctx, userID, ws, "canEditDates"))

	// No entity changed, but the assignment lapsed. The cached set's
	// NotAfter forces recomputation; all capabilities drop to false.
	clock = expiry.Add(time.Minute)
	require.False(t, e.Can(ctx, userID, ws, "canEditDates"))
}

func TestEngineHasCapabilityAppliesPolicies(t *testing.T) {
	store := NewMemStore()
	editorID, _ := editorFixture(store)

	deny := Policy{
		ID:       primitive.NewObjectID(),
		Name:     "freeze-deletes",
		Effect:   "deny",
		Resource: "task",
		Action:   "delete",
		Version:  1,
	}
	store.PutPolicy(deny)

	editor, _ := store.GetRole(context.Background(), editorID)
	editor.PolicyIDs = []primitive.ObjectID{deny.ID}
	editor.Version++
	store.PutRole(*editor)

	ws := primitive.NewObjectID()
	userID := putMember(store, ws, editorID)

	e := newTestEngine(t, store)
	ctx := context.Background()

	// Union still grants date edits; the deny only bites its resource/action.
	require.True(t, e.HasCapability(ctx, userID, ws, "canEditDates", CheckInput{Resource: "task", Action: "reschedule"}))
	require.False(t, e.HasCapability(ctx, userID, ws, "canEditDates", CheckInput{Resource: "task", Action: "delete"}))
}

func TestEngineBatchChecks(t *testing.T) {
	store := NewMemStore()
	editorID, _ := editorFixture(store)
	ws := primitive.NewObjectID()
	userID := putMember(store, ws, editorID)

	e := newTestEngine(t, store)
	ctx := context.Background()

	checks := []PermissionCheck{
		{Permission: "canEditDates"},
		{Permission: "canDeleteTasks"},
	}
	require.True(t, e.CanAny(ctx, userID, ws, checks))
	require.False(t, e.CanAll(ctx, userID, ws, checks))
	require.True(t, e.CanAll(ctx, userID, ws, []PermissionCheck{{Permission: "canEditDates"}}))
	require.True(t, e.CanAll(ctx, userID, ws, nil))
	require.False(t, e.CanAny(ctx, userID, ws, nil))
}

func TestEngineFailsClosedOnBrokenReferences(t *testing.T) {
	store := NewMemStore()
	ghostGroup := primitive.NewObjectID()
	roleID := primitive.NewObjectID()
	store.PutRole(Role{ID: roleID, Name: "broken", PermissionGroupIDs: []primitive.ObjectID{ghostGroup}, Version: 1})

	ws := primitive.NewObjectID()
	userID := putMember(store, ws, roleID)

	e := newTestEngine(t, store)
	ctx := context.Background()

	require.False(t, e.Can(ctx, userID, ws, "canEditDates"))
	require.False(t, e.HasCapability(ctx, userID, ws, "canEditDates", CheckInput{Resource: "task", Action: "update"}))
	_, err := e.CurrentVersionVector(ctx, userID, ws)
	require.Error(t, err)
}

func TestEngineCurrentVersionVector(t *testing.T) {
	store := NewMemStore()
	editorID, _ := editorFixture(store)
	ws := primitive.NewObjectID()
	userID := putMember(store, ws, editorID)

	e := newTestEngine(t, store)
	ctx := context.Background()

	before, err := e.CurrentVersionVector(ctx, userID, ws)
	require.NoError(t, err)

	editor, _ := store.GetRole(ctx, editorID)
	editor.Version++
	store.PutRole(*editor)

	after, err := e.CurrentVersionVector(ctx, userID, ws)
	require.NoError(t, err)
	require.NotEqual(t, before.Hash(), after.Hash())
}

package authz

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stretchr/testify/require"
)

func TestDecisionCacheKeyedByVectorHash(t *testing.T) {
	c, err := NewDecisionCache(8)
	require.NoError(t, err)

	userID := primitive.NewObjectID()
	ws := primitive.NewObjectID()
	set := &GrantSet{Permissions: map[string]struct{}{"canEditDates": {}}}

	c.Put(userID, ws, "hash-a", set)

	got, ok := c.Get(userID, ws, "hash-a")
	require.True(t, ok)
	require.Same(t, set, got)

	// Different hash, different user and different workspace all miss.
	_, ok = c.Get(userID, ws, "hash-b")
	require.False(t, ok)
	_, ok = c.Get(primitive.NewObjectID(), ws, "hash-a")
	require.False(t, ok)
	_, ok = c.Get(userID, primitive.NewObjectID(), "hash-a")
	require.False(t, ok)

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(3), stats.Misses)
	require.Equal(t, 1, stats.Size)
}

func TestDecisionCacheBounded(t *testing.T) {
	c, err := NewDecisionCache(2)
	require.NoError(t, err)

	ws := primitive.NewObjectID()
	first := primitive.NewObjectID()
	c.Put(first, ws, "h", &GrantSet{})
	c.Put(primitive.NewObjectID(), ws, "h", &GrantSet{})
	c.Put(primitive.NewObjectID(), ws, "h", &GrantSet{})

	require.Equal(t, 2, c.Stats().Size)
	_, ok := c.Get(first, ws, "h")
	require.False(t, ok)
}

func TestVersionVectorHash(t *testing.T) {
	a := primitive.NewObjectID().Hex()
	b := primitive.NewObjectID().Hex()

	var v1, v2 VersionVector
	v1.Add(KindRole, a, 1)
	v1.Add(KindPermissionGroup, b, 3)
	v2.Add(KindPermissionGroup, b, 3)
	v2.Add(KindRole, a, 1)

	// Discovery order must not matter.
	require.Equal(t, v1.Hash(), v2.Hash())

	// Any version change must.
	var v3 VersionVector
	v3.Add(KindRole, a, 2)
	v3.Add(KindPermissionGroup, b, 3)
	require.NotEqual(t, v1.Hash(), v3.Hash())

	// Duplicate adds collapse.
	v1.Add(KindRole, a, 99)
	require.Len(t, v1.Entries, 2)
}

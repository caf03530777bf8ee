package versionfeed

import (
	"context"
	"testing"
	"time"

	"go-taskhub/internal/config"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/stretchr/testify/require"
)

func TestHubWorkspaceFiltering(t *testing.T) {
	hub := NewHub()

	wsA, cancelA := hub.Subscribe("ws-a")
	defer cancelA()
	all, cancelAll := hub.Subscribe("")
	defer cancelAll()

	hub.Broadcast(Event{WorkspaceID: "ws-a", Kind: "role", EntityID: "r1", Version: 2})
	hub.Broadcast(Event{WorkspaceID: "ws-b", Kind: "role", EntityID: "r2", Version: 1})
	// Global entity reaches everyone.
	hub.Broadcast(Event{WorkspaceID: "", Kind: "permission_group", EntityID: "g1", Version: 5})

	ev := <-wsA
	require.Equal(t, "r1", ev.EntityID)
	ev = <-wsA
	require.Equal(t, "g1", ev.EntityID)
	select {
	case ev = <-wsA:
		t.Fatalf("unexpected event for ws-a: %+v", ev)
	default:
	}

	require.Equal(t, "r1", (<-all).EntityID)
	require.Equal(t, "r2", (<-all).EntityID)
	require.Equal(t, "g1", (<-all).EntityID)
}

func TestHubCancelledSubscriptionDropped(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("")
	cancel()

	hub.Broadcast(Event{Kind: "role", EntityID: "r1", Version: 1})
	select {
	case _, ok := <-ch:
		require.False(t, ok)
	default:
	}
}

func TestFeedLocalOnly(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	hub := NewHub()

	feed, err := NewFeed(lc, &config.Config{}, hub, zap.NewNop())
	require.NoError(t, err)

	ch, cancel := hub.Subscribe("")
	defer cancel()

	feed.VersionBumped(context.Background(), Event{Kind: "policy", EntityID: "p1", Version: 3})
	require.Equal(t, "p1", (<-ch).EntityID)
}

func TestFeedBridgesInstancesOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{RedisAddr: mr.Addr()}

	lc1 := fxtest.NewLifecycle(t)
	hub1 := NewHub()
	feed1, err := NewFeed(lc1, cfg, hub1, zap.NewNop())
	require.NoError(t, err)

	lc2 := fxtest.NewLifecycle(t)
	hub2 := NewHub()
	_, err = NewFeed(lc2, cfg, hub2, zap.NewNop())
	require.NoError(t, err)

	lc1.RequireStart()
	defer lc1.RequireStop()
	lc2.RequireStart()
	defer lc2.RequireStop()

	local1, cancel1 := hub1.Subscribe("")
	defer cancel1()
	remote2, cancel2 := hub2.Subscribe("")
	defer cancel2()

	// Subscription setup over pub/sub is asynchronous.
	time.Sleep(100 * time.Millisecond)

	feed1.VersionBumped(context.Background(), Event{WorkspaceID: "ws-a", Kind: "role", EntityID: "r1", Version: 7})

	ev := <-local1
	require.Equal(t, "r1", ev.EntityID)

	select {
	case ev = <-remote2:
		require.Equal(t, "r1", ev.EntityID)
		require.Equal(t, int64(7), ev.Version)
	case <-time.After(2 * time.Second):
		t.Fatal("remote instance never received the bump")
	}

	// The publisher must not receive its own echo a second time.
	select {
	case ev = <-local1:
		t.Fatalf("duplicate local delivery: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

package cache_test

import (
	"context"
	"testing"

	"pos_tables_backend/internal/cache"
	"pos_tables_backend/internal/models"

	"github.com/stretchr/testify/require"
)

func TestSessionCache_PutGetReplacesWholeValue(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	c := cache.NewSessionCache(store, "sess:1")

	require.NoError(t, c.Put(ctx, cache.ScopeRoomCounts, "Main", models.RoomCounts{"R1": 3, "R2": 4}))
	require.NoError(t, c.Put(ctx, cache.ScopeRoomCounts, "Main", models.RoomCounts{"R1": 5}))

	var counts models.RoomCounts
	require.True(t, c.Get(ctx, cache.ScopeRoomCounts, "Main", &counts))
	require.Equal(t, models.RoomCounts{"R1": 5}, counts)
}

func TestSessionCache_KeysAreScopedAndNamespaced(t *testing.T) {
	c := cache.NewSessionCache(cache.NewMemoryStore(), "sess:abc")
	require.Equal(t, "sess:abc:ury_rooms_Main", c.Key(cache.ScopeRooms, "Main"))
	require.Equal(t, "sess:abc:ury_room_counts_Main", c.Key(cache.ScopeRoomCounts, "Main"))
	require.Equal(t, "sess:abc:ury_tables_R1", c.Key(cache.ScopeTables, "R1"))
}

func TestSessionCache_CorruptEntryIsMissAndDropped(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	c := cache.NewSessionCache(store, "sess:1")

	key := c.Key(cache.ScopeRooms, "Main")
	require.NoError(t, store.Set(ctx, key, "{not json"))

	var rooms []models.Room
	require.False(t, c.Get(ctx, cache.ScopeRooms, "Main", &rooms))

	_, err := store.Get(ctx, key)
	require.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestSessionCache_InvalidateAndReset(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	c := cache.NewSessionCache(store, "sess:1")
	other := cache.NewSessionCache(store, "sess:2")

	require.NoError(t, c.Put(ctx, cache.ScopeTables, "R1", []models.Table{{Name: "T1"}}))
	require.NoError(t, c.Put(ctx, cache.ScopeRooms, "Main", []models.Room{{Name: "R1", Branch: "Main"}}))
	require.NoError(t, other.Put(ctx, cache.ScopeRooms, "Main", []models.Room{{Name: "R9", Branch: "Main"}}))

	require.NoError(t, c.Invalidate(ctx, cache.ScopeTables, "R1"))
	var tables []models.Table
	require.False(t, c.Get(ctx, cache.ScopeTables, "R1", &tables))

	require.NoError(t, c.Reset(ctx))
	var rooms []models.Room
	require.False(t, c.Get(ctx, cache.ScopeRooms, "Main", &rooms))
	require.True(t, other.Get(ctx, cache.ScopeRooms, "Main", &rooms))
	require.Equal(t, "R9", rooms[0].Name)
	require.Equal(t, 1, store.Len())
}

package liveclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCache_TrackAndSnapshot(t *testing.T) {
	cache := NewPostCache(nil)

	cache.Track(7)
	cache.Track(7)
	cache.Track(3)
	assert.Equal(t, []uint{3, 7}, cache.TrackedPosts())

	reactions, ok := cache.Reactions(7)
	assert.True(t, ok)
	assert.Empty(t, reactions)

	_, ok = cache.Reactions(99)
	assert.False(t, ok, "untracked post is not present")

	snapshot := []ReactionSnapshot{
		{UserID: 1, Type: "like", CreatedAt: time.Now()},
		{UserID: 2, Type: "love", CreatedAt: time.Now()},
	}
	cache.ApplySnapshot(7, snapshot)

	got, ok := cache.Reactions(7)
	require.True(t, ok)
	assert.Len(t, got, 2)

	cache.Untrack(7)
	_, ok = cache.Reactions(7)
	assert.False(t, ok)
}

func TestPostCache_SnapshotReplacesWholesale(t *testing.T) {
	cache := NewPostCache(nil)

	cache.ApplySnapshot(1, []ReactionSnapshot{
		{UserID: 1, Type: "like"},
		{UserID: 2, Type: "wow"},
	})
	cache.ApplySnapshot(1, []ReactionSnapshot{
		{UserID: 2, Type: "wow"},
	})

	got, ok := cache.Reactions(1)
	require.True(t, ok)
	require.Len(t, got, 1, "the push is the full state, not a delta")
	assert.EqualValues(t, 2, got[0].UserID)

	// Applying the identical snapshot again changes nothing.
	cache.ApplySnapshot(1, []ReactionSnapshot{{UserID: 2, Type: "wow"}})
	again, _ := cache.Reactions(1)
	assert.Equal(t, got, again)
}

func TestPostCache_CopiesInAndOut(t *testing.T) {
	cache := NewPostCache(nil)

	input := []ReactionSnapshot{{UserID: 1, Type: "like"}}
	cache.ApplySnapshot(5, input)
	input[0].Type = "angry"

	got, _ := cache.Reactions(5)
	require.Len(t, got, 1)
	assert.Equal(t, "like", got[0].Type, "mutating the caller's slice must not reach the cache")

	got[0].Type = "sad"
	fresh, _ := cache.Reactions(5)
	assert.Equal(t, "like", fresh[0].Type, "mutating a returned slice must not reach the cache")
}

func TestPostCache_Counts(t *testing.T) {
	cache := NewPostCache(nil)

	cache.ApplySnapshot(4, []ReactionSnapshot{
		{UserID: 1, Type: "like"},
		{UserID: 2, Type: "like"},
		{UserID: 3, Type: "love"},
	})

	counts := cache.Counts(4)
	assert.Equal(t, map[string]int{"like": 2, "love": 1}, counts)
	assert.Empty(t, cache.Counts(99))
}

package liveclient

import (
	"context"
	"sort"
	"sync"
)

// PostCache holds the client's view of reaction state per post. Every
// server push carries the complete reaction list for its post, so applying
// a snapshot is a wholesale replacement: applying the same snapshot twice
// leaves the cache unchanged, and an older duplicate delivered late is
// simply overwritten by the next push.
type PostCache struct {
	mu     sync.RWMutex
	posts  map[uint][]ReactionSnapshot
	client *Client
}

// NewPostCache creates an empty cache backed by the given client for
// refetches.
func NewPostCache(client *Client) *PostCache {
	return &PostCache{
		posts:  make(map[uint][]ReactionSnapshot),
		client: client,
	}
}

// Track registers interest in a post so RefetchAll and the poll fallback
// keep it fresh. Tracking an already tracked post is a no-op.
func (pc *PostCache) Track(postID uint) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if _, ok := pc.posts[postID]; !ok {
		pc.posts[postID] = nil
	}
}

// Untrack drops a post from the cache.
func (pc *PostCache) Untrack(postID uint) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	delete(pc.posts, postID)
}

// ApplySnapshot replaces the cached reaction state for a post with the
// pushed full state. Posts not previously tracked become tracked.
func (pc *PostCache) ApplySnapshot(postID uint, reactions []ReactionSnapshot) {
	copied := make([]ReactionSnapshot, len(reactions))
	copy(copied, reactions)

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.posts[postID] = copied
}

// Reactions returns a copy of the cached reaction list for a post and
// whether the post is tracked.
func (pc *PostCache) Reactions(postID uint) ([]ReactionSnapshot, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	cached, ok := pc.posts[postID]
	if !ok {
		return nil, false
	}
	out := make([]ReactionSnapshot, len(cached))
	copy(out, cached)
	return out, true
}

// Counts returns the per-type reaction tally for a post.
func (pc *PostCache) Counts(postID uint) map[string]int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	counts := make(map[string]int)
	for _, r := range pc.posts[postID] {
		counts[r.Type]++
	}
	return counts
}

// TrackedPosts returns the IDs of all tracked posts in ascending order.
func (pc *PostCache) TrackedPosts() []uint {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	ids := make([]uint, 0, len(pc.posts))
	for id := range pc.posts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Refetch pulls the authoritative reaction list for one post over REST and
// applies it. Used to self-heal after missed pushes.
func (pc *PostCache) Refetch(ctx context.Context, postID uint) error {
	reactions, err := pc.client.fetchReactions(ctx, postID)
	if err != nil {
		return err
	}
	pc.ApplySnapshot(postID, reactions)
	return nil
}

// RefetchAll refreshes every tracked post. Failures are logged and skipped;
// a post that cannot be refreshed keeps its last known state until the next
// attempt.
func (pc *PostCache) RefetchAll(ctx context.Context) {
	for _, postID := range pc.TrackedPosts() {
		if ctx.Err() != nil {
			return
		}
		if err := pc.Refetch(ctx, postID); err != nil {
			pc.client.logger.Warn("refetch failed", "post_id", postID, "error", err)
		}
	}
}

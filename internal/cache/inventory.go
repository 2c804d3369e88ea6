package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%d"
	PostKeyPrefix    = "post:%d"
	PresetsKey       = "presets:active"
	HomeStatsKey     = "home:stats"
	ExploreKeyPrefix = "explore:page:%d"
)

const (
	UserTTL    = 5 * time.Minute
	PostTTL    = 30 * time.Minute
	PresetsTTL = 10 * time.Minute
	ListTTL    = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func ExploreKey(page int) string {
	return fmt.Sprintf(ExploreKeyPrefix, page)
}

// Invalidate drops keys; a missing client is a no-op.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidatePresets(ctx context.Context) {
	Invalidate(ctx, PresetsKey)
}

// InvalidateFeeds drops the home stats and the first explore pages, which are the only
// list views cached.
func InvalidateFeeds(ctx context.Context) {
	keys := []string{HomeStatsKey}
	for page := 1; page <= 3; page++ {
		keys = append(keys, ExploreKey(page))
	}
	Invalidate(ctx, keys...)
}

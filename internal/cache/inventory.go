package cache

import (
	"context"
	"fmt"
	"time"
)

// Only user profiles are cached. Post views carry a live vote count and
// must always reflect the votes table at the moment of the read, so they
// are never cached.
const (
	UserKeyPrefix = "user:%d"

	UserTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

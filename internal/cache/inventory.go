package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix  = "user:%d"
	TokenKeyPrefix = "token:%s"
)

const (
	UserTTL = 5 * time.Minute
	// TokenTTL is short so revocations by other processes converge quickly.
	TokenTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// TokenKey keys a cached access token by its SHA-256 hash, never the plaintext.
func TokenKey(tokenHash string) string {
	return fmt.Sprintf(TokenKeyPrefix, tokenHash)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateToken(ctx context.Context, tokenHash string) {
	Invalidate(ctx, TokenKey(tokenHash))
}

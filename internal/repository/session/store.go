package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrStoreUnavailable = errors.New("session store unavailable")
)

const (
	UserTokenPrefix = "login:user:token"
	UserTokenTTL    = 30 * time.Minute
)

// Store 每个账号只保留一个有效 access token，新登录覆盖旧的
type Store interface {
	Save(ctx context.Context, userID uint64, token string) error
	Get(ctx context.Context, userID uint64) (string, error)
	Extend(ctx context.Context, userID uint64) error
	Delete(ctx context.Context, userID uint64) error
}

func tokenKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, userID)
}

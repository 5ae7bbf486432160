package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
	"Community_Portal/internal/repository/database"
	"Community_Portal/internal/repository/session"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const ContextUserKey = "current_user"

type Authenticator struct {
	tokens   *pkg.TokenIssuer
	sessions session.Store
	users    *database.UserRepository
	log      *slog.Logger
}

func NewAuthenticator(tokens *pkg.TokenIssuer, sessions session.Store, db *gorm.DB, log *slog.Logger) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		sessions: sessions,
		users:    &database.UserRepository{DB: db},
		log:      log,
	}
}

// AuthMiddleware 校验 bearer token 并把当前账号放进上下文。
// 每次请求都重新读库，审批/删除立即生效。
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		claims, err := a.tokens.ParseAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			return
		}

		ctx := c.Request.Context()
		// 校验是否是当前有效的 token
		stored, err := a.sessions.Get(ctx, claims.UserID)
		if err != nil && !errors.Is(err, session.ErrTokenNotFound) {
			a.log.ErrorContext(ctx, "session lookup failed", "user_id", claims.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "internal server error"})
			return
		}
		if err != nil || stored != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "session expired or account logged in elsewhere"})
			return
		}

		user, err := a.users.FindByID(ctx, claims.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = a.sessions.Delete(ctx, claims.UserID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "account no longer exists"})
			return
		}
		if err != nil {
			a.log.ErrorContext(ctx, "load account failed", "user_id", claims.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "internal server error"})
			return
		}

		// 校验通过后更新过期时间
		if err := a.sessions.Extend(ctx, claims.UserID); err != nil {
			a.log.WarnContext(ctx, "extend session failed", "user_id", claims.UserID, "error", err)
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok && u != nil
}

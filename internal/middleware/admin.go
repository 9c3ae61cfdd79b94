package middleware

import (
	"context"

	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserLookup 按ID查询用户
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// AdminMiddleware 确保只有管理员可以访问某些路由；角色以数据库为准，令牌中的角色可能已过期
func AdminMiddleware(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			util.Logger.Warn("用户ID不存在")
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
			c.Abort()
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), principal.UserID)
		if err != nil || user.Role != model.RoleAdmin {
			util.Logger.Warn("非管理员访问",
				zap.Int64("user_id", principal.UserID),
				zap.Error(err))
			errors.HandleError(c, errors.New(errors.ErrForbidden, "需要管理员权限"))
			c.Abort()
			return
		}

		principal.Role = user.Role
		SetPrincipal(c, principal)
		c.Next()
	}
}

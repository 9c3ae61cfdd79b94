package middleware

import (
	"context"
	"strings"
	"time"

	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	principalKey   = "principal"
	requestTimeout = 10 * time.Second
)

// AuthMiddleware 校验 Bearer 令牌并把调用者身份放入上下文
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		util.Logger.Debug("进入认证中间件",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "无效的认证格式"))
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(jwtSecret, parts[1])
		if err != nil {
			errors.HandleError(c, errors.Wrap(errors.ErrInvalidToken, "无效或过期的令牌", err))
			c.Abort()
			return
		}

		SetPrincipal(c, model.Principal{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// SetPrincipal 写入当前调用者
func SetPrincipal(c *gin.Context, p model.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom 读取认证中间件写入的调用者
func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

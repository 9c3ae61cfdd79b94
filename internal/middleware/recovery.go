package middleware

import (
	"fmt"
	"runtime/debug"

	"donation-backend/internal/errors"
	"donation-backend/internal/metrics"
	"donation-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware 把处理器中的 panic 转成 500，按路由计数并带上请求ID和调用者记录堆栈
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.HandlerPanics.WithLabelValues(route).Inc()

			fields := []zap.Field{
				zap.String("request_id", c.GetString("request_id")),
				zap.String("method", c.Request.Method),
				zap.String("route", route),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			}
			if p, ok := PrincipalFrom(c); ok {
				fields = append(fields, zap.Int64("user_id", p.UserID))
			}
			util.Logger.Error("请求处理发生panic", fields...)

			errors.HandleError(c, errors.Wrap(errors.ErrInternal, "系统内部错误", fmt.Errorf("panic: %v", r)))
			c.Abort()
		}()
		c.Next()
	}
}

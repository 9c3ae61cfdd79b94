package middleware

import (
	stderrors "errors"
	"strconv"
	"sync"

	"donation-backend/internal/errors"
	"donation-backend/internal/metrics"
	"donation-backend/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorMonitor struct {
	errorCounts map[errors.ErrorCode]int
	pathCounts  map[string]int
	total       int
	mu          sync.RWMutex
}

func NewErrorMonitor() *ErrorMonitor {
	return &ErrorMonitor{
		errorCounts: make(map[errors.ErrorCode]int),
		pathCounts:  make(map[string]int),
	}
}

func (m *ErrorMonitor) RecordError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.errorCounts[errors.CodeOf(err)]++
	m.pathCounts[path]++
}

// Stats 返回错误统计快照
func (m *ErrorMonitor) Stats() model.SystemStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := model.SystemStats{
		TotalErrors:  m.total,
		ErrorsByCode: make(map[int]int, len(m.errorCounts)),
		ErrorsByPath: make(map[string]int, len(m.pathCounts)),
	}
	for code, count := range m.errorCounts {
		stats.ErrorsByCode[int(code)] = count
	}
	for path, count := range m.pathCounts {
		stats.ErrorsByPath[path] = count
	}
	return stats
}

func ErrorMonitorMiddleware(monitor *ErrorMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		metrics.HTTPErrors.WithLabelValues(strconv.Itoa(c.Writer.Status())).Inc()
		for _, e := range c.Errors {
			monitor.RecordError(c.FullPath(), e.Err)
			// 记录错误日志
			var appErr *errors.AppError
			if stderrors.As(e.Err, &appErr) {
				zap.L().Error("请求处理错误",
					zap.Int("error_code", int(appErr.Code)),
					zap.String("error_message", appErr.Message),
					zap.NamedError("cause", appErr.Err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method))
			}
		}
	}
}

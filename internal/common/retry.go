package common

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// IsTemporary 判断是否为临时性错误
func IsTemporary(err error) bool {
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}
	return false
}

// IsRetryable 判断是否可重试
func IsRetryable(err error) bool {
	return IsTemporary(err) || errors.Is(err, sql.ErrConnDone)
}

// WithRetry 按线性退避重试 operation，只用于启动阶段的基础设施探测
func WithRetry(ctx context.Context, operation func(context.Context) error, maxRetries int, backoff time.Duration, retryable func(error) bool) error {
	if retryable == nil {
		retryable = IsRetryable
	}
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = operation(ctx); err == nil {
			return nil
		}
		if !retryable(err) || i == maxRetries-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(i+1)):
		}
	}
	return err
}

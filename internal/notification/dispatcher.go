package notification

import (
	"context"
	"fmt"
	"time"

	"donation-backend/internal/metrics"
	"donation-backend/internal/util"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const defaultTaskTimeout = 30 * time.Second

// Dispatcher 在有界协程池中执行提交后的异步任务
type Dispatcher struct {
	pool        *ants.Pool
	sender      Sender
	taskTimeout time.Duration
}

func NewDispatcher(sender Sender, workers int) (*Dispatcher, error) {
	// 非阻塞：池满时直接拒绝，由定时任务补发
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("创建通知协程池失败: %w", err)
	}
	return &Dispatcher{pool: pool, sender: sender, taskTimeout: defaultTaskTimeout}, nil
}

// Submit 提交一个后台任务，返回是否被接受；任务拿到独立于请求的 context
func (d *Dispatcher) Submit(name string, task func(ctx context.Context)) bool {
	err := d.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.taskTimeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				util.Logger.Error("后台任务崩溃", zap.String("task", name), zap.Any("panic", r))
			}
		}()
		task(ctx)
	})
	if err != nil {
		util.Logger.Error("提交后台任务失败", zap.String("task", name), zap.Error(err))
		return false
	}
	return true
}

// Send 同步发送并记录指标，错误只返回给调用方不会重试
func (d *Dispatcher) Send(ctx context.Context, n Notification) (Result, error) {
	res, err := d.sender.Send(ctx, n)
	if err != nil || !res.Success {
		metrics.Notifications.WithLabelValues(string(n.Channel), "failed").Inc()
		if err == nil {
			util.Logger.Warn("通知未送达",
				zap.String("channel", string(n.Channel)),
				zap.String("to", n.Recipient))
			return res, fmt.Errorf("通知未送达")
		}
		util.Logger.Error("发送通知失败",
			zap.String("channel", string(n.Channel)),
			zap.String("to", n.Recipient),
			zap.Error(err))
		return res, err
	}
	metrics.Notifications.WithLabelValues(string(n.Channel), "success").Inc()
	return res, nil
}

// Close 等待运行中的任务结束后释放协程池
func (d *Dispatcher) Close(timeout time.Duration) error {
	return d.pool.ReleaseTimeout(timeout)
}

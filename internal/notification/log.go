package notification

import (
	"context"

	"donation-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogSender 未配置 SMTP 时使用，只写日志；没有真正送达，结果总是 Success=false
type LogSender struct{}

func (LogSender) Send(ctx context.Context, n Notification) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	id := uuid.NewString()
	util.Logger.Info("通知已记录",
		zap.String("channel", string(n.Channel)),
		zap.String("to", n.Recipient),
		zap.String("subject", n.Subject),
		zap.String("template", n.Template),
		zap.String("message_id", id))
	return Result{Success: false, ProviderMessageID: id}, nil
}

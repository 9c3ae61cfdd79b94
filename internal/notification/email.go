package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"donation-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// EmailConfig SMTP 连接参数
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Domain   string
}

type EmailSender struct {
	cfg    EmailConfig
	dialer *mail.Dialer
}

func NewEmailSender(cfg EmailConfig) *EmailSender {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = 20 * time.Second
	d.SSL = cfg.Port == 465
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	if cfg.Domain == "" {
		cfg.Domain = "localhost"
	}
	return &EmailSender{cfg: cfg, dialer: d}
}

func (s *EmailSender) Send(ctx context.Context, n Notification) (Result, error) {
	if n.Recipient == "" {
		return Result{}, fmt.Errorf("收件人为空")
	}
	body, err := Render(n.Template, n.Data)
	if err != nil {
		return Result{}, err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.cfg.Domain)
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.Username)
	m.SetHeader("To", n.Recipient)
	m.SetHeader("Subject", n.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/html", body)

	util.Logger.Info("开始发送邮件",
		zap.String("to", n.Recipient),
		zap.String("subject", n.Subject))

	// gomail 不接受 context，只能在发送前检查是否已取消
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return Result{}, fmt.Errorf("发送邮件失败: %w", err)
	}

	util.Logger.Info("邮件发送成功", zap.String("to", n.Recipient), zap.String("message_id", messageID))
	return Result{Success: true, ProviderMessageID: messageID}, nil
}

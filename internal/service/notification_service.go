package service

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/config"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/bulk"
)

// NotificationService 通知服务接口
// 实现批量处理器的 Notifier 协作方契约
type NotificationService interface {
	bulk.Notifier
}

// smtpNotificationService 基于 SMTP 的通知服务实现
// 未启用 SMTP 时降级为仅记录日志,方便开发环境联调
type smtpNotificationService struct {
	cfg    config.SMTPConfig
	logger *logrus.Logger
}

// NewNotificationService 创建通知服务
func NewNotificationService(cfg config.SMTPConfig, logger *logrus.Logger) NotificationService {
	return &smtpNotificationService{cfg: cfg, logger: logger}
}

// Send 向单个收件人发送通知
// 发送是即发即弃语义,单个收件人的失败由调用方累积上报,
// 不影响其他收件人
func (s *smtpNotificationService) Send(ctx context.Context, recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.cfg.Enabled {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"recipient": recipient,
				"subject":   subject,
			}).Info("SMTP disabled, notification logged only")
		}
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.cfg.From, recipient, subject, body))

	if err := smtp.SendMail(addr, nil, s.cfg.From, []string{recipient}, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	if s.logger != nil {
		s.logger.WithField("recipient", recipient).Debug("Notification sent")
	}
	return nil
}

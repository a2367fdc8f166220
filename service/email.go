package service

import (
	"fmt"
	"time"

	"budgetbuddy/config"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendDenialAlert 发送授权拒绝告警邮件
// 当有身份验证通过但被白名单或 PIN 拒绝的登录尝试时，通知所有者
func (s *EmailService) SendDenialAlert(deniedEmail, reason string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 EMAIL_ENABLED=true")
	}
	if s.cfg.AlertTo == "" {
		return fmt.Errorf("未配置告警收件人")
	}

	subject := "【Budget Buddy】登录被拒绝告警"
	body := s.generateDenialAlertBody(deniedEmail, reason, time.Now())

	return s.sendEmail(s.cfg.AlertTo, subject, body)
}

// generateDenialAlertBody 生成告警邮件内容
func (s *EmailService) generateDenialAlertBody(deniedEmail, reason string, at time.Time) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #dc2626, #b91c1c); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .detail { background: #fef2f2; border-left: 4px solid #dc2626; padding: 15px; margin: 20px 0; border-radius: 4px; }
        .detail p { margin: 0 0 8px; color: #7f1d1d; font-size: 14px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>⚠️ 登录被拒绝</h1>
        </div>
        <div class="content">
            <p>检测到一次被拒绝的登录尝试：</p>
            <div class="detail">
                <p>账号邮箱：<strong>%s</strong></p>
                <p>拒绝原因：<strong>%s</strong></p>
                <p>时间：<strong>%s</strong></p>
            </div>
            <p>如果这不是您本人的操作，请检查账号安全设置。</p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
            <p>© Budget Buddy - 您的个人消费记账助手</p>
        </div>
    </div>
</body>
</html>
`, deniedEmail, reason, at.Format("2006-01-02 15:04:05"))
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}

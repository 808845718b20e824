package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"arcanum/pkg/config"
	"arcanum/pkg/logger"
)

// IMailService sends transactional subscription mails. Sends are
// best-effort and asynchronous: a mail failure never fails the request
// that triggered it.
type IMailService interface {
	SendCancellationMail(to string, immediate bool, accessUntil time.Time)
	SendRetentionMail(to string, action string)
}

type smtpMailService struct {
	cfg     config.SMTPConfig
	htmlTpl *template.Template
	textTpl *template.Template
	logger  *logger.Logger
}

func NewSMTPMailService(cfg config.SMTPConfig, log *logger.Logger) IMailService {
	return &smtpMailService{
		cfg:     cfg,
		htmlTpl: template.Must(template.New("html").Parse(baseHTMLTemplate)),
		textTpl: template.Must(template.New("text").Parse(plainTextTemplate)),
		logger:  log,
	}
}

// nopMailService is used when SMTP is not configured (local dev, tests).
type nopMailService struct{}

func NewNopMailService() IMailService { return nopMailService{} }

func (nopMailService) SendCancellationMail(string, bool, time.Time) {}
func (nopMailService) SendRetentionMail(string, string)            {}

type emailData struct {
	Title   string
	Intro   string
	AppName string
	Year    int
}

func (s *smtpMailService) SendCancellationMail(to string, immediate bool, accessUntil time.Time) {
	subject := "Your subscription has been canceled"
	intro := "Your subscription has been canceled and your account has returned to the free tier. Your readings remain available."
	if !immediate {
		subject = "Your subscription will end soon"
		intro = fmt.Sprintf(
			"Your subscription is set to cancel at the end of the current billing period. You keep full access until %s.",
			accessUntil.Format("January 2, 2006"))
	}
	s.sendAsync(to, subject, intro)
}

func (s *smtpMailService) SendRetentionMail(to string, action string) {
	var subject, intro string
	switch action {
	case RetentionActionPause:
		subject = "Your subscription is paused"
		intro = "Your subscription is paused for 30 days. You will not be billed while paused, and billing resumes automatically afterward."
	case RetentionActionDiscount:
		subject = "Your discount has been applied"
		intro = "Thanks for staying. A 50% discount has been applied to your next three billing cycles."
	case RetentionActionDowngrade:
		subject = "Your plan has been changed"
		intro = "Your subscription has been moved to a lower plan, effective immediately."
	default:
		subject = "Thanks for your feedback"
		intro = "We have received your feedback and will use it to improve the product."
	}
	s.sendAsync(to, subject, intro)
}

func (s *smtpMailService) sendAsync(to, subject, intro string) {
	if s.cfg.Host == "" {
		return
	}
	go func() {
		if err := s.send(to, subject, intro); err != nil {
			s.logger.Warnw("mail send failed", "to", to, "subject", subject, "error", err)
		}
	}()
}

func (s *smtpMailService) send(to, subject, intro string) error {
	data := emailData{
		Title:   subject,
		Intro:   intro,
		AppName: s.cfg.FromName,
		Year:    time.Now().Year(),
	}

	var hb, tb bytes.Buffer
	if err := s.htmlTpl.Execute(&hb, data); err != nil {
		return err
	}
	if err := s.textTpl.Execute(&tb, data); err != nil {
		return err
	}

	fromHeader := fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	boundary := fmt.Sprintf("mixed_%d", time.Now().UnixNano())

	var msg bytes.Buffer
	write := func(format string, a ...any) { _, _ = msg.WriteString(fmt.Sprintf(format, a...)) }

	write("From: %s\r\n", fromHeader)
	write("To: %s\r\n", to)
	write("Subject: %s\r\n", subject)
	write("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	write("\r\n")

	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 7bit\r\n\r\n")
	write("%s\r\n\r\n", tb.String())

	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 7bit\r\n\r\n")
	write("%s\r\n\r\n", hb.String())

	write("--%s--\r\n", boundary)

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Quit()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err = c.StartTLS(nil); err != nil {
			return err
		}
	}
	if ok, _ := c.Extension("AUTH"); ok {
		if err = c.Auth(auth); err != nil {
			return err
		}
	}
	if err = c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err = c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg.Bytes()); err != nil {
		return err
	}
	return w.Close()
}

const baseHTMLTemplate = `<!doctype html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; padding: 0; background: #170d26; color: #ffffff;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; }
    .wrapper { width: 100%; padding: 40px 16px; box-sizing: border-box; }
    .container { width: 100%; max-width: 600px; margin: 0 auto; background: #241338;
      border-radius: 16px; overflow: hidden; }
    .header { padding: 32px 32px 24px; border-bottom: 1px solid rgba(196, 167, 231, 0.15); }
    .brand { font-weight: 700; letter-spacing: 2px; font-size: 22px; color: #c4a7e7;
      text-transform: uppercase; }
    .hero { padding: 40px 32px; }
    h1 { margin: 0 0 16px; font-size: 26px; font-weight: 700; color: #f5edff; line-height: 1.3; }
    p { margin: 0 0 20px; line-height: 1.7; color: #d8c9ef; font-size: 16px; }
    .footer { padding: 24px 32px; color: #8a74a8; font-size: 13px; text-align: center;
      border-top: 1px solid rgba(196, 167, 231, 0.15); }
  </style>
</head>
<body>
  <div class="wrapper">
    <div class="container">
      <div class="header"><div class="brand">{{.AppName}}</div></div>
      <div class="hero">
        <h1>{{.Title}}</h1>
        <p>{{.Intro}}</p>
      </div>
      <div class="footer">© {{.Year}} {{.AppName}}. All rights reserved.</div>
    </div>
  </div>
</body>
</html>`

const plainTextTemplate = `{{.Title}}

{{.Intro}}

— {{.AppName}} (c) {{.Year}}
`

package utils

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/config"
)

const (
	smtpDialTimeout     = 5 * time.Second
	smtpSessionDeadline = 15 * time.Second
)

// SendMail delivers a plain-text notification to the site owner. replyTo,
// when non-empty, lets the owner answer the visitor directly. Delivery is
// best-effort; callers run it off the request path.
func SendMail(to, replyTo, subject, body string) error {
	cfg := config.Get()
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		return fmt.Errorf("smtp not configured")
	}

	fromName := cfg.SMTPFromName
	if fromName == "" {
		fromName = cfg.SiteTitle
	}
	msg := buildMessage(mail.Address{Name: fromName, Address: cfg.SMTPFrom}, to, replyTo, subject, body)
	addr := net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort))

	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}

	if cfg.SMTPTLS {
		return sendWithStartTLS(addr, cfg.SMTPHost, auth, cfg.SMTPFrom, to, msg)
	}
	return smtp.SendMail(addr, auth, cfg.SMTPFrom, []string{to}, msg)
}

// buildMessage assembles headers and body with CRLF line endings. Non-ASCII
// header values are encoded per RFC 2047.
func buildMessage(from mail.Address, to, replyTo, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to)
	if replyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", replyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// sendWithStartTLS speaks SMTP over a plain dial upgraded via STARTTLS.
func sendWithStartTLS(addr, host string, auth smtp.Auth, from, to string, msg []byte) error {
	d := net.Dialer{Timeout: smtpDialTimeout}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(smtpSessionDeadline))

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailSender delivers a photo to the configured recipient.
type EmailSender interface {
	SendPhoto(ctx context.Context, image []byte, filename, subject string) error
}

// SMTPEmail implements EmailSender over plain SMTP with an attachment.
type SMTPEmail struct {
	host      string
	port      int
	username  string
	password  string
	recipient string
	send      func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPEmail creates an SMTP sender.
func NewSMTPEmail(host string, port int, username, password, recipient string) *SMTPEmail {
	return &SMTPEmail{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		recipient: recipient,
		send:      smtp.SendMail,
	}
}

// SendPhoto emails the image as a MIME attachment.
func (e *SMTPEmail) SendPhoto(_ context.Context, image []byte, filename, subject string) error {
	if e.host == "" || e.recipient == "" {
		return fmt.Errorf("email sender misconfigured")
	}

	const boundary = "photoclerk-attachment"

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.username)
	fmt.Fprintf(&msg, "To: %s\r\n", e.recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&msg, "%s\r\n\r\n", subject)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: image/png; name=%q\r\n", filename)
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&msg, "Content-Disposition: attachment; filename=%q\r\n\r\n", filename)

	encoded := base64.StdEncoding.EncodeToString(image)
	// RFC 2045 line-length limit.
	for len(encoded) > 76 {
		msg.WriteString(encoded[:76] + "\r\n")
		encoded = encoded[76:]
	}
	msg.WriteString(encoded + "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)
	if err := e.send(addr, auth, e.username, []string{e.recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

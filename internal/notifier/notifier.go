/**
 * @description
 * This file implements outbound delivery of verification codes. Delivery is
 * best-effort by contract: SendOTP never propagates transport errors to the
 * caller, it only reports whether the message went out. When SMTP credentials
 * are not configured the service degrades to a log-only notifier so the flow
 * stays completable through the operator side channel.
 */

package notifier

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
)

// Notifier delivers a verification code to a merchant out-of-band.
type Notifier interface {
	// SendOTP reports whether the code was delivered. It never returns an
	// error; failures are logged together with the code so an operator can
	// relay it.
	SendOTP(ctx context.Context, email, code string) bool
}

// SMTPConfig holds the credentials for the outbound mail account.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Configured reports whether enough settings are present to attempt delivery.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// New returns an SMTP-backed notifier when credentials are configured, and a
// log-only notifier otherwise.
func New(cfg SMTPConfig) Notifier {
	if !cfg.Configured() {
		log.Println("SMTP credentials not set; OTP delivery degraded to log-only mode")
		return &LogNotifier{}
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPNotifier{cfg: cfg}
}

// LogNotifier writes the code to the service log instead of sending it.
type LogNotifier struct{}

// SendOTP logs the code and always reports failed delivery.
func (n *LogNotifier) SendOTP(_ context.Context, email, code string) bool {
	log.Printf("[DEV MODE] OTP for %s: %s", email, code)
	return false
}

// SMTPNotifier sends the code by email through a plain-auth SMTP relay.
type SMTPNotifier struct {
	cfg SMTPConfig
}

// SendOTP attempts delivery and logs the code on failure.
func (n *SMTPNotifier) SendOTP(_ context.Context, email, code string) bool {
	addr := n.cfg.Host + ":" + n.cfg.Port
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)

	msg := []byte(fmt.Sprintf(
		"From: Productr Support <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: Login Verification Code\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"Your Verification Code is: %s\r\nValid for 10 minutes.\r\n",
		n.cfg.From, email, code))

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{email}, msg); err != nil {
		log.Printf("Failed to send OTP email to %s: %v. The code is %s", email, err, code)
		return false
	}

	log.Printf("OTP email sent to %s", email)
	return true
}

// Package notify sends booking emails and SMS. Everything here is
// fire-and-forget from the caller's perspective: failures are returned for
// logging but must never affect booking state.
package notify

import (
	"fmt"
	"net/smtp"
)

type EmailSender struct {
	host string
	port int
	from string
	auth smtp.Auth
}

func NewEmailSender(host string, port int, username, password, from string) *EmailSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &EmailSender{host: host, port: port, from: from, auth: auth}
}

func (e *EmailSender) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		e.from, to, subject, body)
	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	if err := smtp.SendMail(addr, e.auth, e.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

// BookingCreatedBody renders the confirmation email sent on booking creation.
func BookingCreatedBody(name string, fare float64, distanceMeters, durationSeconds float64) string {
	return fmt.Sprintf(
		"Hello %s,\n\nYour booking has been received.\n\nFare: %.0f\nDistance: %.1f km\nEstimated duration: %.0f min\n\nWe are finding you a driver.\n",
		name, fare, distanceMeters/1000, durationSeconds/60,
	)
}

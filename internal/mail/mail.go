package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

type Sender interface {
	Send(to, subject, html string) error
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(to, subject, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)
	return s.dialer.DialAndSend(m)
}

// ResetEmail wraps the reset link in the standard mail frame.
func ResetEmail(frontendURL, resetToken string) string {
	link := fmt.Sprintf("%s/reset?resetToken=%s", frontendURL, resetToken)
	return fmt.Sprintf(`
	<div style="border: 1px solid black; padding: 20px; font-family: sans-serif; line-height: 2; font-size: 20px;">
	  <h2>Hello!</h2>
	  <p>Your password reset token is here!</p>
	  <p><a href="%s">Click here to reset your password</a></p>
	</div>`, link)
}

package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"log"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"
)

// Client sends mail through an authenticated SMTP relay.
type Client struct {
	host      string
	port      int
	user      string
	password  string
	fromName  string
	fromEmail string
}

// NewClient parses the SMTP port and builds a client.
func NewClient(host, portStr, user, password, fromName, fromEmail string) (*Client, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP port: %w", err)
	}

	return &Client{
		host:      host,
		port:      port,
		user:      user,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}, nil
}

func (c *Client) buildMessage(to, subject, htmlBody string) (*mail.Msg, error) {
	m := mail.NewMsg()

	if err := m.From(fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail)); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	m.Subject(subject)
	m.SetBodyString(mail.TypeTextHTML, htmlBody)
	return m, nil
}

// SendEmail sends an HTML message to a single recipient.
func (c *Client) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	m, err := c.buildMessage(to, subject, htmlBody)
	if err != nil {
		return err
	}

	log.Printf("SMTP: connecting to %s:%d as user=%s", c.host, c.port, c.user)

	client, err := mail.NewClient(c.host,
		mail.WithPort(c.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.user),
		mail.WithPassword(c.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTLSConfig(&tls.Config{
			ServerName: c.host,
		}),
	)
	if err != nil {
		return fmt.Errorf("creating SMTP client (host=%s port=%d user=%s): %w", c.host, c.port, c.user, err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		// no credentials in the error
		return fmt.Errorf("sending mail (host=%s port=%d user=%s): %w", c.host, c.port, c.user, err)
	}

	return nil
}

// SyncAlerter mails an operator when a gallery change could not be
// persisted. It satisfies application.FailureReporter.
type SyncAlerter struct {
	client  *Client
	to      string
	timeout time.Duration
	send    func(ctx context.Context, to, subject, body string) error
}

func NewSyncAlerter(client *Client, to string) *SyncAlerter {
	return &SyncAlerter{
		client:  client,
		to:      to,
		timeout: 30 * time.Second,
		send:    client.SendEmail,
	}
}

// ReportSyncFailure logs the failure and sends the alert in the background
// so the gallery handler is not held up by SMTP.
func (a *SyncAlerter) ReportSyncFailure(_ context.Context, op string, err error) {
	log.Printf("gallery: %s not persisted: %v", op, err)

	subject, body := syncFailureMessage(op, err, time.Now())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if sendErr := a.send(ctx, a.to, subject, body); sendErr != nil {
			log.Printf("SMTP: alert for failed %s not sent: %v", op, sendErr)
		}
	}()
}

func syncFailureMessage(op string, err error, at time.Time) (string, string) {
	subject := fmt.Sprintf("Gallery %s not persisted", op)
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif;">
			<h2>Gallery sync failure</h2>
			<p>The gallery <strong>%s</strong> was applied but the image store rejected it.</p>
			<p>The change stays in effect and will be retried.</p>
			<pre style="background: #f5f5f5; padding: 10px;">%s</pre>
			<p style="color: #888;">%s</p>
		</div>
	`, html.EscapeString(op), html.EscapeString(err.Error()), at.Format("2006-01-02 15:04:05"))
	return subject, body
}

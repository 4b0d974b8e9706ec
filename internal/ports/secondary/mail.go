package secondary

// MailSender defines the secondary port for SMTP delivery.
type MailSender interface {
	// Send delivers one HTML message.
	Send(receivers []string, subject, body string) error

	// GetHost returns the SMTP host, used as a metrics label.
	GetHost() string
}

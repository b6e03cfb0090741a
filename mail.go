package scholarauth

import "github.com/DESMOND-77/scholarauth/internal/mailer"

// MailJob is a single outbound message request handed to the MailSender.
type MailJob = mailer.Job

// MailSender delivers challenge emails. Implementations must be safe for
// concurrent use by the mail dispatcher goroutine.
type MailSender = mailer.Sender

// Mail job kinds, mirrored so senders can switch on them without importing
// internal packages.
const (
	MailKindVerification  = mailer.KindVerification
	MailKindPasswordReset = mailer.KindPasswordReset
)

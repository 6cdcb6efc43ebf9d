package notification

import (
	"fmt"
	"log/slog"
)

// Sender dispatches a message to a contact address. Callers treat dispatch as
// fire-and-forget: a failed send is logged and never propagated into the
// state transition that triggered it.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// Message is a rendered notification ready for dispatch.
type Message struct {
	Subject  string
	HTMLBody string
}

// LogSender is the Sender used when no SMTP host is configured; it records
// the dispatch instead of delivering it.
type LogSender struct {
	Logger *slog.Logger
}

func (l *LogSender) Send(to, subject, htmlBody string) error {
	l.Logger.Info("mail dispatch skipped (smtp disabled)", "to", to, "subject", subject)
	return nil
}

// VerificationRequestMessage notifies an institution of a new pending request.
func VerificationRequestMessage(studentName, studentNumber, courseName string, graduationYear int, verificationURL, requesterMessage string) Message {
	if requesterMessage == "" {
		requesterMessage = "No message"
	}
	body := fmt.Sprintf(`A certificate verification request has been submitted.<br><br>
<b>Student:</b> %s<br>
<b>Student Number:</b> %s<br>
<b>Course:</b> %s<br>
<b>Year:</b> %d<br><br>
<a href="%s">Click here to verify</a><br><br>
<b>Message:</b><br>%s`,
		studentName, studentNumber, courseName, graduationYear, verificationURL, requesterMessage)

	return Message{
		Subject:  "Certificate Verification Request",
		HTMLBody: body,
	}
}

// VerificationReminderMessage nudges an institution about a pending request.
func VerificationReminderMessage(studentName, studentNumber, courseName string, graduationYear int, verificationURL string) Message {
	body := fmt.Sprintf(`<b>Reminder:</b> A certificate verification is still pending.<br><br>
<b>Student:</b> %s<br>
<b>Student Number:</b> %s<br>
<b>Course:</b> %s<br>
<b>Year:</b> %d<br><br>
<a href="%s">Click here to verify</a>`,
		studentName, studentNumber, courseName, graduationYear, verificationURL)

	return Message{
		Subject:  "Reminder: Certificate Verification Pending",
		HTMLBody: body,
	}
}

// InviteMessage carries the initial password-set link for a new account.
func InviteMessage(username, resetLink string) Message {
	body := fmt.Sprintf(`<p>Hello <b>%s</b>,</p>
<p>An account has been created for you.</p>
<p><a href="%s">Set your password</a></p>
<p>This link expires in 24 hours.</p>`, username, resetLink)

	return Message{
		Subject:  "You have been invited - Set your password",
		HTMLBody: body,
	}
}

// AdminResetMessage carries a forced password-reset link.
func AdminResetMessage(resetLink string) Message {
	body := fmt.Sprintf(`<p><a href="%s">Reset your password</a></p>
<p>This link expires in 1 hour.</p>`, resetLink)

	return Message{
		Subject:  "Password reset",
		HTMLBody: body,
	}
}

package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// Mailer is the out-of-band delivery collaborator. Template rendering
// and transport live outside this subsystem; the auth core only hands
// over a recipient, a subject, and a body.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer is the development implementation: it writes the message to
// the log instead of delivering it.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("outbound mail")
	return nil
}

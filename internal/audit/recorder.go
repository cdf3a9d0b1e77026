package audit

import (
	"context"

	"github.com/rs/zerolog"

	"shoplane/api/internal/repository"
)

// Recorder appends security events to the audit log and mirrors them to
// the structured log. Persistence failures are logged, never surfaced:
// an audit write must not fail the request that triggered it.
type Recorder struct {
	repo *repository.AuditRepository
	log  zerolog.Logger
}

func NewRecorder(repo *repository.AuditRepository, log zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, log: log}
}

type Event struct {
	UserID      string
	Type        EventType
	Description string
	IPAddress   string
	UserAgent   string
}

func (r *Recorder) Record(ctx context.Context, event Event) {
	if event.Description == "" {
		if info, ok := Catalog[event.Type]; ok {
			event.Description = info.Message
		}
	}

	r.log.Info().
		Str("event", string(event.Type)).
		Str("user_id", event.UserID).
		Str("ip", event.IPAddress).
		Msg(event.Description)

	if r.repo == nil {
		return
	}
	if err := r.repo.Append(ctx, repository.AuditEntry{
		UserID:      event.UserID,
		EventType:   string(event.Type),
		Description: event.Description,
		IPAddress:   event.IPAddress,
		UserAgent:   event.UserAgent,
	}); err != nil {
		r.log.Error().Err(err).Str("event", string(event.Type)).Msg("audit append failed")
	}
}

package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique id. KSUIDs are time-prefixed, so session
// and audit listings stay roughly chronological without an extra sort key.
func New() string {
	return ksuid.New().String()
}

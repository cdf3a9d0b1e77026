package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/audit"
)

type activityEntry struct {
	ID          string    `json:"id"`
	EventType   string    `json:"eventType"`
	Icon        string    `json:"icon"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AccountActivity renders the caller's audit trail, decorated with the
// catalog's display info per event type.
func (h HandlerSet) AccountActivity(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "INVALID_CREDENTIALS", "not signed in")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			respondError(c, "INVALID_REQUEST", "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	entries, err := h.auditLog.ListByUser(c.Request.Context(), user.ID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("list audit entries")
		respondInternal(c)
		return
	}

	resp := make([]activityEntry, 0, len(entries))
	for _, e := range entries {
		info := audit.Catalog[audit.EventType(e.EventType)]
		resp = append(resp, activityEntry{
			ID:          e.ID,
			EventType:   e.EventType,
			Icon:        info.Icon,
			Title:       info.Title,
			Description: e.Description,
			IPAddress:   e.IPAddress,
			CreatedAt:   e.CreatedAt,
		})
	}

	respondOK(c, "account activity", gin.H{"activity": resp})
}

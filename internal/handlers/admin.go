package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/models"
)

type setStatusRequest struct {
	Status models.AccountStatus `json:"status" binding:"required"`
	Reason string               `json:"reason"`
	// Duration bounds the restriction, e.g. "72h". Empty means indefinite.
	Duration string `json:"duration"`
}

// SetAccountStatus is the suspend/ban/reinstate mutation. The route is
// gated on the admin and staff roles before this handler runs.
func (h HandlerSet) SetAccountStatus(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		respondError(c, "INVALID_CREDENTIALS", "not signed in")
		return
	}

	userID := c.Param("id")
	if userID == "" {
		respondError(c, "INVALID_REQUEST", "user id required")
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "INVALID_REQUEST", err.Error())
		return
	}

	switch req.Status {
	case models.AccountStatusActive, models.AccountStatusSuspended, models.AccountStatusBanned, models.AccountStatusLocked:
	default:
		respondError(c, "INVALID_REQUEST", "unknown account status")
		return
	}

	var duration *time.Duration
	if req.Duration != "" {
		parsed, err := time.ParseDuration(req.Duration)
		if err != nil || parsed <= 0 {
			respondError(c, "INVALID_REQUEST", "invalid duration")
			return
		}
		duration = &parsed
	}

	if _, err := h.users.GetByID(c.Request.Context(), userID); err != nil {
		respondError(c, "USER_NOT_FOUND", "user not found")
		return
	}

	if err := h.auth.SetAccountStatus(c.Request.Context(), actor.ID, userID, req.Status, req.Reason, duration); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("set account status")
		respondInternal(c)
		return
	}

	respondOK(c, "account status updated", gin.H{
		"userId": userID,
		"status": req.Status,
	})
}

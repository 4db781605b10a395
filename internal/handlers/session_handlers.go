package handlers

import (
	"errors"
	"net/http"

	"pos_tables_backend/internal/middleware"
	"pos_tables_backend/internal/repositories"
	"pos_tables_backend/internal/services"
	"pos_tables_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SessionHandler opens and closes POS table screen sessions.
type SessionHandler struct {
	sessionService services.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(ss services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: ss}
}

// OpenSession loads the POS profile, starts a synchronizer and runs its initial load.
func (h *SessionHandler) OpenSession(c *gin.Context) {
	var req services.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "OpenSession: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	session, token, err := h.sessionService.Open(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "OpenSession: Error from sessionService.Open")
		switch {
		case errors.Is(err, services.ErrSessionValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		case errors.Is(err, repositories.ErrNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "POS profile not found.", err.Error()))
		case errors.Is(err, repositories.ErrGateway):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeUpstreamUnavailable, "Failed to load POS profile.", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to open session.", "Internal error"))
		}
		return
	}

	session.Sync.Bootstrap(c.Request.Context())

	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"session_id": session.ID,
		"profile":    session.Profile,
		"view":       session.Sync.Snapshot(),
	})
}

// CloseSession drops the session and everything cached under it.
func (h *SessionHandler) CloseSession(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Session not found or expired", ""))
		return
	}

	if err := h.sessionService.Close(c.Request.Context(), session.ID); err != nil {
		utils.LogError(err, "CloseSession: Error from sessionService.Close", map[string]interface{}{"session_id": session.ID})
		if errors.Is(err, services.ErrSessionNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Session not found or expired", err.Error()))
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to close session.", "Internal error"))
		return
	}
	c.Status(http.StatusNoContent)
}

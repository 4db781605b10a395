package handlers

import (
	"net/http"
	"strings"

	"pos_tables_backend/internal/middleware"
	"pos_tables_backend/internal/services"
	"pos_tables_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler drives a session's synchronizer and returns its view.
type TableHandler struct{}

// NewTableHandler creates a new TableHandler.
func NewTableHandler() *TableHandler {
	return &TableHandler{}
}

type loadRoomsRequest struct {
	Branch string `json:"branch"`
}

func sessionOrAbort(c *gin.Context) (*services.Session, bool) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Session not found or expired", ""))
	}
	return session, ok
}

func roomParam(c *gin.Context) (string, bool) {
	room := strings.TrimSpace(c.Param("room"))
	if room == "" {
		utils.RespondValidationFailed(c, "room is required")
		return "", false
	}
	return room, true
}

// GetView returns the current snapshot without touching the gateway.
func (h *TableHandler) GetView(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Sync.Snapshot())
}

// LoadRooms loads the branch's rooms and their open-table counts.
// The body is optional; the session's branch is used when none is given.
func (h *TableHandler) LoadRooms(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	var req loadRoomsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.LogError(err, "LoadRooms: Failed to bind JSON")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
			return
		}
	}
	branch := strings.TrimSpace(req.Branch)
	if branch == "" {
		branch = session.Branch
	}

	ctx := c.Request.Context()
	session.Sync.LoadRooms(ctx, branch)
	session.Sync.LoadRoomCounts(ctx, branch, session.Sync.Rooms())
	c.JSON(http.StatusOK, session.Sync.Snapshot())
}

// SelectRoom switches the displayed room; selecting the current room refreshes it.
func (h *TableHandler) SelectRoom(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	room, ok := roomParam(c)
	if !ok {
		return
	}
	session.Sync.SwitchRoom(c.Request.Context(), room)
	c.JSON(http.StatusOK, session.Sync.Snapshot())
}

// RefreshRoom refetches a room's tables, bypassing the cache.
func (h *TableHandler) RefreshRoom(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	room, ok := roomParam(c)
	if !ok {
		return
	}
	session.Sync.LoadTables(c.Request.Context(), room, false)
	c.JSON(http.StatusOK, session.Sync.Snapshot())
}

// RefreshRoomCount refetches one room's open-table count.
func (h *TableHandler) RefreshRoomCount(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	room, ok := roomParam(c)
	if !ok {
		return
	}
	session.Sync.RefreshRoomCount(c.Request.Context(), room)
	c.JSON(http.StatusOK, session.Sync.Snapshot())
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"pos_tables_backend/internal/services"
	"pos_tables_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const msgPrintFailed = "Failed to print order"

// PrintHandler prints the active order of a displayed table.
type PrintHandler struct {
	printService services.TablePrintService
}

// NewPrintHandler creates a new PrintHandler.
func NewPrintHandler(ps services.TablePrintService) *PrintHandler {
	return &PrintHandler{printService: ps}
}

// PrintTable runs the print flow for one table and returns the result with the refreshed view.
func (h *PrintHandler) PrintTable(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	tableName := strings.TrimSpace(c.Param("table"))
	if tableName == "" {
		utils.RespondValidationFailed(c, "table is required")
		return
	}

	result, err := h.printService.PrintTable(c.Request.Context(), session.Sync, session.Profile, tableName)
	if err != nil {
		utils.LogError(err, "PrintTable: Error from printService.PrintTable", map[string]interface{}{"table": tableName, "session_id": session.ID})
		utils.RespondWithError(c, printError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": result,
		"view":   session.Sync.Snapshot(),
	})
}

func printError(err error) *utils.APIError {
	switch {
	case errors.Is(err, services.ErrNoActiveOrder):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNoActiveOrder, "No active order found for this table", err.Error())
	case errors.Is(err, services.ErrPrintConfiguration):
		return utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodePrintConfiguration, err.Error(), "")
	case errors.Is(err, services.ErrPrintInProgress):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table is already printing", err.Error())
	case errors.Is(err, services.ErrProfileNotLoaded):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "POS profile not loaded yet", err.Error())
	case errors.Is(err, services.ErrTableNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table is not in the displayed room", err.Error())
	case errors.Is(err, services.ErrPrintExecution):
		message := msgPrintFailed
		var execErr *services.PrintExecutionError
		if errors.As(err, &execErr) && execErr.Err != nil && execErr.Err.Error() != "" {
			message = execErr.Err.Error()
		}
		return utils.NewAPIError(http.StatusBadGateway, utils.ErrCodePrintFailed, message, "")
	default:
		return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, msgPrintFailed, "Internal error")
	}
}

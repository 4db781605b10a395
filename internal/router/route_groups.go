package router

import (
	"pos_tables_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPublicSessionRoutes sets up the session opening route.
func SetupPublicSessionRoutes(group *gin.RouterGroup, sessionHandler *handlers.SessionHandler) {
	group.POST("/session", sessionHandler.OpenSession)
}

// SetupSessionRoutes sets up the session routes that need a token.
func SetupSessionRoutes(group *gin.RouterGroup, sessionHandler *handlers.SessionHandler) {
	group.DELETE("/session", sessionHandler.CloseSession)
}

// SetupTableRoutes sets up the table view routes.
func SetupTableRoutes(group *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	tableRoutes := group.Group("/tables")
	{
		tableRoutes.GET("/view", tableHandler.GetView)
	}
}

// SetupRoomRoutes sets up the room routes.
func SetupRoomRoutes(group *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	roomRoutes := group.Group("/rooms")
	{
		roomRoutes.POST("/load", tableHandler.LoadRooms)
		roomRoutes.POST("/:room/select", tableHandler.SelectRoom)
		roomRoutes.POST("/:room/refresh", tableHandler.RefreshRoom)
		roomRoutes.POST("/:room/count/refresh", tableHandler.RefreshRoomCount)
	}
}

// SetupPrintRoutes sets up the print routes.
func SetupPrintRoutes(group *gin.RouterGroup, printHandler *handlers.PrintHandler) {
	printRoutes := group.Group("/tables")
	{
		printRoutes.POST("/:table/print", printHandler.PrintTable)
	}
}

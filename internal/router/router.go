package router

import (
	"pos_tables_backend/internal/handlers"
	"pos_tables_backend/internal/middleware"
	"pos_tables_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Sessions      services.SessionService
	Printer       services.TablePrintService
	SessionSecret []byte
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	// Initialize Handlers
	sessionHandler := handlers.NewSessionHandler(deps.Sessions)
	tableHandler := handlers.NewTableHandler()
	printHandler := handlers.NewPrintHandler(deps.Printer)

	apiV1 := engine.Group("/api/v1")

	// Opening a session is the only route without a session token.
	SetupPublicSessionRoutes(apiV1, sessionHandler)

	withSession := apiV1.Group("")
	withSession.Use(middleware.SessionMiddleware(deps.SessionSecret, deps.Sessions))
	{
		SetupSessionRoutes(withSession, sessionHandler)
		SetupTableRoutes(withSession, tableHandler)
		SetupRoomRoutes(withSession, tableHandler)
		SetupPrintRoutes(withSession, printHandler)
	}
}

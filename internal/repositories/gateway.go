package repositories

import (
	"context"

	"pos_tables_backend/internal/models"
)

// Gateway is the remote source of truth for rooms, tables and invoices.
type Gateway interface {
	ListRooms(ctx context.Context, branch string) ([]models.Room, error)
	ListTables(ctx context.Context, room string) ([]models.Table, error)
	// CountTables counts the tables of a room; branch may be empty.
	CountTables(ctx context.Context, room, branch string) (int, error)
	// GetActiveOrder returns the open invoice of a table, or "" when there is none.
	GetActiveOrder(ctx context.Context, table string) (string, error)

	RenderOrder(ctx context.Context, orderID, format string) (*models.PrintDocument, error)
	SubmitToLocal(ctx context.Context, target string, doc *models.PrintDocument) error
	PrintToNetwork(ctx context.Context, orderID, printer, format string) error
	SelectNetworkPrinter(ctx context.Context, orderID, profileName, format string) error
	// MarkPrinted is expected to be idempotent on the server side.
	MarkPrinted(ctx context.Context, orderID string) error

	GetPrintProfile(ctx context.Context, name string) (*models.PrintProfile, error)
}

// LocalSubmitter delivers a rendered document to a printer on the venue network.
type LocalSubmitter interface {
	Submit(ctx context.Context, target string, doc *models.PrintDocument) error
}

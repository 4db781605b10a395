package services

import (
	"context"
	"fmt"

	"pos_tables_backend/internal/models"
	"pos_tables_backend/internal/repositories"
	"pos_tables_backend/pkg/utils"
)

// --- TablePrintService Interface ---
type TablePrintService interface {
	// PrintTable prints the open bill of a displayed table and, on success,
	// refreshes that room's tables and count from the gateway.
	PrintTable(ctx context.Context, sync TableSyncService, profile *models.PrintProfile, tableName string) (*models.PrintResult, error)
}

// --- tablePrintService Implementation ---
type tablePrintService struct {
	gateway repositories.Gateway
	printer PrintService
}

// NewTablePrintService creates a new instance of TablePrintService.
func NewTablePrintService(gw repositories.Gateway, ps PrintService) TablePrintService {
	return &tablePrintService{gateway: gw, printer: ps}
}

func (s *tablePrintService) PrintTable(ctx context.Context, sync TableSyncService, profile *models.PrintProfile, tableName string) (*models.PrintResult, error) {
	if profile == nil {
		return nil, ErrProfileNotLoaded
	}
	table, ok := sync.FindTable(tableName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}

	if !sync.BeginPrinting(table.Name) {
		return nil, fmt.Errorf("%w: %s", ErrPrintInProgress, table.Name)
	}
	defer sync.EndPrinting(table.Name)

	orderID, err := s.gateway.GetActiveOrder(ctx, table.Name)
	if err != nil {
		return nil, &PrintExecutionError{Step: "resolve order", Err: err}
	}
	if orderID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoActiveOrder, table.Name)
	}

	result, err := s.printer.DispatchPrint(ctx, orderID, profile)
	if err != nil {
		utils.LogError(err, "PrintTable: dispatch failed", map[string]interface{}{"table": table.Name, "order_id": orderID})
		return nil, err
	}

	room := table.RestaurantRoom
	if room == "" {
		room = sync.SelectedRoom()
	}
	sync.InvalidateTables(ctx, room)
	sync.LoadTables(ctx, room, false)
	sync.RefreshRoomCount(ctx, room)

	return result, nil
}

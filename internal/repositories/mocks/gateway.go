package mocks

import (
	"context"

	"pos_tables_backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// Gateway is a mock for repositories.Gateway.
type Gateway struct {
	mock.Mock
}

func (m *Gateway) ListRooms(ctx context.Context, branch string) ([]models.Room, error) {
	args := m.Called(ctx, branch)
	if rooms, ok := args.Get(0).([]models.Room); ok {
		return rooms, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Gateway) ListTables(ctx context.Context, room string) ([]models.Table, error) {
	args := m.Called(ctx, room)
	if tables, ok := args.Get(0).([]models.Table); ok {
		return tables, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Gateway) CountTables(ctx context.Context, room, branch string) (int, error) {
	args := m.Called(ctx, room, branch)
	return args.Int(0), args.Error(1)
}

func (m *Gateway) GetActiveOrder(ctx context.Context, table string) (string, error) {
	args := m.Called(ctx, table)
	return args.String(0), args.Error(1)
}

func (m *Gateway) RenderOrder(ctx context.Context, orderID, format string) (*models.PrintDocument, error) {
	args := m.Called(ctx, orderID, format)
	if doc, ok := args.Get(0).(*models.PrintDocument); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Gateway) SubmitToLocal(ctx context.Context, target string, doc *models.PrintDocument) error {
	args := m.Called(ctx, target, doc)
	return args.Error(0)
}

func (m *Gateway) PrintToNetwork(ctx context.Context, orderID, printer, format string) error {
	args := m.Called(ctx, orderID, printer, format)
	return args.Error(0)
}

func (m *Gateway) SelectNetworkPrinter(ctx context.Context, orderID, profileName, format string) error {
	args := m.Called(ctx, orderID, profileName, format)
	return args.Error(0)
}

func (m *Gateway) MarkPrinted(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *Gateway) GetPrintProfile(ctx context.Context, name string) (*models.PrintProfile, error) {
	args := m.Called(ctx, name)
	if profile, ok := args.Get(0).(*models.PrintProfile); ok {
		return profile, args.Error(1)
	}
	return nil, args.Error(1)
}

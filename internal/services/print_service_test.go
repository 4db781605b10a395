package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pos_tables_backend/internal/models"
	"pos_tables_backend/internal/repositories/mocks"
	"pos_tables_backend/internal/services"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPrinter(gw *mocks.Gateway) services.PrintService {
	return services.NewPrintService(gw, services.PrintServiceOptions{PrintViewBaseURL: "https://erp.example.com/"})
}

func TestDispatchPrint_NetworkDedicatedCashierPrintsDirectly(t *testing.T) {
	ctx := context.Background()
	gw := &mocks.Gateway{}
	gw.On("PrintToNetwork", mock.Anything, "INV-01", "Kitchen-1", "Bill").Return(nil).Once()
	gw.On("MarkPrinted", mock.Anything, "INV-01").Return(nil).Once()

	profile := &models.PrintProfile{Name: "Counter", PrintType: models.PrintTypeNetwork, Printer: "Kitchen-1", PrintFormat: "Bill", Cashier: "alice"}
	result, err := newPrinter(gw).DispatchPrint(ctx, "INV-01", profile)
	require.NoError(t, err)
	require.Equal(t, models.PrintChannelNetwork, result.Channel)

	gw.AssertExpectations(t)
	gw.AssertNotCalled(t, "SelectNetworkPrinter", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchPrint_NetworkSharedOrUnassignedUsesChooser(t *testing.T) {
	profiles := []*models.PrintProfile{
		{Name: "Counter", PrintType: models.PrintTypeNetwork, Printer: "P", PrintFormat: "Bill", Cashier: "alice", MultipleCashier: true},
		{Name: "Counter", PrintType: models.PrintTypeNetwork, Printer: "P", PrintFormat: "Bill"},
	}
	for _, profile := range profiles {
		gw := &mocks.Gateway{}
		gw.On("SelectNetworkPrinter", mock.Anything, "INV-02", "Counter", "Bill").Return(nil).Once()
		gw.On("MarkPrinted", mock.Anything, "INV-02").Return(nil).Once()

		result, err := newPrinter(gw).DispatchPrint(context.Background(), "INV-02", profile)
		require.NoError(t, err)
		require.Equal(t, models.PrintChannelNetwork, result.Channel)
		gw.AssertExpectations(t)
		gw.AssertNotCalled(t, "PrintToNetwork", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestDispatchPrint_DirectWithoutHostFailsBeforeRendering(t *testing.T) {
	gw := &mocks.Gateway{}
	profile := &models.PrintProfile{Name: "Counter", PrintType: models.PrintTypeQZ, PrintFormat: "Bill"}

	_, err := newPrinter(gw).DispatchPrint(context.Background(), "INV-01", profile)
	require.ErrorIs(t, err, services.ErrPrintConfiguration)
	gw.AssertNotCalled(t, "RenderOrder", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "MarkPrinted", mock.Anything, mock.Anything)
}

func TestDispatchPrint_DirectRendersSubmitsAndMarks(t *testing.T) {
	gw := &mocks.Gateway{}
	doc := &models.PrintDocument{OrderID: "INV-01", Format: "Bill", HTML: "<p>bill</p>"}
	gw.On("RenderOrder", mock.Anything, "INV-01", "Bill").Return(doc, nil).Once()
	gw.On("SubmitToLocal", mock.Anything, "192.168.1.20", doc).Return(nil).Once()
	gw.On("MarkPrinted", mock.Anything, "INV-01").Return(nil).Once()

	profile := &models.PrintProfile{Name: "Counter", PrintType: models.PrintTypeQZ, QZHost: "192.168.1.20", PrintFormat: "Bill"}
	result, err := newPrinter(gw).DispatchPrint(context.Background(), "INV-01", profile)
	require.NoError(t, err)
	require.Equal(t, models.PrintChannelDirect, result.Channel)
	gw.AssertExpectations(t)
}

func TestDispatchPrint_FallbackOpensPrintViewAndMarks(t *testing.T) {
	gw := &mocks.Gateway{}
	gw.On("MarkPrinted", mock.Anything, "INV 7").Return(nil).Once()

	profile := &models.PrintProfile{Name: "Counter", PrintType: "socket", PrintFormat: "POS Bill"}
	result, err := newPrinter(gw).DispatchPrint(context.Background(), "INV 7", profile)
	require.NoError(t, err)
	require.Equal(t, models.PrintChannelBrowserView, result.Channel)
	require.Equal(t,
		"https://erp.example.com/printview?doctype=POS+Invoice&name=INV+7&format=POS+Bill&no_letterhead=1&settings=%7B%7D&letterhead=No+Letterhead&trigger_print=1&_lang=en",
		result.PrintViewURL)
	gw.AssertExpectations(t)
}

func TestDispatchPrint_MarkFailureIsPrintExecutionError(t *testing.T) {
	gw := &mocks.Gateway{}
	gw.On("PrintToNetwork", mock.Anything, "INV-01", "P", "Bill").Return(nil).Once()
	gw.On("MarkPrinted", mock.Anything, "INV-01").Return(errors.New("status update rejected")).Once()

	profile := &models.PrintProfile{Name: "Counter", PrintType: models.PrintTypeNetwork, Printer: "P", PrintFormat: "Bill", Cashier: "alice"}
	_, err := newPrinter(gw).DispatchPrint(context.Background(), "INV-01", profile)
	require.ErrorIs(t, err, services.ErrPrintExecution)
	require.Equal(t, "status update rejected", err.Error())

	var execErr *services.PrintExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "mark printed", execErr.Step)
}

func TestDispatchPrint_RetriesOnlyTheMarkStep(t *testing.T) {
	gw := &mocks.Gateway{}
	gw.On("PrintToNetwork", mock.Anything, "INV-01", "P", "Bill").Return(nil).Once()
	gw.On("MarkPrinted", mock.Anything, "INV-01").Return(errors.New("blip")).Once()
	gw.On("MarkPrinted", mock.Anything, "INV-01").Return(nil).Once()

	printer := services.NewPrintService(gw, services.PrintServiceOptions{MarkAttempts: 3, MarkBackoff: time.Millisecond})
	profile := &models.PrintProfile{Name: "Counter", PrintType: models.PrintTypeNetwork, Printer: "P", PrintFormat: "Bill", Cashier: "alice"}

	_, err := printer.DispatchPrint(context.Background(), "INV-01", profile)
	require.NoError(t, err)
	gw.AssertNumberOfCalls(t, "PrintToNetwork", 1)
	gw.AssertNumberOfCalls(t, "MarkPrinted", 2)
}

func TestDispatchPrint_SubmitFailureSkipsMark(t *testing.T) {
	gw := &mocks.Gateway{}
	doc := &models.PrintDocument{OrderID: "INV-01", HTML: "x"}
	gw.On("RenderOrder", mock.Anything, "INV-01", "Bill").Return(doc, nil).Once()
	gw.On("SubmitToLocal", mock.Anything, "host", doc).Return(errors.New("agent offline")).Once()

	profile := &models.PrintProfile{PrintType: models.PrintTypeQZ, QZHost: "host", PrintFormat: "Bill"}
	_, err := newPrinter(gw).DispatchPrint(context.Background(), "INV-01", profile)
	require.ErrorIs(t, err, services.ErrPrintExecution)
	gw.AssertNotCalled(t, "MarkPrinted", mock.Anything, mock.Anything)
}

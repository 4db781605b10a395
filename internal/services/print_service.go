package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"pos_tables_backend/internal/models"
	"pos_tables_backend/internal/repositories"
	"pos_tables_backend/pkg/utils"
)

// printAction is one row of the dispatch decision table.
type printAction int

const (
	actionLocalDirect printAction = iota
	actionNetworkDirect
	actionNetworkChooser
	actionPrintView
)

// decidePrintAction maps channel x cashier sharing to an action.
func decidePrintAction(profile models.PrintProfile) printAction {
	switch profile.Channel() {
	case models.PrintChannelDirect:
		return actionLocalDirect
	case models.PrintChannelNetwork:
		if profile.DedicatedPrinter() {
			return actionNetworkDirect
		}
		return actionNetworkChooser
	default:
		return actionPrintView
	}
}

// --- PrintService Interface ---
type PrintService interface {
	// DispatchPrint delivers the order's bill through the profile's channel
	// and marks it printed. Calling it twice prints twice.
	DispatchPrint(ctx context.Context, orderID string, profile *models.PrintProfile) (*models.PrintResult, error)
}

// --- printService Implementation ---
type printService struct {
	gateway      repositories.Gateway
	printViewURL string
	markAttempts int
	markBackoff  time.Duration
}

// PrintServiceOptions tunes the dispatcher.
type PrintServiceOptions struct {
	// PrintViewBaseURL prefixes the browser print view link, e.g. the Frappe site URL.
	PrintViewBaseURL string
	// MarkAttempts bounds calls to MarkPrinted after a successful print (minimum 1).
	MarkAttempts int
	MarkBackoff  time.Duration
}

// NewPrintService creates a new instance of PrintService.
func NewPrintService(gw repositories.Gateway, opts PrintServiceOptions) PrintService {
	if opts.MarkAttempts < 1 {
		opts.MarkAttempts = 1
	}
	return &printService{
		gateway:      gw,
		printViewURL: strings.TrimRight(opts.PrintViewBaseURL, "/"),
		markAttempts: opts.MarkAttempts,
		markBackoff:  opts.MarkBackoff,
	}
}

func (s *printService) DispatchPrint(ctx context.Context, orderID string, profile *models.PrintProfile) (*models.PrintResult, error) {
	if profile == nil {
		return nil, ErrProfileNotLoaded
	}
	if utils.IsEmpty(orderID) {
		return nil, fmt.Errorf("%w: empty order id", ErrNoActiveOrder)
	}

	result := &models.PrintResult{OrderID: orderID}

	switch decidePrintAction(*profile) {
	case actionLocalDirect:
		if utils.IsEmpty(profile.QZHost) {
			return nil, fmt.Errorf("%w: local print host is not set on profile %s", ErrPrintConfiguration, profile.Name)
		}
		doc, err := s.gateway.RenderOrder(ctx, orderID, profile.PrintFormat)
		if err != nil {
			return nil, &PrintExecutionError{Step: "render", Err: err}
		}
		if err := s.gateway.SubmitToLocal(ctx, profile.QZHost, doc); err != nil {
			return nil, &PrintExecutionError{Step: "submit", Err: err}
		}
		result.Channel = models.PrintChannelDirect

	case actionNetworkDirect:
		if err := s.gateway.PrintToNetwork(ctx, orderID, profile.Printer, profile.PrintFormat); err != nil {
			return nil, &PrintExecutionError{Step: "submit", Err: err}
		}
		result.Channel = models.PrintChannelNetwork

	case actionNetworkChooser:
		if err := s.gateway.SelectNetworkPrinter(ctx, orderID, profile.Name, profile.PrintFormat); err != nil {
			return nil, &PrintExecutionError{Step: "choose printer", Err: err}
		}
		result.Channel = models.PrintChannelNetwork

	case actionPrintView:
		result.PrintViewURL = s.printViewLink(orderID, profile.PrintFormat)
		result.Channel = models.PrintChannelBrowserView
	}

	if err := s.markPrinted(ctx, orderID); err != nil {
		return nil, &PrintExecutionError{Step: "mark printed", Err: err}
	}

	utils.LogInfo("Order printed", map[string]interface{}{"order_id": orderID, "channel": string(result.Channel), "profile": profile.Name})
	return result, nil
}

// markPrinted retries only the idempotent status update, never the print itself.
func (s *printService) markPrinted(ctx context.Context, orderID string) error {
	var err error
	for attempt := 1; attempt <= s.markAttempts; attempt++ {
		if err = s.gateway.MarkPrinted(ctx, orderID); err == nil {
			return nil
		}
		utils.LogWarn("Marking order printed failed", map[string]interface{}{"order_id": orderID, "attempt": attempt, "error": err.Error()})
		if attempt < s.markAttempts && s.markBackoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.markBackoff):
			}
		}
	}
	return err
}

func (s *printService) printViewLink(orderID, format string) string {
	q := []string{
		"doctype=" + url.QueryEscape("POS Invoice"),
		"name=" + url.QueryEscape(orderID),
		"format=" + url.QueryEscape(format),
		"no_letterhead=1",
		"settings=" + url.QueryEscape("{}"),
		"letterhead=" + url.QueryEscape("No Letterhead"),
		"trigger_print=1",
		"_lang=en",
	}
	return s.printViewURL + "/printview?" + strings.Join(q, "&")
}

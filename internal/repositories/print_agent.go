package repositories

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"pos_tables_backend/internal/models"
	"pos_tables_backend/pkg/utils"

	"github.com/go-resty/resty/v2"
)

// AgentPrinter posts rendered HTML to a print agent running on the target
// host (the POS profile's qz_host), which owns the physical printer.
type AgentPrinter struct {
	client *resty.Client
	port   string
}

func NewAgentPrinter(port string, timeout time.Duration) *AgentPrinter {
	return &AgentPrinter{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		port: port,
	}
}

type agentJob struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Format string `json:"format,omitempty"`
	Data   string `json:"data"`
}

// agentURL accepts a bare host, host:port, or a full URL.
func (a *AgentPrinter) agentURL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return strings.TrimRight(target, "/") + "/print"
	}
	host := target
	if _, _, err := net.SplitHostPort(target); err != nil {
		host = net.JoinHostPort(target, a.port)
	}
	return "http://" + host + "/print"
}

func (a *AgentPrinter) Submit(ctx context.Context, target string, doc *models.PrintDocument) error {
	if target == "" {
		return fmt.Errorf("%w: empty target", ErrLocalPrinter)
	}
	html := doc.HTML
	if doc.Style != "" {
		html = "<style>" + doc.Style + "</style>" + html
	}

	endpoint := a.agentURL(target)
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(agentJob{Type: "html", Title: doc.OrderID, Format: doc.Format, Data: html}).
		Post(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLocalPrinter, endpoint, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s: %s", ErrLocalPrinter, endpoint, resp.Status())
	}
	utils.LogDebug("Submitted document to print agent", map[string]interface{}{"target": endpoint, "order_id": doc.OrderID})
	return nil
}

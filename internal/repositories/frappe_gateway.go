package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"pos_tables_backend/internal/models"
	"pos_tables_backend/pkg/utils"

	"github.com/go-resty/resty/v2"
)

const (
	doctypeRoom       = "URY Room"
	doctypeTable      = "URY Table"
	doctypePOSProfile = "POS Profile"
	doctypePOSInvoice = "POS Invoice"
)

// FrappeConfig configures the Frappe/URY gateway client.
type FrappeConfig struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Timeout    time.Duration
	RetryCount int
}

// frappeEnvelope covers both /api/method (message) and /api/resource (data) replies.
type frappeEnvelope struct {
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type frappeError struct {
	ExcType   string `json:"exc_type"`
	Exception string `json:"exception"`
	Message   string `json:"message"`
}

func (e *frappeError) text() string {
	switch {
	case e.Exception != "":
		return e.Exception
	case e.Message != "":
		return e.Message
	default:
		return e.ExcType
	}
}

// FrappeGateway talks to the URY app over the Frappe REST API.
type FrappeGateway struct {
	reads  *resty.Client
	writes *resty.Client
	local  LocalSubmitter
}

// NewFrappeGateway creates the client. Reads are retried; print and
// status writes are not, so a flaky network never prints a bill twice.
func NewFrappeGateway(cfg FrappeConfig, local LocalSubmitter) *FrappeGateway {
	newClient := func() *resty.Client {
		c := resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json")
		if cfg.APIKey != "" {
			c.SetHeader("Authorization", fmt.Sprintf("token %s:%s", cfg.APIKey, cfg.APISecret))
		}
		return c
	}

	reads := newClient().
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second)

	return &FrappeGateway{
		reads:  reads,
		writes: newClient(),
		local:  local,
	}
}

func (g *FrappeGateway) get(ctx context.Context, path string, params map[string]string) (*frappeEnvelope, error) {
	var env frappeEnvelope
	resp, err := g.reads.R().
		SetContext(ctx).
		SetQueryParams(params).
		ForceContentType("application/json").
		SetResult(&env).
		SetError(&frappeError{}).
		Get(path)
	return g.check(resp, err, &env, "GET "+path)
}

func (g *FrappeGateway) post(ctx context.Context, path string, body interface{}) (*frappeEnvelope, error) {
	var env frappeEnvelope
	resp, err := g.writes.R().
		SetContext(ctx).
		SetBody(body).
		ForceContentType("application/json").
		SetResult(&env).
		SetError(&frappeError{}).
		Post(path)
	return g.check(resp, err, &env, "POST "+path)
}

func (g *FrappeGateway) check(resp *resty.Response, err error, env *frappeEnvelope, call string) (*frappeEnvelope, error) {
	if err != nil {
		utils.LogError(err, "Gateway call failed", map[string]interface{}{"call": call})
		return nil, fmt.Errorf("%w: %s: %v", ErrGateway, call, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if fe, ok := resp.Error().(*frappeError); ok && fe.text() != "" {
			msg = fe.text()
		}
		utils.LogError(ErrGateway, "Gateway returned error", map[string]interface{}{"call": call, "status_code": resp.StatusCode(), "msg": msg})
		if resp.StatusCode() == 404 {
			return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, call, msg)
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrGateway, call, msg)
	}
	return env, nil
}

func resourcePath(doctype string) string {
	return "/api/resource/" + url.PathEscape(doctype)
}

func mustJSON(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func (g *FrappeGateway) ListRooms(ctx context.Context, branch string) ([]models.Room, error) {
	env, err := g.get(ctx, resourcePath(doctypeRoom), map[string]string{
		"fields":            mustJSON([]string{"name", "branch"}),
		"filters":           mustJSON([][]string{{"branch", "like", branch}}),
		"limit_page_length": "0",
	})
	if err != nil {
		return nil, err
	}
	var rooms []models.Room
	if err := decodeRaw(env.Data, &rooms); err != nil {
		return nil, fmt.Errorf("%w: decode rooms: %v", ErrGateway, err)
	}
	return rooms, nil
}

func (g *FrappeGateway) ListTables(ctx context.Context, room string) ([]models.Table, error) {
	env, err := g.get(ctx, "/api/method/ury.ury_pos.api.getTable", map[string]string{"room": room})
	if err != nil {
		return nil, err
	}
	var tables []models.Table
	if err := decodeRaw(env.Message, &tables); err != nil {
		return nil, fmt.Errorf("%w: decode tables: %v", ErrGateway, err)
	}
	return tables, nil
}

func (g *FrappeGateway) CountTables(ctx context.Context, room, branch string) (int, error) {
	filters := [][]string{{"restaurant_room", "=", room}}
	if branch != "" {
		filters = append(filters, []string{"branch", "=", branch})
	}
	env, err := g.get(ctx, resourcePath(doctypeTable), map[string]string{
		"fields":            mustJSON([]string{"count(name) as count"}),
		"filters":           mustJSON(filters),
		"limit_page_length": "1",
	})
	if err != nil {
		return 0, err
	}
	var rows []map[string]interface{}
	if err := decodeRaw(env.Data, &rows); err != nil {
		return 0, fmt.Errorf("%w: decode table count: %v", ErrGateway, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	count, err := utils.AnyToInt(rows[0]["count"])
	if err != nil {
		// A garbled aggregate counts as zero, the same as an empty result.
		utils.LogDebug("Unparseable table count", map[string]interface{}{"room": room, "error": err.Error()})
		return 0, nil
	}
	return count, nil
}

func (g *FrappeGateway) GetActiveOrder(ctx context.Context, table string) (string, error) {
	env, err := g.get(ctx, "/api/method/ury.ury_pos.api.getTableOrder", map[string]string{"table": table})
	if err != nil {
		return "", err
	}
	var order struct {
		Name string `json:"name"`
	}
	if err := decodeRaw(env.Message, &order); err != nil {
		return "", fmt.Errorf("%w: decode active order: %v", ErrGateway, err)
	}
	return order.Name, nil
}

func (g *FrappeGateway) RenderOrder(ctx context.Context, orderID, format string) (*models.PrintDocument, error) {
	env, err := g.get(ctx, "/api/method/frappe.www.printview.get_html_and_style", map[string]string{
		"doc":           doctypePOSInvoice,
		"name":          orderID,
		"print_format":  format,
		"no_letterhead": "1",
	})
	if err != nil {
		return nil, err
	}
	var rendered struct {
		HTML  string `json:"html"`
		Style string `json:"style"`
	}
	if err := decodeRaw(env.Message, &rendered); err != nil {
		return nil, fmt.Errorf("%w: decode print html: %v", ErrGateway, err)
	}
	if rendered.HTML == "" {
		return nil, fmt.Errorf("%w: empty print html for %s", ErrGateway, orderID)
	}
	return &models.PrintDocument{OrderID: orderID, Format: format, HTML: rendered.HTML, Style: rendered.Style}, nil
}

func (g *FrappeGateway) SubmitToLocal(ctx context.Context, target string, doc *models.PrintDocument) error {
	if g.local == nil {
		return fmt.Errorf("%w: no local print agent configured", ErrLocalPrinter)
	}
	return g.local.Submit(ctx, target, doc)
}

func (g *FrappeGateway) PrintToNetwork(ctx context.Context, orderID, printer, format string) error {
	_, err := g.post(ctx, "/api/method/ury.ury_pos.api.networkPrint", map[string]string{
		"invoice_id":   orderID,
		"printer":      printer,
		"print_format": format,
	})
	return err
}

func (g *FrappeGateway) SelectNetworkPrinter(ctx context.Context, orderID, profileName, format string) error {
	_, err := g.post(ctx, "/api/method/ury.ury_pos.api.selectNetworkPrinter", map[string]string{
		"invoice_id":   orderID,
		"pos_profile":  profileName,
		"print_format": format,
	})
	return err
}

func (g *FrappeGateway) MarkPrinted(ctx context.Context, orderID string) error {
	_, err := g.post(ctx, "/api/method/ury.ury_pos.api.updatePrintStatus", map[string]string{"invoice": orderID})
	return err
}

func (g *FrappeGateway) GetPrintProfile(ctx context.Context, name string) (*models.PrintProfile, error) {
	env, err := g.get(ctx, resourcePath(doctypePOSProfile)+"/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	var profile models.PrintProfile
	if err := decodeRaw(env.Data, &profile); err != nil {
		return nil, fmt.Errorf("%w: decode pos profile: %v", ErrGateway, err)
	}
	if profile.Name == "" {
		profile.Name = name
	}
	return &profile, nil
}

// decodeRaw treats a missing or null payload as the zero value.
func decodeRaw(raw json.RawMessage, dest interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

package models

// PrintType values as configured on the POS profile.
const (
	PrintTypeQZ      = "qz"
	PrintTypeNetwork = "network"
)

// PrintChannel is the delivery mechanism chosen for a bill.
type PrintChannel string

const (
	PrintChannelDirect      PrintChannel = "direct"
	PrintChannelNetwork     PrintChannel = "network"
	PrintChannelBrowserView PrintChannel = "browser-view"
)

// PrintProfile is the slice of the POS profile that drives printing.
type PrintProfile struct {
	Name            string `json:"name"`
	Branch          string `json:"branch"`
	PrintType       string `json:"print_type"`
	QZHost          string `json:"qz_host,omitempty"`
	PrintFormat     string `json:"print_format"`
	Printer         string `json:"printer,omitempty"`
	Cashier         string `json:"cashier,omitempty"`
	MultipleCashier Flag   `json:"multiple_cashier"`
}

// Channel resolves the configured print type to a delivery channel.
func (p PrintProfile) Channel() PrintChannel {
	switch p.PrintType {
	case PrintTypeQZ:
		return PrintChannelDirect
	case PrintTypeNetwork:
		return PrintChannelNetwork
	default:
		return PrintChannelBrowserView
	}
}

// DedicatedPrinter is true when one cashier owns the profile's printer.
func (p PrintProfile) DedicatedPrinter() bool {
	return p.Cashier != "" && !bool(p.MultipleCashier)
}

// PrintDocument is a rendered, print-ready invoice.
type PrintDocument struct {
	OrderID string `json:"order_id"`
	Format  string `json:"format"`
	HTML    string `json:"html"`
	Style   string `json:"style,omitempty"`
}

// PrintResult reports how a bill was delivered.
type PrintResult struct {
	Channel      PrintChannel `json:"channel"`
	OrderID      string       `json:"order_id"`
	PrintViewURL string       `json:"print_view_url,omitempty"`
}

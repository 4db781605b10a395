package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Room is a named seating area within a branch.
type Room struct {
	Name   string `json:"name"`
	Branch string `json:"branch"`
}

// TableShape is the closed set of shapes a table can be drawn with.
type TableShape string

const (
	TableShapeCircle    TableShape = "Circle"
	TableShapeSquare    TableShape = "Square"
	TableShapeRectangle TableShape = "Rectangle"
)

// Normalize maps empty or unknown shapes to Rectangle.
func (s TableShape) Normalize() TableShape {
	switch s {
	case TableShapeCircle, TableShapeSquare, TableShapeRectangle:
		return s
	default:
		return TableShapeRectangle
	}
}

// Flag decodes the 0/1 integers Frappe uses for check fields as well as plain booleans.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	switch strings.Trim(raw, `"`) {
	case "1", "true":
		*f = true
	case "0", "false", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", raw)
	}
	return nil
}

// Table is a bookable unit within a room.
type Table struct {
	Name              string     `json:"name"`
	RestaurantRoom    string     `json:"restaurant_room"`
	TableShape        TableShape `json:"table_shape"`
	NoOfSeats         *int       `json:"no_of_seats,omitempty"`
	Occupied          Flag       `json:"occupied"`
	IsTakeAway        Flag       `json:"is_take_away"`
	LatestInvoiceTime *string    `json:"latest_invoice_time"`
}

// UnmarshalJSON applies the default shape after decoding.
func (t *Table) UnmarshalJSON(data []byte) error {
	type plain Table
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Table(p)
	t.TableShape = t.TableShape.Normalize()
	return nil
}

// SortTables returns a copy of tables ordered by name.
func SortTables(tables []Table) []Table {
	sorted := make([]Table, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// RoomCounts maps room name to its table count.
type RoomCounts map[string]int

// Covers reports whether every room has an entry.
func (rc RoomCounts) Covers(rooms []Room) bool {
	for _, room := range rooms {
		if _, ok := rc[room.Name]; !ok {
			return false
		}
	}
	return true
}

// Clone copies the map so callers can merge without aliasing.
func (rc RoomCounts) Clone() RoomCounts {
	out := make(RoomCounts, len(rc)+1)
	for k, v := range rc {
		out[k] = v
	}
	return out
}

const NoBillActivityLabel = "No bill activity yet"

var (
	invoiceDateTimeLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999",
		"2006-01-02 15:04",
	}
	timeOnlyRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})(?:\.(\d+))?$`)
)

// FormatInvoiceTime renders the latest invoice timestamp as HH:MM.
// Full datetimes and bare time-of-day strings are both accepted; anything
// else is returned unchanged.
func FormatInvoiceTime(timestamp *string) string {
	if timestamp == nil || strings.TrimSpace(*timestamp) == "" {
		return NoBillActivityLabel
	}
	ts := strings.TrimSpace(*timestamp)

	for _, layout := range invoiceDateTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, ts, time.Local); err == nil {
			return parsed.In(time.Local).Format("15:04")
		}
	}

	if m := timeOnlyRegex.FindStringSubmatch(ts); m != nil {
		hours, minutes := m[1], m[2]
		if len(hours) == 1 {
			hours = "0" + hours
		}
		return hours + ":" + minutes
	}

	return ts
}

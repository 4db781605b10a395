package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AnyToInt converts a decoded JSON value (number, numeric string, bool or nil) to an int.
// Frappe returns aggregate columns such as count(name) either as a number or as a string.
func AnyToInt(v interface{}) (int, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int(val), nil
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			f, ferr := val.Float64()
			if ferr != nil {
				return 0, fmt.Errorf("invalid number %q: %w", val.String(), err)
			}
			return int(f), nil
		}
		return int(n), nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, nil
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid numeric string %q: %w", val, err)
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

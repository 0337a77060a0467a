package dispatch

import (
	"strconv"
	"strings"
)

// Params is the open parameter map callers pass with an action. Recognised
// keys vary per action; the getters tolerate missing keys and the loose
// typing of values decoded from JSON.
type Params map[string]interface{}

// String returns the named parameter as a trimmed string; empty when absent
func (p Params) String(key string) string {
	value, ok := p[key]
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// Int returns the named parameter as an int, falling back to def when the
// key is absent or not numeric. JSON decoding delivers numbers as float64.
func (p Params) Int(key string, def int) int {
	value, ok := p[key]
	if !ok {
		return def
	}
	switch v := value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Page returns the requested page number, floored at 1
func (p Params) Page() int {
	page := p.Int("page", 1)
	if page < 1 {
		return 1
	}
	return page
}

// Window returns the caller's raw date range; either side may be empty
func (p Params) Window() (from, to string) {
	return p.String("date_from"), p.String("date_to")
}

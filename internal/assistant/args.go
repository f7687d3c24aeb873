package assistant

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

type args map[string]interface{}

func argsOf(req mcp.CallToolRequest) args {
	m, _ := req.Params.Arguments.(map[string]interface{})
	return args(m)
}

func (a args) str(key string) string {
	switch v := a[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func (a args) required(key string) (string, error) {
	v := a.str(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// integer accepts JSON numbers and numeric strings; models send both.
func (a args) integer(key string) (int, error) {
	switch v := a[key].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	}
	return 0, fmt.Errorf("%s must be a whole number", key)
}

// number rejects NaN and infinities, which ParseFloat accepts as words.
func (a args) number(key string) (float64, error) {
	var (
		f   float64
		err error
	)
	switch v := a[key].(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		err = fmt.Errorf("%s is not a number", key)
	}
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = fmt.Errorf("%s is not a number", key)
	}
	return f, err
}

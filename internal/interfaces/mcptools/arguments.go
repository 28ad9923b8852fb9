package mcptools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cast"
)

// extractArguments decodes the raw tool arguments. Absent or null arguments
// yield an empty map.
func extractArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	if req == nil || req.Params == nil {
		return map[string]any{}, nil
	}

	raw := req.Params.Arguments
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// present reports whether key carries a usable value. Null and blank strings
// count as absent so the default applies.
func present(args map[string]any, key string) (any, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func stringArg(args map[string]any, key, def string) (string, error) {
	v, ok := present(args, key)
	if !ok {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%s must be a string: %w", key, err)
	}
	return strings.TrimSpace(s), nil
}

func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := present(args, key)
	if !ok {
		return def, nil
	}
	if s, ok := v.(string); ok {
		v = trimLeadingZeros(strings.TrimSpace(s))
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %v", key, args[key])
	}
	return n, nil
}

func boolArg(args map[string]any, key string, def bool) (bool, error) {
	v, ok := present(args, key)
	if !ok {
		return def, nil
	}
	switch t := v.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "y", "on":
			return true, nil
		case "no", "n", "off":
			return false, nil
		}
	case float64:
		return t != 0, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %v", key, args[key])
	}
	return b, nil
}

// trimLeadingZeros keeps "080" from being read as an octal literal.
func trimLeadingZeros(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" || trimmed[0] == '.' {
		trimmed = "0" + trimmed
	}
	return sign + trimmed
}

package generate

import (
	"strings"
)

// DefaultKeyPrefix is the prefix every DeepSeek and OpenAI key carries.
const DefaultKeyPrefix = "sk-"

// NormalizeAPIKey trims the key and drops every character outside
// [A-Za-z0-9_-]. Keys pasted from chat apps often carry invisible
// characters.
func NormalizeAPIKey(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(raw))
}

// validateKey returns the normalized key or a ConfigError.
func validateKey(raw, prefix string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", &ConfigError{Reason: "API key is not set (DEEPSEEK_API_KEY or LLM_API_KEY)"}
	}
	key := NormalizeAPIKey(raw)
	if key == "" || !strings.HasPrefix(key, prefix) {
		return "", &ConfigError{Reason: "API key format is invalid, expected prefix " + prefix}
	}
	return key, nil
}

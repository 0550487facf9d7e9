package event

import "strings"

// RedactionMarker replaces the value of any sensitive key before the
// event is persisted or forwarded.
const RedactionMarker = "[REDACTED]"

// sensitiveKeys are matched case-insensitively at any nesting depth.
var sensitiveKeys = map[string]struct{}{
	"password": {},
	"token":    {},
}

// Redact walks the decoded JSON tree and replaces the value of every
// sensitive key with RedactionMarker. Objects are rebuilt key by key,
// sequences element by element (order and length preserved), scalars pass
// through unchanged. Redacting an already-redacted tree is a no-op.
func Redact(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			if _, sensitive := sensitiveKeys[strings.ToLower(key)]; sensitive {
				out[key] = RedactionMarker
				continue
			}
			out[key] = Redact(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = Redact(el)
		}
		return out
	default:
		return value
	}
}

// Package domain contains entity without logic, just meta-data
package domain

type (
	UserID string
	Role   string
)

// Metadata is an opaque caller-supplied bag. The relay never interprets it.
type Metadata map[string]any

// Clone returns a deep copy of the nested objects and arrays, so snapshots
// never alias a live record.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Metadata(t).Clone())
	case Metadata:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

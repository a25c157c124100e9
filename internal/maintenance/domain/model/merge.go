package model

// Merge semantics shared by every store backend:
//   - a non-empty nested object merges key by key into a stored object;
//   - anything else replaces the stored value, including an empty object
//     and an object written over a stored scalar;
//   - keys are literal field names, a "." inside a key is not a path.

// MergeFields applies fields to doc in place and returns doc. A nil doc is
// allocated. Values taken from fields are deep-copied.
func MergeFields(doc, fields map[string]interface{}) map[string]interface{} {
	if doc == nil {
		doc = make(map[string]interface{}, len(fields))
	}
	for k, v := range fields {
		nested, isMap := v.(map[string]interface{})
		existing, wasMap := doc[k].(map[string]interface{})
		if isMap && wasMap && len(nested) > 0 {
			doc[k] = MergeFields(existing, nested)
			continue
		}
		doc[k] = CopyValue(v)
	}
	return doc
}

// LeafPaths lists the field paths a merge of fields writes: one path per
// scalar, array or empty object, descending into non-empty objects.
func LeafPaths(fields map[string]interface{}) [][]string {
	var paths [][]string
	var walk func(prefix []string, m map[string]interface{})
	walk = func(prefix []string, m map[string]interface{}) {
		for k, v := range m {
			path := append(append(make([]string, 0, len(prefix)+1), prefix...), k)
			if nested, ok := v.(map[string]interface{}); ok && len(nested) > 0 {
				walk(path, nested)
				continue
			}
			paths = append(paths, path)
		}
	}
	walk(nil, fields)
	return paths
}

// CopyValue deep-copies objects and arrays; other values are returned as is.
func CopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = CopyValue(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = CopyValue(e)
		}
		return out
	default:
		return v
	}
}

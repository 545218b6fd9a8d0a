package config

// Merge deep-merges an override mapping onto a base mapping and returns a
// new mapping; neither input is modified. Keys absent from the override keep
// their base value, nested mappings merge recursively, and on conflicts the
// override value wins, including an explicit null that clears an optional
// key. Merge itself accepts any keys; validation of the merged document
// happens in FromMap, so unknown override keys still fail.
func Merge(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(override))
	for key, value := range base {
		merged[key] = cloneValue(value)
	}
	for key, value := range override {
		baseMap, baseOK := merged[key].(map[string]any)
		overrideMap, overrideOK := value.(map[string]any)
		if baseOK && overrideOK {
			merged[key] = Merge(baseMap, overrideMap)
			continue
		}
		merged[key] = cloneValue(value)
	}
	return merged
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(v))
		for key, item := range v {
			clone[key] = cloneValue(item)
		}
		return clone
	case []any:
		clone := make([]any, len(v))
		for i, item := range v {
			clone[i] = cloneValue(item)
		}
		return clone
	default:
		return v
	}
}

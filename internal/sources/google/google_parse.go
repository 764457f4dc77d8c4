package google

import (
	"fmt"
	"strings"

	"panel/internal/records"
)

// rowsToCollection converts a values matrix whose first row holds the
// column headers into raw records. Dotted headers such as "category.name"
// become nested objects. Empty cells are left out and blank rows skipped.
func rowsToCollection(values [][]interface{}) records.Collection {
	out := records.Collection{}
	if len(values) == 0 {
		return out
	}
	headers := toStrings(values[0])
	for _, row := range values[1:] {
		r := records.Raw{}
		for i, cell := range row {
			key := safeGet(headers, i)
			if key == "" || isBlank(cell) {
				continue
			}
			setPath(r, strings.Split(key, "."), cell)
		}
		if len(r) > 0 {
			out = append(out, r)
		}
	}
	return out
}

func setPath(r records.Raw, path []string, v any) {
	cur := map[string]any(r)
	for _, k := range path[:len(path)-1] {
		next, ok := cur[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[k] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = v
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

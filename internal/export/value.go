package export

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// FormatValue renders a column value as text. nil and nil pointers are
// empty, times are RFC 3339 in UTC.
func FormatValue(value any) string {
	value = deref(value)

	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.IsZero() {
			return ""
		}

		return v.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case []byte:
		return string(v)
	case []string, map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// cellValue keeps numbers, booleans and times typed for spreadsheets.
func cellValue(value any) any {
	value = deref(value)

	switch v := value.(type) {
	case nil:
		return ""
	case int, int32, int64, uint, uint32, uint64, float32, float64, bool:
		return v
	case time.Time:
		if v.IsZero() {
			return ""
		}

		return v.UTC()
	default:
		return FormatValue(v)
	}
}

func deref(value any) any {
	if value == nil {
		return nil
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}

		rv = rv.Elem()
	}

	return rv.Interface()
}

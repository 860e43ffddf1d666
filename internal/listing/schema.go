package listing

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// FieldKind selects how a field is compared and rendered.
type FieldKind int

const (
	// KindString compares case-insensitively.
	KindString FieldKind = iota
	// KindNumber compares numerically.
	KindNumber
	// KindTime compares by parsed timestamp.
	KindTime
	// KindBool orders false before true.
	KindBool
)

// MatchMode selects how a filter value is matched against a field.
type MatchMode int

const (
	// MatchExact is a case-insensitive equality test.
	MatchExact MatchMode = iota
	// MatchContains is a case-insensitive substring test.
	MatchContains
)

// Field describes one sortable, filterable or searchable value of a row.
type Field[T any] struct {
	Name  string
	Kind  FieldKind
	Match MatchMode
	Value func(T) any
}

// Capabilities lists what the backend does itself. Anything else is done
// locally over the fetched rows.
type Capabilities struct {
	Search  bool
	Paging  bool
	Sort    []string
	Filters []string
}

func (c Capabilities) sorts(key string) bool   { return slices.Contains(c.Sort, key) }
func (c Capabilities) filters(key string) bool { return slices.Contains(c.Filters, key) }

// Schema describes a row type to the local transformer.
type Schema[T any] struct {
	Fields       []Field[T]
	SearchFields []string
	DefaultSort  Sort
	Remote       Capabilities
}

// Field returns the named field.
func (s Schema[T]) Field(name string) (Field[T], bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field[T]{}, false
}

// FilterKeys lists the field names usable as filters, in schema order.
func (s Schema[T]) FilterKeys() []string {
	keys := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		keys = append(keys, f.Name)
	}

	return keys
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// present unwraps pointers and reports whether v holds a value. nil, nil
// pointers and blank strings are absent.
func present(v any) (any, bool) {
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}

		rv = rv.Elem()
	}

	v = rv.Interface()

	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, false
	}

	if t, ok := v.(time.Time); ok && t.IsZero() {
		return nil, false
	}

	return v, true
}

// Text renders a field value the way search and export see it.
func Text(v any) string {
	v, ok := present(v)
	if !ok {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprint(val)
	}
}

func asTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

func asNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)

		return f, err == nil
	}

	return 0, false
}

// sortValue converts a field value into a comparable key. ok is false for
// absent or unparseable values, which sort last.
func sortValue(kind FieldKind, raw any) (any, bool) {
	v, ok := present(raw)
	if !ok {
		return nil, false
	}

	switch kind {
	case KindNumber:
		return asNumber(v)
	case KindTime:
		return asTime(v)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			parsed, err := strconv.ParseBool(Text(v))

			return parsed, err == nil
		}

		return b, true
	default:
		return strings.ToLower(Text(v)), true
	}
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case float64:
		y, _ := b.(float64)

		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	case time.Time:
		y, _ := b.(time.Time)

		return x.Compare(y)
	case bool:
		y, _ := b.(bool)

		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case string:
		y, _ := b.(string)

		return strings.Compare(x, y)
	default:
		return 0
	}
}
